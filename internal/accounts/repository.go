package accounts

import (
	"context"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/postgres"
)

const (
	emailKey    = "accounts_email_key"
	usernameKey = "accounts_username_key"
)

type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

// Insert stores a and fills in its id and creation time.
func (r *Repository) Insert(ctx context.Context, tx postgres.DBTX, a *domain.Account) error {
	err := tx.QueryRowContext(ctx, `
		INSERT INTO accounts (username, email, password_hash, first_name, last_name, is_staff)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		a.Username, a.Email, a.PasswordHash, a.FirstName, a.LastName, a.IsStaff,
	).Scan(&a.ID, &a.CreatedAt)
	switch {
	case postgres.IsConstraint(err, emailKey):
		return domain.Conflict("email %s is already registered", a.Email)
	case postgres.IsConstraint(err, usernameKey):
		return domain.Conflict("username %s is taken", a.Username)
	}
	return postgres.Translate(err, "insert account")
}
