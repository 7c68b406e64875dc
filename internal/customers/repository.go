package customers

import (
	"context"
	"database/sql"
	"errors"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/postgres"
)

const customerSelect = `
	SELECT c.id, c.user_id, a.email, c.phone, c.birthday, c.membership
	FROM customers c
	JOIN accounts a ON a.id = c.user_id`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (*domain.Customer, error) {
	var (
		c        domain.Customer
		birthday sql.NullTime
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.Email, &c.Phone, &birthday, &c.Membership); err != nil {
		return nil, err
	}
	if birthday.Valid {
		c.Birthday = &birthday.Time
	}
	return &c, nil
}

// CreateForAccount inserts the bronze customer profile of a freshly
// registered account. It runs inside the registration transaction.
func (r *Repository) CreateForAccount(ctx context.Context, tx postgres.DBTX, account *domain.Account) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO customers (user_id, membership) VALUES ($1, $2)`,
		account.ID, domain.MembershipBronze,
	)
	return postgres.Translate(err, "insert customer")
}

func (r *Repository) GetByUserID(ctx context.Context, userID int64) (*domain.Customer, error) {
	c, err := scanCustomer(r.db.QueryRowContext(ctx, customerSelect+` WHERE c.user_id = $1`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("no customer profile for user %d", userID)
	}
	if err != nil {
		return nil, postgres.Translate(err, "get customer")
	}
	return c, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*domain.Customer, error) {
	c, err := scanCustomer(r.db.QueryRowContext(ctx, customerSelect+` WHERE c.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("customer %d not found", id)
	}
	if err != nil {
		return nil, postgres.Translate(err, "get customer")
	}
	return c, nil
}

func (r *Repository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, postgres.Translate(err, "check customer")
	}
	return exists, nil
}

func (r *Repository) List(ctx context.Context) ([]domain.Customer, error) {
	rows, err := r.db.QueryContext(ctx, customerSelect+` ORDER BY c.id`)
	if err != nil {
		return nil, postgres.Translate(err, "list customers")
	}
	defer func() { _ = rows.Close() }()

	customers := []domain.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, postgres.Translate(err, "scan customer")
		}
		customers = append(customers, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Translate(err, "iterate customers")
	}
	return customers, nil
}

// UpdateProfile writes phone and birthday of the customer with c.ID.
func (r *Repository) UpdateProfile(ctx context.Context, c *domain.Customer) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE customers SET phone = $1, birthday = $2 WHERE id = $3`,
		c.Phone, c.Birthday, c.ID,
	)
	if err != nil {
		return postgres.Translate(err, "update customer")
	}
	if n, err := res.RowsAffected(); err != nil {
		return postgres.Translate(err, "update customer")
	} else if n == 0 {
		return domain.NotFound("customer %d not found", c.ID)
	}
	return nil
}

func (r *Repository) SetMembership(ctx context.Context, id int64, m domain.Membership) error {
	res, err := r.db.ExecContext(ctx, `UPDATE customers SET membership = $1 WHERE id = $2`, m, id)
	if err != nil {
		return postgres.Translate(err, "set membership")
	}
	if n, err := res.RowsAffected(); err != nil {
		return postgres.Translate(err, "set membership")
	} else if n == 0 {
		return domain.NotFound("customer %d not found", id)
	}
	return nil
}

func (r *Repository) ListAddresses(ctx context.Context, customerID int64) ([]domain.Address, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, customer_id, street, city
		FROM addresses
		WHERE customer_id = $1
		ORDER BY id`, customerID)
	if err != nil {
		return nil, postgres.Translate(err, "list addresses")
	}
	defer func() { _ = rows.Close() }()

	addresses := []domain.Address{}
	for rows.Next() {
		var a domain.Address
		if err := rows.Scan(&a.ID, &a.CustomerID, &a.Street, &a.City); err != nil {
			return nil, postgres.Translate(err, "scan address")
		}
		addresses = append(addresses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Translate(err, "iterate addresses")
	}
	return addresses, nil
}

func (r *Repository) AddAddress(ctx context.Context, a *domain.Address) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO addresses (customer_id, street, city) VALUES ($1, $2, $3) RETURNING id`,
		a.CustomerID, a.Street, a.City,
	).Scan(&a.ID)
	return postgres.Translate(err, "insert address")
}
