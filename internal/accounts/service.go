// Package accounts registers user accounts. Other packages attach their own
// per-account rows through post-register hooks that share the transaction.
package accounts

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/postgres"
)

// PostRegisterHook runs inside the registration transaction after the
// account row exists. An error aborts the registration.
type PostRegisterHook func(ctx context.Context, tx postgres.DBTX, account *domain.Account) error

type Store interface {
	Insert(ctx context.Context, tx postgres.DBTX, a *domain.Account) error
}

type Transactor interface {
	InTx(ctx context.Context, fn func(tx postgres.DBTX) error) error
}

type Service struct {
	store  Store
	tx     Transactor
	hooks  []PostRegisterHook
	logger *slog.Logger
}

func NewService(store Store, tx Transactor, logger *slog.Logger, hooks ...PostRegisterHook) *Service {
	return &Service{store: store, tx: tx, hooks: hooks, logger: logger}
}

type RegisterInput struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	// Staff is never read from request bodies; only trusted tooling sets it.
	Staff bool `json:"-"`
}

func (in RegisterInput) validate() error {
	if in.Username == "" || len(in.Username) > 150 {
		return domain.InvalidArgument("username must be 1 to 150 characters")
	}
	for _, r := range in.Username {
		if !validUsernameRune(r) {
			return domain.InvalidArgument("username may contain only letters, digits and @.+-_")
		}
	}

	addr, err := mail.ParseAddress(in.Email)
	if err != nil || addr.Address != in.Email || len(in.Email) > 254 {
		return domain.InvalidArgument("invalid email %q", in.Email)
	}

	if len(in.Password) < auth.MinPasswordLength {
		return domain.InvalidArgument("password must be at least %d characters", auth.MinPasswordLength)
	}
	if len(in.Password) > auth.MaxPasswordLength {
		return domain.InvalidArgument("password must be at most %d bytes", auth.MaxPasswordLength)
	}
	if len(in.FirstName) > 150 || len(in.LastName) > 150 {
		return domain.InvalidArgument("names must be at most 150 characters")
	}
	return nil
}

func validUsernameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("@.+-_", r)
}

// Register creates the account and runs every post-register hook in the
// same transaction.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.Account, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := in.validate(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	account := &domain.Account{
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		IsStaff:      in.Staff,
		PasswordHash: hash,
	}

	err = s.tx.InTx(ctx, func(tx postgres.DBTX) error {
		if err := s.store.Insert(ctx, tx, account); err != nil {
			return err
		}
		for _, hook := range s.hooks {
			if err := hook(ctx, tx, account); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("account registered", "user_id", account.ID, "username", account.Username)
	return account, nil
}
