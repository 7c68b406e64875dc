package accounts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/postgres"
)

// memStore stages inserts per transaction and keeps them only on commit.
type memStore struct {
	committed []domain.Account
	staged    []domain.Account
}

func (m *memStore) Insert(_ context.Context, _ postgres.DBTX, a *domain.Account) error {
	for _, existing := range append(m.committed, m.staged...) {
		if existing.Email == a.Email {
			return domain.Conflict("email %s is already registered", a.Email)
		}
		if existing.Username == a.Username {
			return domain.Conflict("username %s is taken", a.Username)
		}
	}
	a.ID = int64(len(m.committed) + len(m.staged) + 1)
	a.CreatedAt = time.Now()
	m.staged = append(m.staged, *a)
	return nil
}

func (m *memStore) InTx(_ context.Context, fn func(tx postgres.DBTX) error) error {
	m.staged = nil
	if err := fn(nil); err != nil {
		m.staged = nil
		return err
	}
	m.committed = append(m.committed, m.staged...)
	m.staged = nil
	return nil
}

func newTestService(hooks ...PostRegisterHook) (*Service, *memStore) {
	store := &memStore{}
	return NewService(store, store, slog.New(slog.NewTextHandler(io.Discard, nil)), hooks...), store
}

func validInput() RegisterInput {
	return RegisterInput{Username: "ana", Email: "Ana@Example.com", Password: "s3cret-pass", FirstName: "Ana"}
}

func TestService_Register(t *testing.T) {
	var hooked []int64
	svc, store := newTestService(func(_ context.Context, _ postgres.DBTX, a *domain.Account) error {
		hooked = append(hooked, a.ID)
		return nil
	})

	account, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	assert.Equal(t, "ana@example.com", account.Email)
	assert.Equal(t, []int64{account.ID}, hooked)
	require.Len(t, store.committed, 1)
	assert.NoError(t, bcrypt.CompareHashAndPassword(account.PasswordHash, []byte("s3cret-pass")))
	assert.NotContains(t, string(account.PasswordHash), "s3cret-pass")
}

func TestService_Register_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{"empty username", func(in *RegisterInput) { in.Username = " " }},
		{"username with spaces", func(in *RegisterInput) { in.Username = "ana maria" }},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }},
		{"display-name email", func(in *RegisterInput) { in.Email = "Ana <ana@example.com>" }},
		{"short password", func(in *RegisterInput) { in.Password = "1234567" }},
		{"long password", func(in *RegisterInput) { in.Password = strings.Repeat("x", 73) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService()
			in := validInput()
			tt.mutate(&in)

			_, err := svc.Register(context.Background(), in)
			require.ErrorIs(t, err, domain.ErrInvalidArgument)
			assert.Empty(t, store.committed)
		})
	}
}

func TestService_Register_Duplicate(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	_, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	in := validInput()
	in.Username = "ana2"
	_, err = svc.Register(ctx, in)
	require.ErrorIs(t, err, domain.ErrConflict)

	in = validInput()
	in.Email = "other@example.com"
	_, err = svc.Register(ctx, in)
	require.ErrorIs(t, err, domain.ErrConflict)

	assert.Len(t, store.committed, 1)
}

func TestService_Register_HookFailureRollsBack(t *testing.T) {
	svc, store := newTestService(func(context.Context, postgres.DBTX, *domain.Account) error {
		return errors.New("customer insert failed")
	})

	_, err := svc.Register(context.Background(), validInput())

	require.Error(t, err)
	assert.Empty(t, store.committed)
}

func TestHandler_Register(t *testing.T) {
	svc, _ := newTestService()
	h := NewHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	body := `{"username":"ana","email":"ana@example.com","password":"s3cret-pass"}`

	rec := httptest.NewRecorder()
	h.HandleRegister(rec, httptest.NewRequest(http.MethodPost, "/auth/users", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = httptest.NewRecorder()
	h.HandleRegister(rec, httptest.NewRequest(http.MethodPost, "/auth/users", strings.NewReader(body)))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandler_Register_RejectsStaffFields(t *testing.T) {
	svc, store := newTestService()
	h := NewHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	body := `{"username":"eve","email":"eve@example.com","password":"s3cret-pass","Staff":true,"is_staff":true}`

	rec := httptest.NewRecorder()
	h.HandleRegister(rec, httptest.NewRequest(http.MethodPost, "/auth/users", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.committed)
}

func TestService_Register_Staff(t *testing.T) {
	svc, _ := newTestService()
	in := validInput()
	in.Staff = true

	account, err := svc.Register(context.Background(), in)

	require.NoError(t, err)
	assert.True(t, account.IsStaff)
}
