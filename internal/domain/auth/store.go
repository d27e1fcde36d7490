package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"messease/internal/platform/querier"
)

type Admin struct {
	ID           string
	Email        string
	Name         string
	Role         string
	PasswordHash string
	MFAEnabled   bool
	MFASecretEnc []byte
}

type StoreAPI interface {
	FindAdminByEmail(ctx context.Context, email string) (Admin, error)
	GetAdmin(ctx context.Context, id string) (Admin, error)
	UpdateLastLogin(ctx context.Context, adminID string) error
	CreateSession(ctx context.Context, adminID, tokenHash string, expires time.Time) error
	SessionValid(ctx context.Context, adminID, tokenHash string) (bool, error)
	RevokeSession(ctx context.Context, adminID, tokenHash string) error
	RotateSession(ctx context.Context, adminID, oldHash, newHash string, expires time.Time) error
	UpdateMFASecret(ctx context.Context, adminID string, secretEnc []byte) error
	SetMFAEnabled(ctx context.Context, adminID string, enabled bool) error
}

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const adminColumns = "id, email, name, role, password_hash, mfa_enabled, mfa_secret_enc"

func scanAdmin(row pgx.Row) (Admin, error) {
	var a Admin
	err := row.Scan(&a.ID, &a.Email, &a.Name, &a.Role, &a.PasswordHash, &a.MFAEnabled, &a.MFASecretEnc)
	if errors.Is(err, pgx.ErrNoRows) {
		return Admin{}, ErrAdminNotFound
	}
	return a, err
}

func (s *Store) FindAdminByEmail(ctx context.Context, email string) (Admin, error) {
	return scanAdmin(s.DB.QueryRow(ctx, "SELECT "+adminColumns+" FROM admins WHERE lower(email) = lower($1)", email))
}

func (s *Store) GetAdmin(ctx context.Context, id string) (Admin, error) {
	return scanAdmin(s.DB.QueryRow(ctx, "SELECT "+adminColumns+" FROM admins WHERE id = $1", id))
}

// EnsureAdmin creates the admin unless the email is already registered.
func (s *Store) EnsureAdmin(ctx context.Context, email, name, role, passwordHash string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO admins (email, name, role, password_hash)
    VALUES ($1,$2,$3,$4)
    ON CONFLICT (email) DO NOTHING
  `, email, name, role, passwordHash)
	return err
}

func (s *Store) UpdateLastLogin(ctx context.Context, adminID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE admins SET last_login = now() WHERE id = $1", adminID)
	return err
}

func (s *Store) CreateSession(ctx context.Context, adminID, tokenHash string, expires time.Time) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO sessions (admin_id, token_hash, expires_at)
    VALUES ($1,$2,$3)
  `, adminID, tokenHash, expires)
	return err
}

func (s *Store) SessionValid(ctx context.Context, adminID, tokenHash string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM sessions
    WHERE admin_id = $1 AND token_hash = $2 AND expires_at > now() AND revoked_at IS NULL
  `, adminID, tokenHash).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) RevokeSession(ctx context.Context, adminID, tokenHash string) error {
	_, err := s.DB.Exec(ctx, "UPDATE sessions SET revoked_at = now() WHERE admin_id = $1 AND token_hash = $2", adminID, tokenHash)
	return err
}

func (s *Store) RotateSession(ctx context.Context, adminID, oldHash, newHash string, expires time.Time) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE sessions
    SET token_hash = $1, expires_at = $2
    WHERE admin_id = $3 AND token_hash = $4 AND revoked_at IS NULL
  `, newHash, expires, adminID, oldHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionExpired
	}
	return nil
}

func (s *Store) UpdateMFASecret(ctx context.Context, adminID string, secretEnc []byte) error {
	_, err := s.DB.Exec(ctx, "UPDATE admins SET mfa_secret_enc = $1, mfa_enabled = false WHERE id = $2", secretEnc, adminID)
	return err
}

func (s *Store) SetMFAEnabled(ctx context.Context, adminID string, enabled bool) error {
	_, err := s.DB.Exec(ctx, "UPDATE admins SET mfa_enabled = $1 WHERE id = $2", enabled, adminID)
	return err
}
