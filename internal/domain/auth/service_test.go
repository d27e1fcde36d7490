package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"

	cryptoutil "messease/internal/platform/crypto"
)

type memoryStore struct {
	admins   map[string]Admin
	sessions map[string]bool
}

func newMemoryStore(t *testing.T) *memoryStore {
	t.Helper()
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return &memoryStore{
		admins: map[string]Admin{
			"a1": {ID: "a1", Email: "warden@example.com", Name: "Warden", Role: RoleManager, PasswordHash: hash},
		},
		sessions: map[string]bool{},
	}
}

func (m *memoryStore) FindAdminByEmail(_ context.Context, email string) (Admin, error) {
	for _, a := range m.admins {
		if strings.EqualFold(a.Email, email) {
			return a, nil
		}
	}
	return Admin{}, ErrAdminNotFound
}

func (m *memoryStore) GetAdmin(_ context.Context, id string) (Admin, error) {
	a, ok := m.admins[id]
	if !ok {
		return Admin{}, ErrAdminNotFound
	}
	return a, nil
}

func (m *memoryStore) UpdateLastLogin(context.Context, string) error { return nil }

func (m *memoryStore) CreateSession(_ context.Context, adminID, hash string, _ time.Time) error {
	m.sessions[adminID+"/"+hash] = true
	return nil
}

func (m *memoryStore) SessionValid(_ context.Context, adminID, hash string) (bool, error) {
	return m.sessions[adminID+"/"+hash], nil
}

func (m *memoryStore) RevokeSession(_ context.Context, adminID, hash string) error {
	delete(m.sessions, adminID+"/"+hash)
	return nil
}

func (m *memoryStore) RotateSession(_ context.Context, adminID, oldHash, newHash string, _ time.Time) error {
	if !m.sessions[adminID+"/"+oldHash] {
		return ErrSessionExpired
	}
	delete(m.sessions, adminID+"/"+oldHash)
	m.sessions[adminID+"/"+newHash] = true
	return nil
}

func (m *memoryStore) UpdateMFASecret(_ context.Context, adminID string, enc []byte) error {
	a := m.admins[adminID]
	a.MFASecretEnc = enc
	a.MFAEnabled = false
	m.admins[adminID] = a
	return nil
}

func (m *memoryStore) SetMFAEnabled(_ context.Context, adminID string, enabled bool) error {
	a := m.admins[adminID]
	a.MFAEnabled = enabled
	m.admins[adminID] = a
	return nil
}

func newCrypto(t *testing.T) *cryptoutil.Box {
	t.Helper()
	c, err := cryptoutil.New(strings.Repeat("ab", 32))
	if err != nil {
		t.Fatalf("crypto: %v", err)
	}
	return c
}

func TestLoginLogoutLifecycle(t *testing.T) {
	store := newMemoryStore(t)
	svc := NewService(store, "secret", newCrypto(t))

	if _, err := svc.Login(context.Background(), "warden@example.com", "wrong", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "nobody@example.com", "x", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	res, err := svc.Login(context.Background(), " WARDEN@example.com ", "correct horse", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	session, err := svc.Authenticate(context.Background(), res.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if session.AdminID != "a1" || session.Role != RoleManager || session.Creator().Name != "Warden" {
		t.Fatalf("unexpected session: %+v", session)
	}

	refreshed, err := svc.Refresh(context.Background(), session)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), res.Token); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected old token to be invalid after rotation, got %v", err)
	}

	if err := svc.Logout(context.Background(), refreshed.Session); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), refreshed.Token); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected revoked session, got %v", err)
	}
}

func TestMFAFlow(t *testing.T) {
	store := newMemoryStore(t)
	svc := NewService(store, "secret", newCrypto(t))
	session := Session{AdminID: "a1", Email: "warden@example.com", Role: RoleManager}

	setup, err := svc.SetupMFA(context.Background(), session)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if string(store.admins["a1"].MFASecretEnc) == setup.Secret {
		t.Fatal("expected secret to be encrypted at rest")
	}
	if err := svc.EnableMFA(context.Background(), session, "000000x"); !errors.Is(err, ErrMFAInvalid) {
		t.Fatalf("expected ErrMFAInvalid, got %v", err)
	}

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}
	if err := svc.EnableMFA(context.Background(), session, code); err != nil {
		t.Fatalf("enable: %v", err)
	}

	if _, err := svc.Login(context.Background(), "warden@example.com", "correct horse", ""); !errors.Is(err, ErrMFARequired) {
		t.Fatalf("expected ErrMFARequired, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "warden@example.com", "correct horse", code); err != nil {
		t.Fatalf("login with code: %v", err)
	}
}

func TestMFARequiresEncryptionKey(t *testing.T) {
	plain, err := cryptoutil.New("")
	if err != nil {
		t.Fatalf("crypto: %v", err)
	}
	svc := NewService(newMemoryStore(t), "secret", plain)
	if _, err := svc.SetupMFA(context.Background(), Session{AdminID: "a1"}); !errors.Is(err, ErrMFAUnavailable) {
		t.Fatalf("expected ErrMFAUnavailable, got %v", err)
	}
}
