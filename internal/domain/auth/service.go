package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	SessionTTL = 8 * time.Hour
	MFAIssuer  = "MessEase"
)

var (
	ErrAdminNotFound      = errors.New("admin not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMFARequired        = errors.New("mfa code required")
	ErrMFAInvalid         = errors.New("invalid mfa code")
	ErrMFAUnavailable     = errors.New("mfa requires encryption key")
	ErrMFANotSetup        = errors.New("mfa setup required")
	ErrSessionExpired     = errors.New("session expired")
)

// SecretBox encrypts MFA secrets at rest.
type SecretBox interface {
	Configured() bool
	EncryptString(value string) ([]byte, error)
	DecryptString(value []byte) (string, error)
}

type Service struct {
	Store  StoreAPI
	Secret string
	Crypto SecretBox
	TTL    time.Duration
}

func NewService(store StoreAPI, secret string, crypto SecretBox) *Service {
	return &Service{Store: store, Secret: secret, Crypto: crypto, TTL: SessionTTL}
}

type LoginResult struct {
	Token   string  `json:"token"`
	Session Session `json:"-"`
}

// Login verifies credentials and the TOTP code when MFA is enabled, then opens a session.
func (s *Service) Login(ctx context.Context, email, password, mfaCode string) (LoginResult, error) {
	admin, err := s.Store.FindAdminByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if err := CheckPassword(admin.PasswordHash, password); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}
	if admin.MFAEnabled {
		if strings.TrimSpace(mfaCode) == "" {
			return LoginResult{}, ErrMFARequired
		}
		secret, err := s.openSecret(admin.MFASecretEnc)
		if err != nil || secret == "" || !totp.Validate(strings.TrimSpace(mfaCode), secret) {
			return LoginResult{}, ErrMFAInvalid
		}
	}

	sessionID, err := NewSessionToken()
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.Store.CreateSession(ctx, admin.ID, HashToken(sessionID), time.Now().Add(s.TTL)); err != nil {
		return LoginResult{}, fmt.Errorf("create session: %w", err)
	}
	session := Session{AdminID: admin.ID, Email: admin.Email, Name: admin.Name, Role: admin.Role, SessionID: sessionID}
	token, err := s.issue(session)
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.Store.UpdateLastLogin(ctx, admin.ID); err != nil {
		slog.Warn("update last_login failed", "adminId", admin.ID, "err", err)
	}
	return LoginResult{Token: token, Session: session}, nil
}

func (s *Service) issue(session Session) (string, error) {
	return IssueToken(s.Secret, session, s.TTL, time.Now())
}

// Authenticate verifies a bearer token and that its session is still open.
func (s *Service) Authenticate(ctx context.Context, token string) (Session, error) {
	session, err := ParseToken(s.Secret, token)
	if err != nil {
		return Session{}, ErrSessionExpired
	}
	ok, err := s.Store.SessionValid(ctx, session.AdminID, HashToken(session.SessionID))
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, ErrSessionExpired
	}
	return session, nil
}

func (s *Service) Logout(ctx context.Context, session Session) error {
	if session.SessionID == "" {
		return nil
	}
	return s.Store.RevokeSession(ctx, session.AdminID, HashToken(session.SessionID))
}

// Refresh rotates the session token and issues a new bearer token.
func (s *Service) Refresh(ctx context.Context, session Session) (LoginResult, error) {
	next, err := NewSessionToken()
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.Store.RotateSession(ctx, session.AdminID, HashToken(session.SessionID), HashToken(next), time.Now().Add(s.TTL)); err != nil {
		return LoginResult{}, err
	}
	session.SessionID = next
	token, err := s.issue(session)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, Session: session}, nil
}

type MFASetup struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauthUrl"`
}

// SetupMFA stores a fresh encrypted TOTP secret; MFA stays disabled until confirmed.
func (s *Service) SetupMFA(ctx context.Context, session Session) (MFASetup, error) {
	if s.Crypto == nil || !s.Crypto.Configured() {
		return MFASetup{}, ErrMFAUnavailable
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      MFAIssuer,
		AccountName: session.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
	})
	if err != nil {
		return MFASetup{}, err
	}
	encrypted, err := s.Crypto.EncryptString(key.Secret())
	if err != nil {
		return MFASetup{}, err
	}
	if err := s.Store.UpdateMFASecret(ctx, session.AdminID, encrypted); err != nil {
		return MFASetup{}, err
	}
	return MFASetup{Secret: key.Secret(), OTPAuthURL: key.URL()}, nil
}

func (s *Service) EnableMFA(ctx context.Context, session Session, code string) error {
	return s.toggleMFA(ctx, session, code, true)
}

func (s *Service) DisableMFA(ctx context.Context, session Session, code string) error {
	return s.toggleMFA(ctx, session, code, false)
}

func (s *Service) toggleMFA(ctx context.Context, session Session, code string, enabled bool) error {
	if s.Crypto == nil || !s.Crypto.Configured() {
		return ErrMFAUnavailable
	}
	admin, err := s.Store.GetAdmin(ctx, session.AdminID)
	if err != nil {
		return err
	}
	if len(admin.MFASecretEnc) == 0 {
		return ErrMFANotSetup
	}
	secret, err := s.openSecret(admin.MFASecretEnc)
	if err != nil {
		return ErrMFAInvalid
	}
	if !totp.Validate(strings.TrimSpace(code), secret) {
		return ErrMFAInvalid
	}
	return s.Store.SetMFAEnabled(ctx, session.AdminID, enabled)
}

func (s *Service) openSecret(enc []byte) (string, error) {
	if s.Crypto != nil && s.Crypto.Configured() {
		return s.Crypto.DecryptString(enc)
	}
	return string(enc), nil
}
