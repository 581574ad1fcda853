// Package auth is the thin identity collaborator in front of the messaging
// core: it registers accounts, verifies credentials, and resolves bearer
// tokens to user ids. The core itself trusts whatever user id it is handed.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"hireme/internal/app/uow"
	domainuser "hireme/internal/domain/user"
)

var (
	ErrInvalidCredentials   = errors.New("auth: invalid credentials")
	ErrPasswordTooShort     = errors.New("auth: password must be at least 8 characters")
	ErrServiceNotConfigured = errors.New("auth: service missing dependencies")
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenCodec issues and verifies signed access tokens carrying a user id.
type TokenCodec interface {
	Issue(userID domainuser.ID, issuedAt time.Time) (string, error)
	Verify(token string) (domainuser.ID, error)
}

type Service struct {
	UoWFactory uow.UoWFactory
	Passwords  PasswordHasher
	Tokens     TokenCodec
	Logger     *slog.Logger
}

type RegisterParams struct {
	FullName string
	Email    string
	Password string
	Role     string
	Headline string
}

type LoginParams struct {
	Email    string
	Password string
}

type AuthResult struct {
	User  *domainuser.User
	Token string
}

func (s *Service) Register(ctx context.Context, params RegisterParams) (*AuthResult, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	if err := validatePassword(params.Password); err != nil {
		return nil, err
	}
	hash, err := s.Passwords.Hash(params.Password)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	candidate, err := domainuser.NewUser(domainuser.CreateParams{
		FullName:     params.FullName,
		Email:        params.Email,
		PasswordHash: hash,
		Role:         domainuser.Role(params.Role),
		Headline:     params.Headline,
		CreatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}()

	if _, err := unit.Users().ByEmail(ctx, candidate.Email); err == nil {
		return nil, domainuser.ErrEmailAlreadyUsed
	} else if !errors.Is(err, domainuser.ErrNotFound) {
		return nil, err
	}
	if err := unit.Users().Save(ctx, candidate); err != nil {
		return nil, err
	}
	if err := unit.Commit(ctx); err != nil {
		return nil, err
	}
	committed = true

	token, err := s.Tokens.Issue(candidate.ID, now)
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("user registered", "user_id", candidate.ID, "role", candidate.Role)
	}
	return &AuthResult{User: candidate, Token: token}, nil
}

func (s *Service) Login(ctx context.Context, params LoginParams) (*AuthResult, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	email := domainuser.NormalizeEmail(params.Email)
	if email == "" || strings.TrimSpace(params.Password) == "" {
		return nil, ErrInvalidCredentials
	}

	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer func() { _ = unit.Rollback(ctx) }()

	account, err := unit.Users().ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainuser.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.Passwords.Compare(account.PasswordHash, params.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	token, err := s.Tokens.Issue(account.ID, time.Now())
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("user authenticated", "user_id", account.ID)
	}
	return &AuthResult{User: account, Token: token}, nil
}

// Resolve maps a bearer token to its account, or ErrInvalidCredentials.
func (s *Service) Resolve(ctx context.Context, token string) (*domainuser.User, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	userID, err := s.Tokens.Verify(strings.TrimSpace(token))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer func() { _ = unit.Rollback(ctx) }()

	account, err := unit.Users().ByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domainuser.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return account, nil
}

func (s *Service) ensureDependencies() error {
	if s.UoWFactory == nil || s.Passwords == nil || s.Tokens == nil {
		return ErrServiceNotConfigured
	}
	return nil
}

func validatePassword(password string) error {
	if len(strings.TrimSpace(password)) < 8 {
		return ErrPasswordTooShort
	}
	return nil
}
