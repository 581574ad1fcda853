package user

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrEmailRequired       = errors.New("user: email is required")
	ErrNameRequired        = errors.New("user: name is required")
	ErrPasswordHashMissing = errors.New("user: password hash is required")
	ErrInvalidRole         = errors.New("user: invalid role")
	ErrEmailAlreadyUsed    = errors.New("user: email already used")
	ErrNotFound            = errors.New("user: not found")
)

type ID = uint

type Role string

const (
	RoleCandidate Role = "candidate"
	RoleEmployer  Role = "employer"
	RoleAdmin     Role = "admin"
)

type User struct {
	ID           ID
	FullName     string
	Email        string
	PasswordHash string
	Role         Role
	Image        string
	Headline     string
	CreatedAt    time.Time
}

// Identity is the read-only display projection other subsystems consume.
type Identity struct {
	ID       ID
	FullName string
	Image    string
}

func (u *User) Identity() Identity {
	return Identity{ID: u.ID, FullName: u.FullName, Image: u.Image}
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
	// MissingIDs returns the subset of ids with no matching user row.
	MissingIDs(ctx context.Context, ids []ID) ([]ID, error)
	Save(ctx context.Context, user *User) error
}

type CreateParams struct {
	FullName     string
	Email        string
	PasswordHash string
	Role         Role
	Image        string
	Headline     string
	CreatedAt    time.Time
}

func NewUser(params CreateParams) (*User, error) {
	email := NormalizeEmail(params.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	name := strings.TrimSpace(params.FullName)
	if name == "" {
		return nil, ErrNameRequired
	}
	if strings.TrimSpace(params.PasswordHash) == "" {
		return nil, ErrPasswordHashMissing
	}
	role, err := normalizeRole(params.Role)
	if err != nil {
		return nil, err
	}

	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}

	return &User{
		FullName:     name,
		Email:        email,
		PasswordHash: params.PasswordHash,
		Role:         role,
		Image:        strings.TrimSpace(params.Image),
		Headline:     strings.TrimSpace(params.Headline),
		CreatedAt:    now.UTC(),
	}, nil
}

func (u *User) HasRole(role Role) bool {
	normalized, err := normalizeRole(role)
	if err != nil {
		return false
	}
	return u.Role == normalized
}

func normalizeRole(role Role) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(string(role))) {
	case "", "candidate":
		return RoleCandidate, nil
	case "employer":
		return RoleEmployer, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return "", ErrInvalidRole
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
