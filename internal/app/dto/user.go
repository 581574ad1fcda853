package dto

import (
	"time"

	domainuser "hireme/internal/domain/user"
)

// UserProfile is the public representation of an account.
type UserProfile struct {
	ID        uint      `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Image     string    `json:"image,omitempty"`
	Headline  string    `json:"headline,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResponse pairs a profile with its freshly issued access token.
type AuthResponse struct {
	AccessToken string      `json:"access_token"`
	User        UserProfile `json:"user"`
}

func NewUserProfile(u domainuser.User) UserProfile {
	return UserProfile{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		Role:      string(u.Role),
		Image:     u.Image,
		Headline:  u.Headline,
		CreatedAt: u.CreatedAt,
	}
}
