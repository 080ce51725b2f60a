package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*LoginResult, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	Authenticate(ctx context.Context, rawToken string) (*Session, error)
	Me(ctx context.Context, userID snowflake.ID) (*Me, error)
	UpdateProfile(ctx context.Context, userID snowflake.ID, req UpdateProfileRequest) (*Profile, error)
}

type RegisterRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	DisplayName  string `json:"displayName"`
	BusinessName string `json:"businessName"`
	UserAgent    string `json:"-"`
	IPAddress    string `json:"-"`
}

type LoginRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	UserAgent string `json:"-"`
	IPAddress string `json:"-"`
}

type LoginResult struct {
	User      UserView
	RawToken  string
	ExpiresAt time.Time
	SessionID snowflake.ID
}

type UpdateProfileRequest struct {
	BusinessName *string `json:"businessName"`
	BusinessType *string `json:"businessType"`
	Website      *string `json:"website"`
	Onboarded    *bool   `json:"onboarded"`
}

type Me struct {
	User    UserView `json:"user"`
	Profile *Profile `json:"profile"`
}
