package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	// CreateAccount inserts the user and profile together.
	CreateAccount(ctx context.Context, user *User, profile *Profile) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id snowflake.ID) (*User, error)
	FindProfile(ctx context.Context, userID snowflake.ID) (*Profile, error)
	UpdateProfile(ctx context.Context, userID snowflake.ID, fields map[string]any) error
}

type SessionRepository interface {
	CreateSession(ctx context.Context, session *Session) error
	GetSessionByTokenHash(ctx context.Context, tokenHash string) (*Session, error)
	UpdateLastSeen(ctx context.Context, sessionID snowflake.ID, lastSeen time.Time) error
	RevokeSession(ctx context.Context, sessionID snowflake.ID, revokedAt time.Time) error
	// PurgeSessions deletes sessions that expired or were revoked before the cutoff.
	PurgeSessions(ctx context.Context, before time.Time) (int64, error)
}
