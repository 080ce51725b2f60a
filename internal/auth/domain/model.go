// Package domain contains core types for the auth service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// User is a merchant account. Email is stored lowercase.
type User struct {
	ID           snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	Email        string       `gorm:"size:320;not null;uniqueIndex"`
	PasswordHash string       `gorm:"type:text;not null"`
	DisplayName  string       `gorm:"size:120;not null"`
	CreatedAt    time.Time    `gorm:"not null"`
	UpdatedAt    time.Time    `gorm:"not null"`
}

func (User) TableName() string { return "users" }

// Session is a persisted login session. Only the token hash is stored.
type Session struct {
	ID               snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	UserID           snowflake.ID `gorm:"column:user_id;not null;index"`
	SessionTokenHash string       `gorm:"column:session_token_hash;size:64;not null;uniqueIndex"`
	UserAgent        string       `gorm:"column:user_agent;type:text"`
	IPAddress        string       `gorm:"column:ip_address;size:64"`
	ExpiresAt        time.Time    `gorm:"column:expires_at;not null;index"`
	RevokedAt        *time.Time   `gorm:"column:revoked_at"`
	CreatedAt        time.Time    `gorm:"column:created_at;not null"`
	LastSeenAt       time.Time    `gorm:"column:last_seen_at;not null"`
}

func (Session) TableName() string { return "sessions" }

type Profile struct {
	UserID       snowflake.ID `json:"userId" gorm:"primaryKey;autoIncrement:false"`
	BusinessName string       `json:"businessName" gorm:"size:200"`
	BusinessType string       `json:"businessType" gorm:"size:100"`
	Website      string       `json:"website" gorm:"size:300"`
	Onboarded    bool         `json:"onboarded" gorm:"not null;default:false"`
	CreatedAt    time.Time    `json:"createdAt" gorm:"not null"`
	UpdatedAt    time.Time    `json:"updatedAt" gorm:"not null"`
}

func (Profile) TableName() string { return "profiles" }

// UserView is the public shape of a user.
type UserView struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (u *User) View() UserView {
	return UserView{
		ID:          u.ID.String(),
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

func Models() []any {
	return []any{&User{}, &Session{}, &Profile{}}
}
