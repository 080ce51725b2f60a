package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	TypeInfo    = "info"
	TypeSuccess = "success"
	TypeWarning = "warning"
	TypeError   = "error"

	DefaultListLimit = 50
)

type Notification struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	UserID    snowflake.ID `json:"-" gorm:"index:idx_notifications_user_created,priority:1;not null"`
	Type      string       `json:"type" gorm:"size:16;not null"`
	Title     string       `json:"title" gorm:"size:160;not null"`
	Message   string       `json:"message" gorm:"size:1000"`
	Link      *string      `json:"link,omitempty" gorm:"size:512"`
	Read      bool         `json:"read" gorm:"column:is_read;not null;default:false"`
	ReadAt    *time.Time   `json:"readAt,omitempty"`
	CreatedAt time.Time    `json:"createdAt" gorm:"index:idx_notifications_user_created,priority:2;not null"`
}

func (Notification) TableName() string { return "notifications" }

type Service interface {
	List(ctx context.Context, userID snowflake.ID, req ListRequest) (*ListResponse, error)
	Create(ctx context.Context, userID snowflake.ID, req CreateRequest) (*Notification, error)
	SetRead(ctx context.Context, userID snowflake.ID, id string, read bool) (*Notification, error)
	MarkAllRead(ctx context.Context, userID snowflake.ID) (int64, error)
	Delete(ctx context.Context, userID snowflake.ID, id string) error
	// PurgeRead removes read notifications older than the cutoff for every user.
	PurgeRead(ctx context.Context, before time.Time) (int64, error)
}

type ListRequest struct {
	UnreadOnly bool `form:"unread"`
	Limit      int  `form:"limit"`
}

type ListResponse struct {
	Items       []Notification `json:"items"`
	UnreadCount int64          `json:"unreadCount"`
}

type CreateRequest struct {
	Type    string  `json:"type"`
	Title   string  `json:"title"`
	Message string  `json:"message"`
	Link    *string `json:"link"`
}

type UpdateRequest struct {
	Read *bool `json:"read"`
}

var (
	ErrInvalidTitle = errors.New("invalid_title")
	ErrInvalidType  = errors.New("invalid_type")
	ErrInvalidRead  = errors.New("invalid_read")
	ErrInvalidID    = errors.New("invalid_id")
	ErrNotFound     = errors.New("not_found")
)
