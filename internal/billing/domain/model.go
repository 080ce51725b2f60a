package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	StatusActive   = "active"
	StatusTrialing = "trialing"
	StatusPastDue  = "past_due"
	StatusCanceled = "canceled"

	InvoicePaid = "paid"
	InvoiceOpen = "open"
)

// Customer links a user to the billing provider's customer record.
type Customer struct {
	UserID      snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	Provider    string       `gorm:"size:32;not null"`
	ProviderRef string       `gorm:"size:128;not null"`
	CreatedAt   time.Time    `gorm:"not null"`
}

func (Customer) TableName() string { return "billing_customers" }

type Subscription struct {
	ID                 snowflake.ID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	UserID             snowflake.ID `json:"-" gorm:"uniqueIndex;not null"`
	PlanCode           string       `json:"plan" gorm:"size:64;not null"`
	Status             string       `json:"status" gorm:"size:32;not null"`
	ProviderRef        string       `json:"-" gorm:"size:128"`
	ProviderItemRef    string       `json:"-" gorm:"size:128"`
	CurrentPeriodStart time.Time    `json:"currentPeriodStart"`
	CurrentPeriodEnd   time.Time    `json:"currentPeriodEnd"`
	CanceledAt         *time.Time   `json:"canceledAt,omitempty"`
	CreatedAt          time.Time    `json:"createdAt" gorm:"not null"`
	UpdatedAt          time.Time    `json:"updatedAt" gorm:"not null"`
}

func (Subscription) TableName() string { return "subscriptions" }

type Invoice struct {
	ID             snowflake.ID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	UserID         snowflake.ID `json:"-" gorm:"index:idx_invoices_user_issued,priority:1;not null"`
	SubscriptionID snowflake.ID `json:"subscriptionId" gorm:"not null"`
	Number         string       `json:"number" gorm:"size:32;uniqueIndex;not null"`
	PlanCode       string       `json:"plan" gorm:"size:64;not null"`
	Description    string       `json:"description" gorm:"size:255"`
	Amount         int64        `json:"amount" gorm:"not null"`
	Currency       string       `json:"currency" gorm:"size:3;not null"`
	Status         string       `json:"status" gorm:"size:32;not null"`
	PeriodStart    time.Time    `json:"periodStart"`
	PeriodEnd      time.Time    `json:"periodEnd"`
	IssuedAt       time.Time    `json:"issuedAt" gorm:"index:idx_invoices_user_issued,priority:2;not null"`
}

func (Invoice) TableName() string { return "invoices" }

type PaymentMethod struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	UserID      snowflake.ID `json:"-" gorm:"index;not null"`
	ProviderRef string       `json:"-" gorm:"size:128;not null"`
	Brand       string       `json:"brand" gorm:"size:32"`
	Last4       string       `json:"last4" gorm:"size:4"`
	ExpMonth    int          `json:"expMonth"`
	ExpYear     int          `json:"expYear"`
	IsDefault   bool         `json:"isDefault" gorm:"not null;default:false"`
	CreatedAt   time.Time    `json:"createdAt" gorm:"not null"`
}

func (PaymentMethod) TableName() string { return "payment_methods" }

func Models() []any {
	return []any{&Customer{}, &Subscription{}, &Invoice{}, &PaymentMethod{}}
}
