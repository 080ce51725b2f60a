package domain

import (
	"context"
	"errors"
	"io"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/zyra/internal/config"
)

type Service interface {
	Plans(ctx context.Context) ([]config.Plan, error)
	GetSubscription(ctx context.Context, userID snowflake.ID) (*Subscription, error)
	Subscribe(ctx context.Context, userID snowflake.ID, req SubscribeRequest) (*Subscription, error)
	ChangePlan(ctx context.Context, userID snowflake.ID, req SubscribeRequest) (*Subscription, error)
	Cancel(ctx context.Context, userID snowflake.ID) (*Subscription, error)

	ListInvoices(ctx context.Context, userID snowflake.ID) ([]Invoice, error)
	GetInvoice(ctx context.Context, userID snowflake.ID, id string) (*Invoice, error)
	RenderInvoicePDF(ctx context.Context, userID snowflake.ID, id string, to BillTo, w io.Writer) error

	ListPaymentMethods(ctx context.Context, userID snowflake.ID) ([]PaymentMethod, error)
	AddPaymentMethod(ctx context.Context, userID snowflake.ID, req AddPaymentMethodRequest) (*PaymentMethod, error)
	SetDefaultPaymentMethod(ctx context.Context, userID snowflake.ID, id string) (*PaymentMethod, error)
	RemovePaymentMethod(ctx context.Context, userID snowflake.ID, id string) error
}

type SubscribeRequest struct {
	Plan  string `json:"plan"`
	Email string `json:"-"`
}

// BillTo is printed on invoice documents.
type BillTo struct {
	Name  string
	Email string
}

type AddPaymentMethodRequest struct {
	Token string `json:"token"`
	Email string `json:"-"`
}

var (
	ErrInvalidPlan           = errors.New("invalid_plan")
	ErrInvalidToken          = errors.New("invalid_token")
	ErrInvalidID             = errors.New("invalid_id")
	ErrSubscriptionNotFound  = errors.New("subscription_not_found")
	ErrSubscriptionExists    = errors.New("subscription_exists")
	ErrSubscriptionCanceled  = errors.New("subscription_canceled")
	ErrInvoiceNotFound       = errors.New("invoice_not_found")
	ErrPaymentMethodNotFound = errors.New("payment_method_not_found")
	// ErrUpstream marks billing provider failures.
	ErrUpstream              = errors.New("upstream_error")
)
