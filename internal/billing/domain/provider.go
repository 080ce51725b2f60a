package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/zyra/internal/config"
)

// Provider moves money. Implementations must be safe to retry with the
// same idempotency key.
type Provider interface {
	Name() string
	CreateCustomer(ctx context.Context, userID snowflake.ID, email string) (string, error)
	CreateSubscription(ctx context.Context, customerRef string, plan config.Plan, idempotencyKey string) (*ProviderSubscription, error)
	ChangePlan(ctx context.Context, sub *Subscription, plan config.Plan) (*ProviderSubscription, error)
	CancelSubscription(ctx context.Context, sub *Subscription) error
	AttachPaymentMethod(ctx context.Context, customerRef, token string) (*ProviderPaymentMethod, error)
	SetDefaultPaymentMethod(ctx context.Context, customerRef, methodRef string) error
	DetachPaymentMethod(ctx context.Context, methodRef string) error
}

type ProviderSubscription struct {
	Ref         string
	ItemRef     string
	Status      string
	PeriodStart time.Time
	PeriodEnd   time.Time
}

type ProviderPaymentMethod struct {
	Ref      string
	Brand    string
	Last4    string
	ExpMonth int
	ExpYear  int
}
