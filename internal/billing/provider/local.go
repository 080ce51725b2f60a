package provider

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/zyra/internal/billing/domain"
	"github.com/smallbiznis/zyra/internal/clock"
	"github.com/smallbiznis/zyra/internal/config"
)

// Local settles everything immediately. Used when no Stripe key is set.
type Local struct {
	clock clock.Clock

	mu   sync.Mutex
	keys map[string]*domain.ProviderSubscription
}

func NewLocal(c clock.Clock) *Local {
	return &Local{clock: c, keys: make(map[string]*domain.ProviderSubscription)}
}

func (l *Local) Name() string { return "local" }

func (l *Local) CreateCustomer(_ context.Context, userID snowflake.ID, _ string) (string, error) {
	return "cus_local_" + userID.String(), nil
}

func (l *Local) CreateSubscription(_ context.Context, _ string, _ config.Plan, idempotencyKey string) (*domain.ProviderSubscription, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if prev, ok := l.keys[idempotencyKey]; ok && idempotencyKey != "" {
		cp := *prev
		return &cp, nil
	}
	now := l.clock.Now()
	sub := &domain.ProviderSubscription{
		Ref:         "sub_local_" + l.newID(now),
		ItemRef:     "si_local_" + l.newID(now),
		Status:      domain.StatusActive,
		PeriodStart: now,
		PeriodEnd:   now.AddDate(0, 1, 0),
	}
	if idempotencyKey != "" {
		l.keys[idempotencyKey] = sub
	}
	cp := *sub
	return &cp, nil
}

func (l *Local) ChangePlan(_ context.Context, sub *domain.Subscription, _ config.Plan) (*domain.ProviderSubscription, error) {
	return &domain.ProviderSubscription{
		Ref:         sub.ProviderRef,
		ItemRef:     sub.ProviderItemRef,
		Status:      domain.StatusActive,
		PeriodStart: sub.CurrentPeriodStart,
		PeriodEnd:   sub.CurrentPeriodEnd,
	}, nil
}

func (l *Local) CancelSubscription(context.Context, *domain.Subscription) error { return nil }

// AttachPaymentMethod accepts tokens of the form "tok_<brand>_<last4>",
// e.g. tok_visa_4242.
func (l *Local) AttachPaymentMethod(_ context.Context, _ string, token string) (*domain.ProviderPaymentMethod, error) {
	parts := strings.Split(strings.TrimPrefix(token, "tok_"), "_")
	brand, last4 := "card", "0000"
	if len(parts) == 2 && len(parts[1]) == 4 {
		brand, last4 = parts[0], parts[1]
	}
	now := l.clock.Now()
	return &domain.ProviderPaymentMethod{
		Ref:      "pm_local_" + l.newID(now),
		Brand:    brand,
		Last4:    last4,
		ExpMonth: int(now.Month()),
		ExpYear:  now.Year() + 3,
	}, nil
}

func (l *Local) SetDefaultPaymentMethod(context.Context, string, string) error { return nil }

func (l *Local) DetachPaymentMethod(context.Context, string) error { return nil }

func (l *Local) newID(now time.Time) string {
	return strings.ToLower(ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String())
}

var _ domain.Provider = (*Local)(nil)
