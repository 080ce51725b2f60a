package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/zyra/internal/billing/domain"
	"github.com/smallbiznis/zyra/internal/billing/provider"
	"github.com/smallbiznis/zyra/internal/clock"
	"github.com/smallbiznis/zyra/internal/config"
	"github.com/smallbiznis/zyra/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingProvider struct {
	*provider.Local
}

func (failingProvider) CreateSubscription(context.Context, string, config.Plan, string) (*domain.ProviderSubscription, error) {
	return nil, errors.New("connection reset")
}

func newTestService(t *testing.T, wrap func(domain.Provider) domain.Provider) (*Service, *clock.FakeClock) {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(domain.Models()...))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	var p domain.Provider = provider.NewLocal(clk)
	if wrap != nil {
		p = wrap(p)
	}
	svc := New(Params{
		DB:       conn,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    clk,
		Catalog:  config.NewStaticCatalogHolder(config.DefaultCatalog()),
		Provider: p,
	}).(*Service)
	return svc, clk
}

func TestSubscribeCreatesSubscriptionAndInvoice(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	userID := snowflake.ID(42)

	sub, err := svc.Subscribe(ctx, userID, domain.SubscribeRequest{Plan: "Growth"})
	require.NoError(t, err)
	assert.Equal(t, "growth", sub.PlanCode)
	assert.Equal(t, domain.StatusActive, sub.Status)

	_, err = svc.Subscribe(ctx, userID, domain.SubscribeRequest{Plan: "scale"})
	assert.ErrorIs(t, err, domain.ErrSubscriptionExists)

	invoices, err := svc.ListInvoices(ctx, userID)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.EqualValues(t, 4900, invoices[0].Amount)
	assert.Equal(t, domain.InvoicePaid, invoices[0].Status)

	got, err := svc.GetInvoice(ctx, userID, invoices[0].ID.String())
	require.NoError(t, err)
	assert.Equal(t, invoices[0].Number, got.Number)

	_, err = svc.GetInvoice(ctx, snowflake.ID(43), invoices[0].ID.String())
	assert.ErrorIs(t, err, domain.ErrInvoiceNotFound)
}

func TestSubscribeRejectsUnknownPlan(t *testing.T) {
	svc, _ := newTestService(t, nil)
	_, err := svc.Subscribe(context.Background(), 1, domain.SubscribeRequest{Plan: "platinum"})
	assert.ErrorIs(t, err, domain.ErrInvalidPlan)
}

func TestProviderFailureIsUpstreamAndWritesNothing(t *testing.T) {
	svc, _ := newTestService(t, func(p domain.Provider) domain.Provider {
		return failingProvider{Local: p.(*provider.Local)}
	})
	ctx := context.Background()

	_, err := svc.Subscribe(ctx, 5, domain.SubscribeRequest{Plan: "starter"})
	assert.ErrorIs(t, err, domain.ErrUpstream)

	_, err = svc.GetSubscription(ctx, 5)
	assert.ErrorIs(t, err, domain.ErrSubscriptionNotFound)
}

func TestChangePlanAndCancel(t *testing.T) {
	svc, clk := newTestService(t, nil)
	ctx := context.Background()
	userID := snowflake.ID(7)

	_, err := svc.Subscribe(ctx, userID, domain.SubscribeRequest{Plan: "starter"})
	require.NoError(t, err)
	clk.Advance(time.Hour)

	sub, err := svc.ChangePlan(ctx, userID, domain.SubscribeRequest{Plan: "scale"})
	require.NoError(t, err)
	assert.Equal(t, "scale", sub.PlanCode)

	invoices, err := svc.ListInvoices(ctx, userID)
	require.NoError(t, err)
	require.Len(t, invoices, 2)
	assert.Equal(t, "scale", invoices[0].PlanCode)

	sub, err = svc.Cancel(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCanceled, sub.Status)
	require.NotNil(t, sub.CanceledAt)

	_, err = svc.Cancel(ctx, userID)
	assert.ErrorIs(t, err, domain.ErrSubscriptionCanceled)
	_, err = svc.ChangePlan(ctx, userID, domain.SubscribeRequest{Plan: "growth"})
	assert.ErrorIs(t, err, domain.ErrSubscriptionCanceled)

	sub, err = svc.Subscribe(ctx, userID, domain.SubscribeRequest{Plan: "growth"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, sub.Status)
	assert.Nil(t, sub.CanceledAt)
}

func TestPaymentMethodDefaults(t *testing.T) {
	svc, clk := newTestService(t, nil)
	ctx := context.Background()
	userID := snowflake.ID(9)

	first, err := svc.AddPaymentMethod(ctx, userID, domain.AddPaymentMethodRequest{Token: "tok_visa_4242"})
	require.NoError(t, err)
	assert.True(t, first.IsDefault)
	assert.Equal(t, "visa", first.Brand)
	assert.Equal(t, "4242", first.Last4)
	clk.Advance(time.Second)

	second, err := svc.AddPaymentMethod(ctx, userID, domain.AddPaymentMethodRequest{Token: "tok_mastercard_4444"})
	require.NoError(t, err)
	assert.False(t, second.IsDefault)

	_, err = svc.SetDefaultPaymentMethod(ctx, userID, second.ID.String())
	require.NoError(t, err)
	methods, err := svc.ListPaymentMethods(ctx, userID)
	require.NoError(t, err)
	require.Len(t, methods, 2)
	assert.False(t, methods[0].IsDefault)
	assert.True(t, methods[1].IsDefault)

	require.NoError(t, svc.RemovePaymentMethod(ctx, userID, second.ID.String()))
	methods, err = svc.ListPaymentMethods(ctx, userID)
	require.NoError(t, err)
	require.Len(t, methods, 1)
	assert.True(t, methods[0].IsDefault)

	_, err = svc.AddPaymentMethod(ctx, userID, domain.AddPaymentMethodRequest{Token: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
	err = svc.RemovePaymentMethod(ctx, snowflake.ID(10), first.ID.String())
	assert.ErrorIs(t, err, domain.ErrPaymentMethodNotFound)
}

func TestRenderInvoicePDF(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Subscribe(ctx, 3, domain.SubscribeRequest{Plan: "starter"})
	require.NoError(t, err)
	invoices, err := svc.ListInvoices(ctx, 3)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.RenderInvoicePDF(ctx, 3, invoices[0].ID.String(), domain.BillTo{Name: "Acme"}, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestPlansAreCached(t *testing.T) {
	svc, clk := newTestService(t, nil)
	plans, err := svc.Plans(context.Background())
	require.NoError(t, err)
	assert.Len(t, plans, 3)

	cached, ok := svc.plans.Get()
	require.True(t, ok)
	assert.Equal(t, plans, cached)

	clk.Advance(planCacheTTL + time.Second)
	_, ok = svc.plans.Get()
	assert.False(t, ok)
}
