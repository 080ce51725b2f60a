package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/zyra/internal/billing/domain"
	"github.com/smallbiznis/zyra/internal/billing/invoicepdf"
	"github.com/smallbiznis/zyra/internal/clock"
	"github.com/smallbiznis/zyra/internal/config"
	obsmetrics "github.com/smallbiznis/zyra/internal/observability/metrics"
	usagedomain "github.com/smallbiznis/zyra/internal/usagestats/domain"
	"github.com/smallbiznis/zyra/pkg/db/option"
	"github.com/smallbiznis/zyra/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	ActionSubscriptionStarted  = "subscription_started"
	ActionSubscriptionChanged  = "subscription_changed"
	ActionSubscriptionCanceled = "subscription_canceled"

	planCacheTTL = 5 * time.Minute
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Catalog  *config.CatalogHolder
	Provider domain.Provider
	Usage    usagedomain.Service `optional:"true"`
	Metrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	catalog  *config.CatalogHolder
	provider domain.Provider
	usage    usagedomain.Service
	metrics  *obsmetrics.Metrics
	plans    *planCache

	customers repository.Repository[domain.Customer]
	subs      repository.Repository[domain.Subscription]
	invoices  repository.Repository[domain.Invoice]
	methods   repository.Repository[domain.PaymentMethod]
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("billing.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		catalog:   p.Catalog,
		provider:  p.Provider,
		usage:     p.Usage,
		metrics:   p.Metrics,
		plans:     newPlanCache(planCacheTTL, p.Clock.Now),
		customers: repository.ProvideStore[domain.Customer](p.DB),
		subs:      repository.ProvideStore[domain.Subscription](p.DB),
		invoices:  repository.ProvideStore[domain.Invoice](p.DB),
		methods:   repository.ProvideStore[domain.PaymentMethod](p.DB),
	}
}

func (s *Service) Plans(ctx context.Context) ([]config.Plan, error) {
	if plans, ok := s.plans.Get(); ok {
		return plans, nil
	}
	plans := s.catalog.Get().Plans
	s.plans.Set(plans)
	return append([]config.Plan(nil), plans...), nil
}

func (s *Service) plan(code string) (config.Plan, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return config.Plan{}, domain.ErrInvalidPlan
	}
	plan, ok := s.catalog.Get().Plan(code)
	if !ok {
		return config.Plan{}, domain.ErrInvalidPlan
	}
	return plan, nil
}

func (s *Service) GetSubscription(ctx context.Context, userID snowflake.ID) (*domain.Subscription, error) {
	sub, err := s.subs.FindOne(ctx, &domain.Subscription{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("billing.get_subscription: %w", err)
	}
	if sub == nil {
		return nil, domain.ErrSubscriptionNotFound
	}
	return sub, nil
}

func (s *Service) Subscribe(ctx context.Context, userID snowflake.ID, req domain.SubscribeRequest) (*domain.Subscription, error) {
	plan, err := s.plan(req.Plan)
	if err != nil {
		return nil, err
	}
	existing, err := s.subs.FindOne(ctx, &domain.Subscription{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("billing.subscribe: %w", err)
	}
	if existing != nil && existing.Status != domain.StatusCanceled {
		return nil, domain.ErrSubscriptionExists
	}

	customerRef, err := s.ensureCustomer(ctx, userID, req.Email)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	key := fmt.Sprintf("subscribe:%s:%s:%s", userID, plan.Code, now.Format("20060102"))
	remote, err := s.provider.CreateSubscription(ctx, customerRef, plan, key)
	s.recordCall(ctx, "create_subscription", err)
	if err != nil {
		return nil, upstream(err)
	}

	sub := existing
	if sub == nil {
		sub = &domain.Subscription{ID: s.genID.Generate(), UserID: userID, CreatedAt: now}
	}
	sub.PlanCode = plan.Code
	sub.CanceledAt = nil
	sub.UpdatedAt = now
	applyRemote(sub, remote)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if existing == nil {
			if err := s.subs.WithTrx(tx).Create(ctx, sub); err != nil {
				return err
			}
		} else if err := tx.Save(sub).Error; err != nil {
			return err
		}
		return s.invoices.WithTrx(tx).Create(ctx, s.newInvoice(sub, plan, now))
	})
	if err != nil {
		return nil, fmt.Errorf("billing.subscribe: %w", err)
	}

	s.recordActivity(ctx, userID, ActionSubscriptionStarted, "Subscribed to "+plan.Name)
	return sub, nil
}

func (s *Service) ChangePlan(ctx context.Context, userID snowflake.ID, req domain.SubscribeRequest) (*domain.Subscription, error) {
	plan, err := s.plan(req.Plan)
	if err != nil {
		return nil, err
	}
	sub, err := s.GetSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub.Status == domain.StatusCanceled {
		return nil, domain.ErrSubscriptionCanceled
	}
	if strings.EqualFold(sub.PlanCode, plan.Code) {
		return sub, nil
	}

	remote, err := s.provider.ChangePlan(ctx, sub, plan)
	s.recordCall(ctx, "change_plan", err)
	if err != nil {
		return nil, upstream(err)
	}

	now := s.clock.Now()
	previous := sub.PlanCode
	sub.PlanCode = plan.Code
	sub.UpdatedAt = now
	applyRemote(sub, remote)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(sub).Error; err != nil {
			return err
		}
		return s.invoices.WithTrx(tx).Create(ctx, s.newInvoice(sub, plan, now))
	})
	if err != nil {
		return nil, fmt.Errorf("billing.change_plan: %w", err)
	}

	s.recordActivity(ctx, userID, ActionSubscriptionChanged, fmt.Sprintf("Changed plan from %s to %s", previous, plan.Code))
	return sub, nil
}

func (s *Service) Cancel(ctx context.Context, userID snowflake.ID) (*domain.Subscription, error) {
	sub, err := s.GetSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub.Status == domain.StatusCanceled {
		return nil, domain.ErrSubscriptionCanceled
	}

	err = s.provider.CancelSubscription(ctx, sub)
	s.recordCall(ctx, "cancel_subscription", err)
	if err != nil {
		return nil, upstream(err)
	}

	now := s.clock.Now()
	if _, err := s.subs.Update(ctx, &domain.Subscription{ID: sub.ID}, map[string]any{
		"status":      domain.StatusCanceled,
		"canceled_at": now,
		"updated_at":  now,
	}); err != nil {
		return nil, fmt.Errorf("billing.cancel: %w", err)
	}
	sub.Status = domain.StatusCanceled
	sub.CanceledAt = &now
	sub.UpdatedAt = now

	s.recordActivity(ctx, userID, ActionSubscriptionCanceled, "Canceled subscription")
	return sub, nil
}

func (s *Service) ListInvoices(ctx context.Context, userID snowflake.ID) ([]domain.Invoice, error) {
	rows, err := s.invoices.Find(ctx, &domain.Invoice{UserID: userID},
		option.WithSortBy(option.QuerySortBy{Column: "issued_at", Desc: true}))
	if err != nil {
		return nil, fmt.Errorf("billing.list_invoices: %w", err)
	}
	out := make([]domain.Invoice, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	return out, nil
}

func (s *Service) GetInvoice(ctx context.Context, userID snowflake.ID, id string) (*domain.Invoice, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	inv, err := s.invoices.FindOne(ctx, &domain.Invoice{ID: invoiceID, UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("billing.get_invoice: %w", err)
	}
	if inv == nil {
		return nil, domain.ErrInvoiceNotFound
	}
	return inv, nil
}

func (s *Service) RenderInvoicePDF(ctx context.Context, userID snowflake.ID, id string, to domain.BillTo, w io.Writer) error {
	inv, err := s.GetInvoice(ctx, userID, id)
	if err != nil {
		return err
	}
	amount := invoicepdf.FormatAmount(inv.Amount, inv.Currency)
	return invoicepdf.Render(w, invoicepdf.Data{
		IssuerName:    "Zyra",
		InvoiceNumber: inv.Number,
		IssueDate:     inv.IssuedAt.Format("2006-01-02"),
		ServicePeriod: inv.PeriodStart.Format("2006-01-02") + " - " + inv.PeriodEnd.Format("2006-01-02"),
		Status:        inv.Status,
		BillToName:    to.Name,
		BillToEmail:   to.Email,
		Items: []invoicepdf.Item{{
			Description: inv.Description,
			Qty:         1,
			UnitPrice:   amount,
			Amount:      amount,
		}},
		Total: amount,
	})
}

func (s *Service) ensureCustomer(ctx context.Context, userID snowflake.ID, email string) (string, error) {
	existing, err := s.customers.FindOne(ctx, &domain.Customer{UserID: userID})
	if err != nil {
		return "", fmt.Errorf("billing.ensure_customer: %w", err)
	}
	if existing != nil && existing.Provider == s.provider.Name() {
		return existing.ProviderRef, nil
	}

	ref, err := s.provider.CreateCustomer(ctx, userID, email)
	s.recordCall(ctx, "create_customer", err)
	if err != nil {
		return "", upstream(err)
	}
	row := &domain.Customer{
		UserID:      userID,
		Provider:    s.provider.Name(),
		ProviderRef: ref,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.db.WithContext(ctx).Save(row).Error; err != nil {
		return "", fmt.Errorf("billing.ensure_customer: %w", err)
	}
	return ref, nil
}

func (s *Service) newInvoice(sub *domain.Subscription, plan config.Plan, now time.Time) *domain.Invoice {
	id := s.genID.Generate()
	status := domain.InvoiceOpen
	if sub.Status == domain.StatusActive || sub.Status == domain.StatusTrialing {
		status = domain.InvoicePaid
	}
	return &domain.Invoice{
		ID:             id,
		UserID:         sub.UserID,
		SubscriptionID: sub.ID,
		Number:         fmt.Sprintf("ZYR-%s-%s", now.Format("20060102"), strings.ToUpper(id.Base36())),
		PlanCode:       plan.Code,
		Description:    fmt.Sprintf("%s plan (%s)", plan.Name, plan.Interval),
		Amount:         plan.Amount,
		Currency:       strings.ToLower(plan.Currency),
		Status:         status,
		PeriodStart:    sub.CurrentPeriodStart,
		PeriodEnd:      sub.CurrentPeriodEnd,
		IssuedAt:       now,
	}
}

func (s *Service) recordCall(ctx context.Context, op string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
		s.log.Warn("billing provider call failed",
			zap.String("provider", s.provider.Name()),
			zap.String("operation", op),
			zap.Error(err),
		)
	}
	s.metrics.RecordBillingCall(ctx, s.provider.Name(), op, outcome)
}

func (s *Service) recordActivity(ctx context.Context, userID snowflake.ID, action, description string) {
	if s.usage == nil {
		return
	}
	if _, err := s.usage.RecordActivity(ctx, usagedomain.RecordActivityRequest{
		UserID:      userID,
		Action:      action,
		Description: description,
	}); err != nil {
		s.log.Warn("record activity failed", zap.String("action", action), zap.Error(err))
	}
}

func applyRemote(sub *domain.Subscription, remote *domain.ProviderSubscription) {
	sub.ProviderRef = remote.Ref
	sub.ProviderItemRef = remote.ItemRef
	sub.Status = remote.Status
	if sub.Status == "" {
		sub.Status = domain.StatusActive
	}
	sub.CurrentPeriodStart = remote.PeriodStart
	sub.CurrentPeriodEnd = remote.PeriodEnd
}

func upstream(err error) error {
	if errors.Is(err, domain.ErrUpstream) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
