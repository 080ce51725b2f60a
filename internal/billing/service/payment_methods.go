package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/zyra/internal/billing/domain"
	"github.com/smallbiznis/zyra/pkg/db/option"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (s *Service) ListPaymentMethods(ctx context.Context, userID snowflake.ID) ([]domain.PaymentMethod, error) {
	rows, err := s.methods.Find(ctx, &domain.PaymentMethod{UserID: userID},
		option.WithSortBy(option.QuerySortBy{Column: "created_at"}))
	if err != nil {
		return nil, fmt.Errorf("billing.list_payment_methods: %w", err)
	}
	out := make([]domain.PaymentMethod, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	return out, nil
}

// AddPaymentMethod attaches a tokenized card. The first card becomes the
// default.
func (s *Service) AddPaymentMethod(ctx context.Context, userID snowflake.ID, req domain.AddPaymentMethodRequest) (*domain.PaymentMethod, error) {
	token := strings.TrimSpace(req.Token)
	if token == "" {
		return nil, domain.ErrInvalidToken
	}
	customerRef, err := s.ensureCustomer(ctx, userID, req.Email)
	if err != nil {
		return nil, err
	}

	remote, err := s.provider.AttachPaymentMethod(ctx, customerRef, token)
	s.recordCall(ctx, "attach_payment_method", err)
	if err != nil {
		return nil, upstream(err)
	}

	count, err := s.methods.Count(ctx, &domain.PaymentMethod{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("billing.add_payment_method: %w", err)
	}
	pm := &domain.PaymentMethod{
		ID:          s.genID.Generate(),
		UserID:      userID,
		ProviderRef: remote.Ref,
		Brand:       remote.Brand,
		Last4:       remote.Last4,
		ExpMonth:    remote.ExpMonth,
		ExpYear:     remote.ExpYear,
		IsDefault:   count == 0,
		CreatedAt:   s.clock.Now(),
	}
	if pm.IsDefault {
		err := s.provider.SetDefaultPaymentMethod(ctx, customerRef, pm.ProviderRef)
		s.recordCall(ctx, "set_default_payment_method", err)
		if err != nil {
			return nil, upstream(err)
		}
	}
	if err := s.methods.Create(ctx, pm); err != nil {
		return nil, fmt.Errorf("billing.add_payment_method: %w", err)
	}
	return pm, nil
}

func (s *Service) SetDefaultPaymentMethod(ctx context.Context, userID snowflake.ID, id string) (*domain.PaymentMethod, error) {
	pm, err := s.findPaymentMethod(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if pm.IsDefault {
		return pm, nil
	}
	customerRef, err := s.ensureCustomer(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	err = s.provider.SetDefaultPaymentMethod(ctx, customerRef, pm.ProviderRef)
	s.recordCall(ctx, "set_default_payment_method", err)
	if err != nil {
		return nil, upstream(err)
	}

	if err := s.markDefault(ctx, userID, pm.ID); err != nil {
		return nil, fmt.Errorf("billing.set_default_payment_method: %w", err)
	}
	pm.IsDefault = true
	return pm, nil
}

// RemovePaymentMethod detaches the card and, when it was the default,
// promotes the oldest remaining card.
func (s *Service) RemovePaymentMethod(ctx context.Context, userID snowflake.ID, id string) error {
	pm, err := s.findPaymentMethod(ctx, userID, id)
	if err != nil {
		return err
	}
	err = s.provider.DetachPaymentMethod(ctx, pm.ProviderRef)
	s.recordCall(ctx, "detach_payment_method", err)
	if err != nil {
		return upstream(err)
	}

	if _, err := s.methods.Delete(ctx, &domain.PaymentMethod{ID: pm.ID, UserID: userID}); err != nil {
		return fmt.Errorf("billing.remove_payment_method: %w", err)
	}
	if !pm.IsDefault {
		return nil
	}

	next, err := s.methods.FindOne(ctx, &domain.PaymentMethod{UserID: userID},
		option.WithSortBy(option.QuerySortBy{Column: "created_at"}))
	if err != nil || next == nil {
		return err
	}
	if err := s.markDefault(ctx, userID, next.ID); err != nil {
		return fmt.Errorf("billing.remove_payment_method: %w", err)
	}
	if customer, err := s.customers.FindOne(ctx, &domain.Customer{UserID: userID}); err == nil && customer != nil {
		if err := s.provider.SetDefaultPaymentMethod(ctx, customer.ProviderRef, next.ProviderRef); err != nil {
			s.log.Warn("promote default payment method failed", zap.Error(err))
		}
	}
	return nil
}

func (s *Service) markDefault(ctx context.Context, userID, id snowflake.ID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		methods := s.methods.WithTrx(tx)
		if _, err := methods.Update(ctx, &domain.PaymentMethod{UserID: userID}, map[string]any{"is_default": false}); err != nil {
			return err
		}
		_, err := methods.Update(ctx, &domain.PaymentMethod{ID: id, UserID: userID}, map[string]any{"is_default": true})
		return err
	})
}

func (s *Service) findPaymentMethod(ctx context.Context, userID snowflake.ID, id string) (*domain.PaymentMethod, error) {
	pmID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	pm, err := s.methods.FindOne(ctx, &domain.PaymentMethod{ID: pmID, UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("billing.find_payment_method: %w", err)
	}
	if pm == nil {
		return nil, domain.ErrPaymentMethodNotFound
	}
	return pm, nil
}
