package billing

import (
	"github.com/smallbiznis/zyra/internal/billing/domain"
	"github.com/smallbiznis/zyra/internal/billing/provider"
	"github.com/smallbiznis/zyra/internal/billing/service"
	"github.com/smallbiznis/zyra/internal/clock"
	"github.com/smallbiznis/zyra/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("billing.service",
	fx.Provide(provideProvider),
	fx.Provide(service.New),
)

func provideProvider(cfg config.Config, c clock.Clock, log *zap.Logger) domain.Provider {
	if cfg.Stripe.SecretKey == "" {
		log.Warn("STRIPE_SECRET_KEY not set; billing settles locally")
		return provider.NewLocal(c)
	}
	return provider.NewStripe(cfg.Stripe.SecretKey, cfg.Stripe.BaseURL)
}
