package aitext

import (
	"context"

	"github.com/smallbiznis/zyra/internal/aitext/domain"
	"github.com/smallbiznis/zyra/internal/aitext/provider"
	"github.com/smallbiznis/zyra/internal/aitext/service"
	"github.com/smallbiznis/zyra/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("aitext.service",
	fx.Provide(provideGenerator),
	fx.Provide(service.New),
)

// provideGenerator uses Gemini when a key is configured and the offline
// template generator otherwise.
func provideGenerator(cfg config.Config, log *zap.Logger) (domain.Generator, error) {
	if cfg.AI.GeminiAPIKey == "" {
		log.Warn("GEMINI_API_KEY not set; using local copy generator")
		return provider.NewLocal(), nil
	}
	return provider.NewGemini(context.Background(), cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel)
}
