package usagestats

import (
	"fmt"

	"github.com/smallbiznis/zyra/internal/config"
	"github.com/smallbiznis/zyra/internal/usagestats/domain"
	"github.com/smallbiznis/zyra/internal/usagestats/liveevents"
	"github.com/smallbiznis/zyra/internal/usagestats/repository/memory"
	sqlstore "github.com/smallbiznis/zyra/internal/usagestats/repository/sql"
	"github.com/smallbiznis/zyra/internal/usagestats/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("usagestats.service",
	fx.Provide(provideStore),
	fx.Provide(liveevents.NewHub),
	fx.Provide(service.New),
)

type storeParams struct {
	fx.In

	Config config.Config
	DB     *gorm.DB `optional:"true"`
	Log    *zap.Logger
}

// provideStore picks the backend once at startup.
func provideStore(p storeParams) (domain.Store, error) {
	switch p.Config.UsageStore {
	case config.UsageStoreMemory:
		p.Log.Warn("usage stats kept in memory; data is lost on restart")
		return memory.New(), nil
	case config.UsageStoreSQL, "":
		if p.DB == nil {
			return nil, fmt.Errorf("usage store %q requires a database", config.UsageStoreSQL)
		}
		return sqlstore.New(p.DB), nil
	default:
		return nil, fmt.Errorf("unknown usage store %q", p.Config.UsageStore)
	}
}
