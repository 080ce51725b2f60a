package scheduler

import (
	"time"

	"github.com/smallbiznis/zyra/internal/config"
)

// Config controls housekeeping intervals and retention windows.
type Config struct {
	Enabled               bool
	RunInterval           time.Duration
	SessionRetention      time.Duration
	NotificationRetention time.Duration
	LockTTL               time.Duration
}

func DefaultConfig() Config {
	return Config{
		Enabled:               true,
		RunInterval:           time.Hour,
		SessionRetention:      7 * 24 * time.Hour,
		NotificationRetention: 90 * 24 * time.Hour,
		LockTTL:               10 * time.Minute,
	}
}

func ProvideConfig(cfg config.Config) Config {
	c := DefaultConfig()
	c.Enabled = cfg.Scheduler.Enabled
	if cfg.Scheduler.RunInterval > 0 {
		c.RunInterval = cfg.Scheduler.RunInterval
	}
	return c.withDefaults()
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.SessionRetention <= 0 {
		c.SessionRetention = defaults.SessionRetention
	}
	if c.NotificationRetention <= 0 {
		c.NotificationRetention = defaults.NotificationRetention
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaults.LockTTL
	}
	return c
}
