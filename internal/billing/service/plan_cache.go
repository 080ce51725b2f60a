package service

import (
	"sync"
	"time"

	"github.com/smallbiznis/zyra/internal/config"
)

type planCache struct {
	ttl time.Duration
	now func() time.Time

	mu        sync.RWMutex
	expiresAt time.Time
	plans     []config.Plan
}

func newPlanCache(ttl time.Duration, now func() time.Time) *planCache {
	return &planCache{ttl: ttl, now: now}
}

func (c *planCache) Get() ([]config.Plan, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.plans == nil || c.now().After(c.expiresAt) {
		return nil, false
	}
	return append([]config.Plan(nil), c.plans...), true
}

func (c *planCache) Set(plans []config.Plan) {
	cloned := append([]config.Plan{}, plans...)
	c.mu.Lock()
	c.plans = cloned
	c.expiresAt = c.now().Add(c.ttl)
	c.mu.Unlock()
}
