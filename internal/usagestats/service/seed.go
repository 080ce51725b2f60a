package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/zyra/internal/config"
	"github.com/smallbiznis/zyra/internal/usagestats/domain"
)

// between returns a value in [r.Min, r.Max).
func (s *Service) between(r config.Range) int64 {
	if r.Max <= r.Min {
		return r.Min
	}
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return r.Min + s.rnd.Int64N(r.Max-r.Min)
}

func (s *Service) seedStats(userID snowflake.ID) *domain.UsageStats {
	seed := config.DefaultCatalog().Seed
	if s.catalog != nil {
		seed = s.catalog.Get().Seed
	}
	return &domain.UsageStats{
		UserID:           userID,
		TotalRevenue:     s.between(seed.Revenue),
		TotalOrders:      s.between(seed.Orders),
		ConversionRate:   s.between(seed.ConversionRate),
		CartRecoveryRate: s.between(seed.CartRecoveryRate),
		LastUpdated:      s.clock.Now(),
	}
}

type sampleSpec struct {
	name  string
	value func(s *Service) string
}

var sampleSpecs = []sampleSpec{
	{name: "revenue", value: func(s *Service) string {
		return "$" + groupThousands(s.between(config.Range{Min: 1000, Max: 10000}))
	}},
	{name: "orders", value: func(s *Service) string {
		return strconv.FormatInt(s.between(config.Range{Min: 10, Max: 200}), 10)
	}},
	{name: "conversion_rate", value: func(s *Service) string {
		bp := s.between(config.Range{Min: 150, Max: 450})
		return fmt.Sprintf("%d.%02d%%", bp/100, bp%100)
	}},
	{name: "visitors", value: func(s *Service) string {
		return groupThousands(s.between(config.Range{Min: 100, Max: 2000}))
	}},
}

func (s *Service) sampleBatch(userID snowflake.ID, now time.Time) []domain.RealtimeMetric {
	samples := make([]domain.RealtimeMetric, 0, len(sampleSpecs))
	for _, spec := range sampleSpecs {
		// change in tenths of a percent, [-15.0, +25.0)
		tenths := s.between(config.Range{Min: -150, Max: 250})
		positive := tenths >= 0
		sign := "+"
		if !positive {
			sign = "-"
			tenths = -tenths
		}
		samples = append(samples, domain.RealtimeMetric{
			ID:            ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
			UserID:        userID,
			MetricName:    spec.name,
			Value:         spec.value(s),
			ChangePercent: fmt.Sprintf("%s%d.%d%%", sign, tenths/10, tenths%10),
			IsPositive:    positive,
			Timestamp:     now,
		})
	}
	return samples
}

func groupThousands(n int64) string {
	raw := strconv.FormatInt(n, 10)
	if len(raw) <= 3 {
		return raw
	}
	out := make([]byte, 0, len(raw)+len(raw)/3)
	lead := len(raw) % 3
	if lead > 0 {
		out = append(out, raw[:lead]...)
	}
	for i := lead; i < len(raw); i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, raw[i:i+3]...)
	}
	return string(out)
}
