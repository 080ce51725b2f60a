package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	aiRequests       metric.Int64Counter
	usageIncrements  metric.Int64Counter
	activityRecorded metric.Int64Counter
	optimizeRuns     metric.Int64Counter
	optimizeRemoved  metric.Int64Counter
	rateLimitDenied  metric.Int64Counter
	billingCalls     metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				log.Info("shutting down meter provider")
				return provider.Shutdown(ctx)
			},
		})
	}

	log.Info("metrics initialized",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)
	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "zyra"
	}
	meter := provider.Meter(name)

	var (
		m   Metrics
		err error
	)
	counters := []struct {
		dst  *metric.Int64Counter
		name string
	}{
		{&m.aiRequests, "zyra_ai_requests_total"},
		{&m.usageIncrements, "zyra_usage_increments_total"},
		{&m.activityRecorded, "zyra_activity_recorded_total"},
		{&m.optimizeRuns, "zyra_optimize_all_runs_total"},
		{&m.optimizeRemoved, "zyra_optimize_all_duplicates_removed_total"},
		{&m.rateLimitDenied, "zyra_rate_limit_denied_total"},
		{&m.billingCalls, "zyra_billing_provider_calls_total"},
	}
	for _, c := range counters {
		if *c.dst, err = meter.Int64Counter(c.name); err != nil {
			return nil, err
		}
	}
	return &m, nil
}

// RecordAIRequest counts generator calls by kind and outcome.
func (m *Metrics) RecordAIRequest(ctx context.Context, kind, outcome string) {
	if m == nil {
		return
	}
	m.aiRequests.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("kind", strings.TrimSpace(kind)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)...))
}

// RecordUsageIncrement counts positive increments only; counters are monotonic.
func (m *Metrics) RecordUsageIncrement(ctx context.Context, field string, delta int64) {
	if m == nil || delta <= 0 {
		return
	}
	m.usageIncrements.Add(ctx, delta, metric.WithAttributes(FilterAttributes(
		attribute.String("field", strings.TrimSpace(field)),
	)...))
}

func (m *Metrics) RecordActivity(ctx context.Context, action string) {
	if m == nil {
		return
	}
	m.activityRecorded.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("action", strings.TrimSpace(action)),
	)...))
}

// RecordOptimizeAll counts a completed bulk pass and the duplicates it removed.
func (m *Metrics) RecordOptimizeAll(ctx context.Context, outcome string, removed int) {
	if m == nil {
		return
	}
	m.optimizeRuns.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)...))
	if removed > 0 {
		m.optimizeRemoved.Add(ctx, int64(removed))
	}
}

func (m *Metrics) RecordRateLimitDenied(ctx context.Context, endpoint, reason string) {
	if m == nil {
		return
	}
	m.rateLimitDenied.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("endpoint", strings.TrimSpace(endpoint)),
		attribute.String("reason", strings.TrimSpace(reason)),
	)...))
}

func (m *Metrics) RecordBillingCall(ctx context.Context, provider, operation, outcome string) {
	if m == nil {
		return
	}
	m.billingCalls.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("provider", strings.TrimSpace(provider)),
		attribute.String("operation", strings.TrimSpace(operation)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"kind":      {},
	"outcome":   {},
	"field":     {},
	"action":    {},
	"endpoint":  {},
	"reason":    {},
	"provider":  {},
	"operation": {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
