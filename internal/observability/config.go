package observability

import (
	"os"
	"strconv"
	"strings"

	"github.com/smallbiznis/zyra/internal/config"
)

// Config is the logging and telemetry view of the process configuration.
// Variables follow the OpenTelemetry names where one exists.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	Log LogConfig

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
}

type LogConfig struct {
	Level  string
	Format string

	// File enables a rotated copy of the JSON log next to stdout.
	File           string
	FileMaxSizeMB  int
	FileMaxBackups int
	FileMaxAgeDays int
}

func LoadConfig(cfg config.Config) Config {
	env := lookupEnv{}

	serviceName := strings.TrimSpace(env.str("OTEL_SERVICE_NAME", cfg.AppName))
	if serviceName == "" {
		serviceName = "zyra"
	}

	protocol := env.lower("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
	if traces := env.lower("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", ""); traces != "" {
		protocol = traces
	}

	return Config{
		ServiceName: serviceName,
		Environment: env.str("DEPLOYMENT_ENV", cfg.Environment),
		Version:     env.str("SERVICE_VERSION", cfg.AppVersion),
		Log: LogConfig{
			Level:          env.lower("LOG_LEVEL", "info"),
			Format:         env.lower("LOG_FORMAT", "json"),
			File:           env.str("LOG_FILE", ""),
			FileMaxSizeMB:  env.number("LOG_FILE_MAX_SIZE_MB", 100),
			FileMaxBackups: env.number("LOG_FILE_MAX_BACKUPS", 5),
			FileMaxAgeDays: env.number("LOG_FILE_MAX_AGE_DAYS", 14),
		},
		OtelEnabled:          env.flag("OTEL_ENABLED", false),
		OtelExporterEndpoint: env.str("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTLPEndpoint),
		OtelExporterProtocol: protocol,
		OtelSamplingRatio:    env.ratio("OTEL_SAMPLING_RATIO", 0.1),
	}
}

// Debug turns on stack traces and verbose request logs.
func (c Config) Debug() bool {
	if c.Log.Level == "debug" {
		return true
	}
	switch strings.ToLower(c.Environment) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

type lookupEnv struct{}

func (lookupEnv) str(key, def string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return strings.TrimSpace(def)
}

func (e lookupEnv) lower(key, def string) string {
	return strings.ToLower(e.str(key, def))
}

func (e lookupEnv) flag(key string, def bool) bool {
	switch e.lower(key, "") {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func (e lookupEnv) number(key string, def int) int {
	parsed, err := strconv.Atoi(e.str(key, ""))
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

// ratio parses a sampling ratio and clamps it to [0, 1].
func (e lookupEnv) ratio(key string, def float64) float64 {
	parsed, err := strconv.ParseFloat(e.str(key, ""), 64)
	if err != nil {
		return def
	}
	return min(max(parsed, 0), 1)
}
