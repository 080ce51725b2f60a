package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// CategoryDefaults fills product fields the merchant left empty.
type CategoryDefaults struct {
	Description string   `mapstructure:"description"`
	Tags        []string `mapstructure:"tags"`
}

// Range is a half-open integer interval [Min, Max).
type Range struct {
	Min int64 `mapstructure:"min"`
	Max int64 `mapstructure:"max"`
}

type SeedRanges struct {
	Revenue          Range `mapstructure:"revenue"`
	Orders           Range `mapstructure:"orders"`
	ConversionRate   Range `mapstructure:"conversionRate"`
	CartRecoveryRate Range `mapstructure:"cartRecoveryRate"`
}

type Plan struct {
	Code     string `mapstructure:"code" json:"code"`
	Name     string `mapstructure:"name" json:"name"`
	Amount   int64  `mapstructure:"amount" json:"amount"`
	Currency string `mapstructure:"currency" json:"currency"`
	Interval string `mapstructure:"interval" json:"interval"`
	// PriceID is the billing provider's price reference.
	PriceID string `mapstructure:"priceId" json:"-"`
}

type Catalog struct {
	Categories map[string]CategoryDefaults `mapstructure:"categories"`
	Seed       SeedRanges                  `mapstructure:"seed"`
	Plans      []Plan                      `mapstructure:"plans"`
}

// Category looks up defaults case-insensitively.
func (c Catalog) Category(name string) (CategoryDefaults, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return CategoryDefaults{}, false
	}
	if def, ok := c.Categories[key]; ok {
		return def, true
	}
	for k, def := range c.Categories {
		if strings.EqualFold(k, key) {
			return def, true
		}
	}
	return CategoryDefaults{}, false
}

// Plan returns the plan with the given code.
func (c Catalog) Plan(code string) (Plan, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, p := range c.Plans {
		if strings.ToLower(p.Code) == code {
			return p, true
		}
	}
	return Plan{}, false
}

func DefaultCatalog() Catalog {
	return Catalog{
		Categories: map[string]CategoryDefaults{
			"electronics": {
				Description: "Reliable electronics built for everyday performance.",
				Tags:        []string{"electronics", "tech", "gadgets"},
			},
			"clothing": {
				Description: "Comfortable apparel made with quality fabrics.",
				Tags:        []string{"clothing", "fashion", "apparel"},
			},
			"home": {
				Description: "Thoughtfully designed essentials for your home.",
				Tags:        []string{"home", "living", "decor"},
			},
			"beauty": {
				Description: "Beauty and personal care products for a daily routine.",
				Tags:        []string{"beauty", "skincare", "self-care"},
			},
			"sports": {
				Description: "Gear that keeps up with an active lifestyle.",
				Tags:        []string{"sports", "fitness", "outdoor"},
			},
		},
		Seed: SeedRanges{
			Revenue:          Range{Min: 10000, Max: 60000},
			Orders:           Range{Min: 50, Max: 250},
			ConversionRate:   Range{Min: 150, Max: 450},
			CartRecoveryRate: Range{Min: 1000, Max: 3000},
		},
		Plans: []Plan{
			{Code: "starter", Name: "Starter", Amount: 1900, Currency: "usd", Interval: "month"},
			{Code: "growth", Name: "Growth", Amount: 4900, Currency: "usd", Interval: "month"},
			{Code: "scale", Name: "Scale", Amount: 9900, Currency: "usd", Interval: "month"},
		},
	}
}

type CatalogHolder struct {
	current atomic.Value // holds Catalog
}

// NewStaticCatalogHolder serves a fixed catalog without watching any file.
func NewStaticCatalogHolder(c Catalog) *CatalogHolder {
	holder := &CatalogHolder{}
	holder.current.Store(c)
	return holder
}

func NewCatalogHolder(cfg Config) (*CatalogHolder, error) {
	v := viper.New()

	if cfg.CatalogConfigPath != "" {
		v.SetConfigFile(cfg.CatalogConfigPath)
	} else {
		v.SetConfigName("catalog")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/zyra")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("ZYRA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || cfg.CatalogConfigPath != "" {
			return nil, err
		}
		return NewStaticCatalogHolder(DefaultCatalog()), nil
	}

	catalog, err := decodeCatalog(v)
	if err != nil {
		return nil, err
	}

	holder := NewStaticCatalogHolder(catalog)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeCatalog(v)
		if err != nil {
			log.Printf("[catalog-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[catalog-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *CatalogHolder) Get() Catalog {
	return h.current.Load().(Catalog)
}

func decodeCatalog(v *viper.Viper) (Catalog, error) {
	var c Catalog
	if err := v.UnmarshalKey("catalog", &c); err != nil {
		return Catalog{}, err
	}
	normalized := make(map[string]CategoryDefaults, len(c.Categories))
	for k, def := range c.Categories {
		normalized[strings.ToLower(strings.TrimSpace(k))] = def
	}
	c.Categories = normalized
	return c, validateCatalog(c)
}

func validateCatalog(c Catalog) error {
	for name, r := range map[string]Range{
		"revenue":          c.Seed.Revenue,
		"orders":           c.Seed.Orders,
		"conversionRate":   c.Seed.ConversionRate,
		"cartRecoveryRate": c.Seed.CartRecoveryRate,
	} {
		if r.Min < 0 || r.Max <= r.Min {
			return errors.New("catalog.seed." + name + " must satisfy 0 <= min < max")
		}
	}
	if len(c.Plans) == 0 {
		return errors.New("catalog.plans cannot be empty")
	}
	return nil
}
