// Package domain holds the AI copywriting request and response types.
package domain

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
)

type BrandVoice string

const (
	VoiceSales  BrandVoice = "sales"
	VoiceSEO    BrandVoice = "seo"
	VoiceCasual BrandVoice = "casual"
)

func ParseBrandVoice(raw string) (BrandVoice, error) {
	switch v := BrandVoice(strings.ToLower(strings.TrimSpace(raw))); v {
	case VoiceSales, VoiceSEO, VoiceCasual:
		return v, nil
	default:
		return "", ErrInvalidBrandVoice
	}
}

const (
	KindDescription = "description"
	KindSEO         = "seo"
)

// Prompt is one generation call. The structured request travels with the
// rendered text so offline generators can answer without parsing it.
type Prompt struct {
	Kind        string
	Text        string
	JSON        bool
	Description *DescriptionRequest
	SEO         *SEORequest
}

// Generator is the external text generation service.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

type Service interface {
	GenerateDescription(ctx context.Context, userID snowflake.ID, req DescriptionRequest) (*DescriptionResponse, error)
	OptimizeSEO(ctx context.Context, userID snowflake.ID, req SEORequest) (*SEOResponse, error)
}

type DescriptionRequest struct {
	ProductName string     `json:"productName"`
	Category    string     `json:"category"`
	Features    string     `json:"features"`
	Audience    string     `json:"audience"`
	BrandVoice  BrandVoice `json:"brandVoice"`
}

type DescriptionResponse struct {
	Description string `json:"description"`
}

type SEORequest struct {
	CurrentTitle string `json:"currentTitle"`
	Keywords     string `json:"keywords"`
	CurrentMeta  string `json:"currentMeta"`
	Category     string `json:"category"`
}

type SEOResponse struct {
	OptimizedTitle string   `json:"optimizedTitle"`
	OptimizedMeta  string   `json:"optimizedMeta"`
	Keywords       []string `json:"keywords"`
	SEOScore       int      `json:"seoScore"`
}

var (
	ErrInvalidBrandVoice  = errors.New("invalid_brand_voice")
	ErrInvalidProductName = errors.New("invalid_product_name")
	ErrInvalidTitle       = errors.New("invalid_current_title")
	// ErrUpstream marks failures of the generation provider.
	ErrUpstream = errors.New("upstream_error")
)
