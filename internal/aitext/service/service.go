package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/zyra/internal/aitext/domain"
	"github.com/smallbiznis/zyra/internal/aitext/prompt"
	obsmetrics "github.com/smallbiznis/zyra/internal/observability/metrics"
	usagedomain "github.com/smallbiznis/zyra/internal/usagestats/domain"
	usageservice "github.com/smallbiznis/zyra/internal/usagestats/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	ActionGenerateDescription = "generate_description"
	ActionOptimizeSEO         = "optimize_seo"

	MaxTitleRunes    = 60
	MaxMetaRunes     = 160
	MaxKeywords      = 10
	maxProductName   = 200
	maxFreeTextRunes = 2000
)

type Params struct {
	fx.In

	Generator domain.Generator
	Usage     usagedomain.Service
	Log       *zap.Logger
	Metrics   *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	gen     domain.Generator
	usage   usagedomain.Service
	log     *zap.Logger
	metrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		gen:     p.Generator,
		usage:   p.Usage,
		log:     p.Log.Named("aitext.service"),
		metrics: p.Metrics,
	}
}

func (s *Service) GenerateDescription(ctx context.Context, userID snowflake.ID, req domain.DescriptionRequest) (*domain.DescriptionResponse, error) {
	req.ProductName = strings.TrimSpace(req.ProductName)
	if req.ProductName == "" || utf8.RuneCountInString(req.ProductName) > maxProductName {
		return nil, domain.ErrInvalidProductName
	}
	voice, err := domain.ParseBrandVoice(string(req.BrandVoice))
	if err != nil {
		return nil, err
	}
	req.BrandVoice = voice
	req.Features = truncate(req.Features, maxFreeTextRunes)
	req.Audience = truncate(req.Audience, maxFreeTextRunes)

	text, err := prompt.Description(req)
	if err != nil {
		return nil, err
	}
	out, err := s.generate(ctx, domain.Prompt{
		Kind:        domain.KindDescription,
		Text:        text,
		Description: &req,
	})
	if err != nil {
		return nil, err
	}

	s.bookkeep(ctx, userID, usagedomain.FieldAIGenerationsUsed, ActionGenerateDescription,
		fmt.Sprintf("Generated %s description for %s", voice, req.ProductName))
	return &domain.DescriptionResponse{Description: out}, nil
}

func (s *Service) OptimizeSEO(ctx context.Context, userID snowflake.ID, req domain.SEORequest) (*domain.SEOResponse, error) {
	req.CurrentTitle = strings.TrimSpace(req.CurrentTitle)
	if req.CurrentTitle == "" {
		return nil, domain.ErrInvalidTitle
	}
	req.CurrentMeta = truncate(req.CurrentMeta, maxFreeTextRunes)
	req.Keywords = truncate(req.Keywords, maxFreeTextRunes)

	text, err := prompt.SEO(req)
	if err != nil {
		return nil, err
	}
	raw, err := s.generate(ctx, domain.Prompt{
		Kind: domain.KindSEO,
		Text: text,
		JSON: true,
		SEO:  &req,
	})
	if err != nil {
		return nil, err
	}
	resp, err := parseSEO(raw)
	if err != nil {
		s.metrics.RecordAIRequest(ctx, domain.KindSEO, "malformed")
		return nil, err
	}

	s.bookkeep(ctx, userID, usagedomain.FieldSEOOptimizationsUsed, ActionOptimizeSEO,
		"Optimized SEO for "+req.CurrentTitle)
	return resp, nil
}

func (s *Service) generate(ctx context.Context, p domain.Prompt) (string, error) {
	out, err := s.gen.Generate(ctx, p)
	if err != nil {
		s.metrics.RecordAIRequest(ctx, p.Kind, "error")
		s.log.Warn("generation failed",
			zap.String("provider", s.gen.Name()),
			zap.String("kind", p.Kind),
			zap.Error(err),
		)
		if errors.Is(err, context.Canceled) || errors.Is(err, domain.ErrUpstream) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	s.metrics.RecordAIRequest(ctx, p.Kind, "success")
	return strings.TrimSpace(out), nil
}

// bookkeep updates the usage dashboard after a successful generation. The
// generated text is returned regardless of failures here.
func (s *Service) bookkeep(ctx context.Context, userID snowflake.ID, field usagedomain.StatField, action, description string) {
	if s.usage == nil || userID == 0 {
		return
	}
	if _, err := s.usage.IncrementStat(ctx, userID, field, 1); err != nil {
		s.log.Warn("increment usage failed", zap.String("field", string(field)), zap.Error(err))
	}
	if _, err := s.usage.RecordActivity(ctx, usagedomain.RecordActivityRequest{
		UserID:      userID,
		Action:      action,
		Description: description,
		ToolUsed:    usageservice.ToolAITools,
	}); err != nil {
		s.log.Warn("record activity failed", zap.String("action", action), zap.Error(err))
	}
	if _, err := s.usage.TrackToolAccess(ctx, userID, usageservice.ToolAITools); err != nil {
		s.log.Warn("track tool access failed", zap.Error(err))
	}
}

// parseSEO accepts the provider answer with or without a markdown fence
// and forces the result into the published limits.
func parseSEO(raw string) (*domain.SEOResponse, error) {
	body := stripFence(raw)
	if i, j := strings.Index(body, "{"), strings.LastIndex(body, "}"); i >= 0 && j > i {
		body = body[i : j+1]
	}

	var out struct {
		OptimizedTitle string   `json:"optimizedTitle"`
		OptimizedMeta  string   `json:"optimizedMeta"`
		Keywords       []string `json:"keywords"`
		SEOScore       float64  `json:"seoScore"`
	}
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return nil, fmt.Errorf("%w: malformed seo response: %v", domain.ErrUpstream, err)
	}
	title := truncate(out.OptimizedTitle, MaxTitleRunes)
	if title == "" {
		return nil, fmt.Errorf("%w: seo response without title", domain.ErrUpstream)
	}

	keywords := make([]string, 0, len(out.Keywords))
	for _, k := range out.Keywords {
		if k = strings.TrimSpace(k); k != "" && len(keywords) < MaxKeywords {
			keywords = append(keywords, k)
		}
	}

	return &domain.SEOResponse{
		OptimizedTitle: title,
		OptimizedMeta:  truncate(out.OptimizedMeta, MaxMetaRunes),
		Keywords:       keywords,
		SEOScore:       clampScore(out.SEOScore),
	}, nil
}

func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func clampScore(v float64) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return int(v + 0.5)
	}
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}
