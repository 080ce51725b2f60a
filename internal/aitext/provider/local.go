package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/smallbiznis/zyra/internal/aitext/domain"
)

// Local writes deterministic copy without calling any model. It keeps the
// dashboard usable in development when no API key is configured.
type Local struct{}

func NewLocal() *Local { return &Local{} }

func (Local) Name() string { return "local" }

func (l Local) Generate(ctx context.Context, prompt domain.Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch {
	case prompt.Description != nil:
		return l.description(*prompt.Description), nil
	case prompt.SEO != nil:
		return l.seo(*prompt.SEO)
	default:
		return "", fmt.Errorf("%w: local generator cannot answer %q prompts", domain.ErrUpstream, prompt.Kind)
	}
}

func (Local) description(req domain.DescriptionRequest) string {
	name := strings.TrimSpace(req.ProductName)
	category := orDefault(strings.ToLower(strings.TrimSpace(req.Category)), "everyday")
	audience := orDefault(strings.TrimSpace(req.Audience), "anyone who values quality")
	features := strings.TrimSpace(req.Features)

	var b strings.Builder
	switch req.BrandVoice {
	case domain.VoiceSales:
		fmt.Fprintf(&b, "Meet %s, the %s upgrade %s has been waiting for.", name, category, audience)
		if features != "" {
			fmt.Fprintf(&b, " Packed with %s.", features)
		}
		b.WriteString(" Order today while stock lasts.")
	case domain.VoiceSEO:
		fmt.Fprintf(&b, "%s is a %s product made for %s.", name, category, audience)
		if features != "" {
			fmt.Fprintf(&b, " Key features: %s.", features)
		}
		fmt.Fprintf(&b, " Shop %s online with fast shipping.", name)
	default:
		fmt.Fprintf(&b, "Say hi to %s! It's the %s pick we'd hand to %s.", name, category, audience)
		if features != "" {
			fmt.Fprintf(&b, " You'll love the %s.", features)
		}
	}
	return b.String()
}

func (Local) seo(req domain.SEORequest) (string, error) {
	title := strings.TrimSpace(req.CurrentTitle)
	keywords := splitKeywords(req.Keywords)
	if c := strings.ToLower(strings.TrimSpace(req.Category)); c != "" {
		keywords = appendUnique(keywords, c)
	}

	optimized := title
	if len(keywords) > 0 && !strings.Contains(strings.ToLower(title), keywords[0]) {
		optimized = title + " | " + keywords[0]
	}
	meta := strings.TrimSpace(req.CurrentMeta)
	if meta == "" {
		meta = "Discover " + title + "."
	}
	if len(keywords) > 0 {
		meta += " Best " + strings.Join(keywords, ", ") + " deals."
	}

	score := 50 + 8*len(keywords)
	if strings.TrimSpace(req.CurrentMeta) != "" {
		score += 10
	}

	raw, err := json.Marshal(domain.SEOResponse{
		OptimizedTitle: optimized,
		OptimizedMeta:  meta,
		Keywords:       keywords,
		SEOScore:       score,
	})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func splitKeywords(raw string) []string {
	out := []string{}
	for _, k := range strings.Split(raw, ",") {
		out = appendUnique(out, strings.ToLower(strings.TrimSpace(k)))
	}
	return out
}

func appendUnique(list []string, v string) []string {
	if v == "" {
		return list
	}
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

var _ domain.Generator = Local{}
