// Package prompt renders generation prompts from text/template sources.
package prompt

import (
	"strings"
	"text/template"

	"github.com/smallbiznis/zyra/internal/aitext/domain"
)

var funcs = template.FuncMap{
	"orDefault": func(def, v string) string {
		if strings.TrimSpace(v) == "" {
			return def
		}
		return strings.TrimSpace(v)
	},
}

var descriptionTemplates = map[domain.BrandVoice]*template.Template{
	domain.VoiceSales: template.Must(template.New("sales").Funcs(funcs).Parse(
		`Write a persuasive, conversion-focused product description for an online store.
Product: {{.ProductName}}
Category: {{orDefault "general" .Category}}
Key features: {{orDefault "not specified" .Features}}
Target audience: {{orDefault "online shoppers" .Audience}}
Lead with the main benefit, create urgency, and end with a clear call to action.
Keep it under 150 words. Return only the description text.`)),

	domain.VoiceSEO: template.Must(template.New("seo").Funcs(funcs).Parse(
		`Write a search-optimized product description.
Product: {{.ProductName}}
Category: {{orDefault "general" .Category}}
Key features: {{orDefault "not specified" .Features}}
Target audience: {{orDefault "online shoppers" .Audience}}
Use the product name and category naturally in the first sentence, include
relevant long-tail keywords, and use short scannable sentences.
Keep it under 160 words. Return only the description text.`)),

	domain.VoiceCasual: template.Must(template.New("casual").Funcs(funcs).Parse(
		`Write a friendly, conversational product description, as if recommending it to a friend.
Product: {{.ProductName}}
Category: {{orDefault "general" .Category}}
Key features: {{orDefault "not specified" .Features}}
Target audience: {{orDefault "online shoppers" .Audience}}
Keep it light and under 120 words. Return only the description text.`)),
}

var seoTemplate = template.Must(template.New("seo-optimize").Funcs(funcs).Parse(
	`You are an e-commerce SEO specialist. Improve the listing below.
Current title: {{.CurrentTitle}}
Current meta description: {{orDefault "none" .CurrentMeta}}
Target keywords: {{orDefault "none" .Keywords}}
Category: {{orDefault "general" .Category}}
Respond with JSON only, no markdown, using exactly these fields:
{"optimizedTitle": string (max 60 characters),
 "optimizedMeta": string (max 160 characters),
 "keywords": array of up to 10 strings,
 "seoScore": integer 0-100 rating the optimized listing}`))

// Description renders the template for req.BrandVoice.
func Description(req domain.DescriptionRequest) (string, error) {
	tmpl, ok := descriptionTemplates[req.BrandVoice]
	if !ok {
		return "", domain.ErrInvalidBrandVoice
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, req); err != nil {
		return "", err
	}
	return b.String(), nil
}

func SEO(req domain.SEORequest) (string, error) {
	var b strings.Builder
	if err := seoTemplate.Execute(&b, req); err != nil {
		return "", err
	}
	return b.String(), nil
}
