package domain

import "strings"

// StatField names an aggregate counter on UsageStats.
type StatField string

const (
	FieldTotalRevenue         StatField = "totalRevenue"
	FieldTotalOrders          StatField = "totalOrders"
	FieldConversionRate       StatField = "conversionRate"
	FieldCartRecoveryRate     StatField = "cartRecoveryRate"
	FieldProductsOptimized    StatField = "productsOptimized"
	FieldEmailsSent           StatField = "emailsSent"
	FieldSMSSent              StatField = "smsSent"
	FieldAIGenerationsUsed    StatField = "aiGenerationsUsed"
	FieldSEOOptimizationsUsed StatField = "seoOptimizationsUsed"
)

var fieldColumns = map[StatField]string{
	FieldTotalRevenue:         "total_revenue",
	FieldTotalOrders:          "total_orders",
	FieldConversionRate:       "conversion_rate",
	FieldCartRecoveryRate:     "cart_recovery_rate",
	FieldProductsOptimized:    "products_optimized",
	FieldEmailsSent:           "emails_sent",
	FieldSMSSent:              "sms_sent",
	FieldAIGenerationsUsed:    "ai_generations_used",
	FieldSEOOptimizationsUsed: "seo_optimizations_used",
}

// ParseStatField accepts the JSON name or the column name.
func ParseStatField(raw string) (StatField, error) {
	raw = strings.TrimSpace(raw)
	if _, ok := fieldColumns[StatField(raw)]; ok {
		return StatField(raw), nil
	}
	for field, column := range fieldColumns {
		if strings.EqualFold(column, raw) || strings.EqualFold(string(field), raw) {
			return field, nil
		}
	}
	return "", ErrInvalidStatField
}

// Column returns the database column backing the field.
func (f StatField) Column() (string, bool) {
	column, ok := fieldColumns[f]
	return column, ok
}

// Ptr returns the address of the counter on s.
func (f StatField) Ptr(s *UsageStats) *int64 {
	switch f {
	case FieldTotalRevenue:
		return &s.TotalRevenue
	case FieldTotalOrders:
		return &s.TotalOrders
	case FieldConversionRate:
		return &s.ConversionRate
	case FieldCartRecoveryRate:
		return &s.CartRecoveryRate
	case FieldProductsOptimized:
		return &s.ProductsOptimized
	case FieldEmailsSent:
		return &s.EmailsSent
	case FieldSMSSent:
		return &s.SMSSent
	case FieldAIGenerationsUsed:
		return &s.AIGenerationsUsed
	case FieldSEOOptimizationsUsed:
		return &s.SEOOptimizationsUsed
	default:
		return nil
	}
}
