package redact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue(t *testing.T) {
	assert.Equal(t, "", Value("  "))
	assert.Equal(t, "****", Value("abc"))
	assert.Equal(t, "****4242", Value("4242424242424242"))
}

func TestMetadataMasksSensitiveKeys(t *testing.T) {
	in := map[string]any{
		"product":  "Blue Mug",
		"apiKey":   "sk_live_abcdef123456",
		"count":    float64(3),
		" ":        "dropped",
		"customer": map[string]any{"cardNumber": "4000056655665556", "name": "Ada"},
		"steps":    []any{map[string]any{"token": "tok_9999"}, "plain"},
		"pin":      nil,
	}

	got := Metadata(in)

	assert.Equal(t, "Blue Mug", got["product"])
	assert.Equal(t, "****3456", got["apiKey"])
	assert.Equal(t, float64(3), got["count"])
	assert.NotContains(t, got, " ")
	assert.Equal(t, map[string]any{"cardNumber": "****5556", "name": "Ada"}, got["customer"])
	assert.Equal(t, []any{map[string]any{"token": "****9999"}, "plain"}, got["steps"])
	assert.Equal(t, "sk_live_abcdef123456", in["apiKey"])
}

func TestMetadataEmpty(t *testing.T) {
	assert.Nil(t, Metadata(nil))
	assert.Nil(t, Metadata(map[string]any{"": "x"}))
}
