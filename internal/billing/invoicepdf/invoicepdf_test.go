package invoicepdf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderProducesPDF(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, Data{
		IssuerName:    "Zyra",
		InvoiceNumber: "ZYR-202506-000001",
		IssueDate:     "2025-06-01",
		ServicePeriod: "2025-06-01 - 2025-07-01",
		Status:        "paid",
		BillToName:    "Acme",
		Items:         []Item{{Description: "Growth plan", Qty: 1, UnitPrice: "USD 49.00", Amount: "USD 49.00"}},
		Total:         "USD 49.00",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "USD 49.00", FormatAmount(4900, "usd"))
	assert.Equal(t, "EUR 0.05", FormatAmount(5, "eur"))
	assert.Equal(t, "USD -1.50", FormatAmount(-150, "usd"))
}
