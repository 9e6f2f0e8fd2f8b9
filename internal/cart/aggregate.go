package cart

import (
	"github.com/shopspring/decimal"

	"github.com/shoplight/shoplight-backend/pkg/db/models"
)

// LineItem is one product aggregated across its raw cart entries. Quantity
// is derived by counting entries; it is never stored.
type LineItem struct {
	ProductID  string  `json:"product_id"`
	Name       string  `json:"name"`
	PriceCents int64   `json:"price_cents"`
	ImageURL   string  `json:"image_url"`
	Category   *string `json:"category,omitempty"`
	Quantity   int     `json:"quantity"`
}

// LineTotalCents is the price of the line before tax.
func (l LineItem) LineTotalCents() int64 {
	return l.PriceCents * int64(l.Quantity)
}

// Quote holds the derived money view of a cart.
type Quote struct {
	Lines         []LineItem `json:"lines"`
	SubtotalCents int64      `json:"subtotal_cents"`
	TaxCents      int64      `json:"tax_cents"`
	TotalCents    int64      `json:"total_cents"`
}

// Aggregate folds raw entries into line items. Lines appear in the order
// each product was first added; later duplicates only bump the quantity.
func Aggregate(entries []models.CartEntry) []LineItem {
	lines := make([]LineItem, 0, len(entries))
	index := make(map[string]int, len(entries))

	for _, entry := range entries {
		if i, ok := index[entry.ProductID]; ok {
			lines[i].Quantity++
			continue
		}
		index[entry.ProductID] = len(lines)
		lines = append(lines, LineItem{
			ProductID:  entry.ProductID,
			Name:       entry.Name,
			PriceCents: entry.PriceCents,
			ImageURL:   entry.ImageURL,
			Category:   entry.Category,
			Quantity:   1,
		})
	}

	return lines
}

// BuildQuote aggregates entries and computes subtotal, tax, and total.
// Tax is rounded per line, then summed, so the total matches what each
// line displays.
func BuildQuote(entries []models.CartEntry, taxRateBasisPoints int64) Quote {
	lines := Aggregate(entries)
	rate := decimal.New(taxRateBasisPoints, -4)

	var subtotal, tax int64
	for _, line := range lines {
		lineTotal := line.LineTotalCents()
		subtotal += lineTotal

		lineTax := decimal.NewFromInt(lineTotal).Mul(rate).Round(0)
		tax += lineTax.IntPart()
	}

	return Quote{
		Lines:         lines,
		SubtotalCents: subtotal,
		TaxCents:      tax,
		TotalCents:    subtotal + tax,
	}
}
