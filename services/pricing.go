package services

import (
	"math"

	"github.com/tomdro61/shop-pilot-sub000/models"

	"github.com/samber/lo"
)

// PriceLineItems totals the items and applies taxRate to the subtotal,
// rounding tax to the nearest cent.
func PriceLineItems(items []models.LineItem, taxRate float64) models.Totals {
	subtotal := lo.SumBy(items, func(li models.LineItem) int64 { return li.TotalCents() })
	tax := int64(math.Round(float64(subtotal) * taxRate))
	return models.Totals{
		SubtotalCents: subtotal,
		TaxCents:      tax,
		TotalCents:    subtotal + tax,
	}
}
