package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/senyabanana/pharma-bid-service/internal/models"
)

// Prices round to currency minor units, discounts to one decimal place.
const (
	priceScale    = 2
	discountScale = 1
)

var hundred = decimal.NewFromInt(100)

// WholesalePrice is the price the wholesaler actually offers:
// mrp * (1 - discount/100), rounded to 2 decimal places.
func WholesalePrice(mrp, discountPercent float64) float64 {
	price := priceAtDiscount(decimal.NewFromFloat(mrp), decimal.NewFromFloat(discountPercent))
	result, _ := price.Round(priceScale).Float64()
	return result
}

// RetailerDiscount is the effective discount shown to the retailer after
// the class margin is subtracted, clamped to [0, 100] and rounded to one
// decimal place. The margin comes off the shown discount, not the price,
// so higher-margin classes show a smaller discount than the wholesaler
// actually offered.
func RetailerDiscount(discountPercent float64, class models.MarginClass, margins models.MarginTable) float64 {
	margin := decimal.NewFromFloat(margins.Lookup(class))
	shown := decimal.NewFromFloat(discountPercent).Sub(margin)
	if shown.IsNegative() {
		shown = decimal.Zero
	}
	if shown.GreaterThan(hundred) {
		shown = hundred
	}
	result, _ := shown.Round(discountScale).Float64()
	return result
}

// RetailerPrice maps (MRP, wholesaler discount, product class, margin
// table) to the retailer-facing unit price.
func RetailerPrice(mrp, discountPercent float64, class models.MarginClass, margins models.MarginTable) float64 {
	shown := RetailerDiscount(discountPercent, class, margins)
	price := priceAtDiscount(decimal.NewFromFloat(mrp), decimal.NewFromFloat(shown))
	result, _ := price.Round(priceScale).Float64()
	return result
}

func priceAtDiscount(mrp, discountPercent decimal.Decimal) decimal.Decimal {
	return mrp.Mul(decimal.NewFromInt(1).Sub(discountPercent.Div(hundred)))
}
