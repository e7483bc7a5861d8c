package pricing

import "math"

// EffectivePrice is the sale price when one is set, else the base price.
func EffectivePrice(base, sale float64) float64 {
	if sale > 0 {
		return sale
	}
	return base
}

// DiscountPercent is the rounded percentage off the base price, 0 when no
// sale price is set.
func DiscountPercent(base, sale float64) int {
	if sale <= 0 || base <= 0 || sale >= base {
		return 0
	}
	return int(math.Round((base - sale) / base * 100))
}

// ShippingCost reproduces the fixed tier schedule exactly; it is shared by
// cart display and checkout pricing and affects charged amounts.
func ShippingCost(subtotal float64) float64 {
	switch {
	case subtotal >= 150:
		return 0
	case subtotal >= 100:
		return 9.99
	case subtotal >= 50:
		return 14.99
	default:
		return 19.99
	}
}

// Display-only tax estimates by region. Authoritative tax calculation is
// deferred to an external service; orders record tax 0 at creation.
var taxRates = map[string]float64{
	"CA": 0.0725,
	"NY": 0.08875,
	"TX": 0.0625,
	"FL": 0.06,
	"WA": 0.065,
}

const defaultTaxRate = 0.07

func TaxRate(region string) float64 {
	if rate, ok := taxRates[region]; ok {
		return rate
	}
	return defaultTaxRate
}

// EstimateTax rounds to cents for display.
func EstimateTax(subtotal float64, region string) float64 {
	return math.Round(subtotal*TaxRate(region)*100) / 100
}
