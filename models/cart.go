package models

import "time"

// CartItem is a client-owned line with a display snapshot taken at add time.
// MaxQuantity is the supply-side ceiling known when the item was added; it
// may be stale and is re-validated server-side at checkout.
type CartItem struct {
	ID            string            `json:"id" bson:"id"`
	ProductID     string            `json:"productId" bson:"productId"`
	VariantID     string            `json:"variantId,omitempty" bson:"variantId,omitempty"`
	Name          string            `json:"name" bson:"name"`
	Image         string            `json:"image,omitempty" bson:"image,omitempty"`
	SKU           string            `json:"sku,omitempty" bson:"sku,omitempty"`
	Price         float64           `json:"price" bson:"price"`
	Quantity      int               `json:"quantity" bson:"quantity"`
	MaxQuantity   int               `json:"maxQuantity" bson:"maxQuantity"`
	Customization map[string]string `json:"customization,omitempty" bson:"customization,omitempty"`
	AddedAt       time.Time         `json:"addedAt" bson:"addedAt"`
}

// Coupon is a flat-percentage discount code.
type Coupon struct {
	Code      string    `json:"code" bson:"code"`
	Discount  float64   `json:"discount" bson:"discount"` // % value e.g. 10 means 10%
	MinSpend  float64   `json:"minSpend,omitempty" bson:"minSpend,omitempty"`
	ExpiresAt time.Time `json:"expiresAt" bson:"expiresAt"`
	Active    bool      `json:"active" bson:"active"`
}
