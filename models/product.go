package models

import "time"

// Variant is a purchasable variation of a product with its own price and stock.
type Variant struct {
	VariantID string  `json:"variantId" bson:"variantId"`
	Name      string  `json:"name" bson:"name"`
	SKU       string  `json:"sku" bson:"sku"`
	Price     float64 `json:"price" bson:"price"`
	Stock     int     `json:"stock" bson:"stock"`
	Color     string  `json:"color,omitempty" bson:"color,omitempty"`
	Size      string  `json:"size,omitempty" bson:"size,omitempty"`
}

// Product is the authoritative catalog record. Stock here is the single
// source of truth for purchasability; any client-side ceiling is a snapshot.
type Product struct {
	ProductID   string    `json:"productId" bson:"productId"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description"`
	SKU         string    `json:"sku" bson:"sku"`
	Images      []string  `json:"images" bson:"images"`
	Price       float64   `json:"price" bson:"price"`
	SalePrice   float64   `json:"salePrice,omitempty" bson:"salePrice,omitempty"`
	Stock       int       `json:"stock" bson:"stock"`
	IsActive    bool      `json:"isActive" bson:"isActive"`
	IsFeatured  bool      `json:"isFeatured" bson:"isFeatured"`
	SalesCount  int       `json:"salesCount" bson:"salesCount"`
	ViewCount   int       `json:"viewCount" bson:"viewCount"`
	Category    string    `json:"category" bson:"category"`
	Occasion    string    `json:"occasion,omitempty" bson:"occasion,omitempty"`
	Fabric      string    `json:"fabric,omitempty" bson:"fabric,omitempty"`
	Color       string    `json:"color,omitempty" bson:"color,omitempty"`
	Sizes       []string  `json:"sizes,omitempty" bson:"sizes,omitempty"`
	Variants    []Variant `json:"variants,omitempty" bson:"variants,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Review holds a buyer rating; catalog averages these per product.
type Review struct {
	ReviewID  string    `json:"reviewId" bson:"reviewId"`
	ProductID string    `json:"productId" bson:"productId"`
	UserID    string    `json:"userId" bson:"userId"`
	Rating    int       `json:"rating" bson:"rating"` // 1..5
	Comment   string    `json:"comment,omitempty" bson:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Guide is a wedding-planning content entry.
type Guide struct {
	Slug      string    `json:"slug" bson:"slug"`
	Title     string    `json:"title" bson:"title"`
	Summary   string    `json:"summary" bson:"summary"`
	Body      string    `json:"body" bson:"body"`
	Tags      []string  `json:"tags,omitempty" bson:"tags,omitempty"`
	Published bool      `json:"published" bson:"published"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
