package models

import "time"

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
	OrderRefunded   OrderStatus = "refunded"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// The two lifecycles are independent; an order can be confirmed while its
// payment is still pending (deferred payment methods).
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderConfirmed, OrderCancelled, OrderRefunded},
	OrderConfirmed:  {OrderProcessing, OrderCancelled, OrderRefunded},
	OrderProcessing: {OrderShipped},
	OrderShipped:    {OrderDelivered},
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending: {PaymentPaid, PaymentFailed},
	PaymentPaid:    {PaymentRefunded},
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Address is captured onto the order at creation time and never edited after.
type Address struct {
	FullName   string `json:"fullName" bson:"fullName"`
	Line1      string `json:"line1" bson:"line1"`
	Line2      string `json:"line2,omitempty" bson:"line2,omitempty"`
	City       string `json:"city" bson:"city"`
	Region     string `json:"region" bson:"region"`
	PostalCode string `json:"postalCode" bson:"postalCode"`
	Country    string `json:"country" bson:"country"`
	Phone      string `json:"phone,omitempty" bson:"phone,omitempty"`
}

// OrderItem is a frozen snapshot of the product at order time. Later product
// edits must never show through here.
type OrderItem struct {
	ProductID     string            `json:"productId" bson:"productId"`
	VariantID     string            `json:"variantId,omitempty" bson:"variantId,omitempty"`
	Name          string            `json:"name" bson:"name"`
	Image         string            `json:"image,omitempty" bson:"image,omitempty"`
	SKU           string            `json:"sku,omitempty" bson:"sku,omitempty"`
	UnitPrice     float64           `json:"unitPrice" bson:"unitPrice"`
	Quantity      int               `json:"quantity" bson:"quantity"`
	Customization map[string]string `json:"customization,omitempty" bson:"customization,omitempty"`
}

// Order is the server-owned record of a checkout. TotalAmount is always
// recomputed as subtotal + tax + shipping - discount, never taken from input.
type Order struct {
	OrderID          string        `json:"orderId" bson:"orderId"`
	OrderNumber      string        `json:"orderNumber" bson:"orderNumber"`
	UserID           string        `json:"userId,omitempty" bson:"userId,omitempty"`
	Items            []OrderItem   `json:"items" bson:"items"`
	Status           OrderStatus   `json:"status" bson:"status"`
	PaymentStatus    PaymentStatus `json:"paymentStatus" bson:"paymentStatus"`
	Subtotal         float64       `json:"subtotal" bson:"subtotal"`
	TaxAmount        float64       `json:"taxAmount" bson:"taxAmount"`
	ShippingAmount   float64       `json:"shippingAmount" bson:"shippingAmount"`
	DiscountAmount   float64       `json:"discountAmount" bson:"discountAmount"`
	TotalAmount      float64       `json:"totalAmount" bson:"totalAmount"`
	ShippingAddress  Address       `json:"shippingAddress" bson:"shippingAddress"`
	BillingAddress   Address       `json:"billingAddress" bson:"billingAddress"`
	PaymentSessionID string        `json:"paymentSessionId,omitempty" bson:"paymentSessionId,omitempty"`
	CustomerNotes    string        `json:"customerNotes,omitempty" bson:"customerNotes,omitempty"`
	CreatedAt        time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt" bson:"updatedAt"`
}

func (o *Order) RecomputeTotal() {
	o.TotalAmount = o.Subtotal + o.TaxAmount + o.ShippingAmount - o.DiscountAmount
}
