package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"vermilion/models"
	"vermilion/pricing"
	"vermilion/stripe"
	"vermilion/utils"
)

// Item is one line of the client's cart snapshot. Prices and stock are
// never trusted from here; both are re-resolved against the catalog.
type Item struct {
	ProductID      string            `json:"productId"`
	VariantID      string            `json:"variantId,omitempty"`
	Quantity       int               `json:"quantity"`
	Size           string            `json:"size,omitempty"`
	Color          string            `json:"color,omitempty"`
	Customizations map[string]string `json:"customizations,omitempty"`
}

type Request struct {
	Items           []Item         `json:"items"`
	ShippingAddress models.Address `json:"shippingAddress"`
	BillingAddress  models.Address `json:"billingAddress"`
	CustomerNotes   string         `json:"customerNotes,omitempty"`

	// UserID is set server-side from the authenticated context, never decoded
	// from the payload.
	UserID string `json:"-"`
}

type Result struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
	OrderID   string `json:"orderId"`
}

// ProductSource is the authoritative catalog read/reserve surface.
type ProductSource interface {
	FetchActive(ctx context.Context, ids []string) ([]models.Product, error)
	// DecrementStock conditionally takes qty from live stock; it fails when
	// fewer than qty remain.
	DecrementStock(ctx context.Context, productID, variantID string, qty int) error
	RestoreStock(ctx context.Context, productID, variantID string, qty int) error
}

type OrderStore interface {
	NextOrderNumber(ctx context.Context) (string, error)
	Insert(ctx context.Context, order *models.Order) error
	LinkPaymentSession(ctx context.Context, orderID, sessionID string) error
}

type PaymentProvider interface {
	OpenSession(ctx context.Context, order *models.Order) (stripe.Session, error)
}

// Orchestrator runs one checkout attempt as a sequential request-scoped
// workflow: validate, reserve stock, persist the order, open the payment
// session, link it back. Failure at any step returns without advancing.
type Orchestrator struct {
	Products ProductSource
	Orders   OrderStore
	Payments PaymentProvider
}

func NewOrchestrator(products ProductSource, orders OrderStore, payments PaymentProvider) *Orchestrator {
	return &Orchestrator{Products: products, Orders: orders, Payments: payments}
}

// validatedLine carries the resolved, server-trusted data for one order line.
type validatedLine struct {
	item      Item
	product   models.Product
	name      string
	image     string
	sku       string
	unitPrice float64
	available int
}

// stockConflict is the internal signal from a failed conditional decrement.
var stockConflict = errors.New("stock changed since validation")

func (o *Orchestrator) Checkout(ctx context.Context, req *Request) (*Result, error) {
	// RECEIVED
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}
	for _, it := range req.Items {
		if it.ProductID == "" || it.Quantity < 1 {
			return nil, &ValidationError{Message: "each item needs a product id and a positive quantity"}
		}
	}
	if err := validateAddress(req.ShippingAddress, "shipping"); err != nil {
		return nil, err
	}
	if err := validateAddress(req.BillingAddress, "billing"); err != nil {
		return nil, err
	}

	// Stock is read-then-compared, so a concurrent attempt can invalidate a
	// passed validation. The conditional decrement below catches that late;
	// one revalidation pass absorbs the common race.
	lines, subtotal, err := o.validate(ctx, req)
	if err != nil {
		return nil, err
	}

	if _, err := o.reserve(ctx, lines); err != nil {
		if !errors.Is(err, stockConflict) {
			return nil, err
		}
		lines, subtotal, err = o.validate(ctx, req)
		if err != nil {
			return nil, err
		}
		if idx, err := o.reserve(ctx, lines); err != nil {
			if errors.Is(err, stockConflict) {
				return nil, &StockError{ProductName: lines[idx].name, Available: lines[idx].available}
			}
			return nil, err
		}
	}

	// ORDER_CREATED: the order must be durable before any provider call so a
	// failed session still leaves an auditable record.
	order, err := o.createOrder(ctx, req, lines, subtotal)
	if err != nil {
		o.release(ctx, lines)
		return nil, err
	}

	// PAYMENT_SESSION_OPENED
	session, err := o.Payments.OpenSession(ctx, order)
	if err != nil {
		log.Printf("Checkout: payment session failed for order %s (%s), order left pending: %v",
			order.OrderID, order.OrderNumber, err)
		return nil, ErrSessionFailed
	}

	// LINKED
	if err := o.Orders.LinkPaymentSession(ctx, order.OrderID, session.ID); err != nil {
		gap := &ReconciliationGapError{OrderID: order.OrderID, SessionID: session.ID, Cause: err}
		log.Printf("RECONCILIATION GAP: %v", gap)
		return nil, gap
	}

	return &Result{SessionID: session.ID, URL: session.URL, OrderID: order.OrderID}, nil
}

// validate re-fetches every referenced product from the authoritative store
// and resolves effective unit price and available stock per line.
func (o *Orchestrator) validate(ctx context.Context, req *Request) ([]validatedLine, float64, error) {
	distinct := make([]string, 0, len(req.Items))
	seen := make(map[string]bool)
	for _, it := range req.Items {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			distinct = append(distinct, it.ProductID)
		}
	}

	products, err := o.Products.FetchActive(ctx, distinct)
	if err != nil {
		return nil, 0, fmt.Errorf("fetching products: %w", err)
	}
	if len(products) < len(distinct) {
		return nil, 0, ErrProductUnavailable
	}
	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		byID[p.ProductID] = p
	}

	var lines []validatedLine
	subtotal := 0.0
	for _, it := range req.Items {
		product := byID[it.ProductID]
		line := validatedLine{
			item:      it,
			product:   product,
			name:      product.Name,
			sku:       product.SKU,
			unitPrice: pricing.EffectivePrice(product.Price, product.SalePrice),
			available: product.Stock,
		}
		if len(product.Images) > 0 {
			line.image = product.Images[0]
		}

		if it.VariantID != "" {
			variant, ok := findVariant(product, it.VariantID)
			if !ok {
				return nil, 0, ErrProductUnavailable
			}
			line.unitPrice = variant.Price
			line.available = variant.Stock
			if variant.SKU != "" {
				line.sku = variant.SKU
			}
		}

		if it.Quantity > line.available {
			return nil, 0, &StockError{ProductName: product.Name, Available: line.available}
		}

		subtotal += line.unitPrice * float64(it.Quantity)
		lines = append(lines, line)
	}
	return lines, subtotal, nil
}

// reserve conditionally decrements stock for every line, rolling back the
// lines already taken when one fails. On failure it returns the index of
// the line whose decrement did not go through.
func (o *Orchestrator) reserve(ctx context.Context, lines []validatedLine) (int, error) {
	for i, line := range lines {
		err := o.Products.DecrementStock(ctx, line.item.ProductID, line.item.VariantID, line.item.Quantity)
		if err == nil {
			continue
		}
		o.release(ctx, lines[:i])
		if errors.Is(err, ErrStockConflict) {
			return i, stockConflict
		}
		return i, fmt.Errorf("reserving stock: %w", err)
	}
	return -1, nil
}

func (o *Orchestrator) release(ctx context.Context, lines []validatedLine) {
	for _, line := range lines {
		if err := o.Products.RestoreStock(ctx, line.item.ProductID, line.item.VariantID, line.item.Quantity); err != nil {
			log.Printf("Checkout: failed to restore %d of %s: %v", line.item.Quantity, line.item.ProductID, err)
		}
	}
}

func (o *Orchestrator) createOrder(ctx context.Context, req *Request, lines []validatedLine, subtotal float64) (*models.Order, error) {
	number, err := o.Orders.NextOrderNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("generating order number: %w", err)
	}

	now := time.Now()
	order := &models.Order{
		OrderID:         utils.GetUUID(),
		OrderNumber:     number,
		UserID:          req.UserID,
		Status:          models.OrderPending,
		PaymentStatus:   models.PaymentPending,
		Subtotal:        subtotal,
		TaxAmount:       0, // deferred to the external tax service
		ShippingAmount:  pricing.ShippingCost(subtotal),
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		CustomerNotes:   req.CustomerNotes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	for _, line := range lines {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:     line.item.ProductID,
			VariantID:     line.item.VariantID,
			Name:          line.name,
			Image:         line.image,
			SKU:           line.sku,
			UnitPrice:     line.unitPrice,
			Quantity:      line.item.Quantity,
			Customization: mergeCustomization(line.item),
		})
	}
	order.RecomputeTotal()

	if err := o.Orders.Insert(ctx, order); err != nil {
		return nil, fmt.Errorf("persisting order: %w", err)
	}
	return order, nil
}

func findVariant(p models.Product, variantID string) (models.Variant, bool) {
	for _, v := range p.Variants {
		if v.VariantID == variantID {
			return v, true
		}
	}
	return models.Variant{}, false
}

// mergeCustomization folds size/color selections into the free-form
// customization payload for the frozen order snapshot.
func mergeCustomization(it Item) map[string]string {
	if len(it.Customizations) == 0 && it.Size == "" && it.Color == "" {
		return nil
	}
	merged := make(map[string]string, len(it.Customizations)+2)
	for k, v := range it.Customizations {
		merged[k] = v
	}
	if it.Size != "" {
		merged["size"] = it.Size
	}
	if it.Color != "" {
		merged["color"] = it.Color
	}
	return merged
}

func validateAddress(a models.Address, which string) error {
	if a.FullName == "" || a.Line1 == "" || a.City == "" || a.Country == "" {
		return &ValidationError{Message: which + " address needs fullName, line1, city and country"}
	}
	return nil
}
