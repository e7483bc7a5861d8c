package checkout

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"vermilion/models"
	"vermilion/stripe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProducts struct {
	products     map[string]*models.Product
	conflictOnce bool
	conflictOn   string // product whose decrement always conflicts
	fetches      int
}

func (m *mockProducts) FetchActive(_ context.Context, ids []string) ([]models.Product, error) {
	m.fetches++
	var out []models.Product
	for _, id := range ids {
		if p, ok := m.products[id]; ok && p.IsActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockProducts) DecrementStock(_ context.Context, productID, variantID string, qty int) error {
	if m.conflictOnce {
		m.conflictOnce = false
		return ErrStockConflict
	}
	if m.conflictOn == productID {
		return ErrStockConflict
	}
	p := m.products[productID]
	if variantID != "" {
		for i := range p.Variants {
			if p.Variants[i].VariantID == variantID {
				if p.Variants[i].Stock < qty {
					return ErrStockConflict
				}
				p.Variants[i].Stock -= qty
				return nil
			}
		}
		return ErrStockConflict
	}
	if p.Stock < qty {
		return ErrStockConflict
	}
	p.Stock -= qty
	return nil
}

func (m *mockProducts) RestoreStock(_ context.Context, productID, variantID string, qty int) error {
	p := m.products[productID]
	if variantID != "" {
		for i := range p.Variants {
			if p.Variants[i].VariantID == variantID {
				p.Variants[i].Stock += qty
			}
		}
		return nil
	}
	p.Stock += qty
	return nil
}

type mockOrders struct {
	inserted  []*models.Order
	seq       int
	insertErr error
	linkErr   error
	linked    map[string]string
}

func (m *mockOrders) NextOrderNumber(context.Context) (string, error) {
	m.seq++
	return fmt.Sprintf("VML-%06d", m.seq), nil
}

func (m *mockOrders) Insert(_ context.Context, order *models.Order) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	copied := *order
	m.inserted = append(m.inserted, &copied)
	return nil
}

func (m *mockOrders) LinkPaymentSession(_ context.Context, orderID, sessionID string) error {
	if m.linkErr != nil {
		return m.linkErr
	}
	if m.linked == nil {
		m.linked = make(map[string]string)
	}
	m.linked[orderID] = sessionID
	return nil
}

type mockPayments struct {
	failErr error
	opened  int
}

func (m *mockPayments) OpenSession(_ context.Context, order *models.Order) (stripe.Session, error) {
	if m.failErr != nil {
		return stripe.Session{}, m.failErr
	}
	m.opened++
	return stripe.Session{
		ID:  "cs_test",
		URL: "https://pay.example/cs_test",
		Metadata: map[string]string{
			"orderId":     order.OrderID,
			"orderNumber": order.OrderNumber,
		},
	}, nil
}

func address() models.Address {
	return models.Address{
		FullName: "Priya Raman",
		Line1:    "14 Temple Street",
		City:     "Chennai",
		Region:   "TN",
		Country:  "IN",
	}
}

func catalogFixture() map[string]*models.Product {
	return map[string]*models.Product{
		"p1": {
			ProductID: "p1", Name: "Scarlet Lehenga", SKU: "LH-001",
			Images: []string{"lehenga.jpg"},
			Price:  2000, SalePrice: 1500, Stock: 3, IsActive: true,
		},
		"p2": {
			ProductID: "p2", Name: "Ivory Saree", SKU: "SR-002",
			Price: 60, Stock: 10, IsActive: true,
			Variants: []models.Variant{
				{VariantID: "v1", Name: "Petite", SKU: "SR-002-P", Price: 55, Stock: 2},
			},
		},
	}
}

func newFixture() (*Orchestrator, *mockProducts, *mockOrders, *mockPayments) {
	products := &mockProducts{products: catalogFixture()}
	orders := &mockOrders{}
	payments := &mockPayments{}
	return NewOrchestrator(products, orders, payments), products, orders, payments
}

func TestCheckoutEmptyCart(t *testing.T) {
	o, _, orders, _ := newFixture()
	_, err := o.Checkout(context.Background(), &Request{
		ShippingAddress: address(), BillingAddress: address(),
	})
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, orders.inserted)
}

func TestCheckoutUnavailableProductCreatesNoOrder(t *testing.T) {
	o, products, orders, _ := newFixture()
	products.products["p3"] = &models.Product{ProductID: "p3", Name: "Retired", IsActive: false, Stock: 5}

	_, err := o.Checkout(context.Background(), &Request{
		Items:           []Item{{ProductID: "p3", Quantity: 1}},
		ShippingAddress: address(), BillingAddress: address(),
	})
	assert.ErrorIs(t, err, ErrProductUnavailable)
	assert.Empty(t, orders.inserted)
}

func TestCheckoutInsufficientStockNamesProduct(t *testing.T) {
	o, _, orders, _ := newFixture()

	_, err := o.Checkout(context.Background(), &Request{
		Items:           []Item{{ProductID: "p1", Quantity: 5}},
		ShippingAddress: address(), BillingAddress: address(),
	})

	var stockErr *StockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "Scarlet Lehenga", stockErr.ProductName)
	assert.Equal(t, 3, stockErr.Available)
	assert.Empty(t, orders.inserted)
}

func TestCheckoutSuccess(t *testing.T) {
	o, products, orders, _ := newFixture()

	result, err := o.Checkout(context.Background(), &Request{
		Items: []Item{
			{ProductID: "p1", Quantity: 2, Customizations: map[string]string{"blouse": "fitted"}},
			{ProductID: "p2", VariantID: "v1", Quantity: 1, Size: "S"},
		},
		ShippingAddress: address(), BillingAddress: address(),
		CustomerNotes:   "deliver before the 14th",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test", result.SessionID)

	require.Len(t, orders.inserted, 1)
	order := orders.inserted[0]
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
	assert.Equal(t, "VML-000001", order.OrderNumber)

	// subtotal: 2 * 1500 (sale price) + 1 * 55 (variant price)
	assert.InDelta(t, 3055.0, order.Subtotal, 1e-9)
	assert.Equal(t, 0.0, order.TaxAmount)
	assert.Equal(t, 0.0, order.ShippingAmount) // >= 150 tier
	assert.InDelta(t, 3055.0, order.TotalAmount, 1e-9)

	require.Len(t, order.Items, 2)
	assert.Equal(t, "Scarlet Lehenga", order.Items[0].Name)
	assert.Equal(t, 1500.0, order.Items[0].UnitPrice)
	assert.Equal(t, "lehenga.jpg", order.Items[0].Image)
	assert.Equal(t, map[string]string{"blouse": "fitted"}, order.Items[0].Customization)
	assert.Equal(t, "SR-002-P", order.Items[1].SKU)
	assert.Equal(t, map[string]string{"size": "S"}, order.Items[1].Customization)

	// stock was reserved
	assert.Equal(t, 1, products.products["p1"].Stock)
	assert.Equal(t, 1, products.products["p2"].Variants[0].Stock)

	// later product edits must not show through the frozen snapshot
	products.products["p1"].Name = "Renamed"
	assert.Equal(t, "Scarlet Lehenga", orders.inserted[0].Items[0].Name)

	assert.Equal(t, "cs_test", orders.linked[order.OrderID])
}

func TestCheckoutShippingTier(t *testing.T) {
	o, products, orders, _ := newFixture()
	products.products["p1"].SalePrice = 0
	products.products["p1"].Price = 120

	_, err := o.Checkout(context.Background(), &Request{
		Items:           []Item{{ProductID: "p1", Quantity: 1}},
		ShippingAddress: address(), BillingAddress: address(),
	})
	require.NoError(t, err)
	order := orders.inserted[0]
	assert.Equal(t, 9.99, order.ShippingAmount)
	assert.InDelta(t, 129.99, order.TotalAmount, 1e-9)
}

func TestCheckoutProviderFailureLeavesPendingOrder(t *testing.T) {
	o, _, orders, payments := newFixture()
	payments.failErr = errors.New("provider unreachable")

	_, err := o.Checkout(context.Background(), &Request{
		Items:           []Item{{ProductID: "p1", Quantity: 1}},
		ShippingAddress: address(), BillingAddress: address(),
	})
	assert.ErrorIs(t, err, ErrSessionFailed)

	// the orphaned draft stays auditable
	require.Len(t, orders.inserted, 1)
	assert.Equal(t, models.OrderPending, orders.inserted[0].Status)
	assert.Equal(t, models.PaymentPending, orders.inserted[0].PaymentStatus)
	assert.Empty(t, orders.linked)
}

func TestCheckoutLinkFailureIsReconciliationGap(t *testing.T) {
	o, _, orders, _ := newFixture()
	orders.linkErr = errors.New("write timeout")

	_, err := o.Checkout(context.Background(), &Request{
		Items:           []Item{{ProductID: "p1", Quantity: 1}},
		ShippingAddress: address(), BillingAddress: address(),
	})

	var gap *ReconciliationGapError
	require.True(t, errors.As(err, &gap))
	assert.Equal(t, "cs_test", gap.SessionID)
	assert.NotEmpty(t, gap.OrderID)
}

func TestCheckoutRetriesOnceAfterStockConflict(t *testing.T) {
	o, products, orders, _ := newFixture()
	products.conflictOnce = true

	_, err := o.Checkout(context.Background(), &Request{
		Items:           []Item{{ProductID: "p1", Quantity: 1}},
		ShippingAddress: address(), BillingAddress: address(),
	})
	require.NoError(t, err)
	assert.Len(t, orders.inserted, 1)
	// validated, conflicted, revalidated
	assert.Equal(t, 2, products.fetches)
}

func TestCheckoutLateStockDepletion(t *testing.T) {
	o, products, orders, _ := newFixture()
	products.conflictOnce = true
	// by the time the retry revalidates, stock is gone
	products.products["p1"].Stock = 0

	_, err := o.Checkout(context.Background(), &Request{
		Items:           []Item{{ProductID: "p1", Quantity: 1}},
		ShippingAddress: address(), BillingAddress: address(),
	})

	var stockErr *StockError
	require.True(t, errors.As(err, &stockErr))
	assert.Empty(t, orders.inserted)
}

func TestCheckoutNamesTheConflictedLine(t *testing.T) {
	o, products, orders, _ := newFixture()
	products.conflictOn = "p2"

	_, err := o.Checkout(context.Background(), &Request{
		Items: []Item{
			{ProductID: "p1", Quantity: 1},
			{ProductID: "p2", Quantity: 2},
		},
		ShippingAddress: address(), BillingAddress: address(),
	})

	var stockErr *StockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "Ivory Saree", stockErr.ProductName)
	assert.Equal(t, 10, stockErr.Available)

	// the first line's reservation was rolled back, nothing persisted
	assert.Equal(t, 3, products.products["p1"].Stock)
	assert.Empty(t, orders.inserted)
}

func TestCheckoutRollsBackReservedLinesOnFailure(t *testing.T) {
	o, products, orders, _ := newFixture()
	orders.insertErr = errors.New("db down")

	_, err := o.Checkout(context.Background(), &Request{
		Items: []Item{
			{ProductID: "p1", Quantity: 1},
			{ProductID: "p2", Quantity: 2},
		},
		ShippingAddress: address(), BillingAddress: address(),
	})
	require.Error(t, err)

	assert.Equal(t, 3, products.products["p1"].Stock)
	assert.Equal(t, 10, products.products["p2"].Stock)
}

func TestCheckoutMissingAddress(t *testing.T) {
	o, _, orders, _ := newFixture()

	_, err := o.Checkout(context.Background(), &Request{
		Items:          []Item{{ProductID: "p1", Quantity: 1}},
		BillingAddress: address(),
	})

	var valErr *ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Empty(t, orders.inserted)
}
