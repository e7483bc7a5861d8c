package orders

import (
	"testing"

	"vermilion/models"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	assert.True(t, models.OrderPending.CanTransitionTo(models.OrderConfirmed))
	assert.True(t, models.OrderPending.CanTransitionTo(models.OrderCancelled))
	assert.True(t, models.OrderConfirmed.CanTransitionTo(models.OrderProcessing))
	assert.True(t, models.OrderConfirmed.CanTransitionTo(models.OrderRefunded))
	assert.True(t, models.OrderProcessing.CanTransitionTo(models.OrderShipped))
	assert.True(t, models.OrderShipped.CanTransitionTo(models.OrderDelivered))

	assert.False(t, models.OrderPending.CanTransitionTo(models.OrderShipped))
	assert.False(t, models.OrderDelivered.CanTransitionTo(models.OrderPending))
	assert.False(t, models.OrderShipped.CanTransitionTo(models.OrderCancelled))
	assert.False(t, models.OrderRefunded.CanTransitionTo(models.OrderConfirmed))
}

func TestPaymentStatusTransitions(t *testing.T) {
	assert.True(t, models.PaymentPending.CanTransitionTo(models.PaymentPaid))
	assert.True(t, models.PaymentPending.CanTransitionTo(models.PaymentFailed))
	assert.True(t, models.PaymentPaid.CanTransitionTo(models.PaymentRefunded))

	assert.False(t, models.PaymentFailed.CanTransitionTo(models.PaymentPaid))
	assert.False(t, models.PaymentRefunded.CanTransitionTo(models.PaymentPending))
}

func TestLifecyclesAreIndependent(t *testing.T) {
	// an order may confirm while payment is still pending
	order := models.Order{Status: models.OrderPending, PaymentStatus: models.PaymentPending}
	assert.True(t, order.Status.CanTransitionTo(models.OrderConfirmed))
	assert.True(t, order.PaymentStatus.CanTransitionTo(models.PaymentPaid))
}

func TestRecomputeTotal(t *testing.T) {
	order := models.Order{Subtotal: 120, TaxAmount: 0, ShippingAmount: 9.99, DiscountAmount: 10}
	order.RecomputeTotal()
	assert.InDelta(t, 119.99, order.TotalAmount, 1e-9)
}
