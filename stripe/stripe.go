package stripe

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// sessionWindow is enforced by the provider, not by this system.
const sessionWindow = 30 * time.Minute

// LineItem is what the hosted checkout page displays. Lines are re-derived
// from validated server data, never echoed from client input.
type LineItem struct {
	Name      string
	SKU       string
	UnitPrice float64
	Quantity  int
}

// Session is the hosted checkout session returned by the provider.
type Session struct {
	ID        string
	URL       string
	ExpiresAt time.Time
	Metadata  map[string]string
}

// CreateOrderSession opens a hosted checkout session for an order. Metadata
// carries the internal order id and number so asynchronous completion
// callbacks can find the order independently of our own link-back.
func CreateOrderSession(orderID, orderNumber string, lines []LineItem, amount float64) (Session, error) {
	base := os.Getenv("PAYMENT_BASE_URL")
	if base == "" {
		base = "http://localhost:5173"
	}

	var s Session
	s.ID = "cs_" + uuid.New().String()
	s.URL = fmt.Sprintf("%s/pay/%s", base, s.ID)
	s.ExpiresAt = time.Now().Add(sessionWindow)
	s.Metadata = map[string]string{
		"orderId":     orderID,
		"orderNumber": orderNumber,
		"lineCount":   fmt.Sprintf("%d", len(lines)),
		"amount":      fmt.Sprintf("%.2f", amount),
	}
	return s, nil
}
