package cart

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCartIncludesTaxEstimate(t *testing.T) {
	m := NewManager()
	h := NewHandler(m)

	s := m.For("sess-tax")
	_, err := s.AddItem(lehenga(2)) // subtotal 241.00
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/api/cart?region=CA", nil)
	r.Header.Set("X-Session-ID", "sess-tax")
	rec := httptest.NewRecorder()
	h.GetCart(rec, r, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Subtotal    float64 `json:"subtotal"`
		Shipping    float64 `json:"shipping"`
		TaxEstimate float64 `json:"taxEstimate"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.InDelta(t, 241.0, body.Subtotal, 1e-9)
	assert.Equal(t, 0.0, body.Shipping)
	assert.InDelta(t, 17.47, body.TaxEstimate, 1e-9) // CA 7.25%
}

func TestGetCartWithoutSession(t *testing.T) {
	h := NewHandler(NewManager())

	r := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	rec := httptest.NewRecorder()
	h.GetCart(rec, r, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
