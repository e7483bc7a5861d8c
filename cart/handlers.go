package cart

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"vermilion/db"
	"vermilion/models"
	"vermilion/pricing"
	"vermilion/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
)

// Handler exposes one Manager over HTTP.
type Handler struct {
	carts *Manager
}

func NewHandler(m *Manager) *Handler {
	return &Handler{carts: m}
}

// sessionID prefers the client session header, falling back to the
// authenticated user id so logged-in carts follow the account.
func sessionID(r *http.Request) string {
	if sid := r.Header.Get("X-Session-ID"); sid != "" {
		return sid
	}
	return utils.GetUserIDFromRequest(r)
}

func (h *Handler) store(w http.ResponseWriter, r *http.Request) (*Store, bool) {
	sid := sessionID(r)
	if sid == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing session")
		return nil, false
	}
	return h.carts.For(sid), true
}

// GET /api/cart
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, ok := h.store(w, r)
	if !ok {
		return
	}

	items := s.Items()
	if items == nil {
		items = []models.CartItem{}
	}

	subtotal := s.TotalPrice()
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"items":      items,
		"totalItems": s.TotalItems(),
		"subtotal":   subtotal,
		"shipping":   pricing.ShippingCost(subtotal),
		// display-only estimate; orders record tax at creation separately
		"taxEstimate": pricing.EstimateTax(subtotal, r.URL.Query().Get("region")),
		"isOpen":      s.IsOpen(),
	})
}

// POST /api/cart/items
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, ok := h.store(w, r)
	if !ok {
		return
	}

	var item models.CartItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		log.Println("AddItem decode error:", err)
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if item.ProductID == "" || item.Name == "" || item.Quantity <= 0 || item.Price < 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing or invalid fields")
		return
	}

	added, err := s.AddItem(item)
	if err != nil {
		var capErr *CapacityError
		if errors.As(err, &capErr) {
			utils.RespondWithError(w, http.StatusConflict, capErr.Error())
			return
		}
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, added)
}

// PATCH /api/cart/items/:itemid
func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, ok := h.store(w, r)
	if !ok {
		return
	}

	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	if err := s.UpdateQuantity(ps.ByName("itemid"), body.Quantity); err != nil {
		var capErr *CapacityError
		if errors.As(err, &capErr) {
			utils.RespondWithError(w, http.StatusConflict, capErr.Error())
			return
		}
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": "updated"})
}

// DELETE /api/cart/items/:itemid
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, ok := h.store(w, r)
	if !ok {
		return
	}
	s.RemoveItem(ps.ByName("itemid"))
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": "removed"})
}

// DELETE /api/cart
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, ok := h.store(w, r)
	if !ok {
		return
	}
	s.Clear()
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": "cleared"})
}

// POST /api/cart/toggle
func (h *Handler) ToggleDrawer(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, ok := h.store(w, r)
	if !ok {
		return
	}
	s.ToggleDrawer()
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"isOpen": s.IsOpen()})
}

type CouponRequest struct {
	Code string  `json:"code"`
	Cart float64 `json:"cart"` // cart subtotal, for min spend rules
}

type CouponResponse struct {
	Valid    bool    `json:"valid"`
	Discount float64 `json:"discount"` // absolute amount, not %
	Message  string  `json:"message"`
}

// POST /api/cart/coupon
func ValidateCouponHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req CouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request")
		return
	}

	code := strings.TrimSpace(strings.ToLower(req.Code))
	if code == "" {
		utils.RespondWithJSON(w, http.StatusOK, CouponResponse{Valid: false, Message: "No coupon provided"})
		return
	}

	var coupon models.Coupon
	err := db.CouponCollection.FindOne(ctx, bson.M{"code": code}).Decode(&coupon)
	if err != nil {
		utils.RespondWithJSON(w, http.StatusOK, CouponResponse{Valid: false, Message: "Coupon not found"})
		return
	}

	if !coupon.Active {
		utils.RespondWithJSON(w, http.StatusOK, CouponResponse{Valid: false, Message: "Coupon inactive"})
		return
	}
	if time.Now().After(coupon.ExpiresAt) {
		utils.RespondWithJSON(w, http.StatusOK, CouponResponse{Valid: false, Message: "Coupon expired"})
		return
	}
	if coupon.MinSpend > 0 && req.Cart < coupon.MinSpend {
		utils.RespondWithJSON(w, http.StatusOK, CouponResponse{Valid: false, Message: "Cart below minimum spend"})
		return
	}

	discount := 0.0
	if req.Cart > 0 {
		discount = (req.Cart * coupon.Discount) / 100
	}

	utils.RespondWithJSON(w, http.StatusOK, CouponResponse{
		Valid:    true,
		Discount: discount,
		Message:  "Coupon applied successfully",
	})
}
