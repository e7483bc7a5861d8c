package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"vermilion/mq"
	"vermilion/utils"

	"github.com/julienschmidt/httprouter"
)

type Handler struct {
	orchestrator *Orchestrator
}

func NewHandler(o *Orchestrator) *Handler {
	return &Handler{orchestrator: o}
}

// POST /api/checkout
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Println("Checkout decode error:", err)
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	userID := utils.GetUserIDFromRequest(r)
	req.UserID = userID

	result, err := h.orchestrator.Checkout(ctx, &req)
	if err != nil {
		h.respondError(w, err)
		return
	}

	lines := make([]mq.OrderLine, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, mq.OrderLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	mq.EmitOrderCreated(result.OrderID, userID, lines)

	utils.RespondWithJSON(w, http.StatusOK, result)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var stockErr *StockError
	var valErr *ValidationError
	var gap *ReconciliationGapError

	switch {
	case errors.Is(err, ErrEmptyCart),
		errors.Is(err, ErrProductUnavailable),
		errors.As(err, &stockErr),
		errors.As(err, &valErr):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrSessionFailed):
		utils.RespondWithError(w, http.StatusInternalServerError, ErrSessionFailed.Error())
	case errors.As(err, &gap):
		// already logged as its own class; clients get a generic failure
		utils.RespondWithError(w, http.StatusInternalServerError, "Checkout failed")
	default:
		log.Println("Checkout internal error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Checkout failed")
	}
}
