package payments

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"vermilion/db"
	"vermilion/models"
	"vermilion/mq"
	"vermilion/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
)

type webhookPayload struct {
	SessionID string            `json:"sessionId"`
	Status    string            `json:"status"` // paid | failed
	Metadata  map[string]string `json:"metadata"`
}

// Webhook handles the payment provider callback for a checkout session.
// Providers retry deliveries, so a repeat of an already-applied event must
// answer 200 without changing anything.
func Webhook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := r.Context()

	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if payload.SessionID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing sessionId")
		return
	}

	orderID := payload.Metadata["orderId"]
	filter := bson.M{"paymentSessionId": payload.SessionID}
	if orderID != "" {
		filter = bson.M{"orderId": orderID}
	}

	var order models.Order
	if err := db.OrderCollection.FindOne(ctx, filter).Decode(&order); err != nil {
		log.Printf("Webhook: order not found for session %s: %v", payload.SessionID, err)
		utils.RespondWithError(w, http.StatusNotFound, "Order not found")
		return
	}

	var next models.PaymentStatus
	switch payload.Status {
	case "paid":
		next = models.PaymentPaid
	case "failed":
		next = models.PaymentFailed
	default:
		utils.RespondWithError(w, http.StatusBadRequest, "Unknown payment status")
		return
	}

	if order.PaymentStatus == next {
		// retry of an event already applied
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true})
		return
	}
	if !order.PaymentStatus.CanTransitionTo(next) {
		log.Printf("Webhook: illegal payment transition %s -> %s on order %s",
			order.PaymentStatus, next, order.OrderID)
		utils.RespondWithError(w, http.StatusConflict, "Payment state conflict")
		return
	}

	update := bson.M{"paymentStatus": next, "updatedAt": time.Now()}
	if next == models.PaymentPaid && order.Status.CanTransitionTo(models.OrderConfirmed) {
		update["status"] = models.OrderConfirmed
	}

	res, err := db.OrderCollection.UpdateOne(ctx,
		bson.M{"orderId": order.OrderID, "paymentStatus": order.PaymentStatus},
		bson.M{"$set": update})
	if err != nil {
		log.Printf("Webhook: update failed for order %s: %v", order.OrderID, err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to record payment")
		return
	}
	if res.ModifiedCount == 0 {
		// a concurrent delivery won the race
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true})
		return
	}

	if next == models.PaymentPaid {
		mq.EmitOrderPaid(order.OrderID)
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true})
}
