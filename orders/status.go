package orders

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"vermilion/db"
	"vermilion/models"
	"vermilion/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// The order and payment lifecycles are updated separately; conflating them
// would break deferred payment methods where an order confirms before money
// moves.

// PATCH /api/orders/:orderid/status
func UpdateOrderStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var body struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	order, err := fetchOrder(ctx, ps.ByName("orderid"))
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondWithError(w, http.StatusNotFound, "Order not found")
			return
		}
		log.Println("UpdateOrderStatus fetch error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch order")
		return
	}

	if !order.Status.CanTransitionTo(body.Status) {
		utils.RespondWithError(w, http.StatusBadRequest,
			"Cannot move order from "+string(order.Status)+" to "+string(body.Status))
		return
	}

	if err := setOrderFields(ctx, order.OrderID, bson.M{"status": body.Status}); err != nil {
		log.Println("UpdateOrderStatus update error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update order")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": body.Status})
}

// PATCH /api/orders/:orderid/payment-status
func UpdatePaymentStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var body struct {
		PaymentStatus models.PaymentStatus `json:"paymentStatus"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	order, err := fetchOrder(ctx, ps.ByName("orderid"))
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondWithError(w, http.StatusNotFound, "Order not found")
			return
		}
		log.Println("UpdatePaymentStatus fetch error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch order")
		return
	}

	if !order.PaymentStatus.CanTransitionTo(body.PaymentStatus) {
		utils.RespondWithError(w, http.StatusBadRequest,
			"Cannot move payment from "+string(order.PaymentStatus)+" to "+string(body.PaymentStatus))
		return
	}

	if err := setOrderFields(ctx, order.OrderID, bson.M{"paymentStatus": body.PaymentStatus}); err != nil {
		log.Println("UpdatePaymentStatus update error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update order")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"paymentStatus": body.PaymentStatus})
}

func setOrderFields(ctx context.Context, orderID string, fields bson.M) error {
	fields["updatedAt"] = time.Now()
	_, err := db.OrderCollection.UpdateOne(ctx, bson.M{"orderId": orderID}, bson.M{"$set": fields})
	return err
}
