package orders

import (
	"context"
	"log"
	"net/http"
	"time"

	"vermilion/db"
	"vermilion/models"
	"vermilion/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func fetchOrder(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	err := db.OrderCollection.FindOne(ctx, bson.M{"orderId": orderID}).Decode(&order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GET /api/orders/:orderid
func GetOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	order, err := fetchOrder(ctx, ps.ByName("orderid"))
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondWithError(w, http.StatusNotFound, "Order not found")
			return
		}
		log.Println("GetOrder error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch order")
		return
	}
	if order.UserID != "" && order.UserID != userID {
		utils.RespondWithError(w, http.StatusForbidden, "Not your order")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, order)
}

// GET /api/orders
func GetMyOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	skip, limit := utils.ParsePagination(r, 10, 50)
	sort := utils.ParseSort(r.URL.Query().Get("sort"),
		bson.D{{Key: "createdAt", Value: -1}},
		map[string]bson.D{
			"newest": {{Key: "createdAt", Value: -1}},
			"oldest": {{Key: "createdAt", Value: 1}},
		})
	opts := options.Find().SetSort(sort).SetSkip(skip).SetLimit(limit)

	list, err := utils.FindAndDecode[models.Order](ctx, db.OrderCollection, bson.M{"userId": userID}, opts)
	if err != nil {
		log.Println("GetMyOrders error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch orders")
		return
	}
	if list == nil {
		list = []models.Order{}
	}

	utils.RespondWithJSON(w, http.StatusOK, list)
}
