package catalog

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
	"go.mongodb.org/mongo-driver/mongo/options"
)

// POST /api/products/:productid/reviews
func AddReview(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var review models.Review
	if err := json.NewDecoder(r.Body).Decode(&review); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if review.Rating < 1 || review.Rating > 5 {
		utils.RespondWithError(w, http.StatusBadRequest, "Rating must be between 1 and 5")
		return
	}

	productID := ps.ByName("productid")
	count, err := db.ProductCollection.CountDocuments(ctx, bson.M{"productId": productID, "isActive": true})
	if err != nil || count == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Product not found")
		return
	}

	review.ReviewID = utils.GetUUID()
	review.ProductID = productID
	review.UserID = userID
	review.CreatedAt = time.Now()

	if _, err := db.ReviewsCollection.InsertOne(ctx, review); err != nil {
		log.Println("AddReview insert error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to save review")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, review)
}

// GET /api/products/:productid/reviews
func GetReviews(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	skip, limit := utils.ParsePagination(r, 10, 50)
	sort := utils.ParseSort(r.URL.Query().Get("sort"),
		bson.D{{Key: "createdAt", Value: -1}},
		map[string]bson.D{
			"oldest":      {{Key: "createdAt", Value: 1}},
			"rating-desc": {{Key: "rating", Value: -1}, {Key: "createdAt", Value: -1}},
			"rating-asc":  {{Key: "rating", Value: 1}, {Key: "createdAt", Value: -1}},
		})
	opts := options.Find().SetSort(sort).SetSkip(skip).SetLimit(limit)

	reviews, err := utils.FindAndDecode[models.Review](ctx, db.ReviewsCollection,
		bson.M{"productId": ps.ByName("productid")}, opts)
	if err != nil {
		log.Println("GetReviews error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch reviews")
		return
	}
	if reviews == nil {
		reviews = []models.Review{}
	}

	utils.RespondWithJSON(w, http.StatusOK, reviews)
}
