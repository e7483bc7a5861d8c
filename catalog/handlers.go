package catalog

import (
	"context"
	"errors"
	"log"
	"math"
	"net/http"
	"time"

	"vermilion/db"
	"vermilion/models"
	"vermilion/pricing"
	"vermilion/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ProductSummary is the shaped listing record; raw storage documents are
// never returned.
type ProductSummary struct {
	ProductID       string   `json:"productId"`
	Name            string   `json:"name"`
	Image           string   `json:"image,omitempty"`
	SKU             string   `json:"sku"`
	Price           float64  `json:"price"`
	SalePrice       float64  `json:"salePrice,omitempty"`
	EffectivePrice  float64  `json:"effectivePrice"`
	DiscountPercent int      `json:"discountPercent"`
	AverageRating   float64  `json:"averageRating"`
	Stock           int      `json:"stock"`
	IsFeatured      bool     `json:"isFeatured"`
	Category        string   `json:"category"`
	Occasion        string   `json:"occasion,omitempty"`
	Fabric          string   `json:"fabric,omitempty"`
	Color           string   `json:"color,omitempty"`
	Sizes           []string `json:"sizes,omitempty"`
}

func summarize(p models.Product, rating float64) ProductSummary {
	image := ""
	if len(p.Images) > 0 {
		image = p.Images[0]
	}
	return ProductSummary{
		ProductID:       p.ProductID,
		Name:            p.Name,
		Image:           image,
		SKU:             p.SKU,
		Price:           p.Price,
		SalePrice:       p.SalePrice,
		EffectivePrice:  pricing.EffectivePrice(p.Price, p.SalePrice),
		DiscountPercent: pricing.DiscountPercent(p.Price, p.SalePrice),
		AverageRating:   rating,
		Stock:           p.Stock,
		IsFeatured:      p.IsFeatured,
		Category:        p.Category,
		Occasion:        p.Occasion,
		Fabric:          p.Fabric,
		Color:           p.Color,
		Sizes:           p.Sizes,
	}
}

// averageRatings returns the per-product mean review rating rounded to one
// decimal for the given page of ids.
func averageRatings(ctx context.Context, productIDs []string) (map[string]float64, error) {
	if len(productIDs) == 0 {
		return map[string]float64{}, nil
	}

	pipeline := []bson.M{
		{"$match": bson.M{"productId": bson.M{"$in": productIDs}}},
		{"$group": bson.M{"_id": "$productId", "avg": bson.M{"$avg": "$rating"}}},
	}
	cursor, err := db.ReviewsCollection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	ratings := make(map[string]float64)
	for cursor.Next(ctx) {
		var row struct {
			ID  string  `bson:"_id"`
			Avg float64 `bson:"avg"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		ratings[row.ID] = math.Round(row.Avg*10) / 10
	}
	return ratings, cursor.Err()
}

// GET /api/products
func GetProducts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	params, err := ParseParams(r)
	if err != nil {
		var valErr *ValidationError
		if errors.As(err, &valErr) {
			utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{
				"error":   "validation failed",
				"details": valErr.Details,
			})
			return
		}
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request")
		return
	}

	cursor, err := db.ProductCollection.Aggregate(ctx, params.pipeline())
	if err != nil {
		log.Println("GetProducts aggregate error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	var page []models.Product
	if err := cursor.All(ctx, &page); err != nil {
		log.Println("GetProducts decode error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch products")
		return
	}

	var total int64
	countCursor, err := db.ProductCollection.Aggregate(ctx, params.countPipeline())
	if err != nil {
		log.Println("GetProducts count error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to count products")
		return
	}
	var counts []struct {
		Total int64 `bson:"total"`
	}
	if err := countCursor.All(ctx, &counts); err != nil {
		log.Println("GetProducts count decode error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to count products")
		return
	}
	if len(counts) > 0 {
		total = counts[0].Total
	}

	ids := make([]string, 0, len(page))
	for _, p := range page {
		ids = append(ids, p.ProductID)
	}
	ratings, err := averageRatings(ctx, ids)
	if err != nil {
		log.Println("GetProducts ratings error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch products")
		return
	}

	summaries := make([]ProductSummary, 0, len(page))
	for _, p := range page {
		summaries = append(summaries, summarize(p, ratings[p.ProductID]))
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"products":   summaries,
		"pagination": paginate(params.Page, params.Limit, total),
		"filters": utils.M{
			"search":   params.Search,
			"category": params.Category,
			"minPrice": params.MinPrice,
			"maxPrice": params.MaxPrice,
			"occasion": params.Occasion,
			"fabric":   params.Fabric,
			"color":    params.Color,
			"size":     params.Size,
			"inStock":  params.InStock,
			"sortBy":   params.SortBy,
		},
	})
}

// GET /api/products/:productid
func GetProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	productID := ps.ByName("productid")

	var product models.Product
	err := db.ProductCollection.FindOne(ctx, bson.M{"productId": productID, "isActive": true}).Decode(&product)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondWithError(w, http.StatusNotFound, "Product not found")
			return
		}
		log.Println("GetProduct error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch product")
		return
	}

	// view counter feeds the featured sort tie-break; best effort
	if _, err := db.ProductCollection.UpdateOne(ctx,
		bson.M{"productId": productID},
		bson.M{"$inc": bson.M{"viewCount": 1}}); err != nil {
		log.Println("GetProduct view count error:", err)
	}

	ratings, err := averageRatings(ctx, []string{productID})
	if err != nil {
		log.Println("GetProduct ratings error:", err)
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"product":         product,
		"effectivePrice":  pricing.EffectivePrice(product.Price, product.SalePrice),
		"discountPercent": pricing.DiscountPercent(product.Price, product.SalePrice),
		"averageRating":   ratings[productID],
	})
}
