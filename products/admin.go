package products

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"vermilion/db"
	"vermilion/models"
	"vermilion/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
)

type productInput struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	SKU         string           `json:"sku"`
	Price       float64          `json:"price"`
	SalePrice   float64          `json:"salePrice"`
	Stock       int              `json:"stock"`
	IsActive    bool             `json:"isActive"`
	IsFeatured  bool             `json:"isFeatured"`
	Category    string           `json:"category"`
	Occasion    string           `json:"occasion"`
	Fabric      string           `json:"fabric"`
	Color       string           `json:"color"`
	Sizes       []string         `json:"sizes"`
	Variants    []models.Variant `json:"variants"`
}

func (in *productInput) validate() string {
	if len(in.Name) == 0 || len(in.Name) > 200 {
		return "Name must be between 1 and 200 characters"
	}
	if in.Price <= 0 {
		return "Price must be a positive number"
	}
	if in.SalePrice < 0 || in.SalePrice >= in.Price {
		if in.SalePrice != 0 {
			return "Sale price must be below the base price"
		}
	}
	if in.Stock < 0 {
		return "Stock must be non-negative"
	}
	if in.Category == "" {
		return "Category is required"
	}
	for _, v := range in.Variants {
		if v.VariantID == "" || v.Price <= 0 || v.Stock < 0 {
			return "Each variant needs an id, positive price and non-negative stock"
		}
	}
	return ""
}

// POST /api/admin/products
func CreateProduct(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := r.Context()

	var in productInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if msg := in.validate(); msg != "" {
		utils.RespondWithError(w, http.StatusBadRequest, msg)
		return
	}

	now := time.Now()
	product := models.Product{
		ProductID:   utils.GetUUID(),
		Name:        in.Name,
		Description: in.Description,
		SKU:         in.SKU,
		Price:       in.Price,
		SalePrice:   in.SalePrice,
		Stock:       in.Stock,
		IsActive:    in.IsActive,
		IsFeatured:  in.IsFeatured,
		Category:    in.Category,
		Occasion:    in.Occasion,
		Fabric:      in.Fabric,
		Color:       in.Color,
		Sizes:       in.Sizes,
		Variants:    in.Variants,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := db.ProductCollection.InsertOne(ctx, product); err != nil {
		log.Println("CreateProduct: insert error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create product")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, product)
}

// PUT /api/admin/products/:productId
func UpdateProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := r.Context()
	productID := ps.ByName("productId")

	var in productInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if msg := in.validate(); msg != "" {
		utils.RespondWithError(w, http.StatusBadRequest, msg)
		return
	}

	update := bson.M{"$set": bson.M{
		"name":        in.Name,
		"description": in.Description,
		"sku":         in.SKU,
		"price":       in.Price,
		"salePrice":   in.SalePrice,
		"stock":       in.Stock,
		"isActive":    in.IsActive,
		"isFeatured":  in.IsFeatured,
		"category":    in.Category,
		"occasion":    in.Occasion,
		"fabric":      in.Fabric,
		"color":       in.Color,
		"sizes":       in.Sizes,
		"variants":    in.Variants,
		"updatedAt":   time.Now(),
	}}

	res, err := db.ProductCollection.UpdateOne(ctx, bson.M{"productId": productID}, update)
	if err != nil {
		log.Println("UpdateProduct: update error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update product")
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Product not found")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"updated": true})
}

// GET /api/admin/products/:productId
func GetProductAdmin(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := r.Context()

	var product models.Product
	err := db.ProductCollection.FindOne(ctx, bson.M{"productId": ps.ByName("productId")}).Decode(&product)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Product not found")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, product)
}
