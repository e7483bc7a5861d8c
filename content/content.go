package content

import (
	"log"
	"net/http"

	"vermilion/db"
	"vermilion/models"
	"vermilion/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GET /api/guides?page=&limit=&search=&tag=
func GetGuides(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := r.Context()
	skip, limit := utils.ParsePagination(r, 10, 50)

	filter := bson.M{"published": true}
	if search := r.URL.Query().Get("search"); search != "" {
		for k, v := range utils.RegexFilter("title", search) {
			filter[k] = v
		}
	}
	if tag := r.URL.Query().Get("tag"); tag != "" {
		filter["tags"] = tag
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit).
		SetProjection(bson.M{"body": 0})

	guides, err := utils.FindAndDecode[models.Guide](ctx, db.ContentCollection, filter, opts)
	if err != nil {
		log.Println("GetGuides: find error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch guides")
		return
	}
	if guides == nil {
		guides = []models.Guide{}
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"guides": guides})
}

// GET /api/guides/:slug
func GetGuide(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := r.Context()
	slug := ps.ByName("slug")

	var guide models.Guide
	err := db.ContentCollection.FindOne(ctx, bson.M{"slug": slug, "published": true}).Decode(&guide)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Guide not found")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, guide)
}
