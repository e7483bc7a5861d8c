package products

import (
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"vermilion/db"
	"vermilion/utils"

	"github.com/disintegration/imaging"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
)

var productUploadDir = "./static/productpic"

func ensureDirExists(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

func processProductImage(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open image file: %w", err)
	}
	defer src.Close()

	img, err := imaging.Decode(src)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	uniqueID := utils.GetUUID()
	fileName := uniqueID + ".jpg"

	originalPath := filepath.Join(productUploadDir, fileName)
	thumbDir := filepath.Join(productUploadDir, "thumb")
	thumbnailPath := filepath.Join(thumbDir, fileName)

	if err := ensureDirExists(productUploadDir); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := ensureDirExists(thumbDir); err != nil {
		return "", fmt.Errorf("failed to create thumbnail directory: %w", err)
	}

	if err := imaging.Save(img, originalPath); err != nil {
		return "", fmt.Errorf("failed to save original image: %w", err)
	}

	thumb := imaging.Resize(img, 300, 0, imaging.Lanczos)
	if err := imaging.Save(thumb, thumbnailPath); err != nil {
		return "", fmt.Errorf("failed to save thumbnail: %w", err)
	}

	return "/productpic/" + fileName, nil
}

// POST /api/admin/products/:productId/images
func UploadProductImages(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := r.Context()
	productID := ps.ByName("productId")

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Unable to parse form")
		return
	}

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "No images provided")
		return
	}

	var saved []string
	for _, file := range files {
		path, err := processProductImage(file)
		if err != nil {
			log.Println("UploadProductImages:", err)
			utils.RespondWithError(w, http.StatusBadRequest, "Failed to process image")
			return
		}
		saved = append(saved, path)
	}

	res, err := db.ProductCollection.UpdateOne(ctx,
		bson.M{"productId": productID},
		bson.M{
			"$push": bson.M{"images": bson.M{"$each": saved}},
			"$set":  bson.M{"updatedAt": time.Now()},
		})
	if err != nil {
		log.Println("UploadProductImages: update error:", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to attach images")
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Product not found")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"images": saved})
}
