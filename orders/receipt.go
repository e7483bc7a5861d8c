package orders

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"vermilion/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
	"go.mongodb.org/mongo-driver/mongo"
)

// GET /api/orders/:orderid/receipt
func DownloadReceipt(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
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
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch order")
		return
	}
	if order.UserID != "" && order.UserID != userID {
		utils.RespondWithError(w, http.StatusForbidden, "Not your order")
		return
	}

	base := os.Getenv("STORE_BASE_URL")
	if base == "" {
		base = "http://localhost:5173"
	}
	qrData := fmt.Sprintf("%s/orders/%s?n=%s", base, order.OrderID, order.OrderNumber)
	qrCode, _ := qrcode.Encode(qrData, qrcode.Medium, 128)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 15, "Vermilion Order Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "", 12)
	pdf.MultiCell(0, 8, fmt.Sprintf(
		"Order: %s\nPlaced: %s\nStatus: %s / payment %s\nShip to: %s, %s, %s",
		order.OrderNumber,
		order.CreatedAt.Format("02 Jan 2006 15:04"),
		order.Status,
		order.PaymentStatus,
		order.ShippingAddress.FullName,
		order.ShippingAddress.City,
		order.ShippingAddress.Country,
	), "", "L", false)
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(90, 8, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(25, 8, "Qty", "B", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Unit", "B", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	for _, item := range order.Items {
		pdf.CellFormat(90, 8, item.Name, "", 0, "L", false, 0, "")
		pdf.CellFormat(25, 8, fmt.Sprintf("%d", item.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, fmt.Sprintf("%.2f", item.UnitPrice), "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.MultiCell(0, 8, fmt.Sprintf(
		"Subtotal: %.2f\nShipping: %.2f\nDiscount: %.2f\nTotal: %.2f",
		order.Subtotal, order.ShippingAmount, order.DiscountAmount, order.TotalAmount,
	), "", "L", false)

	imgOpts := gofpdf.ImageOptions{ImageType: "png"}
	pdf.RegisterImageOptionsReader("qr", imgOpts, bytes.NewReader(qrCode))
	pdf.ImageOptions("qr", 150, 40, 40, 40, false, imgOpts, 0, "")

	pdf.SetY(-30)
	pdf.SetFont("Arial", "I", 10)
	pdf.CellFormat(0, 10, "Scan the code to view your order online.", "T", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate receipt")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=receipt-"+order.OrderNumber+".pdf")
	w.Write(buf.Bytes())
}
