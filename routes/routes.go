package routes

import (
	"net/http"

	"vermilion/cart"
	"vermilion/catalog"
	"vermilion/checkout"
	"vermilion/content"
	"vermilion/middleware"
	"vermilion/orders"
	"vermilion/payments"
	"vermilion/products"
	"vermilion/ratelim"

	"github.com/julienschmidt/httprouter"
)

func AddStaticRoutes(router *httprouter.Router) {
	router.ServeFiles("/productpic/*filepath", http.Dir("static/productpic"))
}

func AddCatalogRoutes(router *httprouter.Router) {
	router.GET("/api/products", catalog.GetProducts)
	router.GET("/api/products/:productid", catalog.GetProduct)
	router.GET("/api/products/:productid/reviews", catalog.GetReviews)
	router.POST("/api/products/:productid/reviews", middleware.Authenticate(catalog.AddReview))
}

func AddCartRoutes(router *httprouter.Router, h *cart.Handler) {
	router.GET("/api/cart", middleware.OptionalAuth(h.GetCart))
	router.POST("/api/cart/items", middleware.OptionalAuth(h.AddItem))
	router.PATCH("/api/cart/items/:itemid", middleware.OptionalAuth(h.UpdateQuantity))
	router.DELETE("/api/cart/items/:itemid", middleware.OptionalAuth(h.RemoveItem))
	router.DELETE("/api/cart", middleware.OptionalAuth(h.ClearCart))
	router.POST("/api/cart/toggle", middleware.OptionalAuth(h.ToggleDrawer))
	router.POST("/api/cart/coupon", middleware.OptionalAuth(cart.ValidateCouponHandler))
}

func AddCheckoutRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, h *checkout.Handler) {
	router.POST("/api/checkout", rl.Limit(middleware.OptionalAuth(payments.Idempotent(h.Checkout))))
}

func AddOrderRoutes(router *httprouter.Router) {
	router.GET("/api/orders", middleware.Authenticate(orders.GetMyOrders))
	router.GET("/api/orders/:orderid", middleware.Authenticate(orders.GetOrder))
	router.GET("/api/orders/:orderid/receipt", middleware.Authenticate(orders.DownloadReceipt))
	router.PATCH("/api/orders/:orderid/status",
		middleware.Authenticate(middleware.RequireRole("admin", orders.UpdateOrderStatus)))
	router.PATCH("/api/orders/:orderid/payment-status",
		middleware.Authenticate(middleware.RequireRole("admin", orders.UpdatePaymentStatus)))
}

func AddPaymentRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/payments/webhook", rl.Limit(payments.Webhook))
}

func AddContentRoutes(router *httprouter.Router) {
	router.GET("/api/guides", content.GetGuides)
	router.GET("/api/guides/:slug", content.GetGuide)
}

func AddProductAdminRoutes(router *httprouter.Router) {
	router.POST("/api/admin/products",
		middleware.Authenticate(middleware.RequireRole("admin", products.CreateProduct)))
	router.GET("/api/admin/products/:productId",
		middleware.Authenticate(middleware.RequireRole("admin", products.GetProductAdmin)))
	router.PUT("/api/admin/products/:productId",
		middleware.Authenticate(middleware.RequireRole("admin", products.UpdateProduct)))
	router.POST("/api/admin/products/:productId/images",
		middleware.Authenticate(middleware.RequireRole("admin", products.UploadProductImages)))
}
