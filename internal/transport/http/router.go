package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/kmazurov/storefront/internal/handlers"
	"github.com/kmazurov/storefront/internal/middleware/auth"
)

type Deps struct {
	DB             *gorm.DB
	JWTSecret      []byte
	AuthHandler    *handlers.AuthHandler
	ProductHandler *handlers.ProductHandler
	OrderHandler   *handlers.OrderHandler
	UserHandler    *handlers.UserHandler
	AddressHandler *handlers.AddressHandler
	PaymentHandler *handlers.PaymentHandler
	InvoiceHandler *handlers.InvoiceHandler
	UploadHandler  *handlers.UploadHandler
	SearchHandler  *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	api := e.Group("/api")

	requireUser := auth.RequireUser(d.JWTSecret)
	requireAdmin := auth.RequireAdmin(d.JWTSecret)

	authGroup := api.Group("/auth")
	authGroup.POST("/register", d.AuthHandler.Register)
	authGroup.POST("/login", d.AuthHandler.Login)
	authGroup.POST("/refresh", d.AuthHandler.Refresh)
	authGroup.POST("/logout", d.AuthHandler.LogOut)

	products := api.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/search", d.SearchHandler.Search)
	products.GET("/:id", d.ProductHandler.GetProduct)
	products.POST("", d.ProductHandler.CreateProduct, requireAdmin)
	products.PUT("/:id", d.ProductHandler.UpdateProduct, requireAdmin)
	products.DELETE("/:id", d.ProductHandler.DeleteProduct, requireAdmin)

	api.POST("/upload", d.UploadHandler.UploadProductImage, requireAdmin)

	orders := api.Group("/orders", requireUser)
	orders.POST("/create", d.OrderHandler.CreateOrder)
	orders.GET("/my-orders", d.OrderHandler.GetMyOrders)
	orders.GET("/my/:id", d.OrderHandler.GetMyOrder)
	orders.DELETE("/cancel/:id", d.OrderHandler.CancelOrder)

	adminOrders := api.Group("/orders", requireAdmin)
	adminOrders.GET("/all", d.OrderHandler.GetAllOrders)
	adminOrders.GET("/:id", d.OrderHandler.GetOrder)
	adminOrders.PUT("/update/:id", d.OrderHandler.UpdateStatus)
	adminOrders.DELETE("/:id", d.OrderHandler.DeleteOrder)

	payments := api.Group("/payments", requireUser)
	payments.POST("/razorpay/create-order", d.PaymentHandler.CreateGatewayOrder)
	payments.POST("/razorpay/verify", d.PaymentHandler.VerifyPayment)

	api.GET("/invoice/:id", d.InvoiceHandler.DownloadInvoice, requireUser)

	users := api.Group("/users", requireUser)
	users.GET("/profile", d.UserHandler.GetProfile)
	users.PATCH("/profile", d.UserHandler.UpdateProfile)
	users.PATCH("/change-password", d.UserHandler.ChangePassword)
	users.DELETE("/delete-account", d.UserHandler.DeleteAccount)

	addresses := api.Group("/addresses", requireUser)
	addresses.GET("", d.AddressHandler.GetMyAddresses)
	addresses.POST("", d.AddressHandler.CreateAddress)
}
