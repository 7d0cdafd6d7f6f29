package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/nova-salud-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	CreateSale SaleCreator
	Sales      SaleReader
	Stats      StatsReader
	Receipts   ReceiptRenderer
	Products   ProductService
	Customers  CustomerService
	Auth       AuthService
	JWTSecret  string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.Auth)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	adminOnly := RequireRole(entity.RoleAdmin)

	// Sales: las rutas fijas antes de /:id
	sales := protected.Group("/sales")
	saleHandler := NewSaleHandler(deps.CreateSale, deps.Sales, deps.Stats, deps.Receipts)
	sales.Post("/", saleHandler.Create)
	sales.Get("/", saleHandler.List)
	sales.Get("/mis-ventas", saleHandler.MySales)
	sales.Get("/estadisticas", saleHandler.Stats)
	sales.Get("/:id", saleHandler.GetByID)
	sales.Get("/:id/receipt", saleHandler.Receipt)

	// Products: escritura solo admin
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.Products)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Post("/", adminOnly, productHandler.Create)
	products.Put("/:id", adminOnly, productHandler.Update)
	products.Delete("/:id", adminOnly, productHandler.Delete)

	// Customers: el borrado solo admin
	customers := protected.Group("/customers")
	customerHandler := NewCustomerHandler(deps.Customers)
	customers.Get("/", customerHandler.List)
	customers.Get("/:id", customerHandler.GetByID)
	customers.Post("/", customerHandler.Create)
	customers.Put("/:id", customerHandler.Update)
	customers.Delete("/:id", adminOnly, customerHandler.Delete)
}
