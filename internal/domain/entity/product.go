package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCategory categoría asignada cuando el producto no trae una.
const DefaultCategory = "General"

// Product representa un producto del catálogo de la tienda.
// Stock nunca es negativo; solo lo descuenta una venta confirmada o el CRUD del catálogo.
type Product struct {
	ID          int64
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal // precio de venta vigente
	Stock       int
	Active      bool // false = eliminado lógicamente
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
