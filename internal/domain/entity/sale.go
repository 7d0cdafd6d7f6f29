package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale cabecera de una venta confirmada. Inmutable una vez hecho el commit.
// TotalAmount es exactamente la suma de los Subtotal de sus ítems.
type Sale struct {
	ID          int64
	SaleDate    time.Time
	TotalAmount decimal.Decimal
	CustomerID  *int64
}

// SaleItem línea de una venta. UnitPrice es la foto del precio al momento de la venta.
type SaleItem struct {
	ID        int64
	SaleID    int64
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}
