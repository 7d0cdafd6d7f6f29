package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/nova-salud-api/internal/domain/entity"
)

// SaleFilter acota la lectura de ventas. Campos nil = sin filtro.
type SaleFilter struct {
	SaleID     *int64
	CustomerID *int64
}

// SaleRow fila plana del join ventas/clientes/ítems/productos.
// Una venta sin ítems produce una fila con ItemID nil.
type SaleRow struct {
	SaleID       int64
	SaleDate     time.Time
	TotalAmount  decimal.Decimal
	CustomerID   *int64
	CustomerName *string
	ItemID       *int64
	ProductID    *int64
	ProductName  *string
	Quantity     *int
	UnitPrice    decimal.NullDecimal
	Subtotal     decimal.NullDecimal
}

// SaleRepository define el puerto de persistencia para Sale y SaleItem.
type SaleRepository interface {
	// Create inserta la cabecera y completa ID y SaleDate.
	Create(ctx context.Context, sale *entity.Sale) error
	CreateItem(ctx context.Context, item *entity.SaleItem) error
	// ListRows devuelve filas ordenadas por fecha descendente, id de venta y id de ítem.
	ListRows(ctx context.Context, filter SaleFilter) ([]SaleRow, error)
}
