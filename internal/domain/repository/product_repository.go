package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/nova-salud-api/internal/domain/entity"
)

// ProductUpdate descriptor tipado de campos modificables de un producto.
// nil = no cambia. Se valida antes de traducirse a SQL.
type ProductUpdate struct {
	Name        *string
	Description *string
	Category    *string
	Price       *decimal.Decimal
	Stock       *int
}

// IsEmpty indica que no se pidió cambiar ningún campo.
func (u ProductUpdate) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.Category == nil && u.Price == nil && u.Stock == nil
}

// LockedProduct foto de un producto leída bajo bloqueo de fila dentro de la transacción de venta.
type LockedProduct struct {
	ID    int64
	Name  string
	Price decimal.Decimal
	Stock int
}

// ProductRepository define el puerto de persistencia para Product (DIP).
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	// GetByID devuelve nil, nil si no existe o está inactivo.
	GetByID(ctx context.Context, id int64) (*entity.Product, error)
	ListActive(ctx context.Context) ([]*entity.Product, error)
	Update(ctx context.Context, id int64, upd ProductUpdate) (*entity.Product, error)
	Deactivate(ctx context.Context, id int64) error

	// LockForSale toma el bloqueo exclusivo de la fila (solo productos activos) y devuelve
	// precio y stock vigentes. nil, nil si no existe. Solo tiene sentido dentro de una transacción.
	LockForSale(ctx context.Context, id int64) (*LockedProduct, error)
	// UpdateStock escribe el stock absoluto calculado a partir del valor leído bajo bloqueo.
	UpdateStock(ctx context.Context, id int64, stock int) error
}
