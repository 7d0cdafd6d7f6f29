package sales

import (
	"context"

	"github.com/jhoicas/nova-salud-api/internal/application/dto"
	"github.com/jhoicas/nova-salud-api/internal/domain/entity"
	"github.com/jhoicas/nova-salud-api/internal/domain/repository"
)

// SaleTxRunner ejecuta fn dentro de una transacción con los repos de productos y ventas atados a ella.
// Si fn retorna error se hace rollback y el error se devuelve tal cual; la conexión se libera en todo caso.
type SaleTxRunner interface {
	RunSale(ctx context.Context, fn func(
		productRepo repository.ProductRepository,
		saleRepo repository.SaleRepository,
	) error) error
}

// CustomerChecker verificación de existencia de clientes (pre-chequeo del validador).
type CustomerChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// CustomerFinder resuelve el cliente enlazado a una cuenta autenticada.
type CustomerFinder interface {
	GetByUserID(ctx context.Context, userID int64) (*entity.Customer, error)
}

// CommitListener recibe cada venta confirmada. Los errores se registran y no afectan la venta.
type CommitListener interface {
	OnSaleCommitted(ctx context.Context, sale dto.SaleResponse) error
}

// StatsCache caché de estadísticas por año (0 = todos).
type StatsCache interface {
	Get(ctx context.Context, year int) (*dto.SaleStatsResponse, bool, error)
	Set(ctx context.Context, year int, stats *dto.SaleStatsResponse) error
	Invalidate(ctx context.Context) error
}

// ReceiptRenderer genera el comprobante de una venta.
type ReceiptRenderer interface {
	RenderSale(sale *dto.SaleResponse) ([]byte, error)
}
