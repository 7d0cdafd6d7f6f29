package sales

import (
	"context"
	"errors"

	"github.com/jhoicas/nova-salud-api/internal/domain"
	"github.com/jhoicas/nova-salud-api/internal/domain/entity"
	"github.com/jhoicas/nova-salud-api/internal/domain/repository"
	domainsales "github.com/jhoicas/nova-salud-api/internal/domain/sales"
)

// Persister escribe cabecera, ítems y descuentos de stock dentro de la transacción abierta.
type Persister struct{}

// NewPersister construye el persistidor.
func NewPersister() *Persister { return &Persister{} }

// Persist inserta la venta y por cada línea (en orden del pedido) su ítem y el stock nuevo.
// El stock nuevo parte del valor leído bajo bloqueo y nunca se vuelve a leer.
func (p *Persister) Persist(
	ctx context.Context,
	productRepo repository.ProductRepository,
	saleRepo repository.SaleRepository,
	customerID *int64,
	totals domainsales.Totals,
	locked map[int64]repository.LockedProduct,
) (*entity.Sale, []*entity.SaleItem, error) {
	sale := &entity.Sale{TotalAmount: totals.Total, CustomerID: customerID}
	if err := saleRepo.Create(ctx, sale); err != nil {
		// FK de cliente: el cliente desapareció entre el pre-chequeo y la transacción.
		if customerID != nil && errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.CustomerNotFoundError(*customerID)
		}
		return nil, nil, domain.PersistenceError("insert sale", err)
	}

	remaining := make(map[int64]int, len(locked))
	for id, lp := range locked {
		remaining[id] = lp.Stock
	}

	items := make([]*entity.SaleItem, 0, len(totals.Lines))
	for _, l := range totals.Lines {
		item := &entity.SaleItem{
			SaleID:    sale.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal,
		}
		if err := saleRepo.CreateItem(ctx, item); err != nil {
			return nil, nil, domain.PersistenceError("insert sale item", err)
		}
		remaining[l.ProductID] -= l.Quantity
		if err := productRepo.UpdateStock(ctx, l.ProductID, remaining[l.ProductID]); err != nil {
			return nil, nil, domain.PersistenceError("update stock", err)
		}
		items = append(items, item)
	}
	return sale, items, nil
}
