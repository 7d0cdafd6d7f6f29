package sales

import (
	"context"

	"github.com/jhoicas/nova-salud-api/internal/application/dto"
	"github.com/jhoicas/nova-salud-api/internal/domain/repository"
)

// Assembler lee ventas confirmadas (fuera de la transacción de escritura) y las agrupa
// en memoria a partir de un join explícito.
type Assembler struct {
	saleRepo  repository.SaleRepository
	customers CustomerFinder
}

// NewAssembler construye el armador de respuestas. saleRepo debe estar sobre el pool.
func NewAssembler(saleRepo repository.SaleRepository, customers CustomerFinder) *Assembler {
	return &Assembler{saleRepo: saleRepo, customers: customers}
}

// Get devuelve la venta o nil si no existe.
func (a *Assembler) Get(ctx context.Context, id int64) (*dto.SaleResponse, error) {
	rows, err := a.saleRepo.ListRows(ctx, repository.SaleFilter{SaleID: &id})
	if err != nil {
		return nil, err
	}
	sales := GroupRows(rows)
	if len(sales) == 0 {
		return nil, nil
	}
	return &sales[0], nil
}

// List todas las ventas confirmadas, más recientes primero.
func (a *Assembler) List(ctx context.Context) ([]dto.SaleResponse, error) {
	rows, err := a.saleRepo.ListRows(ctx, repository.SaleFilter{})
	if err != nil {
		return nil, err
	}
	return GroupRows(rows), nil
}

// MySales ventas del cliente enlazado a la cuenta. Sin cliente enlazado: lista vacía.
func (a *Assembler) MySales(ctx context.Context, userID int64) ([]dto.SaleResponse, error) {
	customer, err := a.customers.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return []dto.SaleResponse{}, nil
	}
	rows, err := a.saleRepo.ListRows(ctx, repository.SaleFilter{CustomerID: &customer.ID})
	if err != nil {
		return nil, err
	}
	return GroupRows(rows), nil
}

// GroupRows agrupa las filas planas por venta conservando el orden de llegada.
func GroupRows(rows []repository.SaleRow) []dto.SaleResponse {
	out := make([]dto.SaleResponse, 0)
	index := make(map[int64]int)
	for _, r := range rows {
		i, ok := index[r.SaleID]
		if !ok {
			out = append(out, dto.SaleResponse{
				ID:           r.SaleID,
				SaleDate:     r.SaleDate,
				TotalAmount:  r.TotalAmount,
				CustomerID:   r.CustomerID,
				CustomerName: r.CustomerName,
				Items:        []dto.SaleItemResponse{},
			})
			i = len(out) - 1
			index[r.SaleID] = i
		}
		if r.ItemID == nil {
			continue
		}
		item := dto.SaleItemResponse{ID: *r.ItemID}
		if r.ProductID != nil {
			item.ProductID = *r.ProductID
		}
		if r.ProductName != nil {
			item.ProductName = *r.ProductName
		}
		if r.Quantity != nil {
			item.Quantity = *r.Quantity
		}
		item.UnitPrice = r.UnitPrice.Decimal
		item.Subtotal = r.Subtotal.Decimal
		out[i].Items = append(out[i].Items, item)
	}
	return out
}
