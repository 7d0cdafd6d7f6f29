package sales

import (
	"context"

	"github.com/jhoicas/nova-salud-api/internal/domain"
)

// ReceiptUseCase genera el comprobante PDF de una venta confirmada.
type ReceiptUseCase struct {
	assembler *Assembler
	renderer  ReceiptRenderer
}

// NewReceiptUseCase construye el caso de uso.
func NewReceiptUseCase(assembler *Assembler, renderer ReceiptRenderer) *ReceiptUseCase {
	return &ReceiptUseCase{assembler: assembler, renderer: renderer}
}

// Render devuelve los bytes del comprobante. domain.ErrNotFound si la venta no existe.
func (uc *ReceiptUseCase) Render(ctx context.Context, saleID int64) ([]byte, error) {
	sale, err := uc.assembler.Get(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.ErrNotFound
	}
	return uc.renderer.RenderSale(sale)
}
