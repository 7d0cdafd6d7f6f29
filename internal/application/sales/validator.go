package sales

import (
	"bytes"
	"context"
	"encoding/json"
	"math"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/nova-salud-api/internal/application/dto"
	"github.com/jhoicas/nova-salud-api/internal/domain"
	domainsales "github.com/jhoicas/nova-salud-api/internal/domain/sales"
)

var maxQuantity = decimal.NewFromInt(math.MaxInt32)

// ValidatedSale pedido ya verificado: customer opcional y líneas con cantidades enteras positivas.
type ValidatedSale struct {
	CustomerID *int64
	Lines      []domainsales.Line
}

// Validator chequeos estructurales y semánticos previos a la transacción. Sin efectos.
type Validator struct {
	customers CustomerChecker
}

// NewValidator construye el validador.
func NewValidator(customers CustomerChecker) *Validator {
	return &Validator{customers: customers}
}

// Validate devuelve EmptyOrderError, InvalidItemError o CustomerNotFoundError según corresponda.
// customer_id ausente o 0 es una venta anónima.
func (v *Validator) Validate(ctx context.Context, in dto.CreateSaleRequest) (*ValidatedSale, error) {
	lines, err := parseLines(in.Items)
	if err != nil {
		return nil, err
	}

	out := &ValidatedSale{Lines: lines}
	if in.CustomerID == nil || *in.CustomerID == 0 {
		return out, nil
	}
	id := *in.CustomerID
	if id < 0 {
		return nil, domain.CustomerNotFoundError(id)
	}
	ok, err := v.customers.Exists(ctx, id)
	if err != nil {
		return nil, domain.PersistenceError("customer lookup", err)
	}
	if !ok {
		return nil, domain.CustomerNotFoundError(id)
	}
	out.CustomerID = &id
	return out, nil
}

func parseLines(raw json.RawMessage) ([]domainsales.Line, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, domain.EmptyOrderError()
	}
	var rawItems []json.RawMessage
	if err := json.Unmarshal(trimmed, &rawItems); err != nil {
		return nil, domain.EmptyOrderError()
	}
	if len(rawItems) == 0 {
		return nil, domain.EmptyOrderError()
	}

	lines := make([]domainsales.Line, 0, len(rawItems))
	for i, r := range rawItems {
		var item dto.SaleItemRequest
		if err := json.Unmarshal(r, &item); err != nil {
			return nil, domain.InvalidItemError(i)
		}
		if item.ProductID == nil || *item.ProductID <= 0 {
			return nil, domain.InvalidItemError(i)
		}
		q := item.Quantity
		if q == nil || !q.IsPositive() || !q.IsInteger() || q.GreaterThan(maxQuantity) {
			return nil, domain.InvalidItemError(i)
		}
		lines = append(lines, domainsales.Line{ProductID: *item.ProductID, Quantity: int(q.IntPart())})
	}
	return lines, nil
}
