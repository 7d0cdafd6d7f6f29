package sales

import "github.com/shopspring/decimal"

// MaxAmount mayor importe representable en NUMERIC(14,2), usado por subtotal y total_amount.
var MaxAmount = decimal.RequireFromString("999999999999.99")

// PricedLine línea con el precio unitario leído bajo bloqueo.
type PricedLine struct {
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
}

// LineTotal línea calculada. Subtotal = UnitPrice * Quantity, sin redondeo.
type LineTotal struct {
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// Totals resultado del cálculo: líneas en el mismo orden de entrada y total exacto.
type Totals struct {
	Lines []LineTotal
	Total decimal.Decimal
}

// CalculateTotals deriva subtotales y total a partir de los precios bloqueados.
// Total == Σ Subtotal siempre; la aritmética decimal es exacta.
func CalculateTotals(lines []PricedLine) Totals {
	out := Totals{Lines: make([]LineTotal, 0, len(lines)), Total: decimal.Zero}
	for _, l := range lines {
		sub := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
		out.Lines = append(out.Lines, LineTotal{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  sub,
		})
		out.Total = out.Total.Add(sub)
	}
	return out
}

// ExceedsMax indica si algún importe no cabe en las columnas monetarias.
// Los subtotales son no negativos, así que basta con mirar el total.
func (t Totals) ExceedsMax() bool {
	return t.Total.GreaterThan(MaxAmount)
}
