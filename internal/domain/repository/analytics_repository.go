package repository

import (
	"context"

	"github.com/shopspring/decimal"
)

// SalesSummary totales de ventas confirmadas.
type SalesSummary struct {
	TotalAmount decimal.Decimal
	SaleCount   int64
}

// MonthlyAmount total vendido en un mes (1..12).
type MonthlyAmount struct {
	Month  int
	Amount decimal.Decimal
}

// CategoryAmount total vendido por categoría de producto.
type CategoryAmount struct {
	Category string
	Amount   decimal.Decimal
}

// AnalyticsRepository agregaciones de solo lectura sobre ventas confirmadas.
// year = 0 significa todos los años.
type AnalyticsRepository interface {
	Summary(ctx context.Context, year int) (SalesSummary, error)
	ByMonth(ctx context.Context, year int) ([]MonthlyAmount, error)
	ByCategory(ctx context.Context, year int) ([]CategoryAmount, error)
}
