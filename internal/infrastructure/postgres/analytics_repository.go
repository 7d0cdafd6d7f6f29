package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/nova-salud-api/internal/domain/repository"
)

var _ repository.AnalyticsRepository = (*AnalyticsRepo)(nil)

// AnalyticsRepo consultas de solo lectura sobre ventas confirmadas.
type AnalyticsRepo struct {
	pool *pgxpool.Pool
}

// NewAnalyticsRepository construye el adaptador de analítica.
func NewAnalyticsRepository(pool *pgxpool.Pool) *AnalyticsRepo {
	return &AnalyticsRepo{pool: pool}
}

// Summary total vendido y número de ventas. year = 0: todos los años.
func (r *AnalyticsRepo) Summary(ctx context.Context, year int) (repository.SalesSummary, error) {
	var s repository.SalesSummary
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_amount), 0), COUNT(*)
		FROM sales
		WHERE ($1::INT = 0 OR EXTRACT(YEAR FROM sale_date)::INT = $1)`, year,
	).Scan(&s.TotalAmount, &s.SaleCount)
	if err != nil {
		return s, fmt.Errorf("sales summary: %w", err)
	}
	return s, nil
}

// ByMonth total por mes del año (1..12).
func (r *AnalyticsRepo) ByMonth(ctx context.Context, year int) ([]repository.MonthlyAmount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT EXTRACT(MONTH FROM sale_date)::INT AS month, SUM(total_amount)
		FROM sales
		WHERE ($1::INT = 0 OR EXTRACT(YEAR FROM sale_date)::INT = $1)
		GROUP BY month
		ORDER BY month`, year)
	if err != nil {
		return nil, fmt.Errorf("sales by month: %w", err)
	}
	defer rows.Close()
	var out []repository.MonthlyAmount
	for rows.Next() {
		var m repository.MonthlyAmount
		if err := rows.Scan(&m.Month, &m.Amount); err != nil {
			return nil, fmt.Errorf("scan month: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ByCategory total vendido por categoría de producto, mayor primero.
func (r *AnalyticsRepo) ByCategory(ctx context.Context, year int) ([]repository.CategoryAmount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.category, SUM(si.subtotal) AS amount
		FROM sale_items si
		JOIN sales    s ON s.id = si.sale_id
		JOIN products p ON p.id = si.product_id
		WHERE ($1::INT = 0 OR EXTRACT(YEAR FROM s.sale_date)::INT = $1)
		GROUP BY p.category
		ORDER BY amount DESC`, year)
	if err != nil {
		return nil, fmt.Errorf("sales by category: %w", err)
	}
	defer rows.Close()
	var out []repository.CategoryAmount
	for rows.Next() {
		var c repository.CategoryAmount
		if err := rows.Scan(&c.Category, &c.Amount); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
