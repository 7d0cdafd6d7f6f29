package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/nova-salud-api/internal/domain"
	"github.com/jhoicas/nova-salud-api/internal/domain/entity"
	"github.com/jhoicas/nova-salud-api/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo ventas e ítems. En escritura se construye sobre la tx; en lectura sobre el pool.
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador de ventas.
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// Create inserta la cabecera; sale_date lo pone la base de datos.
func (r *SaleRepo) Create(ctx context.Context, sale *entity.Sale) error {
	err := r.q.QueryRow(ctx,
		`INSERT INTO sales (total_amount, customer_id) VALUES ($1, $2) RETURNING id, sale_date`,
		sale.TotalAmount, sale.CustomerID,
	).Scan(&sale.ID, &sale.SaleDate)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("insert sale: customer: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

// CreateItem inserta una línea con el precio unitario ya fijado.
func (r *SaleRepo) CreateItem(ctx context.Context, item *entity.SaleItem) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO sale_items (sale_id, product_id, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		item.SaleID, item.ProductID, item.Quantity, item.UnitPrice, item.Subtotal,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("insert sale item: %w", err)
	}
	return nil
}

// ListRows join explícito ventas/clientes/ítems/productos; el agrupado se hace en la aplicación.
func (r *SaleRepo) ListRows(ctx context.Context, f repository.SaleFilter) ([]repository.SaleRow, error) {
	const query = `
	SELECT s.id, s.sale_date, s.total_amount, s.customer_id, c.name,
	       si.id, si.product_id, p.name, si.quantity, si.unit_price, si.subtotal
	FROM sales s
	LEFT JOIN customers  c  ON c.id       = s.customer_id
	LEFT JOIN sale_items si ON si.sale_id = s.id
	LEFT JOIN products   p  ON p.id       = si.product_id
	WHERE ($1::BIGINT IS NULL OR s.id = $1)
	  AND ($2::BIGINT IS NULL OR s.customer_id = $2)
	ORDER BY s.sale_date DESC, s.id DESC, si.id`

	rows, err := r.q.Query(ctx, query, f.SaleID, f.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	var out []repository.SaleRow
	for rows.Next() {
		var row repository.SaleRow
		if err := rows.Scan(
			&row.SaleID, &row.SaleDate, &row.TotalAmount, &row.CustomerID, &row.CustomerName,
			&row.ItemID, &row.ProductID, &row.ProductName, &row.Quantity, &row.UnitPrice, &row.Subtotal,
		); err != nil {
			return nil, fmt.Errorf("scan sale row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
