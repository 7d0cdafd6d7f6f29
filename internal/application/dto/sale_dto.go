package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// CreateSaleRequest entrada de POST /sales. Items se deja en crudo: el validador de ventas
// distingue "no es una lista" de "ítem inválido".
type CreateSaleRequest struct {
	CustomerID *int64          `json:"customer_id"`
	Items      json.RawMessage `json:"items" swaggertype:"array,object"`
}

// SaleItemRequest ítem pedido. Cantidad como decimal para detectar valores no enteros.
type SaleItemRequest struct {
	ProductID *int64           `json:"product_id"`
	Quantity  *decimal.Decimal `json:"quantity"`
}

// SaleItemResponse línea de una venta con el nombre del producto.
type SaleItemResponse struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// SaleResponse venta confirmada, desnormalizada.
type SaleResponse struct {
	ID           int64              `json:"id"`
	SaleDate     time.Time          `json:"sale_date"`
	TotalAmount  decimal.Decimal    `json:"total_amount"`
	CustomerID   *int64             `json:"customer_id"`
	CustomerName *string            `json:"customer_name"`
	Items        []SaleItemResponse `json:"items"`
}

// SaleStatsResponse estadísticas de ventas confirmadas.
// SalesByMonth siempre trae las claves 1..12.
type SaleStatsResponse struct {
	Year            int                        `json:"year,omitempty"`
	TotalSales      decimal.Decimal            `json:"total_sales"`
	SaleCount       int64                      `json:"sale_count"`
	SalesByMonth    map[int]decimal.Decimal    `json:"sales_by_month"`
	SalesByCategory map[string]decimal.Decimal `json:"sales_by_category"`
}

// SaleCommittedEvent evento publicado tras el commit de una venta.
type SaleCommittedEvent struct {
	EventID    string       `json:"event_id"`
	Type       string       `json:"type"`
	OccurredAt time.Time    `json:"occurred_at"`
	Sale       SaleResponse `json:"sale"`
}
