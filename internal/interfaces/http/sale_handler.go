package http

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/nova-salud-api/internal/application/dto"
	"github.com/jhoicas/nova-salud-api/internal/domain"
)

// SaleCreator registra una venta de forma atómica.
type SaleCreator interface {
	CreateSale(ctx context.Context, in dto.CreateSaleRequest) (*dto.SaleResponse, error)
}

// SaleReader consultas de ventas confirmadas.
type SaleReader interface {
	Get(ctx context.Context, id int64) (*dto.SaleResponse, error)
	List(ctx context.Context) ([]dto.SaleResponse, error)
	MySales(ctx context.Context, userID int64) ([]dto.SaleResponse, error)
}

// StatsReader estadísticas por año (0 = todos).
type StatsReader interface {
	Get(ctx context.Context, year int) (*dto.SaleStatsResponse, error)
}

// ReceiptRenderer comprobante PDF de una venta.
type ReceiptRenderer interface {
	Render(ctx context.Context, saleID int64) ([]byte, error)
}

// SaleHandler maneja las peticiones HTTP de ventas (protegido).
type SaleHandler struct {
	create   SaleCreator
	reader   SaleReader
	stats    StatsReader
	receipts ReceiptRenderer
}

// NewSaleHandler construye el handler.
func NewSaleHandler(create SaleCreator, reader SaleReader, stats StatsReader, receipts ReceiptRenderer) *SaleHandler {
	return &SaleHandler{create: create, reader: reader, stats: stats, receipts: receipts}
}

// Create godoc
// @Summary      Registrar venta
// @Description  Valida, bloquea stock en orden ascendente de producto, calcula totales y persiste en una sola transacción.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSaleRequest  true  "customer_id opcional e items"
// @Success      201   {object}  dto.SaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/sales [post]
func (h *SaleHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.create.CreateSale(c.UserContext(), in)
	if err != nil {
		return writeSaleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar ventas
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.SaleResponse
// @Router       /api/sales [get]
func (h *SaleHandler) List(c *fiber.Ctx) error {
	out, err := h.reader.List(c.UserContext())
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(out)
}

// MySales godoc
// @Summary      Ventas del usuario autenticado
// @Description  Ventas del cliente vinculado al usuario; lista vacía si no hay cliente vinculado.
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.SaleResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/sales/mis-ventas [get]
func (h *SaleHandler) MySales(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(GetUserID(c), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "user_id inválido en el token"})
	}
	out, err := h.reader.MySales(c.UserContext(), userID)
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(out)
}

// Stats godoc
// @Summary      Estadísticas de ventas
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        year  query  int  false  "Año (vacío = todos)"
// @Success      200   {object}  dto.SaleStatsResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/sales/estadisticas [get]
func (h *SaleHandler) Stats(c *fiber.Ctx) error {
	year := 0
	if q := c.Query("year"); q != "" {
		y, err := strconv.Atoi(q)
		if err != nil || y < 1 {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_YEAR", Message: "year debe ser un entero positivo"})
		}
		year = y
	}
	out, err := h.stats.Get(c.UserContext(), year)
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener venta por ID
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [get]
func (h *SaleHandler) GetByID(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return invalidID(c)
	}
	out, err := h.reader.Get(c.UserContext(), id)
	if err != nil {
		return internalError(c, err)
	}
	if out == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "SALE_NOT_FOUND", Message: "venta no encontrada"})
	}
	return c.JSON(out)
}

// Receipt godoc
// @Summary      Comprobante PDF de la venta
// @Tags         sales
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  int  true  "ID de la venta"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/receipt [get]
func (h *SaleHandler) Receipt(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return invalidID(c)
	}
	pdf, err := h.receipts.Render(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "SALE_NOT_FOUND", Message: "venta no encontrada"})
		}
		return internalError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, "inline; filename=venta-"+strconv.FormatInt(id, 10)+".pdf")
	return c.Send(pdf)
}
