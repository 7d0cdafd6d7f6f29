package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrUserNotFound      = errors.New("usuario no encontrado")
	ErrUsernameTaken     = errors.New("el usuario ya existe")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrLockTimeout       = errors.New("tiempo de espera de bloqueo agotado")
	ErrPersistence       = errors.New("fallo de persistencia")
)

// SaleErrorKind clasifica los fallos del procesamiento de una venta.
type SaleErrorKind int

const (
	KindValidation SaleErrorKind = iota + 1
	KindNotFound
	KindInsufficientStock
	KindLockTimeout
	KindPersistence
)

func (k SaleErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindInsufficientStock:
		return "insufficient_stock"
	case KindLockTimeout:
		return "lock_timeout"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// SaleError es la variante etiquetada que recorre las etapas de una venta.
// El coordinador decide rollback vs. respuesta mirando Kind, nunca el texto.
type SaleError struct {
	Kind       SaleErrorKind
	Code       string // código estable para la respuesta HTTP
	Message    string // mensaje apto para el cliente
	ProductID  int64
	CustomerID int64
	Requested  int
	Available  int
	Stage      string
	Err        error // causa interna; nunca se expone al cliente
}

func (e *SaleError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *SaleError) Unwrap() error { return e.Err }

// Is permite errors.Is(err, domain.ErrNotFound) etc. sobre la variante.
func (e *SaleError) Is(target error) bool {
	switch target {
	case ErrInvalidInput:
		return e.Kind == KindValidation
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrInsufficientStock:
		return e.Kind == KindInsufficientStock
	case ErrLockTimeout:
		return e.Kind == KindLockTimeout
	case ErrPersistence:
		return e.Kind == KindPersistence
	}
	return false
}

// EmptyOrderError: la venta no trae ítems o items no es una lista.
func EmptyOrderError() *SaleError {
	return &SaleError{
		Kind:    KindValidation,
		Code:    "EMPTY_ORDER",
		Message: "Sale must include at least one item.",
	}
}

// InvalidItemError: ítem sin product_id o con cantidad no entera / no positiva.
func InvalidItemError(index int) *SaleError {
	return &SaleError{
		Kind:    KindValidation,
		Code:    "INVALID_ITEM",
		Message: "Invalid item data. Each item requires product_id and positive quantity.",
		Err:     fmt.Errorf("item %d", index),
	}
}

// CustomerNotFoundError: el cliente referenciado no existe. Se detecta antes de abrir la transacción.
func CustomerNotFoundError(customerID int64) *SaleError {
	return &SaleError{
		Kind:       KindNotFound,
		Code:       "CUSTOMER_NOT_FOUND",
		Message:    fmt.Sprintf("Customer with ID %d not found.", customerID),
		CustomerID: customerID,
	}
}

// ProductNotFoundError: el producto no existe o está inactivo.
func ProductNotFoundError(productID int64) *SaleError {
	return &SaleError{
		Kind:      KindNotFound,
		Code:      "PRODUCT_NOT_FOUND",
		Message:   fmt.Sprintf("Product with ID %d not found.", productID),
		ProductID: productID,
	}
}

// InsufficientStockError: el stock leído bajo bloqueo no cubre la cantidad pedida.
func InsufficientStockError(productID int64, name string, requested, available int) *SaleError {
	return &SaleError{
		Kind:      KindInsufficientStock,
		Code:      "INSUFFICIENT_STOCK",
		Message:   fmt.Sprintf("Insufficient stock for product %s (ID %d). Requested: %d, available: %d.", name, productID, requested, available),
		ProductID: productID,
		Requested: requested,
		Available: available,
	}
}

// LockTimeoutError: el bloqueo de fila no se concedió a tiempo; el cliente debe reintentar.
// productID 0 indica que no se sabe qué fila estaba ocupada.
func LockTimeoutError(productID int64, cause error) *SaleError {
	msg := "The sale could not lock its products in time, please retry the sale."
	if productID != 0 {
		msg = fmt.Sprintf("Product with ID %d is busy, please retry the sale.", productID)
	}
	return &SaleError{
		Kind:      KindLockTimeout,
		Code:      "LOCK_TIMEOUT",
		Message:   msg,
		ProductID: productID,
		Err:       cause,
	}
}

// AmountTooLargeError: el total o un subtotal no cabe en la columna monetaria.
func AmountTooLargeError(total string) *SaleError {
	return &SaleError{
		Kind:    KindValidation,
		Code:    "AMOUNT_TOO_LARGE",
		Message: "Sale total exceeds the maximum allowed amount.",
		Err:     fmt.Errorf("total %s", total),
	}
}

// PersistenceError: fallo inesperado de almacenamiento. El mensaje es genérico.
func PersistenceError(stage string, cause error) *SaleError {
	return &SaleError{
		Kind:    KindPersistence,
		Code:    "INTERNAL",
		Message: "Error creating sale",
		Stage:   stage,
		Err:     cause,
	}
}
