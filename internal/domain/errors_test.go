package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/nova-salud-api/internal/domain"
)

func TestSaleError_MensajesVisibles(t *testing.T) {
	assert.Equal(t, "Sale must include at least one item.", domain.EmptyOrderError().Message)
	assert.Equal(t, "Product with ID 9999 not found.", domain.ProductNotFoundError(9999).Message)
	assert.Equal(t, "Customer with ID 42 not found.", domain.CustomerNotFoundError(42).Message)
	assert.Equal(t, "Error creating sale", domain.PersistenceError("commit", errors.New("boom")).Message)
}

func TestSaleError_IsMapeaSentinels(t *testing.T) {
	cases := []struct {
		err      error
		sentinel error
	}{
		{domain.EmptyOrderError(), domain.ErrInvalidInput},
		{domain.InvalidItemError(0), domain.ErrInvalidInput},
		{domain.CustomerNotFoundError(1), domain.ErrNotFound},
		{domain.ProductNotFoundError(1), domain.ErrNotFound},
		{domain.InsufficientStockError(1, "A", 5, 2), domain.ErrInsufficientStock},
		{domain.LockTimeoutError(1, nil), domain.ErrLockTimeout},
		{domain.PersistenceError("x", nil), domain.ErrPersistence},
		{domain.AmountTooLargeError("1"), domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		wrapped := fmt.Errorf("capa: %w", tc.err)
		assert.ErrorIs(t, wrapped, tc.sentinel, tc.err.Error())
	}
	assert.NotErrorIs(t, domain.ProductNotFoundError(1), domain.ErrInsufficientStock)
}

func TestSaleError_AsExponeDetalle(t *testing.T) {
	err := fmt.Errorf("lock: %w", domain.InsufficientStockError(7, "Paracetamol", 4, 2))

	var se *domain.SaleError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, domain.KindInsufficientStock, se.Kind)
	assert.Equal(t, int64(7), se.ProductID)
	assert.Equal(t, 4, se.Requested)
	assert.Equal(t, 2, se.Available)
	assert.Contains(t, se.Message, "Paracetamol")
}

func TestSaleError_UnwrapConservaCausa(t *testing.T) {
	cause := errors.New("conexión perdida")
	err := domain.PersistenceError("insert sale", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "insert sale", err.Stage)
	assert.Equal(t, "persistence", err.Kind.String())
}

func TestLockTimeoutError_SinProductoNoNombraID(t *testing.T) {
	err := domain.LockTimeoutError(0, errors.New("lock_timeout"))
	assert.NotContains(t, err.Message, "ID 0")
	assert.Contains(t, err.Message, "please retry")
	assert.Equal(t, "LOCK_TIMEOUT", err.Code)

	assert.Equal(t, "Product with ID 3 is busy, please retry the sale.", domain.LockTimeoutError(3, nil).Message)
}

func TestAmountTooLargeError_EsValidacion(t *testing.T) {
	err := domain.AmountTooLargeError("2000000000000.00")
	assert.Equal(t, domain.KindValidation, err.Kind)
	assert.Equal(t, "AMOUNT_TOO_LARGE", err.Code)
}
