//go:build integration

package postgres_test

// Pruebas contra un PostgreSQL real (testcontainers).
// go test -tags integration ./internal/infrastructure/postgres/... -v

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/nova-salud-api/internal/application/dto"
	appsales "github.com/jhoicas/nova-salud-api/internal/application/sales"
	"github.com/jhoicas/nova-salud-api/internal/domain"
	"github.com/jhoicas/nova-salud-api/internal/domain/entity"
	"github.com/jhoicas/nova-salud-api/internal/domain/repository"
	"github.com/jhoicas/nova-salud-api/internal/infrastructure/postgres"
)

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.Run(ctx, "postgres:16-alpine",
		tcPostgres.WithDatabase("nova_salud_test"),
		tcPostgres.WithUsername("nova"),
		tcPostgres.WithPassword("nova"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	cfg, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err)
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.Migrate(ctx, pool))
	return pool
}

func newProduct(t *testing.T, pool *pgxpool.Pool, name, price string, stock int) int64 {
	t.Helper()
	p := &entity.Product{Name: name, Category: "Analgésicos", Price: decimal.RequireFromString(price), Stock: stock}
	require.NoError(t, postgres.NewProductRepository(pool).Create(context.Background(), p))
	return p.ID
}

func newSalesUseCase(pool *pgxpool.Pool, lockTimeout time.Duration) *appsales.CreateSaleUseCase {
	customers := postgres.NewCustomerRepository(pool)
	assembler := appsales.NewAssembler(postgres.NewSaleRepository(pool), customers)
	return appsales.NewCreateSaleUseCase(postgres.NewTxRunner(pool, lockTimeout), appsales.NewValidator(customers), assembler, nil)
}

func request(items string, customerID *int64) dto.CreateSaleRequest {
	return dto.CreateSaleRequest{CustomerID: customerID, Items: json.RawMessage(items)}
}

func countRows(t *testing.T, pool *pgxpool.Pool, table string) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func stockOf(t *testing.T, pool *pgxpool.Pool, id int64) int {
	t.Helper()
	p, err := postgres.NewProductRepository(pool).GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Stock
}

func TestIntegration_Venta(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	uc := newSalesUseCase(pool, 2*time.Second)

	a := newProduct(t, pool, "Paracetamol 500", "5.00", 10)

	sale, err := uc.CreateSale(ctx, request(fmt.Sprintf(`[{"product_id": %d, "quantity": 3}]`, a), nil))
	require.NoError(t, err)
	assert.Equal(t, "15.00", sale.TotalAmount.StringFixed(2))
	assert.Equal(t, 7, stockOf(t, pool, a))
	require.Len(t, sale.Items, 1)
	assert.Equal(t, "Paracetamol 500", sale.Items[0].ProductName)

	t.Run("producto inexistente no deja filas", func(t *testing.T) {
		before := countRows(t, pool, "sales")
		_, err := uc.CreateSale(ctx, request(fmt.Sprintf(`[{"product_id": %d, "quantity": 1}, {"product_id": 9999, "quantity": 1}]`, a), nil))
		var se *domain.SaleError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, "Product with ID 9999 not found.", se.Message)
		assert.Equal(t, before, countRows(t, pool, "sales"))
		assert.Equal(t, 7, stockOf(t, pool, a))
	})

	t.Run("cliente inexistente", func(t *testing.T) {
		missing := int64(42)
		_, err := uc.CreateSale(ctx, request(fmt.Sprintf(`[{"product_id": %d, "quantity": 1}]`, a), &missing))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("el precio unitario es una foto", func(t *testing.T) {
		price := decimal.RequireFromString("9.99")
		_, err := postgres.NewProductRepository(pool).Update(ctx, a, repository.ProductUpdate{Price: &price})
		require.NoError(t, err)

		got, err := appsales.NewAssembler(postgres.NewSaleRepository(pool), postgres.NewCustomerRepository(pool)).Get(ctx, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, "5.00", got.Items[0].UnitPrice.StringFixed(2))
	})
}

func TestIntegration_ConcurrenciaSobreMismoProducto(t *testing.T) {
	pool := setupPool(t)
	uc := newSalesUseCase(pool, 5*time.Second)
	b := newProduct(t, pool, "Ibuprofeno", "2.00", 5)

	quantities := []int{3, 4}
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, q := range quantities {
		wg.Add(1)
		go func(i, q int) {
			defer wg.Done()
			_, errs[i] = uc.CreateSale(context.Background(), request(fmt.Sprintf(`[{"product_id": %d, "quantity": %d}]`, b, q), nil))
		}(i, q)
	}
	wg.Wait()

	var succeeded int
	failures := 0
	for i, err := range errs {
		if err == nil {
			succeeded = quantities[i]
			continue
		}
		failures++
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	}
	assert.Equal(t, 1, failures)
	assert.Equal(t, 5-succeeded, stockOf(t, pool, b))
	assert.Equal(t, 1, countRows(t, pool, "sales"))
}

func TestIntegration_LockTimeout(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	uc := newSalesUseCase(pool, 200*time.Millisecond)
	a := newProduct(t, pool, "Amoxicilina", "12.00", 4)

	// Otra transacción retiene el bloqueo de la fila.
	holder, err := pool.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = holder.Rollback(ctx) }()
	_, err = holder.Exec(ctx, `SELECT id FROM products WHERE id = $1 FOR UPDATE`, a)
	require.NoError(t, err)

	_, err = uc.CreateSale(ctx, request(fmt.Sprintf(`[{"product_id": %d, "quantity": 1}]`, a), nil))
	assert.ErrorIs(t, err, domain.ErrLockTimeout)
	assert.Equal(t, 0, countRows(t, pool, "sales"))
}

func TestIntegration_EstadisticasYMisVentas(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	uc := newSalesUseCase(pool, time.Second)
	a := newProduct(t, pool, "Vitamina C", "3.50", 100)

	users := postgres.NewUserRepository(pool)
	u := &entity.User{Username: "cliente1", PasswordHash: "x", Role: entity.RoleUser}
	require.NoError(t, users.Create(ctx, u))
	customers := postgres.NewCustomerRepository(pool)
	c := &entity.Customer{Name: "Ana", UserID: &u.ID}
	require.NoError(t, customers.Create(ctx, c))

	_, err := uc.CreateSale(ctx, request(fmt.Sprintf(`[{"product_id": %d, "quantity": 2}]`, a), &c.ID))
	require.NoError(t, err)
	_, err = uc.CreateSale(ctx, request(fmt.Sprintf(`[{"product_id": %d, "quantity": 1}]`, a), nil))
	require.NoError(t, err)

	mine, err := appsales.NewAssembler(postgres.NewSaleRepository(pool), customers).MySales(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Ana", *mine[0].CustomerName)

	stats := appsales.NewStatsUseCase(postgres.NewAnalyticsRepository(pool), nil, nil)
	out, err := stats.Get(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.SaleCount)
	assert.Equal(t, "10.50", out.TotalSales.StringFixed(2))
	assert.Equal(t, "10.50", out.SalesByCategory["Analgésicos"].StringFixed(2))

	assert.ErrorIs(t, customers.Delete(ctx, c.ID), domain.ErrConflict)
}
