package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/nova-salud-api/internal/application/dto"
	"github.com/jhoicas/nova-salud-api/internal/domain"
	apphttp "github.com/jhoicas/nova-salud-api/internal/interfaces/http"
)

type mockSaleCreator struct{ mock.Mock }

func (m *mockSaleCreator) CreateSale(ctx context.Context, in dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dto.SaleResponse)
	return out, args.Error(1)
}

type fakeSales struct {
	byID       map[int64]dto.SaleResponse
	mineUserID int64
	err        error
}

func (f *fakeSales) Get(_ context.Context, id int64) (*dto.SaleResponse, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (f *fakeSales) List(context.Context) ([]dto.SaleResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]dto.SaleResponse, 0, len(f.byID))
	for _, s := range f.byID {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeSales) MySales(_ context.Context, userID int64) ([]dto.SaleResponse, error) {
	f.mineUserID = userID
	return []dto.SaleResponse{}, nil
}

type fakeStats struct{ year int }

func (f *fakeStats) Get(_ context.Context, year int) (*dto.SaleStatsResponse, error) {
	f.year = year
	return &dto.SaleStatsResponse{Year: year, TotalSales: decimal.Zero, SalesByMonth: map[int]decimal.Decimal{}}, nil
}

type fakeReceipts struct{}

func (fakeReceipts) Render(_ context.Context, id int64) ([]byte, error) {
	if id != 1 {
		return nil, domain.ErrNotFound
	}
	return []byte("%PDF-1.3 fake"), nil
}

type fakeProducts struct{ created []dto.CreateProductRequest }

func (f *fakeProducts) Create(_ context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	f.created = append(f.created, in)
	return &dto.ProductResponse{ID: 10, Name: in.Name, Price: in.Price, Stock: in.Stock, Active: true}, nil
}
func (f *fakeProducts) GetByID(context.Context, int64) (*dto.ProductResponse, error) { return nil, nil }
func (f *fakeProducts) List(context.Context) ([]dto.ProductResponse, error) {
	return []dto.ProductResponse{}, nil
}
func (f *fakeProducts) Update(context.Context, int64, dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	return nil, domain.ErrInvalidInput
}
func (f *fakeProducts) Delete(context.Context, int64) error { return domain.ErrNotFound }

type fakeCustomers struct{}

func (fakeCustomers) Create(context.Context, dto.CreateCustomerRequest) (*dto.CustomerResponse, error) {
	return nil, domain.ErrDuplicate
}
func (fakeCustomers) GetByID(context.Context, int64) (*dto.CustomerResponse, error) { return nil, nil }
func (fakeCustomers) List(context.Context) ([]dto.CustomerResponse, error) {
	return []dto.CustomerResponse{}, nil
}
func (fakeCustomers) Update(context.Context, int64, dto.UpdateCustomerRequest) (*dto.CustomerResponse, error) {
	return nil, nil
}
func (fakeCustomers) Delete(context.Context, int64) error { return domain.ErrConflict }

type fakeAuth struct{}

func (fakeAuth) Register(_ context.Context, in dto.RegisterRequest) (*dto.UserResponse, error) {
	if in.Username == "taken" {
		return nil, domain.ErrUsernameTaken
	}
	return &dto.UserResponse{ID: 1, Username: in.Username, Role: "user"}, nil
}
func (fakeAuth) Login(context.Context, dto.LoginRequest) (*dto.LoginResponse, error) {
	return nil, domain.ErrUnauthorized
}

type testAPI struct {
	app      *fiber.App
	creator  *mockSaleCreator
	sales    *fakeSales
	stats    *fakeStats
	products *fakeProducts
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	return newTestAPIWithLogger(t, zerolog.Nop())
}

func newTestAPIWithLogger(t *testing.T, log zerolog.Logger) *testAPI {
	t.Helper()
	api := &testAPI{
		creator:  &mockSaleCreator{},
		sales:    &fakeSales{byID: map[int64]dto.SaleResponse{1: {ID: 1, Items: []dto.SaleItemResponse{}}}},
		stats:    &fakeStats{},
		products: &fakeProducts{},
	}
	api.app = fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler})
	api.app.Use(apphttp.RequestLogger(log))
	apphttp.Router(api.app, apphttp.RouterDeps{
		CreateSale: api.creator,
		Sales:      api.sales,
		Stats:      api.stats,
		Receipts:   fakeReceipts{},
		Products:   api.products,
		Customers:  fakeCustomers{},
		Auth:       fakeAuth{},
		JWTSecret:  testJWTSecret,
	})
	return api
}

func (a *testAPI) do(t *testing.T, method, path, body, auth string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) dto.ErrorResponse {
	t.Helper()
	var out dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestCreateSale_Created(t *testing.T) {
	api := newTestAPI(t)
	api.creator.On("CreateSale", mock.Anything, mock.MatchedBy(func(in dto.CreateSaleRequest) bool {
		return in.CustomerID == nil && string(in.Items) == `[{"product_id":1,"quantity":3}]`
	})).Return(&dto.SaleResponse{ID: 5, TotalAmount: decimal.RequireFromString("15.00"), Items: []dto.SaleItemResponse{}}, nil)

	resp := api.do(t, http.MethodPost, "/api/sales", `{"items":[{"product_id":1,"quantity":3}]}`, tokenForRole(t, "user"))

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var out dto.SaleResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, int64(5), out.ID)
	assert.True(t, out.TotalAmount.Equal(decimal.NewFromInt(15)))
	api.creator.AssertExpectations(t)
}

func TestCreateSale_MapeoDeErrores(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		status     int
		code       string
		message    string
		retryAfter string
	}{
		{"pedido vacío", domain.EmptyOrderError(), http.StatusBadRequest, "EMPTY_ORDER", "Sale must include at least one item.", ""},
		{"producto inexistente", domain.ProductNotFoundError(9999), http.StatusBadRequest, "PRODUCT_NOT_FOUND", "Product with ID 9999 not found.", ""},
		{"cliente inexistente", domain.CustomerNotFoundError(42), http.StatusBadRequest, "CUSTOMER_NOT_FOUND", "Customer with ID 42 not found.", ""},
		{"stock insuficiente", domain.InsufficientStockError(2, "B", 4, 2), http.StatusBadRequest, "INSUFFICIENT_STOCK", "Insufficient stock for product B (ID 2). Requested: 4, available: 2.", ""},
		{"bloqueo agotado", domain.LockTimeoutError(2, context.DeadlineExceeded), http.StatusConflict, "LOCK_TIMEOUT", "Product with ID 2 is busy, please retry the sale.", "1"},
		{"persistencia", domain.PersistenceError("insert sale", errors.New("pq: secreto interno")), http.StatusInternalServerError, "INTERNAL", "Error creating sale", ""},
		{"error no tipado", errors.New("boom"), http.StatusInternalServerError, "INTERNAL", "Error creating sale", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := newTestAPI(t)
			api.creator.On("CreateSale", mock.Anything, mock.Anything).Return(nil, tc.err)

			resp := api.do(t, http.MethodPost, "/api/sales", `{"items":[]}`, tokenForRole(t, "user"))

			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.retryAfter, resp.Header.Get("Retry-After"))
			body := decodeError(t, resp)
			assert.Equal(t, tc.code, body.Code)
			assert.Equal(t, tc.message, body.Message)
			assert.NotContains(t, body.Message, "secreto")
		})
	}
}

func TestCreateSale_CuerpoInvalido(t *testing.T) {
	api := newTestAPI(t)
	resp := api.do(t, http.MethodPost, "/api/sales", `{"items":`, tokenForRole(t, "user"))

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_BODY", decodeError(t, resp).Code)
	api.creator.AssertNotCalled(t, "CreateSale", mock.Anything, mock.Anything)
}

func TestCreateSale_SinToken(t *testing.T) {
	api := newTestAPI(t)
	resp := api.do(t, http.MethodPost, "/api/sales", `{"items":[]}`, "")

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	api.creator.AssertNotCalled(t, "CreateSale", mock.Anything, mock.Anything)
}

func TestSales_RutasFijasAntesDeID(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodGet, "/api/sales/mis-ventas", "", tokenFor(t, "7", "user"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(7), api.sales.mineUserID)

	resp = api.do(t, http.MethodGet, "/api/sales/estadisticas?year=2025", "", tokenForRole(t, "user"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2025, api.stats.year)
}

func TestSales_MisVentasConUserIDNoNumerico(t *testing.T) {
	api := newTestAPI(t)
	resp := api.do(t, http.MethodGet, "/api/sales/mis-ventas", "", tokenFor(t, "abc", "user"))

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSales_EstadisticasYearInvalido(t *testing.T) {
	api := newTestAPI(t)
	resp := api.do(t, http.MethodGet, "/api/sales/estadisticas?year=abc", "", tokenForRole(t, "user"))

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_YEAR", decodeError(t, resp).Code)
}

func TestSales_GetByID(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodGet, "/api/sales/1", "", tokenForRole(t, "user"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = api.do(t, http.MethodGet, "/api/sales/99", "", tokenForRole(t, "user"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = api.do(t, http.MethodGet, "/api/sales/abc", "", tokenForRole(t, "user"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSales_Receipt(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodGet, "/api/sales/1/receipt", "", tokenForRole(t, "user"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.HasPrefix(string(body), "%PDF"))

	resp = api.do(t, http.MethodGet, "/api/sales/2/receipt", "", tokenForRole(t, "user"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProducts_EscrituraSoloAdmin(t *testing.T) {
	api := newTestAPI(t)
	body := `{"name":"Paracetamol","price":"5.00","stock":10}`

	resp := api.do(t, http.MethodPost, "/api/products", body, tokenForRole(t, "user"))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, api.products.created)

	resp = api.do(t, http.MethodPost, "/api/products", body, tokenForRole(t, "admin"))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, api.products.created, 1)
	assert.True(t, api.products.created[0].Price.Equal(decimal.RequireFromString("5.00")))
}

func TestProducts_ValidacionDeCampos(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodPost, "/api/products", `{"name":"X","price":-1,"stock":1}`, tokenForRole(t, "admin"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeError(t, resp)
	assert.Equal(t, "VALIDATION", body.Code)
	assert.Contains(t, body.Message, "Price")

	resp = api.do(t, http.MethodPost, "/api/products", `{"price":1,"stock":1}`, tokenForRole(t, "admin"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, api.products.created)
}

func TestProducts_ErroresDeDominio(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodPut, "/api/products/1", `{}`, tokenForRole(t, "admin"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = api.do(t, http.MethodDelete, "/api/products/1", "", tokenForRole(t, "admin"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = api.do(t, http.MethodGet, "/api/products/1", "", tokenForRole(t, "user"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCustomers_Conflictos(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodPost, "/api/customers", `{"name":"Ana","email":"ana@example.com"}`, tokenForRole(t, "user"))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "DUPLICATE", decodeError(t, resp).Code)

	resp = api.do(t, http.MethodPost, "/api/customers", `{"name":"Ana","email":"no-es-email"}`, tokenForRole(t, "user"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = api.do(t, http.MethodDelete, "/api/customers/3", "", tokenForRole(t, "admin"))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", decodeError(t, resp).Code)

	resp = api.do(t, http.MethodDelete, "/api/customers/3", "", tokenForRole(t, "user"))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAuth_RutasPublicas(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodPost, "/api/auth/register", `{"username":"ana","password":"secreta"}`, "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = api.do(t, http.MethodPost, "/api/auth/register", `{"username":"taken","password":"secreta"}`, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = api.do(t, http.MethodPost, "/api/auth/register", `{"username":"ana","password":"123"}`, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = api.do(t, http.MethodPost, "/api/auth/login", `{"username":"ana","password":"mala"}`, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequestLogger_PropagaRequestID(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodPost, "/api/auth/login", `{"username":"ana","password":"x"}`, "")
	assert.NotEmpty(t, resp.Header.Get(apphttp.HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set(apphttp.HeaderRequestID, "req-123")
	req.Header.Set("Authorization", tokenForRole(t, "user"))
	r, err := api.app.Test(req, -1)
	require.NoError(t, err)
	defer r.Body.Close()
	assert.Equal(t, "req-123", r.Header.Get(apphttp.HeaderRequestID))
}

func TestInternalError_RegistraCausaConRequestID(t *testing.T) {
	var buf bytes.Buffer
	api := newTestAPIWithLogger(t, zerolog.New(&buf))
	api.sales.err = errors.New("scan sales: conexión cerrada")

	req := httptest.NewRequest(http.MethodGet, "/api/sales", nil)
	req.Header.Set(apphttp.HeaderRequestID, "req-500")
	req.Header.Set("Authorization", tokenForRole(t, "user"))
	resp, err := api.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decodeError(t, resp)
	assert.Equal(t, "INTERNAL", body.Code)
	assert.NotContains(t, body.Message, "conexión cerrada")

	out := buf.String()
	assert.Contains(t, out, "scan sales: conexión cerrada")
	assert.Contains(t, out, `"request_id":"req-500"`)
	assert.Contains(t, out, `"message":"error interno"`)
}
