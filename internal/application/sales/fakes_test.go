package sales_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/jhoicas/nova-salud-api/internal/domain"
	"github.com/jhoicas/nova-salud-api/internal/domain/entity"
	"github.com/jhoicas/nova-salud-api/internal/domain/repository"
)

var errNotInTx = errors.New("operación no soportada dentro de la transacción de venta")

// memStore almacén en memoria con bloqueos por producto. Las escrituras de una transacción
// se aplican al hacer commit, antes de liberar los bloqueos.
type memStore struct {
	mu         sync.Mutex
	products   map[int64]*entity.Product
	customers  map[int64]*entity.Customer
	sales      []*entity.Sale
	items      []*entity.SaleItem
	nextSaleID int64
	nextItemID int64

	locksMu sync.Mutex
	locks   map[int64]chan struct{}
	lockLog []int64

	txCount   int
	failStage string // "sale" | "item" | "stock"
}

func newMemStore() *memStore {
	return &memStore{
		products:  map[int64]*entity.Product{},
		customers: map[int64]*entity.Customer{},
		locks:     map[int64]chan struct{}{},
	}
}

func (s *memStore) addProduct(id int64, name, price string, stock int) {
	s.products[id] = &entity.Product{
		ID: id, Name: name, Category: entity.DefaultCategory,
		Price: decimal.RequireFromString(price), Stock: stock, Active: true,
	}
}

func (s *memStore) addCustomer(id int64, name string, userID *int64) {
	s.customers[id] = &entity.Customer{ID: id, Name: name, UserID: userID}
}

func (s *memStore) stock(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].Stock
}

func (s *memStore) saleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sales)
}

func (s *memStore) itemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *memStore) transactions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txCount
}

func (s *memStore) lockFor(id int64) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	ch, ok := s.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[id] = ch
	}
	return ch
}

// holdLock toma el bloqueo de un producto desde fuera (otra transacción) y devuelve la liberación.
func (s *memStore) holdLock(id int64) func() {
	ch := s.lockFor(id)
	ch <- struct{}{}
	return func() { <-ch }
}

// RunSale implementa SaleTxRunner.
func (s *memStore) RunSale(ctx context.Context, fn func(repository.ProductRepository, repository.SaleRepository) error) error {
	s.mu.Lock()
	s.txCount++
	s.mu.Unlock()

	tx := &memTx{store: s, stock: map[int64]int{}}
	defer tx.release()

	if err := fn(&txProducts{tx: tx}, &txSales{tx: tx}); err != nil {
		return err
	}
	tx.commit()
	return nil
}

type memTx struct {
	store *memStore
	held  []int64
	sales []*entity.Sale
	items []*entity.SaleItem
	stock map[int64]int
}

func (tx *memTx) release() {
	for _, id := range tx.held {
		<-tx.store.lockFor(id)
	}
	tx.held = nil
}

func (tx *memTx) commit() {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sales = append(s.sales, tx.sales...)
	s.items = append(s.items, tx.items...)
	for id, st := range tx.stock {
		s.products[id].Stock = st
	}
}

type txProducts struct{ tx *memTx }

func (p *txProducts) LockForSale(ctx context.Context, id int64) (*repository.LockedProduct, error) {
	ch := p.tx.store.lockFor(id)
	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("lock product %d: %w", id, domain.ErrLockTimeout)
	}
	p.tx.held = append(p.tx.held, id)

	s := p.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lockLog = append(s.lockLog, id)
	prod, ok := s.products[id]
	if !ok || !prod.Active {
		return nil, nil
	}
	return &repository.LockedProduct{ID: prod.ID, Name: prod.Name, Price: prod.Price, Stock: prod.Stock}, nil
}

func (p *txProducts) UpdateStock(_ context.Context, id int64, stock int) error {
	if p.tx.store.failStage == "stock" {
		return errors.New("disk full")
	}
	p.tx.stock[id] = stock
	return nil
}

func (p *txProducts) Create(context.Context, *entity.Product) error { return errNotInTx }
func (p *txProducts) GetByID(context.Context, int64) (*entity.Product, error) {
	return nil, errNotInTx
}
func (p *txProducts) ListActive(context.Context) ([]*entity.Product, error) { return nil, errNotInTx }
func (p *txProducts) Update(context.Context, int64, repository.ProductUpdate) (*entity.Product, error) {
	return nil, errNotInTx
}
func (p *txProducts) Deactivate(context.Context, int64) error { return errNotInTx }

type txSales struct{ tx *memTx }

func (r *txSales) Create(_ context.Context, sale *entity.Sale) error {
	s := r.tx.store
	if s.failStage == "sale" {
		return errors.New("connection reset")
	}
	if sale.CustomerID != nil {
		s.mu.Lock()
		_, ok := s.customers[*sale.CustomerID]
		s.mu.Unlock()
		if !ok {
			return fmt.Errorf("insert sale: %w", domain.ErrNotFound)
		}
	}
	s.mu.Lock()
	s.nextSaleID++
	sale.ID = s.nextSaleID
	s.mu.Unlock()
	sale.SaleDate = time.Now()
	cp := *sale
	r.tx.sales = append(r.tx.sales, &cp)
	return nil
}

func (r *txSales) CreateItem(_ context.Context, item *entity.SaleItem) error {
	s := r.tx.store
	if s.failStage == "item" {
		return errors.New("connection reset")
	}
	s.mu.Lock()
	s.nextItemID++
	item.ID = s.nextItemID
	s.mu.Unlock()
	cp := *item
	r.tx.items = append(r.tx.items, &cp)
	return nil
}

func (r *txSales) ListRows(context.Context, repository.SaleFilter) ([]repository.SaleRow, error) {
	return nil, errNotInTx
}

// readSales lado de lectura sobre lo confirmado (equivale al repo sobre el pool).
type readSales struct {
	store *memStore
	err   error
}

func (r *readSales) Create(context.Context, *entity.Sale) error         { return errNotInTx }
func (r *readSales) CreateItem(context.Context, *entity.SaleItem) error { return errNotInTx }

func (r *readSales) ListRows(_ context.Context, f repository.SaleFilter) ([]repository.SaleRow, error) {
	if r.err != nil {
		return nil, r.err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	sales := make([]*entity.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		if f.SaleID != nil && sale.ID != *f.SaleID {
			continue
		}
		if f.CustomerID != nil && (sale.CustomerID == nil || *sale.CustomerID != *f.CustomerID) {
			continue
		}
		sales = append(sales, sale)
	}
	sort.Slice(sales, func(i, j int) bool { return sales[i].ID > sales[j].ID })

	var rows []repository.SaleRow
	for _, sale := range sales {
		base := repository.SaleRow{
			SaleID: sale.ID, SaleDate: sale.SaleDate, TotalAmount: sale.TotalAmount, CustomerID: sale.CustomerID,
		}
		if sale.CustomerID != nil {
			if c, ok := s.customers[*sale.CustomerID]; ok {
				name := c.Name
				base.CustomerName = &name
			}
		}
		found := false
		for _, it := range s.items {
			if it.SaleID != sale.ID {
				continue
			}
			found = true
			row := base
			id, pid, qty := it.ID, it.ProductID, it.Quantity
			name := s.products[pid].Name
			row.ItemID, row.ProductID, row.Quantity, row.ProductName = &id, &pid, &qty, &name
			row.UnitPrice = decimal.NewNullDecimal(it.UnitPrice)
			row.Subtotal = decimal.NewNullDecimal(it.Subtotal)
			rows = append(rows, row)
		}
		if !found {
			rows = append(rows, base)
		}
	}
	return rows, nil
}

// Exists y GetByUserID: el almacén hace de repo de clientes.
func (s *memStore) Exists(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.customers[id]
	return ok, nil
}

func (s *memStore) GetByUserID(_ context.Context, userID int64) (*entity.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *entity.Customer
	for _, c := range s.customers {
		if c.UserID != nil && *c.UserID == userID && (best == nil || c.ID < best.ID) {
			best = c
		}
	}
	return best, nil
}

// mockCustomerChecker mock de CustomerChecker con testify/mock.
type mockCustomerChecker struct {
	mock.Mock
}

func (m *mockCustomerChecker) Exists(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}
