package sales

import (
	"context"
	"errors"

	"github.com/jhoicas/nova-salud-api/internal/domain"
	"github.com/jhoicas/nova-salud-api/internal/domain/repository"
	domainsales "github.com/jhoicas/nova-salud-api/internal/domain/sales"
)

// LockManager bloquea las filas de producto de una venta en orden ascendente de id
// y verifica el stock leído bajo bloqueo. Los bloqueos duran hasta que termina la transacción.
type LockManager struct{}

// NewLockManager construye el gestor de bloqueos.
func NewLockManager() *LockManager { return &LockManager{} }

// Acquire devuelve la foto bloqueada de cada producto distinto de la venta.
func (m *LockManager) Acquire(ctx context.Context, productRepo repository.ProductRepository, lines []domainsales.Line) (map[int64]repository.LockedProduct, error) {
	ids, requested := domainsales.LockOrder(lines)
	locked := make(map[int64]repository.LockedProduct, len(ids))
	for _, id := range ids {
		p, err := productRepo.LockForSale(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrLockTimeout) || errors.Is(err, context.DeadlineExceeded) {
				return nil, domain.LockTimeoutError(id, err)
			}
			return nil, domain.PersistenceError("lock product", err)
		}
		if p == nil {
			return nil, domain.ProductNotFoundError(id)
		}
		if p.Stock < requested[id] {
			return nil, domain.InsufficientStockError(id, p.Name, requested[id], p.Stock)
		}
		locked[id] = *p
	}
	return locked, nil
}
