package sales

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/nova-salud-api/internal/application/dto"
	"github.com/jhoicas/nova-salud-api/internal/domain"
	"github.com/jhoicas/nova-salud-api/internal/domain/entity"
	"github.com/jhoicas/nova-salud-api/internal/domain/repository"
	domainsales "github.com/jhoicas/nova-salud-api/internal/domain/sales"
	"github.com/jhoicas/nova-salud-api/pkg/logger"
)

// postCommitTimeout límite para la relectura y los listeners tras el commit.
const postCommitTimeout = 5 * time.Second

// CreateSaleUseCase coordina una venta: valida fuera de la transacción, luego bloquea,
// calcula y persiste dentro de una sola transacción, y tras el commit arma la respuesta.
type CreateSaleUseCase struct {
	txRunner  SaleTxRunner
	validator *Validator
	locks     *LockManager
	persister *Persister
	assembler *Assembler
	listeners []CommitListener
	log       zerolog.Logger
}

// NewCreateSaleUseCase construye el coordinador.
func NewCreateSaleUseCase(
	txRunner SaleTxRunner,
	validator *Validator,
	assembler *Assembler,
	log *logger.Logger,
	listeners ...CommitListener,
) *CreateSaleUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &CreateSaleUseCase{
		txRunner:  txRunner,
		validator: validator,
		locks:     NewLockManager(),
		persister: NewPersister(),
		assembler: assembler,
		listeners: listeners,
		log:       log.Component("sales"),
	}
}

// CreateSale procesa la venta. Los errores devueltos son siempre *domain.SaleError.
// Ante cualquier fallo no queda venta, ítem ni cambio de stock.
func (uc *CreateSaleUseCase) CreateSale(ctx context.Context, in dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "sale.create")
	defer span.End()

	lc := domainsales.NewLifecycle()
	_ = lc.Advance(domainsales.StageValidating)

	var validated *ValidatedSale
	err := observeStage(ctx, uc.log, domainsales.StageValidating, func(ctx context.Context) error {
		var verr error
		validated, verr = uc.validator.Validate(ctx, in)
		return verr
	})
	if err != nil {
		_ = lc.Fail()
		return nil, err
	}

	var (
		sale   *entity.Sale
		items  []*entity.SaleItem
		locked map[int64]repository.LockedProduct
	)
	err = uc.txRunner.RunSale(ctx, func(productRepo repository.ProductRepository, saleRepo repository.SaleRepository) error {
		if err := lc.Advance(domainsales.StageLocking); err != nil {
			return domain.PersistenceError("lifecycle", err)
		}
		if err := observeStage(ctx, uc.log, domainsales.StageLocking, func(ctx context.Context) error {
			var lerr error
			locked, lerr = uc.locks.Acquire(ctx, productRepo, validated.Lines)
			return lerr
		}); err != nil {
			return err
		}

		if err := lc.Advance(domainsales.StageCalculating); err != nil {
			return domain.PersistenceError("lifecycle", err)
		}
		var totals domainsales.Totals
		if err := observeStage(ctx, uc.log, domainsales.StageCalculating, func(context.Context) error {
			totals = domainsales.CalculateTotals(priceLines(validated.Lines, locked))
			if totals.ExceedsMax() {
				return domain.AmountTooLargeError(totals.Total.String())
			}
			return nil
		}); err != nil {
			return err
		}

		if err := lc.Advance(domainsales.StagePersisting); err != nil {
			return domain.PersistenceError("lifecycle", err)
		}
		return observeStage(ctx, uc.log, domainsales.StagePersisting, func(ctx context.Context) error {
			var perr error
			sale, items, perr = uc.persister.Persist(ctx, productRepo, saleRepo, validated.CustomerID, totals, locked)
			return perr
		})
	})
	if err != nil {
		_ = lc.Fail()
		serr := classifyTxError(err)
		level := zerolog.WarnLevel
		if serr.Kind == domain.KindPersistence {
			level = zerolog.ErrorLevel
		}
		uc.log.WithLevel(level).Err(err).
			Str("state", string(lc.Current())).
			Str("kind", serr.Kind.String()).
			Str("code", serr.Code).
			Str("stage", serr.Stage).
			Msg("venta revertida")
		return nil, serr
	}
	_ = lc.Advance(domainsales.StageCommitted)
	span.SetAttributes(attribute.Int64("sale.id", sale.ID))
	uc.log.Info().Int64("sale_id", sale.ID).Str("total", sale.TotalAmount.String()).Int("items", len(items)).Msg("venta confirmada")

	// La venta ya es durable: la cancelación del cliente no debe cortar lo que sigue.
	postCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), postCommitTimeout)
	defer cancel()

	resp, aerr := uc.assembler.Get(postCtx, sale.ID)
	if aerr != nil || resp == nil {
		uc.log.Warn().Err(aerr).Int64("sale_id", sale.ID).Msg("relectura de venta fallida, se responde con los datos de la transacción")
		resp = fallbackResponse(sale, items, locked)
	}
	uc.notify(postCtx, *resp)
	return resp, nil
}

func (uc *CreateSaleUseCase) notify(ctx context.Context, sale dto.SaleResponse) {
	for _, l := range uc.listeners {
		if err := l.OnSaleCommitted(ctx, sale); err != nil {
			uc.log.Warn().Err(err).Int64("sale_id", sale.ID).Msg("listener post-commit falló")
		}
	}
}

func priceLines(lines []domainsales.Line, locked map[int64]repository.LockedProduct) []domainsales.PricedLine {
	out := make([]domainsales.PricedLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, domainsales.PricedLine{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: locked[l.ProductID].Price,
		})
	}
	return out
}

// classifyTxError lleva cualquier error de la transacción a la variante etiquetada.
func classifyTxError(err error) *domain.SaleError {
	var se *domain.SaleError
	if errors.As(err, &se) {
		return se
	}
	if errors.Is(err, domain.ErrLockTimeout) {
		return domain.LockTimeoutError(0, err)
	}
	return domain.PersistenceError("transaction", err)
}

func fallbackResponse(sale *entity.Sale, items []*entity.SaleItem, locked map[int64]repository.LockedProduct) *dto.SaleResponse {
	resp := &dto.SaleResponse{
		ID:          sale.ID,
		SaleDate:    sale.SaleDate,
		TotalAmount: sale.TotalAmount,
		CustomerID:  sale.CustomerID,
		Items:       make([]dto.SaleItemResponse, 0, len(items)),
	}
	for _, it := range items {
		resp.Items = append(resp.Items, dto.SaleItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: locked[it.ProductID].Name,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Subtotal:    it.Subtotal,
		})
	}
	return resp
}
