package sales

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/nova-salud-api/internal/application/dto"
	"github.com/jhoicas/nova-salud-api/internal/domain/repository"
	"github.com/jhoicas/nova-salud-api/pkg/logger"
)

// StatsUseCase estadísticas de ventas confirmadas. Lectura pura, sin bloqueos.
// Con caché configurada guarda el resultado por año y lo invalida tras cada venta.
type StatsUseCase struct {
	repo  repository.AnalyticsRepository
	cache StatsCache // opcional
	log   zerolog.Logger

	// gen cambia con cada venta confirmada; un cálculo que la vio cambiar no se cachea.
	gen atomic.Uint64
}

// NewStatsUseCase construye el caso de uso. cache puede ser nil.
func NewStatsUseCase(repo repository.AnalyticsRepository, cache StatsCache, log *logger.Logger) *StatsUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &StatsUseCase{repo: repo, cache: cache, log: log.Component("sales-stats")}
}

// Get totales, ventas por mes (1..12) y por categoría. year = 0 agrega todos los años.
func (uc *StatsUseCase) Get(ctx context.Context, year int) (*dto.SaleStatsResponse, error) {
	if uc.cache != nil {
		cached, ok, err := uc.cache.Get(ctx, year)
		if err != nil {
			uc.log.Warn().Err(err).Int("year", year).Msg("lectura de caché de estadísticas fallida")
		} else if ok {
			return cached, nil
		}
	}

	gen := uc.gen.Load()
	summary, err := uc.repo.Summary(ctx, year)
	if err != nil {
		return nil, err
	}
	byMonth, err := uc.repo.ByMonth(ctx, year)
	if err != nil {
		return nil, err
	}
	byCategory, err := uc.repo.ByCategory(ctx, year)
	if err != nil {
		return nil, err
	}

	out := &dto.SaleStatsResponse{
		Year:            year,
		TotalSales:      summary.TotalAmount,
		SaleCount:       summary.SaleCount,
		SalesByMonth:    make(map[int]decimal.Decimal, 12),
		SalesByCategory: make(map[string]decimal.Decimal, len(byCategory)),
	}
	for m := 1; m <= 12; m++ {
		out.SalesByMonth[m] = decimal.Zero
	}
	for _, m := range byMonth {
		if m.Month >= 1 && m.Month <= 12 {
			out.SalesByMonth[m.Month] = out.SalesByMonth[m.Month].Add(m.Amount)
		}
	}
	for _, c := range byCategory {
		out.SalesByCategory[c.Category] = out.SalesByCategory[c.Category].Add(c.Amount)
	}

	if uc.cache != nil && uc.gen.Load() == gen {
		if err := uc.cache.Set(ctx, year, out); err != nil {
			uc.log.Warn().Err(err).Int("year", year).Msg("escritura de caché de estadísticas fallida")
		}
	}
	return out, nil
}

// OnSaleCommitted invalida la caché: una venta nueva cambia todos los agregados.
func (uc *StatsUseCase) OnSaleCommitted(ctx context.Context, _ dto.SaleResponse) error {
	uc.gen.Add(1)
	if uc.cache == nil {
		return nil
	}
	return uc.cache.Invalidate(ctx)
}
