package sales

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jhoicas/nova-salud-api/internal/domain"
	domainsales "github.com/jhoicas/nova-salud-api/internal/domain/sales"
)

const tracerName = "nova-salud/sales"

// observeStage envuelve una etapa con un span y un evento de log (duración y resultado).
// La lógica de la etapa no registra nada por su cuenta.
func observeStage(ctx context.Context, log zerolog.Logger, stage domainsales.Stage, fn func(ctx context.Context) error) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "sale."+string(stage))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	if err == nil {
		log.Debug().Str("stage", string(stage)).Dur("elapsed", elapsed).Msg("etapa completada")
		return nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, string(stage))
	ev := log.Warn()
	var se *domain.SaleError
	if errors.As(err, &se) {
		span.SetAttributes(attribute.String("sale.error_kind", se.Kind.String()))
		if se.Kind == domain.KindPersistence {
			ev = log.Error()
		}
		ev = ev.Str("kind", se.Kind.String()).Str("code", se.Code)
		if se.ProductID != 0 {
			ev = ev.Int64("product_id", se.ProductID)
		}
	}
	ev.Str("stage", string(stage)).Dur("elapsed", elapsed).Err(err).Msg("etapa fallida")
	return err
}
