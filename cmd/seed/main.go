// seed carga el catálogo inicial de productos desde un CSV y crea el usuario administrador.
//
// Uso: go run ./cmd/seed [ruta/catalogo.csv]
// Por defecto busca catalogo.csv en el directorio actual. Columnas:
// name,category,price,stock[,description]. Acepta UTF-8 o ISO-8859-1 (exportaciones de Excel).
// SEED_ADMIN_USERNAME y SEED_ADMIN_PASSWORD crean el admin si aún no existe.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jhoicas/nova-salud-api/internal/application/auth"
	"github.com/jhoicas/nova-salud-api/internal/application/catalog"
	"github.com/jhoicas/nova-salud-api/internal/application/dto"
	"github.com/jhoicas/nova-salud-api/internal/domain"
	"github.com/jhoicas/nova-salud-api/internal/domain/entity"
	"github.com/jhoicas/nova-salud-api/internal/infrastructure/postgres"
	"github.com/jhoicas/nova-salud-api/pkg/config"
	"github.com/jhoicas/nova-salud-api/pkg/logger"
)

func main() {
	csvPath := "catalogo.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "seed"})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("aplicar esquema")
	}

	if username := os.Getenv("SEED_ADMIN_USERNAME"); username != "" {
		authUC := auth.NewAuthUseCase(postgres.NewUserRepository(pool), auth.JWTConfig{
			Secret:     cfg.JWT.Secret,
			ExpMinutes: cfg.JWT.Expiration,
			Issuer:     cfg.JWT.Issuer,
		})
		_, err := authUC.Register(ctx, dto.RegisterRequest{
			Username: username,
			Password: os.Getenv("SEED_ADMIN_PASSWORD"),
			Role:     entity.RoleAdmin,
		})
		switch {
		case errors.Is(err, domain.ErrUsernameTaken):
			log.Info().Str("username", username).Msg("admin ya existe")
		case err != nil:
			log.Fatal().Err(err).Msg("crear admin")
		default:
			log.Info().Str("username", username).Msg("admin creado")
		}
	}

	f, err := os.Open(csvPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", csvPath).Msg("abrir catálogo")
	}
	defer f.Close()

	products, err := parseCatalog(f)
	if err != nil {
		log.Fatal().Err(err).Msg("leer catálogo")
	}

	productUC := catalog.NewProductUseCase(postgres.NewProductRepository(pool))
	created := 0
	for _, p := range products {
		if _, err := productUC.Create(ctx, p); err != nil {
			log.Error().Err(err).Str("product", p.Name).Msg("crear producto")
			continue
		}
		created++
	}
	log.Info().Int("leidos", len(products)).Int("creados", created).Msg("catálogo cargado")
}
