package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/nova-salud-api/internal/application/dto"
	"github.com/jhoicas/nova-salud-api/internal/domain"
	"github.com/jhoicas/nova-salud-api/internal/domain/entity"
	"github.com/jhoicas/nova-salud-api/internal/domain/repository"
)

// ProductUseCase casos de uso CRUD para productos. Borrado lógico (active = false).
type ProductUseCase struct {
	repo repository.ProductRepository
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository) *ProductUseCase {
	return &ProductUseCase{repo: repo}
}

// Create crea un producto activo.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.Price.IsNegative() || in.Stock < 0 {
		return nil, domain.ErrInvalidInput
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = entity.DefaultCategory
	}
	now := time.Now()
	product := &entity.Product{
		Name:        name,
		Description: in.Description,
		Category:    category,
		Price:       in.Price,
		Stock:       in.Stock,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByID obtiene un producto activo. nil si no existe.
func (uc *ProductUseCase) GetByID(ctx context.Context, id int64) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}
	return toProductResponse(product), nil
}

// List productos activos ordenados por nombre.
func (uc *ProductUseCase) List(ctx context.Context) ([]dto.ProductResponse, error) {
	list, err := uc.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		out = append(out, *toProductResponse(p))
	}
	return out, nil
}

// Update aplica el descriptor tipado. nil si el producto no existe o está inactivo.
func (uc *ProductUseCase) Update(ctx context.Context, id int64, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	upd, err := ProductUpdateFrom(in)
	if err != nil {
		return nil, err
	}
	product, err := uc.repo.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}
	return toProductResponse(product), nil
}

// Delete desactiva el producto. domain.ErrNotFound si no existe o ya estaba inactivo.
func (uc *ProductUseCase) Delete(ctx context.Context, id int64) error {
	return uc.repo.Deactivate(ctx, id)
}

// ProductUpdateFrom valida la petición y la traduce al descriptor de campos permitidos.
func ProductUpdateFrom(in dto.UpdateProductRequest) (repository.ProductUpdate, error) {
	upd := repository.ProductUpdate{Description: in.Description, Price: in.Price, Stock: in.Stock}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return upd, domain.ErrInvalidInput
		}
		upd.Name = &name
	}
	if in.Category != nil {
		category := strings.TrimSpace(*in.Category)
		if category == "" {
			return upd, domain.ErrInvalidInput
		}
		upd.Category = &category
	}
	if in.Price != nil && in.Price.IsNegative() {
		return upd, domain.ErrInvalidInput
	}
	if in.Stock != nil && *in.Stock < 0 {
		return upd, domain.ErrInvalidInput
	}
	if upd.IsEmpty() {
		return upd, domain.ErrInvalidInput
	}
	return upd, nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
		Stock:       p.Stock,
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
