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

// CustomerUseCase casos de uso para clientes. El borrado es físico; un cliente con ventas no se borra.
type CustomerUseCase struct {
	repo repository.CustomerRepository
}

// NewCustomerUseCase construye el caso de uso.
func NewCustomerUseCase(repo repository.CustomerRepository) *CustomerUseCase {
	return &CustomerUseCase{repo: repo}
}

// Create crea un cliente. Email duplicado -> domain.ErrDuplicate (lo decide la restricción única).
func (uc *CustomerUseCase) Create(ctx context.Context, in dto.CreateCustomerRequest) (*dto.CustomerResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.ErrInvalidInput
	}
	customer := &entity.Customer{
		Name:      name,
		Email:     normalizeEmail(in.Email),
		Phone:     in.Phone,
		Address:   in.Address,
		UserID:    in.UserID,
		CreatedAt: time.Now(),
	}
	if err := uc.repo.Create(ctx, customer); err != nil {
		return nil, err
	}
	return toCustomerResponse(customer), nil
}

// GetByID obtiene un cliente. nil si no existe.
func (uc *CustomerUseCase) GetByID(ctx context.Context, id int64) (*dto.CustomerResponse, error) {
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil || c == nil {
		return nil, err
	}
	return toCustomerResponse(c), nil
}

// List clientes ordenados por nombre.
func (uc *CustomerUseCase) List(ctx context.Context) ([]dto.CustomerResponse, error) {
	list, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CustomerResponse, 0, len(list))
	for _, c := range list {
		out = append(out, *toCustomerResponse(c))
	}
	return out, nil
}

// Update aplica el descriptor tipado. nil si el cliente no existe.
func (uc *CustomerUseCase) Update(ctx context.Context, id int64, in dto.UpdateCustomerRequest) (*dto.CustomerResponse, error) {
	upd, err := CustomerUpdateFrom(in)
	if err != nil {
		return nil, err
	}
	c, err := uc.repo.Update(ctx, id, upd)
	if err != nil || c == nil {
		return nil, err
	}
	return toCustomerResponse(c), nil
}

// Delete borra el cliente. domain.ErrNotFound si no existe, domain.ErrConflict si tiene ventas.
func (uc *CustomerUseCase) Delete(ctx context.Context, id int64) error {
	return uc.repo.Delete(ctx, id)
}

// CustomerUpdateFrom valida la petición y la traduce al descriptor de campos permitidos.
func CustomerUpdateFrom(in dto.UpdateCustomerRequest) (repository.CustomerUpdate, error) {
	upd := repository.CustomerUpdate{Phone: in.Phone, Address: in.Address, Email: normalizeEmail(in.Email)}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return upd, domain.ErrInvalidInput
		}
		upd.Name = &name
	}
	if upd.IsEmpty() {
		return upd, domain.ErrInvalidInput
	}
	return upd, nil
}

func normalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	e := strings.ToLower(strings.TrimSpace(*email))
	return &e
}

func toCustomerResponse(c *entity.Customer) *dto.CustomerResponse {
	return &dto.CustomerResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		UserID:    c.UserID,
		CreatedAt: c.CreatedAt,
	}
}
