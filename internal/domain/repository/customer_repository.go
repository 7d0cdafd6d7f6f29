package repository

import (
	"context"

	"github.com/jhoicas/nova-salud-api/internal/domain/entity"
)

// CustomerUpdate descriptor tipado de campos modificables de un cliente.
type CustomerUpdate struct {
	Name    *string
	Email   *string
	Phone   *string
	Address *string
}

func (u CustomerUpdate) IsEmpty() bool {
	return u.Name == nil && u.Email == nil && u.Phone == nil && u.Address == nil
}

// CustomerRepository define el puerto de persistencia para Customer.
type CustomerRepository interface {
	Create(ctx context.Context, customer *entity.Customer) error
	GetByID(ctx context.Context, id int64) (*entity.Customer, error)
	// GetByUserID devuelve el primer cliente enlazado a la cuenta (menor id) o nil.
	GetByUserID(ctx context.Context, userID int64) (*entity.Customer, error)
	List(ctx context.Context) ([]*entity.Customer, error)
	Update(ctx context.Context, id int64, upd CustomerUpdate) (*entity.Customer, error)
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
}
