package entity

import "time"

// Customer representa un cliente. UserID enlaza opcionalmente con una cuenta autenticada.
type Customer struct {
	ID        int64
	Name      string
	Email     *string
	Phone     *string
	Address   *string
	UserID    *int64
	CreatedAt time.Time
}
