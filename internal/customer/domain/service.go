package domain

import (
	"context"
	"errors"
)

type CreateCustomerRequest struct {
	Name         string
	Phone        *string
	Email        *string
	Address      *string
	BuildingType *string
	ServiceUnits *int
	Notes        *string
}

// UpdateCustomerRequest carries a partial update. Nil fields keep their
// stored value; an empty string clears an optional text field.
type UpdateCustomerRequest struct {
	Name         *string
	Phone        *string
	Email        *string
	Address      *string
	BuildingType *string
	ServiceUnits *int
	Notes        *string
}

type Service interface {
	List(context.Context) ([]Customer, error)
	GetByID(ctx context.Context, id int64) (Customer, error)
	Create(context.Context, CreateCustomerRequest) (Customer, error)
	Update(ctx context.Context, id int64, req UpdateCustomerRequest) (Customer, error)
	Delete(ctx context.Context, id int64) error
}

var (
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidServiceUnits = errors.New("invalid_service_units")
	ErrNotFound            = errors.New("not_found")
)
