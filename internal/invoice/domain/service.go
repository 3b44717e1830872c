package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ListInvoiceRequest narrows List. The zero value lists every invoice by id.
type ListInvoiceRequest struct {
	Status          *InvoiceStatus
	ServiceDateFrom *time.Time
	ServiceDateTo   *time.Time
	// SortBy is one of the SortableColumns; OrderBy is "asc" or "desc".
	SortBy  string
	OrderBy string
}

// SortableColumns lists the columns invoices may be sorted by.
var SortableColumns = map[string]bool{
	"service_date": true,
	"issue_date":   true,
	"due_date":     true,
	"amount":       true,
	"status":       true,
}

type CreateInvoiceRequest struct {
	CustomerID         int64
	ServiceDate        *time.Time
	DueDate            *time.Time
	Amount             *decimal.Decimal
	Status             string
	ServiceDescription string
}

// UpdateInvoiceRequest carries a partial update; nil fields are left alone.
type UpdateInvoiceRequest struct {
	CustomerID         *int64
	ServiceDate        *time.Time
	DueDate            *time.Time
	ClearDueDate       bool
	Amount             *decimal.Decimal
	Status             *string
	ServiceDescription *string
}

type Service interface {
	List(context.Context, ListInvoiceRequest) ([]Invoice, error)
	GetByID(ctx context.Context, id int64) (Invoice, error)
	ListForCustomer(ctx context.Context, customerID int64) ([]Invoice, error)
	Create(context.Context, CreateInvoiceRequest) (Invoice, error)
	Update(ctx context.Context, id int64, req UpdateInvoiceRequest) (Invoice, error)
	Delete(ctx context.Context, id int64) error
}

var (
	ErrInvalidAmount   = errors.New("invalid_amount")
	ErrInvalidStatus   = errors.New("invalid_status")
	ErrInvalidSort     = errors.New("invalid_sort")
	ErrInvalidCustomer = errors.New("invalid_customer")
	ErrNotFound        = errors.New("not_found")
	ErrOwnerChanged    = errors.New("invoice_owner_changed")
)
