package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, customer *Customer) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Customer, error)
	List(ctx context.Context, db *gorm.DB) ([]*Customer, error)
	Update(ctx context.Context, db *gorm.DB, id int64, fields map[string]any) error
	UpdateSummary(ctx context.Context, db *gorm.DB, id int64, summary Summary) error
	// Delete removes the customer together with its invoices and reports
	// whether a customer row was removed.
	Delete(ctx context.Context, db *gorm.DB, id int64) (bool, error)
}
