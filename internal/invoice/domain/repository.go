package domain

import (
	"context"

	"github.com/smallbiznis/washcrm/pkg/db/option"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Invoice, error)
	List(ctx context.Context, db *gorm.DB, filter *Invoice, opts ...option.QueryOption) ([]*Invoice, error)
	ListByCustomer(ctx context.Context, db *gorm.DB, customerID int64) ([]*Invoice, error)
	Update(ctx context.Context, db *gorm.DB, id int64, fields map[string]any) error
	Delete(ctx context.Context, db *gorm.DB, id int64) (bool, error)
}
