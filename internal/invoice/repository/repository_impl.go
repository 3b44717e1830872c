package repository

import (
	"context"

	invoicedomain "github.com/smallbiznis/washcrm/internal/invoice/domain"
	"github.com/smallbiznis/washcrm/pkg/db/option"
	"github.com/smallbiznis/washcrm/pkg/repository"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() invoicedomain.Repository {
	return &repo{}
}

func store(db *gorm.DB) repository.Repository[invoicedomain.Invoice] {
	return repository.ProvideStore[invoicedomain.Invoice](db)
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invoice *invoicedomain.Invoice) error {
	return db.WithContext(ctx).Omit("Customer").Create(invoice).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*invoicedomain.Invoice, error) {
	return store(db).FindOne(ctx, &invoicedomain.Invoice{ID: id}, option.Preload("Customer"))
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter *invoicedomain.Invoice, opts ...option.QueryOption) ([]*invoicedomain.Invoice, error) {
	opts = append([]option.QueryOption{option.Preload("Customer")}, opts...)
	return store(db).Find(ctx, filter, opts...)
}

func (r *repo) ListByCustomer(ctx context.Context, db *gorm.DB, customerID int64) ([]*invoicedomain.Invoice, error) {
	return store(db).Find(ctx, &invoicedomain.Invoice{CustomerID: customerID},
		option.WithSortBy(option.QuerySortBy{}),
	)
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, id int64, fields map[string]any) error {
	return store(db).Update(ctx, id, fields)
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id int64) (bool, error) {
	rows, err := store(db).Delete(ctx, id)
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
