package repository

import (
	"context"

	"github.com/smallbiznis/washcrm/internal/customer/domain"
	"github.com/smallbiznis/washcrm/pkg/db/option"
	"github.com/smallbiznis/washcrm/pkg/repository"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func store(db *gorm.DB) repository.Repository[domain.Customer] {
	return repository.ProvideStore[domain.Customer](db)
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	return store(db).Create(ctx, customer)
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Customer, error) {
	return store(db).FindByID(ctx, id)
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]*domain.Customer, error) {
	return store(db).Find(ctx, nil, option.WithSortBy(option.QuerySortBy{}))
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, id int64, fields map[string]any) error {
	return store(db).Update(ctx, id, fields)
}

func (r *repo) UpdateSummary(ctx context.Context, db *gorm.DB, id int64, summary domain.Summary) error {
	return store(db).Update(ctx, id, summary.Columns())
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id int64) (bool, error) {
	// SQLite connections opened without the foreign_keys pragma ignore ON DELETE CASCADE.
	if err := db.WithContext(ctx).Exec(`DELETE FROM invoices WHERE customer_id = ?`, id).Error; err != nil {
		return false, err
	}
	rows, err := store(db).Delete(ctx, id)
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
