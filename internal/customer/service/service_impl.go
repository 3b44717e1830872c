package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallbiznis/washcrm/internal/clock"
	"github.com/smallbiznis/washcrm/internal/customer/domain"
	"github.com/smallbiznis/washcrm/internal/customerlock"
	obscontext "github.com/smallbiznis/washcrm/internal/observability/context"
	"github.com/smallbiznis/washcrm/internal/observability/logger"
	"github.com/smallbiznis/washcrm/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Repo    domain.Repository
	Locker  customerlock.Locker
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	repo    domain.Repository
	locker  customerlock.Locker
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("customer.service"),
		clock:   p.Clock,
		repo:    p.Repo,
		locker:  p.Locker,
		metrics: p.Metrics,
	}
}

func (s *Service) List(ctx context.Context) ([]domain.Customer, error) {
	items, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}

	customers := make([]domain.Customer, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		customers = append(customers, *item)
	}
	return customers, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (domain.Customer, error) {
	if id <= 0 {
		return domain.Customer{}, domain.ErrNotFound
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Customer{}, err
	}
	if item == nil {
		return domain.Customer{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateCustomerRequest) (domain.Customer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Customer{}, domain.ErrInvalidName
	}
	if req.ServiceUnits != nil && *req.ServiceUnits < 0 {
		return domain.Customer{}, domain.ErrInvalidServiceUnits
	}

	customer := domain.Customer{
		Name:         name,
		Phone:        optionalText(req.Phone),
		Email:        optionalText(req.Email),
		Address:      optionalText(req.Address),
		BuildingType: optionalText(req.BuildingType),
		ServiceUnits: req.ServiceUnits,
		Notes:        optionalText(req.Notes),
		CreatedAt:    s.clock.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, s.db, &customer); err != nil {
		return domain.Customer{}, fmt.Errorf("insert customer: %w", err)
	}

	s.metrics.RecordCustomerMutation(ctx, "create")
	logger.WithContext(obscontext.WithCustomerID(ctx, customer.ID), s.log).Info("customer created")
	return customer, nil
}

func (s *Service) Update(ctx context.Context, id int64, req domain.UpdateCustomerRequest) (domain.Customer, error) {
	fields := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Customer{}, domain.ErrInvalidName
		}
		fields["name"] = name
	}
	if req.ServiceUnits != nil {
		if *req.ServiceUnits < 0 {
			return domain.Customer{}, domain.ErrInvalidServiceUnits
		}
		fields["service_units"] = *req.ServiceUnits
	}
	setText(fields, "phone", req.Phone)
	setText(fields, "email", req.Email)
	setText(fields, "address", req.Address)
	setText(fields, "building_type", req.BuildingType)
	setText(fields, "notes", req.Notes)

	var updated domain.Customer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}

		if err := s.repo.Update(ctx, tx, id, fields); err != nil {
			return fmt.Errorf("update customer: %w", err)
		}

		reloaded, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if reloaded == nil {
			return domain.ErrNotFound
		}
		updated = *reloaded
		return nil
	})
	if err != nil {
		return domain.Customer{}, err
	}

	s.metrics.RecordCustomerMutation(ctx, "update")
	return updated, nil
}

// Delete removes the customer and every invoice it owns in one transaction.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.ErrNotFound
	}

	release, err := s.locker.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deleted, err := s.repo.Delete(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("delete customer: %w", err)
		}
		if !deleted {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.RecordCustomerMutation(ctx, "delete")
	logger.WithContext(obscontext.WithCustomerID(ctx, id), s.log).Info("customer deleted")
	return nil
}

func optionalText(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func setText(fields map[string]any, column string, value *string) {
	if value == nil {
		return
	}
	if trimmed := optionalText(value); trimmed != nil {
		fields[column] = *trimmed
		return
	}
	fields[column] = nil
}
