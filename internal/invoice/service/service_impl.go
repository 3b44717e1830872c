package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/smallbiznis/washcrm/internal/clock"
	customerdomain "github.com/smallbiznis/washcrm/internal/customer/domain"
	"github.com/smallbiznis/washcrm/internal/customerlock"
	invoicedomain "github.com/smallbiznis/washcrm/internal/invoice/domain"
	obscontext "github.com/smallbiznis/washcrm/internal/observability/context"
	"github.com/smallbiznis/washcrm/internal/observability/logger"
	"github.com/smallbiznis/washcrm/internal/observability/metrics"
	"github.com/smallbiznis/washcrm/pkg/db"
	"github.com/smallbiznis/washcrm/pkg/db/option"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxOwnerRetries bounds how often Update and Delete re-read an invoice whose
// owner changed between the unlocked read and the locked transaction.
const maxOwnerRetries = 3

type ServiceParam struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Clock        clock.Clock
	Repo         invoicedomain.Repository
	CustomerRepo customerdomain.Repository
	Locker       customerlock.Locker
	Metrics      *metrics.Metrics `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	clock        clock.Clock
	repo         invoicedomain.Repository
	customerRepo customerdomain.Repository
	locker       customerlock.Locker
	metrics      *metrics.Metrics
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("invoice.service"),

		clock:        p.Clock,
		repo:         p.Repo,
		customerRepo: p.CustomerRepo,
		locker:       p.Locker,
		metrics:      p.Metrics,
	}
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) ([]invoicedomain.Invoice, error) {
	filter := &invoicedomain.Invoice{}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, invoicedomain.ErrInvalidStatus
		}
		filter.Status = *req.Status
	}

	sortBy := strings.TrimSpace(req.SortBy)
	if sortBy != "" && !invoicedomain.SortableColumns[sortBy] {
		return nil, invoicedomain.ErrInvalidSort
	}
	orderBy := strings.ToLower(strings.TrimSpace(req.OrderBy))
	if orderBy != "" && orderBy != "asc" && orderBy != "desc" {
		return nil, invoicedomain.ErrInvalidSort
	}

	options := []option.QueryOption{
		option.WithSortBy(option.WithQuerySortBy(sortBy, orderBy, invoicedomain.SortableColumns)),
	}
	if sortBy != "" {
		// equal sort keys keep id order
		options = append(options, option.WithSortBy(option.QuerySortBy{}))
	}
	if req.ServiceDateFrom != nil {
		options = append(options, option.ApplyOperator(option.Condition{
			Field:    "service_date",
			Operator: option.GTE,
			Value:    req.ServiceDateFrom.UTC(),
		}))
	}
	if req.ServiceDateTo != nil {
		options = append(options, option.ApplyOperator(option.Condition{
			Field:    "service_date",
			Operator: option.LTE,
			Value:    req.ServiceDateTo.UTC(),
		}))
	}

	items, err := s.repo.List(ctx, s.db, filter, options...)
	if err != nil {
		return nil, err
	}
	return derefAll(items), nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (invoicedomain.Invoice, error) {
	if id <= 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrNotFound
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if item == nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) ListForCustomer(ctx context.Context, customerID int64) ([]invoicedomain.Invoice, error) {
	customer, err := s.customerRepo.FindByID(ctx, s.db, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, customerdomain.ErrNotFound
	}

	items, err := s.repo.ListByCustomer(ctx, s.db, customerID)
	if err != nil {
		return nil, err
	}
	invoices := derefAll(items)
	for i := range invoices {
		invoices[i].Customer = customer
	}
	return invoices, nil
}

// Create persists the invoice and makes it the customer's last invoice,
// regardless of how its service date compares to existing invoices.
func (s *Service) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (invoicedomain.Invoice, error) {
	if req.CustomerID <= 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidCustomer
	}
	if req.Amount == nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidAmount
	}
	amount, err := invoicedomain.NormalizeAmount(*req.Amount)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	status, err := invoicedomain.ParseStatus(req.Status)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	now := s.clock.Now().UTC()
	invoice := invoicedomain.Invoice{
		CustomerID:         req.CustomerID,
		ServiceDate:        now,
		IssueDate:          now,
		Amount:             amount,
		Status:             status,
		ServiceDescription: strings.TrimSpace(req.ServiceDescription),
	}
	if req.ServiceDate != nil {
		invoice.ServiceDate = req.ServiceDate.UTC()
	}
	if req.DueDate != nil {
		due := req.DueDate.UTC()
		invoice.DueDate = &due
	}

	release, err := s.locker.Lock(ctx, req.CustomerID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	defer release()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customer, err := s.customerRepo.FindByID(ctx, tx, req.CustomerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return customerdomain.ErrNotFound
		}

		if err := s.repo.Insert(ctx, tx, &invoice); err != nil {
			if db.IsForeignKeyErr(err) {
				return customerdomain.ErrNotFound
			}
			return fmt.Errorf("insert invoice: %w", err)
		}

		summary := invoicedomain.RecomputeSummary(nil, &invoice)
		if err := s.customerRepo.UpdateSummary(ctx, tx, req.CustomerID, summary); err != nil {
			return fmt.Errorf("update customer summary: %w", err)
		}
		s.metrics.RecordSummaryRecompute(ctx, "invoice.create", outcome(summary))

		invoice.Customer = customer
		return nil
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	s.metrics.RecordInvoiceMutation(ctx, "create")
	logger.WithContext(invoiceScope(ctx, invoice.ID, invoice.CustomerID), s.log).Info("invoice created")
	return invoice, nil
}

// Update applies the present fields. The owner's summary switches to the
// invoice only when it is now the owner's latest by service date; a summary
// left pointing at a stale or moved invoice is recomputed.
func (s *Service) Update(ctx context.Context, id int64, req invoicedomain.UpdateInvoiceRequest) (invoicedomain.Invoice, error) {
	fields, err := s.updateFields(req)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	for attempt := 1; ; attempt++ {
		current, err := s.GetByID(ctx, id)
		if err != nil {
			return invoicedomain.Invoice{}, err
		}

		owners := []int64{current.CustomerID}
		if req.CustomerID != nil {
			owners = append(owners, *req.CustomerID)
		}

		updated, err := s.updateLocked(ctx, id, current.CustomerID, owners, req, fields)
		if errors.Is(err, invoicedomain.ErrOwnerChanged) && attempt < maxOwnerRetries {
			continue
		}
		if err != nil {
			return invoicedomain.Invoice{}, err
		}

		s.metrics.RecordInvoiceMutation(ctx, "update")
		logger.WithContext(invoiceScope(ctx, updated.ID, updated.CustomerID), s.log).Info("invoice updated")
		return updated, nil
	}
}

func (s *Service) updateLocked(
	ctx context.Context,
	id int64,
	expectedOwner int64,
	owners []int64,
	req invoicedomain.UpdateInvoiceRequest,
	fields map[string]any,
) (invoicedomain.Invoice, error) {
	release, err := s.locker.Lock(ctx, owners...)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	defer release()

	var updated invoicedomain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return invoicedomain.ErrNotFound
		}
		if current.CustomerID != expectedOwner {
			return invoicedomain.ErrOwnerChanged
		}

		if req.CustomerID != nil && *req.CustomerID != current.CustomerID {
			target, err := s.customerRepo.FindByID(ctx, tx, *req.CustomerID)
			if err != nil {
				return err
			}
			if target == nil {
				return customerdomain.ErrNotFound
			}
		}

		if err := s.repo.Update(ctx, tx, id, fields); err != nil {
			if db.IsForeignKeyErr(err) {
				return customerdomain.ErrNotFound
			}
			return fmt.Errorf("update invoice: %w", err)
		}

		reloaded, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if reloaded == nil {
			return invoicedomain.ErrNotFound
		}

		if err := s.reconcileSummary(ctx, tx, reloaded.CustomerID, *reloaded, "invoice.update"); err != nil {
			return err
		}
		if current.CustomerID != reloaded.CustomerID {
			if err := s.reconcileSummary(ctx, tx, current.CustomerID, *reloaded, "invoice.reassign"); err != nil {
				return err
			}
		}
		// the preloaded customer carries the summary from before reconciling
		reloaded, err = s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if reloaded == nil {
			return invoicedomain.ErrNotFound
		}

		updated = *reloaded
		return nil
	})
	return updated, err
}

func (s *Service) updateFields(req invoicedomain.UpdateInvoiceRequest) (map[string]any, error) {
	fields := map[string]any{}
	if req.CustomerID != nil {
		if *req.CustomerID <= 0 {
			return nil, invoicedomain.ErrInvalidCustomer
		}
		fields["customer_id"] = *req.CustomerID
	}
	if req.ServiceDate != nil {
		fields["service_date"] = req.ServiceDate.UTC()
	}
	if req.ClearDueDate {
		fields["due_date"] = nil
	} else if req.DueDate != nil {
		fields["due_date"] = req.DueDate.UTC()
	}
	if req.Amount != nil {
		amount, err := invoicedomain.NormalizeAmount(*req.Amount)
		if err != nil {
			return nil, err
		}
		fields["amount"] = amount
	}
	if req.Status != nil {
		if strings.TrimSpace(*req.Status) == "" {
			return nil, invoicedomain.ErrInvalidStatus
		}
		status, err := invoicedomain.ParseStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		fields["status"] = status
	}
	if req.ServiceDescription != nil {
		fields["service_description"] = strings.TrimSpace(*req.ServiceDescription)
	}
	return fields, nil
}

// Delete removes the invoice and recomputes its customer's summary from the
// remaining invoices, clearing it when none are left.
func (s *Service) Delete(ctx context.Context, id int64) error {
	for attempt := 1; ; attempt++ {
		current, err := s.GetByID(ctx, id)
		if err != nil {
			return err
		}

		err = s.deleteLocked(ctx, id, current.CustomerID)
		if errors.Is(err, invoicedomain.ErrOwnerChanged) && attempt < maxOwnerRetries {
			continue
		}
		if err != nil {
			return err
		}

		s.metrics.RecordInvoiceMutation(ctx, "delete")
		logger.WithContext(invoiceScope(ctx, id, current.CustomerID), s.log).Info("invoice deleted")
		return nil
	}
}

func (s *Service) deleteLocked(ctx context.Context, id, owner int64) error {
	release, err := s.locker.Lock(ctx, owner)
	if err != nil {
		return err
	}
	defer release()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return invoicedomain.ErrNotFound
		}
		if current.CustomerID != owner {
			return invoicedomain.ErrOwnerChanged
		}

		deleted, err := s.repo.Delete(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("delete invoice: %w", err)
		}
		if !deleted {
			return invoicedomain.ErrNotFound
		}

		return s.refreshSummary(ctx, tx, owner, "invoice.delete")
	})
}

func (s *Service) refreshSummary(ctx context.Context, tx *gorm.DB, customerID int64, trigger string) error {
	items, err := s.repo.ListByCustomer(ctx, tx, customerID)
	if err != nil {
		return err
	}

	summary := invoicedomain.RecomputeSummary(derefAll(items), nil)
	if err := s.customerRepo.UpdateSummary(ctx, tx, customerID, summary); err != nil {
		return fmt.Errorf("update customer summary: %w", err)
	}
	s.metrics.RecordSummaryRecompute(ctx, trigger, outcome(summary))
	return nil
}

func (s *Service) reconcileSummary(ctx context.Context, tx *gorm.DB, customerID int64, changed invoicedomain.Invoice, trigger string) error {
	customer, err := s.customerRepo.FindByID(ctx, tx, customerID)
	if err != nil {
		return err
	}
	if customer == nil {
		return customerdomain.ErrNotFound
	}

	items, err := s.repo.ListByCustomer(ctx, tx, customerID)
	if err != nil {
		return err
	}

	summary, dirty := invoicedomain.ReconcileSummary(customer.Summary(), derefAll(items), changed)
	if !dirty {
		s.metrics.RecordSummaryRecompute(ctx, trigger, "kept")
		return nil
	}
	if err := s.customerRepo.UpdateSummary(ctx, tx, customerID, summary); err != nil {
		return fmt.Errorf("update customer summary: %w", err)
	}
	s.metrics.RecordSummaryRecompute(ctx, trigger, outcome(summary))
	return nil
}

func outcome(summary customerdomain.Summary) string {
	if summary.IsEmpty() {
		return "cleared"
	}
	return "set"
}

func derefAll(items []*invoicedomain.Invoice) []invoicedomain.Invoice {
	out := make([]invoicedomain.Invoice, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		out = append(out, *item)
	}
	return out
}

func invoiceScope(ctx context.Context, invoiceID, customerID int64) context.Context {
	return obscontext.WithCustomerID(obscontext.WithInvoiceID(ctx, invoiceID), customerID)
}
