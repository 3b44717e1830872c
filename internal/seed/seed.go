package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/washcrm/internal/config"
	customerdomain "github.com/smallbiznis/washcrm/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/washcrm/internal/invoice/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("seed",
	fx.Invoke(func(cfg config.Config, p Params) error {
		if !cfg.Bootstrap.SeedDemoData {
			return nil
		}
		return DemoData(context.Background(), p)
	}),
)

type Params struct {
	fx.In

	Customers customerdomain.Service
	Invoices  invoicedomain.Service
	Log       *zap.Logger
}

type demoInvoice struct {
	serviceDate string
	amount      string
	status      string
	description string
}

type demoCustomer struct {
	name         string
	phone        string
	email        string
	address      string
	buildingType string
	serviceUnits int
	invoices     []demoInvoice
}

var demoCustomers = []demoCustomer{
	{
		name:         "Jane Doe",
		phone:        "555-0101",
		email:        "jane@example.com",
		address:      "12 Elm Street",
		buildingType: "residential",
		serviceUnits: 14,
		invoices: []demoInvoice{
			{"2024-04-12", "120.00", "paid", "Spring clean, inside and out"},
			{"2024-10-03", "95.00", "sent", "Autumn clean, outside only"},
		},
	},
	{
		name:         "Harbor Dental",
		phone:        "555-0102",
		email:        "office@harbordental.example",
		address:      "400 Harbor Road, Suite 2",
		buildingType: "commercial",
		serviceUnits: 36,
		invoices: []demoInvoice{
			{"2024-06-01", "310.00", "paid", "Storefront and offices"},
			{"2024-09-01", "310.00", "draft", "Storefront and offices"},
		},
	},
	{
		name:         "Sam Patel",
		phone:        "555-0103",
		address:      "7 Birch Lane",
		buildingType: "residential",
		serviceUnits: 9,
		invoices: []demoInvoice{
			{"2024-05-20", "80.00", "paid", "Exterior windows"},
			{"2024-08-15", "45.50", "paid", "Skylights"},
		},
	},
}

// DemoData inserts a few customers with invoices through the services so the
// summaries are maintained. It does nothing when customers already exist.
func DemoData(ctx context.Context, p Params) error {
	log := p.Log.Named("seed")

	existing, err := p.Customers.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Info("demo data skipped, customers exist", zap.Int("customers", len(existing)))
		return nil
	}

	invoices := 0
	for _, dc := range demoCustomers {
		customer, err := p.Customers.Create(ctx, customerdomain.CreateCustomerRequest{
			Name:         dc.name,
			Phone:        optional(dc.phone),
			Email:        optional(dc.email),
			Address:      optional(dc.address),
			BuildingType: optional(dc.buildingType),
			ServiceUnits: &dc.serviceUnits,
		})
		if err != nil {
			return fmt.Errorf("seed customer %q: %w", dc.name, err)
		}

		for _, di := range dc.invoices {
			serviceDate, err := time.Parse("2006-01-02", di.serviceDate)
			if err != nil {
				return err
			}
			amount := decimal.RequireFromString(di.amount)
			if _, err := p.Invoices.Create(ctx, invoicedomain.CreateInvoiceRequest{
				CustomerID:         customer.ID,
				ServiceDate:        &serviceDate,
				Amount:             &amount,
				Status:             di.status,
				ServiceDescription: di.description,
			}); err != nil {
				return fmt.Errorf("seed invoice for %q: %w", dc.name, err)
			}
			invoices++
		}
	}

	log.Info("demo data seeded", zap.Int("customers", len(demoCustomers)), zap.Int("invoices", invoices))
	return nil
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
