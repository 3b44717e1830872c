package seed

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/washcrm/internal/clock"
	customerdomain "github.com/smallbiznis/washcrm/internal/customer/domain"
	customerrepository "github.com/smallbiznis/washcrm/internal/customer/repository"
	customerservice "github.com/smallbiznis/washcrm/internal/customer/service"
	"github.com/smallbiznis/washcrm/internal/customerlock"
	invoicedomain "github.com/smallbiznis/washcrm/internal/invoice/domain"
	invoicerepository "github.com/smallbiznis/washcrm/internal/invoice/repository"
	invoiceservice "github.com/smallbiznis/washcrm/internal/invoice/service"
	"github.com/smallbiznis/washcrm/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDemoData(t *testing.T) {
	db := dbtest.Open(t, &customerdomain.Customer{}, &invoicedomain.Invoice{})
	log := zap.NewNop()
	fakeClock := clock.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	locker := customerlock.NewLocalLocker()
	customerRepo := customerrepository.Provide()

	p := Params{
		Customers: customerservice.New(customerservice.Params{
			DB: db, Log: log, Clock: fakeClock, Repo: customerRepo, Locker: locker,
		}),
		Invoices: invoiceservice.NewService(invoiceservice.ServiceParam{
			DB: db, Log: log, Clock: fakeClock, Repo: invoicerepository.Provide(), CustomerRepo: customerRepo, Locker: locker,
		}),
		Log: log,
	}

	ctx := context.Background()
	require.NoError(t, DemoData(ctx, p))
	require.NoError(t, DemoData(ctx, p))

	customers, err := p.Customers.List(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 3)

	invoices, err := p.Invoices.List(ctx, invoicedomain.ListInvoiceRequest{})
	require.NoError(t, err)
	assert.Len(t, invoices, 6)

	for _, c := range customers {
		require.NotNil(t, c.LastInvoiceID, c.Name)
	}
	assert.Equal(t, "Autumn clean, outside only", *customers[0].LastInvoiceDescription)
}
