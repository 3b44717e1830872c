package view

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/washcrm/internal/config"
	customerdomain "github.com/smallbiznis/washcrm/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/washcrm/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New(config.NewStaticBusinessConfigHolder(config.DefaultBusinessConfig()))
	require.NoError(t, err)
	return r
}

func renderPage(t *testing.T, r *Renderer, name string, page Page) string {
	t.Helper()
	w := httptest.NewRecorder()
	require.NoError(t, r.Instance(name, page).Render(w))
	return w.Body.String()
}

func TestRenderCustomerList(t *testing.T) {
	r := newRenderer(t)
	phone := "555-0100"
	lastDate := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	customers := []customerdomain.Customer{
		{
			ID:                1,
			Name:              "Jane <Doe>",
			Phone:             &phone,
			LastInvoiceDate:   &lastDate,
			LastInvoiceAmount: decimal.NewNullDecimal(decimal.NewFromInt(100)),
		},
		{ID: 2, Name: "Bob"},
	}

	body := renderPage(t, r, CustomerList, Page{Title: "Customers", Data: customers})

	assert.Contains(t, body, "Jane &lt;Doe&gt;")
	assert.Contains(t, body, "555-0100")
	assert.Contains(t, body, "2025-01-01")
	assert.Contains(t, body, "$100.00")
	assert.Contains(t, body, `href="/customers/2"`)
	assert.Contains(t, body, "Window Wash Co.")
}

func TestRenderInvoiceViewAndForm(t *testing.T) {
	r := newRenderer(t)
	inv := invoicedomain.Invoice{
		ID:          7,
		CustomerID:  1,
		Customer:    &customerdomain.Customer{ID: 1, Name: "Jane"},
		ServiceDate: time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC),
		IssueDate:   time.Date(2025, 2, 4, 0, 0, 0, 0, time.UTC),
		Amount:      decimal.RequireFromString("12.5"),
		Status:      invoicedomain.InvoiceStatusSent,
	}

	body := renderPage(t, r, InvoiceView, Page{Title: "Invoice", Data: inv})
	assert.Contains(t, body, "INV-2025-000007")
	assert.Contains(t, body, "$12.50")
	assert.Contains(t, body, "/invoices/7/pdf")

	form := renderPage(t, r, InvoiceCreate, Page{Title: "New invoice", Data: InvoiceFormData{
		Customers:          []customerdomain.Customer{{ID: 1, Name: "Jane"}, {ID: 2, Name: "Bob"}},
		SelectedCustomerID: 2,
		Today:              "2025-02-04",
	}})
	assert.Contains(t, form, `<option value="2" selected>Bob</option>`)
	assert.Contains(t, form, `value="2025-02-04"`)
}

func TestRenderUsesBusinessConfig(t *testing.T) {
	cfg := config.DefaultBusinessConfig()
	cfg.CompanyName = "Crystal Clear"
	cfg.CurrencySymbol = "€"
	r, err := New(config.NewStaticBusinessConfigHolder(cfg))
	require.NoError(t, err)

	body := renderPage(t, r, Error, Page{Title: "Not found", Data: ErrorData{Status: 404, Message: "not found"}})
	assert.Contains(t, body, "Crystal Clear")
	assert.Contains(t, body, "404")
}
