package pdf

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/washcrm/internal/config"
	invoicedomain "github.com/smallbiznis/washcrm/internal/invoice/domain"
	"github.com/smallbiznis/washcrm/internal/invoice/format"
	"go.uber.org/fx"
)

var Module = fx.Module("pdf",
	fx.Provide(New),
)

// Provider renders printable documents for invoices. Paid invoices render
// as receipts.
type Provider interface {
	Render(ctx context.Context, inv invoicedomain.Invoice) ([]byte, error)
}

type InvoiceData struct {
	CompanyName    string
	CompanyAddress string
	CompanyEmail   string
	CompanyPhone   string

	InvoiceNumber string
	Status        invoicedomain.InvoiceStatus
	IssueDate     string
	DueDate       string
	ServiceDate   string

	BillToName    string
	BillToAddress string
	BillToEmail   string
	BillToPhone   string

	Description string
	Quantity    string
	Amount      string
	FooterNotes string
}

// NewInvoiceData resolves display strings for inv under the business settings.
// A missing due date is derived from the payment terms.
func NewInvoiceData(cfg config.BusinessConfig, inv invoicedomain.Invoice) InvoiceData {
	data := InvoiceData{
		CompanyName:    cfg.CompanyName,
		CompanyAddress: cfg.CompanyAddress,
		CompanyEmail:   cfg.CompanyEmail,
		CompanyPhone:   cfg.CompanyPhone,
		InvoiceNumber:  format.MustInvoiceNumber(cfg.InvoiceNumberTemplate, inv),
		Status:         inv.Status,
		IssueDate:      format.Date(cfg.DateLayout, &inv.IssueDate),
		ServiceDate:    format.Date(cfg.DateLayout, &inv.ServiceDate),
		Description:    inv.ServiceDescription,
		Amount:         format.Money(cfg.CurrencySymbol, inv.Amount.Round(invoicedomain.AmountScale)),
		FooterNotes:    cfg.InvoiceFooterNotes,
	}
	if data.Description == "" {
		data.Description = "Window cleaning"
	}

	due := inv.DueDate
	if due == nil && cfg.PaymentTermsDays > 0 && !inv.IssueDate.IsZero() {
		derived := inv.IssueDate.Add(time.Duration(cfg.PaymentTermsDays) * 24 * time.Hour)
		due = &derived
	}
	data.DueDate = format.Date(cfg.DateLayout, due)

	if c := inv.Customer; c != nil {
		data.BillToName = c.Name
		data.BillToAddress = deref(c.Address)
		data.BillToEmail = deref(c.Email)
		data.BillToPhone = deref(c.Phone)
		if c.ServiceUnits != nil && *c.ServiceUnits > 0 {
			data.Quantity = decimal.NewFromInt(int64(*c.ServiceUnits)).String() + " " + cfg.ServiceUnitLabel
		}
	}
	return data
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
