package view

import (
	"embed"
	"html/template"
	"strconv"
	"time"

	"github.com/gin-gonic/gin/render"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/washcrm/internal/config"
	customerdomain "github.com/smallbiznis/washcrm/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/washcrm/internal/invoice/domain"
	"github.com/smallbiznis/washcrm/internal/invoice/format"
	"go.uber.org/fx"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	Home             = "home"
	CustomerList     = "customers/list"
	CustomerView     = "customers/view"
	CustomerCreate   = "customers/create"
	CustomerInvoices = "customers/invoices"
	InvoiceList      = "invoices/list"
	InvoiceView      = "invoices/view"
	InvoiceCreate    = "invoices/create"
	Error            = "error"
)

var Module = fx.Module("view",
	fx.Provide(New),
)

// Page is the value every template executes against. Business is filled at
// render time so reloaded settings show up without a restart.
type Page struct {
	Title    string
	Business config.BusinessConfig
	Data     any
}

type ErrorData struct {
	Status  int
	Message string
}

type CustomerInvoicesData struct {
	Customer customerdomain.Customer
	Invoices []invoicedomain.Invoice
}

type InvoiceFormData struct {
	Customers          []customerdomain.Customer
	SelectedCustomerID int64
	Today              string
}

type HomeData struct {
	Customers int
	Invoices  int
}

// Renderer implements gin's render.HTMLRender over the embedded templates.
type Renderer struct {
	business *config.BusinessConfigHolder
	tmpl     *template.Template
}

func New(business *config.BusinessConfigHolder) (*Renderer, error) {
	r := &Renderer{business: business}

	tmpl, err := template.New("washcrm").Funcs(r.funcs()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r.tmpl = tmpl
	return r, nil
}

func (r *Renderer) Instance(name string, data any) render.Render {
	page, ok := data.(Page)
	if !ok {
		page = Page{Data: data}
	}
	page.Business = r.business.Get()

	return render.HTML{
		Template: r.tmpl,
		Name:     name,
		Data:     page,
	}
}

var _ render.HTMLRender = (*Renderer)(nil)

func (r *Renderer) funcs() template.FuncMap {
	return template.FuncMap{
		"money": func(v any) string {
			symbol := r.business.Get().CurrencySymbol
			switch amount := v.(type) {
			case decimal.Decimal:
				return format.Money(symbol, amount)
			case decimal.NullDecimal:
				if !amount.Valid {
					return ""
				}
				return format.Money(symbol, amount.Decimal)
			default:
				return ""
			}
		},
		"date": func(v any) string {
			layout := r.business.Get().DateLayout
			switch t := v.(type) {
			case time.Time:
				return format.Date(layout, &t)
			case *time.Time:
				return format.Date(layout, t)
			default:
				return ""
			}
		},
		"invoiceNumber": func(inv invoicedomain.Invoice) string {
			return format.MustInvoiceNumber(r.business.Get().InvoiceNumberTemplate, inv)
		},
		"text": func(v *string) string {
			if v == nil {
				return ""
			}
			return *v
		},
		"units": func(v *int) string {
			if v == nil {
				return ""
			}
			return strconv.Itoa(*v)
		},
		"id": func(v *int64) string {
			if v == nil {
				return ""
			}
			return strconv.FormatInt(*v, 10)
		},
	}
}
