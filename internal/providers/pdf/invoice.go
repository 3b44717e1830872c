package pdf

import (
	"context"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	marotoconfig "github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/smallbiznis/washcrm/internal/config"
	invoicedomain "github.com/smallbiznis/washcrm/internal/invoice/domain"
	"github.com/smallbiznis/washcrm/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Business *config.BusinessConfigHolder
	Log      *zap.Logger
	Metrics  *metrics.Metrics `optional:"true"`
}

type MarotoProvider struct {
	business *config.BusinessConfigHolder
	log      *zap.Logger
	metrics  *metrics.Metrics
}

func New(p Params) Provider {
	return &MarotoProvider{
		business: p.Business,
		log:      p.Log.Named("pdf.provider"),
		metrics:  p.Metrics,
	}
}

func (p *MarotoProvider) Render(ctx context.Context, inv invoicedomain.Invoice) ([]byte, error) {
	data := NewInvoiceData(p.business.Get(), inv)

	title := "Invoice"
	if data.Status == invoicedomain.InvoiceStatusPaid {
		title = "Receipt"
	}

	cfg := marotoconfig.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(14,
		text.NewCol(8, title, props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, data.InvoiceNumber, props.Text{
			Size:  12,
			Style: fontstyle.Bold,
			Align: align.Right,
			Top:   3,
		}),
	)

	m.AddRow(22,
		col.New(6).Add(
			text.New("Date of issue: "+data.IssueDate, props.Text{Top: 0}),
			text.New("Service date: "+data.ServiceDate, props.Text{Top: 5}),
			text.New("Date due: "+data.DueDate, props.Text{Top: 10}),
			text.New("Status: "+string(data.Status), props.Text{Top: 15}),
		),
		col.New(6),
	)

	m.AddRow(32,
		col.New(6).Add(
			text.New(data.CompanyName, props.Text{Style: fontstyle.Bold}),
			text.New(data.CompanyAddress, props.Text{Top: 5}),
			text.New(data.CompanyEmail, props.Text{Top: 10}),
			text.New(data.CompanyPhone, props.Text{Top: 15}),
		),
		col.New(6).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold}),
			text.New(data.BillToName, props.Text{Top: 5}),
			text.New(data.BillToAddress, props.Text{Top: 10}),
			text.New(data.BillToEmail, props.Text{Top: 15}),
			text.New(data.BillToPhone, props.Text{Top: 20}),
		),
	)

	m.AddRow(10,
		text.NewCol(8, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Quantity", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(2, line.NewCol(12))
	m.AddRow(12,
		text.NewCol(8, data.Description, props.Text{Size: 9}),
		text.NewCol(2, data.Quantity, props.Text{Size: 9, Align: align.Right}),
		text.NewCol(2, data.Amount, props.Text{Size: 9, Align: align.Right}),
	)

	dueLabel := "Amount due"
	if title == "Receipt" {
		dueLabel = "Amount paid"
	}
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, dueLabel, props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, data.Amount, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	if data.FooterNotes != "" {
		m.AddRow(20, text.NewCol(12, data.FooterNotes, props.Text{Size: 8, Top: 8}))
	}

	doc, err := m.Generate()
	if err != nil {
		p.log.Error("render failed", zap.Int64("invoice_id", inv.ID), zap.Error(err))
		return nil, err
	}

	p.metrics.RecordInvoicePDF(ctx)
	return doc.GetBytes(), nil
}
