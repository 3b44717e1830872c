package domain

import (
	"github.com/shopspring/decimal"
	customerdomain "github.com/smallbiznis/washcrm/internal/customer/domain"
)

// RecomputeSummary derives a customer's last-invoice summary.
//
// A just-created invoice always becomes the summary, even when an older
// creation has a later service date. Without one, the invoice with the latest
// service date wins and ties go to the highest id. No invoices yields the
// empty summary.
func RecomputeSummary(invoices []Invoice, created *Invoice) customerdomain.Summary {
	if created != nil {
		return SummaryOf(*created)
	}

	var latest *Invoice
	for i := range invoices {
		candidate := &invoices[i]
		if latest == nil || newer(candidate, latest) {
			latest = candidate
		}
	}
	if latest == nil {
		return customerdomain.Summary{}
	}
	return SummaryOf(*latest)
}

// SummaryOf mirrors a single invoice.
func SummaryOf(inv Invoice) customerdomain.Summary {
	id := inv.ID
	date := inv.ServiceDate.UTC()
	description := inv.ServiceDescription
	return customerdomain.Summary{
		InvoiceID:   &id,
		Date:        &date,
		Amount:      decimal.NewNullDecimal(inv.Amount),
		Description: &description,
	}
}

func newer(a, b *Invoice) bool {
	if a.ServiceDate.Equal(b.ServiceDate) {
		return a.ID > b.ID
	}
	return a.ServiceDate.After(b.ServiceDate)
}

// ReconcileSummary decides a customer's summary after one of its invoices
// changed. The changed invoice is pushed only when it is the latest by service
// date. A summary that still points at the changed invoice, or an empty one
// while invoices remain, is recomputed from scratch. Any other summary is kept
// and the second result is false.
func ReconcileSummary(current customerdomain.Summary, invoices []Invoice, changed Invoice) (customerdomain.Summary, bool) {
	latest := RecomputeSummary(invoices, nil)
	if latest.IsEmpty() {
		return latest, !current.IsEmpty()
	}
	if *latest.InvoiceID == changed.ID {
		return latest, true
	}
	if current.IsEmpty() || *current.InvoiceID == changed.ID {
		return latest, true
	}
	return current, false
}
