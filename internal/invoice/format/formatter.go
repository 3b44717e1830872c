package format

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	invoicedomain "github.com/smallbiznis/washcrm/internal/invoice/domain"
)

var idPadRe = regexp.MustCompile(`\{ID(\d+)\}`)

const DefaultInvoiceNumberTemplate = "INV-{YYYY}-{ID6}"

// InvoiceNumber renders the display number of an invoice from a template.
// Date tokens come from the issue date; {ID} and {IDn} come from the
// invoice id, {CUST} from the owning customer id.
func InvoiceNumber(template string, inv invoicedomain.Invoice) (string, error) {
	if strings.TrimSpace(template) == "" {
		template = DefaultInvoiceNumberTemplate
	}
	if inv.ID <= 0 {
		return "", fmt.Errorf("invalid invoice id: %d", inv.ID)
	}

	issuedAt := inv.IssueDate.UTC()
	out := strings.NewReplacer(
		"{YYYY}", issuedAt.Format("2006"),
		"{YY}", issuedAt.Format("06"),
		"{MM}", issuedAt.Format("01"),
		"{DD}", issuedAt.Format("02"),
		"{ID}", strconv.FormatInt(inv.ID, 10),
		"{CUST}", strconv.FormatInt(inv.CustomerID, 10),
	).Replace(template)

	out = idPadRe.ReplaceAllStringFunc(out, func(m string) string {
		match := idPadRe.FindStringSubmatch(m)
		width, err := strconv.Atoi(match[1])
		if err != nil || width <= 0 {
			return m
		}
		return fmt.Sprintf("%0*d", width, inv.ID)
	})

	if strings.ContainsAny(out, "{}") {
		return "", fmt.Errorf("unresolved token in invoice number template: %s", out)
	}
	return out, nil
}

// MustInvoiceNumber falls back to the default template when the configured
// one cannot be resolved.
func MustInvoiceNumber(template string, inv invoicedomain.Invoice) string {
	if out, err := InvoiceNumber(template, inv); err == nil {
		return out
	}
	out, err := InvoiceNumber(DefaultInvoiceNumberTemplate, inv)
	if err != nil {
		return strconv.FormatInt(inv.ID, 10)
	}
	return out
}

// Money renders an amount with two decimals and the configured symbol.
func Money(symbol string, amount decimal.Decimal) string {
	if amount.IsNegative() {
		return "-" + symbol + amount.Neg().StringFixed(2)
	}
	return symbol + amount.StringFixed(2)
}

// Date renders t in layout; the zero time and nil render as empty.
func Date(layout string, t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(layout)
}
