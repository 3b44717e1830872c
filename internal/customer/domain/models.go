package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Customer struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	Phone        *string   `json:"phone"`
	Email        *string   `json:"email"`
	Address      *string   `json:"address"`
	BuildingType *string   `json:"building_type"`
	ServiceUnits *int      `json:"service_units"`
	Notes        *string   `json:"notes"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`

	LastInvoiceDate        *time.Time          `json:"last_invoice_date"`
	LastInvoiceAmount      decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"last_invoice_amount"`
	LastInvoiceDescription *string             `json:"last_invoice_description"`
	LastInvoiceID          *int64              `gorm:"index" json:"last_invoice_id"`
}

func (Customer) TableName() string {
	return "customers"
}

// Summary mirrors a single invoice of the customer. The zero value means
// the customer has no invoices.
type Summary struct {
	InvoiceID   *int64
	Date        *time.Time
	Amount      decimal.NullDecimal
	Description *string
}

func (s Summary) IsEmpty() bool {
	return s.InvoiceID == nil
}

// Summary returns the denormalized last-invoice fields.
func (c Customer) Summary() Summary {
	return Summary{
		InvoiceID:   c.LastInvoiceID,
		Date:        c.LastInvoiceDate,
		Amount:      c.LastInvoiceAmount,
		Description: c.LastInvoiceDescription,
	}
}

// Columns returns the column values written when the summary is stored.
func (s Summary) Columns() map[string]any {
	if s.IsEmpty() {
		return map[string]any{
			"last_invoice_id":          nil,
			"last_invoice_date":        nil,
			"last_invoice_amount":      nil,
			"last_invoice_description": nil,
		}
	}
	return map[string]any{
		"last_invoice_id":          *s.InvoiceID,
		"last_invoice_date":        *s.Date,
		"last_invoice_amount":      s.Amount,
		"last_invoice_description": *s.Description,
	}
}
