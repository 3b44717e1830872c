package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	customerdomain "github.com/smallbiznis/washcrm/internal/customer/domain"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft InvoiceStatus = "draft"
	InvoiceStatusSent  InvoiceStatus = "sent"
	InvoiceStatusPaid  InvoiceStatus = "paid"
)

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid:
		return true
	default:
		return false
	}
}

// ParseStatus normalizes user input; empty input yields draft.
func ParseStatus(value string) (InvoiceStatus, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return InvoiceStatusDraft, nil
	}
	status := InvoiceStatus(value)
	if !status.Valid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

type Invoice struct {
	ID                 int64                    `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID         int64                    `gorm:"not null;index" json:"customer_id"`
	Customer           *customerdomain.Customer `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"-"`
	ServiceDate        time.Time                `gorm:"not null;index" json:"service_date"`
	IssueDate          time.Time                `gorm:"not null" json:"issue_date"`
	DueDate            *time.Time               `json:"due_date"`
	Amount             decimal.Decimal          `gorm:"type:numeric(12,2);not null" json:"amount"`
	Status             InvoiceStatus            `gorm:"type:varchar(16);not null;default:draft" json:"status"`
	ServiceDescription string                   `gorm:"type:text" json:"service_description"`
}

func (Invoice) TableName() string {
	return "invoices"
}

// CustomerName returns the owning customer's name when it was loaded.
func (i Invoice) CustomerName() string {
	if i.Customer == nil {
		return ""
	}
	return i.Customer.Name
}
