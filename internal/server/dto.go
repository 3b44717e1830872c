package server

import (
	"encoding/json"
	"time"

	customerdomain "github.com/smallbiznis/washcrm/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/washcrm/internal/invoice/domain"
)

type customerResponse struct {
	ID                     int64        `json:"id"`
	Name                   string       `json:"name"`
	Phone                  *string      `json:"phone"`
	Email                  *string      `json:"email"`
	Address                *string      `json:"address"`
	BuildingType           *string      `json:"building_type"`
	ServiceUnits           *int         `json:"service_units"`
	Notes                  *string      `json:"notes"`
	CreatedAt              string       `json:"created_at"`
	LastInvoiceDate        *string      `json:"last_invoice_date"`
	LastInvoiceAmount      *json.Number `json:"last_invoice_amount"`
	LastInvoiceDescription *string      `json:"last_invoice_description"`
	LastInvoiceID          *int64       `json:"last_invoice_id"`
}

type invoiceResponse struct {
	ID                 int64       `json:"id"`
	CustomerID         int64       `json:"customer_id"`
	CustomerName       string      `json:"customer_name,omitempty"`
	ServiceDate        string      `json:"service_date"`
	IssueDate          string      `json:"issue_date"`
	DueDate            *string     `json:"due_date"`
	Amount             json.Number `json:"amount"`
	Status             string      `json:"status"`
	ServiceDescription string      `json:"service_description"`
}

func newCustomerResponse(c customerdomain.Customer) customerResponse {
	resp := customerResponse{
		ID:                     c.ID,
		Name:                   c.Name,
		Phone:                  c.Phone,
		Email:                  c.Email,
		Address:                c.Address,
		BuildingType:           c.BuildingType,
		ServiceUnits:           c.ServiceUnits,
		Notes:                  c.Notes,
		CreatedAt:              formatTimestamp(c.CreatedAt),
		LastInvoiceDate:        formatOptionalTimestamp(c.LastInvoiceDate),
		LastInvoiceDescription: c.LastInvoiceDescription,
		LastInvoiceID:          c.LastInvoiceID,
	}
	if c.LastInvoiceAmount.Valid {
		amount := json.Number(c.LastInvoiceAmount.Decimal.StringFixed(invoicedomain.AmountScale))
		resp.LastInvoiceAmount = &amount
	}
	return resp
}

func newCustomerResponses(items []customerdomain.Customer) []customerResponse {
	out := make([]customerResponse, 0, len(items))
	for _, item := range items {
		out = append(out, newCustomerResponse(item))
	}
	return out
}

func newInvoiceResponse(inv invoicedomain.Invoice) invoiceResponse {
	return invoiceResponse{
		ID:                 inv.ID,
		CustomerID:         inv.CustomerID,
		CustomerName:       inv.CustomerName(),
		ServiceDate:        formatTimestamp(inv.ServiceDate),
		IssueDate:          formatTimestamp(inv.IssueDate),
		DueDate:            formatOptionalTimestamp(inv.DueDate),
		Amount:             json.Number(inv.Amount.StringFixed(invoicedomain.AmountScale)),
		Status:             string(inv.Status),
		ServiceDescription: inv.ServiceDescription,
	}
}

func newInvoiceResponses(items []invoicedomain.Invoice) []invoiceResponse {
	out := make([]invoiceResponse, 0, len(items))
	for _, item := range items {
		out = append(out, newInvoiceResponse(item))
	}
	return out
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatOptionalTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	value := formatTimestamp(*t)
	return &value
}
