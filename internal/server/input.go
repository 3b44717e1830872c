package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	customerdomain "github.com/smallbiznis/washcrm/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/washcrm/internal/invoice/domain"
)

const dateOnlyLayout = "2006-01-02"

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	dateOnlyLayout,
}

func parseOptionalInt64(value string) (*int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseOptionalInt(value string) (*int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseOptionalDecimal(value string) (*decimal.Decimal, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := decimal.NewFromString(trimmed)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// parseOptionalTime accepts RFC3339 and zone-less local forms, the latter read as UTC.
func parseOptionalTime(value string, endOfDay bool) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	for _, layout := range timeLayouts {
		parsed, err := time.Parse(layout, trimmed)
		if err != nil {
			continue
		}
		if layout == dateOnlyLayout && endOfDay {
			parsed = parsed.Add(24*time.Hour - time.Nanosecond)
		}
		parsed = parsed.UTC()
		return &parsed, nil
	}
	return nil, errors.New("invalid_time")
}

func parseID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrNotFound
	}
	return id, nil
}

// customerInput is the typed body for customer create and update, built from
// either a JSON or a form-encoded request.
type customerInput struct {
	Name         *string `json:"name"`
	Phone        *string `json:"phone"`
	Email        *string `json:"email"`
	Address      *string `json:"address"`
	BuildingType *string `json:"building_type"`
	ServiceUnits *int    `json:"service_units"`
	Notes        *string `json:"notes"`
}

func bindCustomerInput(c *gin.Context) (customerInput, error) {
	var in customerInput
	if !isFormRequest(c) {
		if err := c.ShouldBindJSON(&in); err != nil {
			return customerInput{}, invalidRequestError()
		}
		return in, nil
	}

	in.Name = postFormValue(c, "name")
	in.Phone = postFormValue(c, "phone")
	in.Email = postFormValue(c, "email")
	in.Address = postFormValue(c, "address")
	in.BuildingType = postFormValue(c, "building_type")
	in.Notes = postFormValue(c, "notes")
	if raw := postFormValue(c, "service_units"); raw != nil {
		units, err := parseOptionalInt(*raw)
		if err != nil {
			return customerInput{}, newValidationError("service_units", "invalid_service_units", "service_units must be a whole number")
		}
		in.ServiceUnits = units
	}
	return in, nil
}

func (in customerInput) createRequest() customerdomain.CreateCustomerRequest {
	req := customerdomain.CreateCustomerRequest{
		Phone:        in.Phone,
		Email:        in.Email,
		Address:      in.Address,
		BuildingType: in.BuildingType,
		ServiceUnits: in.ServiceUnits,
		Notes:        in.Notes,
	}
	if in.Name != nil {
		req.Name = *in.Name
	}
	return req
}

func (in customerInput) updateRequest() customerdomain.UpdateCustomerRequest {
	return customerdomain.UpdateCustomerRequest{
		Name:         in.Name,
		Phone:        in.Phone,
		Email:        in.Email,
		Address:      in.Address,
		BuildingType: in.BuildingType,
		ServiceUnits: in.ServiceUnits,
		Notes:        in.Notes,
	}
}

// invoiceInput is the typed body for invoice create and update. A due date
// sent as JSON null sets ClearDueDate.
type invoiceInput struct {
	CustomerID         *int64
	ServiceDate        *time.Time
	DueDate            *time.Time
	ClearDueDate       bool
	Amount             *decimal.Decimal
	Status             *string
	ServiceDescription *string
}

type invoiceJSONBody struct {
	CustomerID         *int64           `json:"customer_id"`
	ServiceDate        *string          `json:"service_date"`
	DueDate            json.RawMessage  `json:"due_date"`
	Amount             *decimal.Decimal `json:"amount"`
	Status             *string          `json:"status"`
	ServiceDescription *string          `json:"service_description"`
}

func bindInvoiceInput(c *gin.Context) (invoiceInput, error) {
	if isFormRequest(c) {
		return invoiceInputFromForm(c)
	}

	var body invoiceJSONBody
	if err := c.ShouldBindJSON(&body); err != nil {
		return invoiceInput{}, invalidRequestError()
	}
	return body.input()
}

func (body invoiceJSONBody) input() (invoiceInput, error) {
	in := invoiceInput{
		CustomerID:         body.CustomerID,
		Amount:             body.Amount,
		Status:             body.Status,
		ServiceDescription: body.ServiceDescription,
	}

	// a blank service_date is absent, as it is for forms
	if body.ServiceDate != nil {
		serviceDate, err := parseOptionalTime(*body.ServiceDate, false)
		if err != nil {
			return invoiceInput{}, newValidationError("service_date", "invalid_service_date", "invalid service_date")
		}
		in.ServiceDate = serviceDate
	}

	raw := bytes.TrimSpace(body.DueDate)
	switch {
	case len(raw) == 0:
	case bytes.Equal(raw, []byte("null")):
		in.ClearDueDate = true
	default:
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			return invoiceInput{}, newValidationError("due_date", "invalid_due_date", "invalid due_date")
		}
		dueDate, err := parseOptionalTime(value, false)
		if err != nil {
			return invoiceInput{}, newValidationError("due_date", "invalid_due_date", "invalid due_date")
		}
		if dueDate == nil {
			in.ClearDueDate = true
		}
		in.DueDate = dueDate
	}
	return in, nil
}

func invoiceInputFromForm(c *gin.Context) (invoiceInput, error) {
	var in invoiceInput

	if raw := postFormValue(c, "customer_id"); raw != nil {
		id, err := parseOptionalInt64(*raw)
		if err != nil {
			return invoiceInput{}, newValidationError("customer_id", "invalid_customer_id", "customer_id must be a number")
		}
		in.CustomerID = id
	}
	if raw := postFormValue(c, "service_date"); raw != nil {
		serviceDate, err := parseOptionalTime(*raw, false)
		if err != nil {
			return invoiceInput{}, newValidationError("service_date", "invalid_service_date", "invalid service_date")
		}
		in.ServiceDate = serviceDate
	}
	if raw := postFormValue(c, "due_date"); raw != nil {
		dueDate, err := parseOptionalTime(*raw, false)
		if err != nil {
			return invoiceInput{}, newValidationError("due_date", "invalid_due_date", "invalid due_date")
		}
		in.DueDate = dueDate
	}
	if raw := postFormValue(c, "amount"); raw != nil {
		amount, err := parseOptionalDecimal(*raw)
		if err != nil {
			return invoiceInput{}, newValidationError("amount", "invalid_amount", "amount must be a number")
		}
		in.Amount = amount
	}
	in.Status = postFormValue(c, "status")
	in.ServiceDescription = postFormValue(c, "service_description")
	return in, nil
}

func (in invoiceInput) createRequest() invoicedomain.CreateInvoiceRequest {
	req := invoicedomain.CreateInvoiceRequest{
		ServiceDate: in.ServiceDate,
		DueDate:     in.DueDate,
		Amount:      in.Amount,
	}
	if in.CustomerID != nil {
		req.CustomerID = *in.CustomerID
	}
	if in.Status != nil {
		req.Status = *in.Status
	}
	if in.ServiceDescription != nil {
		req.ServiceDescription = *in.ServiceDescription
	}
	return req
}

func (in invoiceInput) updateRequest() invoicedomain.UpdateInvoiceRequest {
	return invoicedomain.UpdateInvoiceRequest{
		CustomerID:         in.CustomerID,
		ServiceDate:        in.ServiceDate,
		DueDate:            in.DueDate,
		ClearDueDate:       in.ClearDueDate,
		Amount:             in.Amount,
		Status:             in.Status,
		ServiceDescription: in.ServiceDescription,
	}
}

// postFormValue returns nil when the key is absent from the form.
func postFormValue(c *gin.Context, key string) *string {
	value, ok := c.GetPostForm(key)
	if !ok {
		return nil
	}
	return &value
}
