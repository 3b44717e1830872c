package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/washcrm/internal/invoice/domain"
	"github.com/smallbiznis/washcrm/internal/view"
)

func (s *Server) ListInvoices(c *gin.Context) {
	var query struct {
		Status          string `form:"status"`
		ServiceDateFrom string `form:"service_date_from"`
		ServiceDateTo   string `form:"service_date_to"`
		SortBy          string `form:"sort_by"`
		OrderBy         string `form:"order_by"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := invoicedomain.ListInvoiceRequest{
		SortBy:  query.SortBy,
		OrderBy: query.OrderBy,
	}
	if status := strings.TrimSpace(query.Status); status != "" {
		parsed, err := invoicedomain.ParseStatus(status)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		req.Status = &parsed
	}

	from, err := parseOptionalTime(query.ServiceDateFrom, false)
	if err != nil {
		AbortWithError(c, newValidationError("service_date_from", "invalid_service_date_from", "invalid service_date_from"))
		return
	}
	to, err := parseOptionalTime(query.ServiceDateTo, true)
	if err != nil {
		AbortWithError(c, newValidationError("service_date_to", "invalid_service_date_to", "invalid service_date_to"))
		return
	}
	req.ServiceDateFrom = from
	req.ServiceDateTo = to

	items, err := s.invoiceSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if wantsJSON(c) {
		c.JSON(http.StatusOK, newInvoiceResponses(items))
		return
	}
	c.HTML(http.StatusOK, view.InvoiceList, view.Page{Title: "Invoices", Data: items})
}

func (s *Server) NewInvoiceForm(c *gin.Context) {
	customers, err := s.customerSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	data := view.InvoiceFormData{
		Customers: customers,
		Today:     s.clock.Now().UTC().Format(dateOnlyLayout),
	}
	if selected, err := strconv.ParseInt(c.Query("customer_id"), 10, 64); err == nil {
		data.SelectedCustomerID = selected
	}
	c.HTML(http.StatusOK, view.InvoiceCreate, view.Page{Title: "New invoice", Data: data})
}

func (s *Server) CreateInvoice(c *gin.Context) {
	in, err := bindInvoiceInput(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	req := in.createRequest()
	tagCustomer(c, req.CustomerID)
	ctx := c.Request.Context()
	item, err := s.invoiceSvc.Create(ctx, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	tagInvoice(c, item.ID)

	if wantsJSON(c) {
		c.JSON(http.StatusCreated, newInvoiceResponse(item))
		return
	}

	items, err := s.invoiceSvc.List(ctx, invoicedomain.ListInvoiceRequest{})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.HTML(http.StatusCreated, view.InvoiceList, view.Page{Title: "Invoices", Data: items})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	tagInvoice(c, id)

	item, err := s.invoiceSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	tagCustomer(c, item.CustomerID)

	if wantsJSON(c) {
		c.JSON(http.StatusOK, newInvoiceResponse(item))
		return
	}
	c.HTML(http.StatusOK, view.InvoiceView, view.Page{Title: "Invoice", Data: item})
}

func (s *Server) UpdateInvoice(c *gin.Context) {
	if !wantsJSON(c) || isFormRequest(c) {
		AbortWithError(c, ErrUnsupportedMediaType)
		return
	}

	id, err := parseID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	tagInvoice(c, id)

	in, err := bindInvoiceInput(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.invoiceSvc.Update(c.Request.Context(), id, in.updateRequest())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	tagCustomer(c, item.CustomerID)

	c.JSON(http.StatusOK, newInvoiceResponse(item))
}

func (s *Server) DeleteInvoice(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	tagInvoice(c, id)

	if err := s.invoiceSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) RenderInvoicePDF(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	tagInvoice(c, id)

	setFormat(c, formatPDF)
	ctx := c.Request.Context()
	item, err := s.invoiceSvc.GetByID(ctx, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	tagCustomer(c, item.CustomerID)

	doc, err := s.pdf.Render(ctx, item)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", "inline; filename=invoice-"+strconv.FormatInt(item.ID, 10)+".pdf")
	c.Data(http.StatusOK, "application/pdf", doc)
}
