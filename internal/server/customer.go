package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/washcrm/internal/view"
)

func (s *Server) ListCustomers(c *gin.Context) {
	items, err := s.customerSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if wantsJSON(c) {
		c.JSON(http.StatusOK, newCustomerResponses(items))
		return
	}
	c.HTML(http.StatusOK, view.CustomerList, view.Page{Title: "Customers", Data: items})
}

func (s *Server) NewCustomerForm(c *gin.Context) {
	c.HTML(http.StatusOK, view.CustomerCreate, view.Page{Title: "New customer"})
}

func (s *Server) CreateCustomer(c *gin.Context) {
	in, err := bindCustomerInput(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.customerSvc.Create(c.Request.Context(), in.createRequest())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	tagCustomer(c, item.ID)
	if wantsJSON(c) {
		c.JSON(http.StatusCreated, newCustomerResponse(item))
		return
	}
	c.Redirect(http.StatusSeeOther, "/customers")
}

func (s *Server) GetCustomerByID(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	tagCustomer(c, id)

	item, err := s.customerSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if wantsJSON(c) {
		c.JSON(http.StatusOK, newCustomerResponse(item))
		return
	}
	c.HTML(http.StatusOK, view.CustomerView, view.Page{Title: item.Name, Data: item})
}

func (s *Server) UpdateCustomer(c *gin.Context) {
	if !wantsJSON(c) || isFormRequest(c) {
		AbortWithError(c, ErrUnsupportedMediaType)
		return
	}

	id, err := parseID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	tagCustomer(c, id)

	in, err := bindCustomerInput(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	item, err := s.customerSvc.Update(c.Request.Context(), id, in.updateRequest())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newCustomerResponse(item))
}

func (s *Server) DeleteCustomer(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	tagCustomer(c, id)

	if err := s.customerSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ListCustomerInvoices(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	tagCustomer(c, id)

	ctx := c.Request.Context()
	customer, err := s.customerSvc.GetByID(ctx, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	items, err := s.invoiceSvc.ListForCustomer(ctx, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if wantsJSON(c) {
		c.JSON(http.StatusOK, newInvoiceResponses(items))
		return
	}
	c.HTML(http.StatusOK, view.CustomerInvoices, view.Page{
		Title: customer.Name + " - invoices",
		Data:  view.CustomerInvoicesData{Customer: customer, Invoices: items},
	})
}
