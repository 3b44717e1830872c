package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	obscontext "github.com/smallbiznis/washcrm/internal/observability/context"
)

const (
	formatJSON = "json"
	formatHTML = "html"
	formatPDF  = "pdf"
)

// ResponseFormat records the negotiated representation on the request scope
// so handlers, logging, tracing and metrics agree on it.
func ResponseFormat() gin.HandlerFunc {
	return func(c *gin.Context) {
		format := formatHTML
		if negotiateJSON(c) {
			format = formatJSON
		}
		setFormat(c, format)
		c.Next()
	}
}

// wantsJSON reports whether the caller asked for the structured
// representation: either the Accept header or the request body is JSON.
func wantsJSON(c *gin.Context) bool {
	if format := obscontext.ScopeFrom(c.Request.Context()).Format; format != "" {
		return format == formatJSON
	}
	return negotiateJSON(c)
}

func setFormat(c *gin.Context, format string) {
	c.Request = c.Request.WithContext(obscontext.WithFormat(c.Request.Context(), format))
}

// tagCustomer and tagInvoice put the ids a handler works on into the request
// scope, where the request log line and span pick them up.
func tagCustomer(c *gin.Context, id int64) {
	c.Request = c.Request.WithContext(obscontext.WithCustomerID(c.Request.Context(), id))
}

func tagInvoice(c *gin.Context, id int64) {
	c.Request = c.Request.WithContext(obscontext.WithInvoiceID(c.Request.Context(), id))
}

func negotiateJSON(c *gin.Context) bool {
	if c.ContentType() == binding.MIMEJSON {
		return true
	}
	if strings.TrimSpace(c.GetHeader("Accept")) == "" {
		return false
	}
	return c.NegotiateFormat(binding.MIMEHTML, binding.MIMEJSON) == binding.MIMEJSON
}

// isFormRequest reports whether the body is form encoded.
func isFormRequest(c *gin.Context) bool {
	switch c.ContentType() {
	case binding.MIMEPOSTForm, binding.MIMEMultipartPOSTForm:
		return true
	default:
		return false
	}
}
