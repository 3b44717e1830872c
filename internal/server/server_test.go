package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/washcrm/internal/clock"
	"github.com/smallbiznis/washcrm/internal/config"
	customerdomain "github.com/smallbiznis/washcrm/internal/customer/domain"
	customerrepository "github.com/smallbiznis/washcrm/internal/customer/repository"
	customerservice "github.com/smallbiznis/washcrm/internal/customer/service"
	"github.com/smallbiznis/washcrm/internal/customerlock"
	invoicedomain "github.com/smallbiznis/washcrm/internal/invoice/domain"
	invoicerepository "github.com/smallbiznis/washcrm/internal/invoice/repository"
	invoiceservice "github.com/smallbiznis/washcrm/internal/invoice/service"
	"github.com/smallbiznis/washcrm/internal/observability"
	"github.com/smallbiznis/washcrm/internal/providers/pdf"
	"github.com/smallbiznis/washcrm/internal/view"
	"github.com/smallbiznis/washcrm/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

type testServer struct {
	engine *gin.Engine
	db     *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.Open(t, &customerdomain.Customer{}, &invoicedomain.Invoice{})
	log := zap.NewNop()
	fakeClock := clock.NewFakeClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	locker := customerlock.NewLocalLocker()
	customerRepo := customerrepository.Provide()
	business := config.NewStaticBusinessConfigHolder(config.DefaultBusinessConfig())

	customerSvc := customerservice.New(customerservice.Params{
		DB:     db,
		Log:    log,
		Clock:  fakeClock,
		Repo:   customerRepo,
		Locker: locker,
	})
	invoiceSvc := invoiceservice.NewService(invoiceservice.ServiceParam{
		DB:           db,
		Log:          log,
		Clock:        fakeClock,
		Repo:         invoicerepository.Provide(),
		CustomerRepo: customerRepo,
		Locker:       locker,
	})

	renderer, err := view.New(business)
	require.NoError(t, err)

	engine := NewEngine(observability.Config{}, nil, renderer)
	NewServer(ServerParams{
		Gin:         engine,
		Clock:       fakeClock,
		CustomerSvc: customerSvc,
		InvoiceSvc:  invoiceSvc,
		PDF:         pdf.New(pdf.Params{Business: business, Log: log}),
	})

	return &testServer{engine: engine, db: db}
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

func (ts *testServer) doJSON(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return ts.do(req)
}

func (ts *testServer) doForm(method, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	return ts.do(req)
}

func (ts *testServer) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, ts.db.Model(model).Count(&n).Error)
	return n
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (ts *testServer) createCustomer(t *testing.T, name string) customerResponse {
	t.Helper()
	w := ts.doJSON(t, http.MethodPost, "/customers/create", map[string]any{"name": name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[customerResponse](t, w)
}

func TestCreateCustomerWithoutNameIsRejected(t *testing.T) {
	ts := newTestServer(t)

	w := ts.doForm(http.MethodPost, "/customers/create", url.Values{"phone": {"555-0100"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	w = ts.doJSON(t, http.MethodPost, "/customers/create", map[string]any{"name": "   "})
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[errorResponse](t, w)
	assert.Equal(t, "validation_error", resp.Error.Type)
	require.Len(t, resp.Error.Errors, 1)
	assert.Equal(t, "name", resp.Error.Errors[0].Field)

	assert.Equal(t, int64(0), ts.count(t, &customerdomain.Customer{}))
}

func TestCreateCustomerFormRedirects(t *testing.T) {
	ts := newTestServer(t)

	w := ts.doForm(http.MethodPost, "/customers/create", url.Values{
		"name":          {"Jane Doe"},
		"service_units": {"14"},
		"email":         {""},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/customers", w.Header().Get("Location"))

	var stored customerdomain.Customer
	require.NoError(t, ts.db.First(&stored).Error)
	assert.Equal(t, "Jane Doe", stored.Name)
	require.NotNil(t, stored.ServiceUnits)
	assert.Equal(t, 14, *stored.ServiceUnits)
	assert.Nil(t, stored.Email)

	w = ts.doForm(http.MethodPost, "/customers/create", url.Values{"name": {"Bob"}, "service_units": {"many"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateInvoiceForMissingCustomer(t *testing.T) {
	ts := newTestServer(t)

	w := ts.doJSON(t, http.MethodPost, "/invoices/create", map[string]any{
		"customer_id": 999,
		"amount":      "10.00",
	})
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode[errorResponse](t, w).Error.Type)

	w = ts.doForm(http.MethodPost, "/invoices/create", url.Values{"customer_id": {"999"}, "amount": {"10"}})
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, int64(0), ts.count(t, &invoicedomain.Invoice{}))
}

func TestNotFoundRoutes(t *testing.T) {
	ts := newTestServer(t)

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodDelete, "/customers/999"},
		{http.MethodGet, "/customers/999"},
		{http.MethodGet, "/customers/abc"},
		{http.MethodGet, "/customers/999/invoices"},
		{http.MethodGet, "/invoices/999"},
		{http.MethodDelete, "/invoices/999"},
		{http.MethodGet, "/invoices/999/pdf"},
		{http.MethodGet, "/nope"},
	} {
		w := ts.doJSON(t, tc.method, tc.path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, "%s %s", tc.method, tc.path)
	}

	req := httptest.NewRequest(http.MethodGet, "/customers/999", nil)
	w := ts.do(req)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not found")
}

func TestUpdateRequiresJSON(t *testing.T) {
	ts := newTestServer(t)
	customer := ts.createCustomer(t, "Jane")
	path := "/customers/" + strconv.FormatInt(customer.ID, 10)

	w := ts.doForm(http.MethodPut, path, url.Values{"name": {"Janet"}})
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	w = ts.doJSON(t, http.MethodPut, path, map[string]any{"name": "Janet", "phone": "555"})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[customerResponse](t, w)
	assert.Equal(t, "Janet", updated.Name)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, "555", *updated.Phone)
}

func TestInvoiceLifecycleOverJSON(t *testing.T) {
	ts := newTestServer(t)
	jane := ts.createCustomer(t, "Jane Doe")

	w := ts.doJSON(t, http.MethodPost, "/invoices/create", map[string]any{
		"customer_id":         jane.ID,
		"amount":              100,
		"status":              "paid",
		"service_date":        "2025-01-01",
		"due_date":            "2025-01-31T00:00:00Z",
		"service_description": "front windows",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode[invoiceResponse](t, w)
	assert.Equal(t, "Jane Doe", first.CustomerName)
	assert.Equal(t, "2025-01-01T00:00:00Z", first.ServiceDate)
	assert.Equal(t, "2025-06-01T09:00:00Z", first.IssueDate)
	assert.Equal(t, json.Number("100.00"), first.Amount)

	w = ts.doJSON(t, http.MethodPost, "/invoices/create", map[string]any{
		"customer_id":  jane.ID,
		"amount":       "200",
		"service_date": "2024-01-01T10:30:00",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	second := decode[invoiceResponse](t, w)
	assert.Equal(t, "draft", second.Status)
	assert.Nil(t, second.DueDate)

	customerPath := "/customers/" + strconv.FormatInt(jane.ID, 10)
	got := decode[customerResponse](t, ts.doJSON(t, http.MethodGet, customerPath, nil))
	require.NotNil(t, got.LastInvoiceID)
	assert.Equal(t, second.ID, *got.LastInvoiceID)
	require.NotNil(t, got.LastInvoiceAmount)
	assert.Equal(t, json.Number("200.00"), *got.LastInvoiceAmount)

	w = ts.doJSON(t, http.MethodPut, "/invoices/"+strconv.FormatInt(first.ID, 10), map[string]any{"due_date": nil})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Nil(t, decode[invoiceResponse](t, w).DueDate)

	w = ts.doJSON(t, http.MethodDelete, "/invoices/"+strconv.FormatInt(second.ID, 10), nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	got = decode[customerResponse](t, ts.doJSON(t, http.MethodGet, customerPath, nil))
	require.NotNil(t, got.LastInvoiceID)
	assert.Equal(t, first.ID, *got.LastInvoiceID)

	invoices := decode[[]invoiceResponse](t, ts.doJSON(t, http.MethodGet, customerPath+"/invoices", nil))
	require.Len(t, invoices, 1)

	w = ts.doJSON(t, http.MethodDelete, customerPath, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, int64(0), ts.count(t, &invoicedomain.Invoice{}))
}

func TestInvoiceValidation(t *testing.T) {
	ts := newTestServer(t)
	jane := ts.createCustomer(t, "Jane")

	for _, body := range []map[string]any{
		{"customer_id": jane.ID},
		{"customer_id": jane.ID, "amount": -1},
		{"customer_id": jane.ID, "amount": 5, "status": "void"},
		{"customer_id": jane.ID, "amount": 5, "service_date": "yesterday"},
		{"amount": 5},
		{"customer_id": jane.ID, "amount": "10000000000"},
	} {
		w := ts.doJSON(t, http.MethodPost, "/invoices/create", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "%v", body)
	}
	assert.Equal(t, int64(0), ts.count(t, &invoicedomain.Invoice{}))
}

func TestInvoiceBlankServiceDateDefaultsToNow(t *testing.T) {
	ts := newTestServer(t)
	jane := ts.createCustomer(t, "Jane")

	w := ts.doJSON(t, http.MethodPost, "/invoices/create", map[string]any{
		"customer_id":  jane.ID,
		"amount":       10,
		"service_date": "",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "2025-06-01T09:00:00Z", decode[invoiceResponse](t, w).ServiceDate)

	w = ts.doForm(http.MethodPost, "/invoices/create", url.Values{
		"customer_id":  {strconv.FormatInt(jane.ID, 10)},
		"amount":       {"10"},
		"service_date": {""},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var stored []invoicedomain.Invoice
	require.NoError(t, ts.db.Find(&stored).Error)
	require.Len(t, stored, 2)
	for _, inv := range stored {
		assert.True(t, time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC).Equal(inv.ServiceDate))
	}
}

func TestUpdateOfOlderInvoiceKeepsSummaryOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	jane := ts.createCustomer(t, "Jane")

	create := func(date string) invoiceResponse {
		w := ts.doJSON(t, http.MethodPost, "/invoices/create", map[string]any{
			"customer_id":  jane.ID,
			"amount":       10,
			"service_date": date,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		return decode[invoiceResponse](t, w)
	}
	create("2025-01-01")
	oldest := create("2023-01-01")
	middle := create("2024-01-01")

	customerPath := "/customers/" + strconv.FormatInt(jane.ID, 10)
	before := decode[customerResponse](t, ts.doJSON(t, http.MethodGet, customerPath, nil))
	require.NotNil(t, before.LastInvoiceID)
	require.Equal(t, middle.ID, *before.LastInvoiceID)

	w := ts.doJSON(t, http.MethodPut, "/invoices/"+strconv.FormatInt(oldest.ID, 10), map[string]any{"status": "sent"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	after := decode[customerResponse](t, ts.doJSON(t, http.MethodGet, customerPath, nil))
	require.NotNil(t, after.LastInvoiceID)
	assert.Equal(t, middle.ID, *after.LastInvoiceID)
}

func TestRequestLogCarriesHandlerIDs(t *testing.T) {
	ts := newTestServer(t)
	jane := ts.createCustomer(t, "Jane")
	w := ts.doJSON(t, http.MethodPost, "/invoices/create", map[string]any{
		"customer_id":  jane.ID,
		"amount":       25,
		"service_date": "2025-03-01",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[invoiceResponse](t, w)

	core, logs := observer.New(zapcore.DebugLevel)
	orig := zap.L()
	zap.ReplaceGlobals(zap.New(core))
	defer zap.ReplaceGlobals(orig)

	w = ts.doJSON(t, http.MethodGet, "/invoices/"+strconv.FormatInt(created.ID, 10), nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = ts.do(httptest.NewRequest(http.MethodGet, "/invoices/"+strconv.FormatInt(created.ID, 10)+"/pdf", nil))
	require.Equal(t, http.StatusOK, w.Code)

	entries := logs.FilterMessage("http_request").All()
	require.Len(t, entries, 2)
	byRoute := map[string]map[string]any{}
	for _, entry := range entries {
		fields := entry.ContextMap()
		byRoute[fields["route"].(string)] = fields
	}

	show := byRoute["/invoices/:id"]
	require.NotNil(t, show)
	assert.Equal(t, created.ID, show["invoice_id"])
	assert.Equal(t, jane.ID, show["customer_id"])
	assert.Equal(t, "json", show["format"])

	doc := byRoute["/invoices/:id/pdf"]
	require.NotNil(t, doc)
	assert.Equal(t, "pdf", doc["format"])
	assert.Equal(t, jane.ID, doc["customer_id"])
}

func TestHTMLPages(t *testing.T) {
	ts := newTestServer(t)
	jane := ts.createCustomer(t, "Jane Doe")

	w := ts.doForm(http.MethodPost, "/invoices/create", url.Values{
		"customer_id":  {strconv.FormatInt(jane.ID, 10)},
		"amount":       {"42.5"},
		"service_date": {"2025-03-01"},
		"due_date":     {""},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "$42.50")

	for _, path := range []string{"/", "/customers", "/customers/create", "/invoices", "/invoices/create", "/invoices/1", "/customers/1", "/customers/1/invoices"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")
		w := ts.do(req)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html", path)
	}

	req := httptest.NewRequest(http.MethodGet, "/customers/1/invoices", nil)
	w = ts.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<h1>Jane Doe - invoices</h1>")

	req = httptest.NewRequest(http.MethodGet, "/invoices/1/pdf", nil)
	w = ts.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
}

func TestListInvoicesFilters(t *testing.T) {
	ts := newTestServer(t)
	jane := ts.createCustomer(t, "Jane")
	for _, date := range []string{"2024-05-01", "2025-05-01"} {
		w := ts.doJSON(t, http.MethodPost, "/invoices/create", map[string]any{
			"customer_id":  jane.ID,
			"amount":       10,
			"service_date": date,
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	items := decode[[]invoiceResponse](t, ts.doJSON(t, http.MethodGet, "/invoices?service_date_to=2024-05-01", nil))
	require.Len(t, items, 1)
	assert.Equal(t, "2024-05-01T00:00:00Z", items[0].ServiceDate)

	items = decode[[]invoiceResponse](t, ts.doJSON(t, http.MethodGet, "/invoices?status=draft", nil))
	assert.Len(t, items, 2)

	w := ts.doJSON(t, http.MethodGet, "/invoices?status=void", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	items = decode[[]invoiceResponse](t, ts.doJSON(t, http.MethodGet, "/invoices?sort_by=service_date&order_by=desc", nil))
	require.Len(t, items, 2)
	assert.Equal(t, "2025-05-01T00:00:00Z", items[0].ServiceDate)

	w = ts.doJSON(t, http.MethodGet, "/invoices?sort_by=password", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvoiceJSONRoundTrip(t *testing.T) {
	due := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	original := invoicedomain.Invoice{
		ID:                 5,
		CustomerID:         3,
		ServiceDate:        time.Date(2025, 1, 15, 8, 30, 0, 0, time.UTC),
		IssueDate:          time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC),
		DueDate:            &due,
		Amount:             decimal.RequireFromString("123.40"),
		Status:             invoicedomain.InvoiceStatusSent,
		ServiceDescription: "gutters and windows",
	}

	raw, err := json.Marshal(newInvoiceResponse(original))
	require.NoError(t, err)

	var body invoiceJSONBody
	require.NoError(t, json.Unmarshal(raw, &body))
	in, err := body.input()
	require.NoError(t, err)
	req := in.createRequest()

	assert.Equal(t, original.CustomerID, req.CustomerID)
	require.NotNil(t, req.ServiceDate)
	assert.True(t, original.ServiceDate.Equal(*req.ServiceDate))
	require.NotNil(t, req.DueDate)
	assert.True(t, due.Equal(*req.DueDate))
	require.NotNil(t, req.Amount)
	assert.True(t, original.Amount.Equal(*req.Amount))
	assert.Equal(t, string(original.Status), req.Status)
	assert.Equal(t, original.ServiceDescription, req.ServiceDescription)
}

func TestWantsJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		accept      string
		contentType string
		want        bool
	}{
		{"", "", false},
		{"application/json", "", true},
		{"text/html", "", false},
		{"text/html,application/xhtml+xml,*/*;q=0.8", "", false},
		{"", "application/json", true},
		{"", "application/x-www-form-urlencoded", false},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.accept != "" {
			c.Request.Header.Set("Accept", tc.accept)
		}
		if tc.contentType != "" {
			c.Request.Header.Set("Content-Type", tc.contentType)
		}
		assert.Equal(t, tc.want, wantsJSON(c), "accept=%q content-type=%q", tc.accept, tc.contentType)
	}
}
