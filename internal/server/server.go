package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/washcrm/internal/clock"
	"github.com/smallbiznis/washcrm/internal/config"
	"github.com/smallbiznis/washcrm/internal/customer"
	customerdomain "github.com/smallbiznis/washcrm/internal/customer/domain"
	"github.com/smallbiznis/washcrm/internal/customerlock"
	"github.com/smallbiznis/washcrm/internal/invoice"
	invoicedomain "github.com/smallbiznis/washcrm/internal/invoice/domain"
	"github.com/smallbiznis/washcrm/internal/observability"
	obsmiddleware "github.com/smallbiznis/washcrm/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/washcrm/internal/observability/metrics"
	obstracing "github.com/smallbiznis/washcrm/internal/observability/tracing"
	"github.com/smallbiznis/washcrm/internal/providers/pdf"
	"github.com/smallbiznis/washcrm/internal/view"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	clock.Module,
	customerlock.Module,
	customer.Module,
	invoice.Module,
	pdf.Module,
	view.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics, renderer *view.Renderer) *gin.Engine {
	r := gin.New()
	r.HTMLRender = renderer
	r.Use(gin.Recovery())
	r.Use(ResponseFormat())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type ginParams struct {
	fx.In

	ObsCfg      observability.Config
	HTTPMetrics *obsmetrics.HTTPMetrics `optional:"true"`
	Renderer    *view.Renderer
}

func registerGin(p ginParams) *gin.Engine {
	return NewEngine(p.ObsCfg, p.HTTPMetrics, p.Renderer)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	clock       clock.Clock
	customerSvc customerdomain.Service
	invoiceSvc  invoicedomain.Service
	pdf         pdf.Provider
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Clock       clock.Clock
	CustomerSvc customerdomain.Service
	InvoiceSvc  invoicedomain.Service
	PDF         pdf.Provider
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		clock:       p.Clock,
		customerSvc: p.CustomerSvc,
		invoiceSvc:  p.InvoiceSvc,
		pdf:         p.PDF,
	}

	svc.registerRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerRoutes() {
	s.engine.GET("/", s.Home)

	customers := s.engine.Group("/customers")
	{
		customers.GET("", s.ListCustomers)
		customers.GET("/create", s.NewCustomerForm)
		customers.POST("/create", s.CreateCustomer)
		customers.GET("/:id", s.GetCustomerByID)
		customers.PUT("/:id", s.UpdateCustomer)
		customers.DELETE("/:id", s.DeleteCustomer)
		customers.GET("/:id/invoices", s.ListCustomerInvoices)
	}

	invoices := s.engine.Group("/invoices")
	{
		invoices.GET("", s.ListInvoices)
		invoices.GET("/create", s.NewInvoiceForm)
		invoices.POST("/create", s.CreateInvoice)
		invoices.GET("/:id", s.GetInvoiceByID)
		invoices.PUT("/:id", s.UpdateInvoice)
		invoices.DELETE("/:id", s.DeleteInvoice)
		invoices.GET("/:id/pdf", s.RenderInvoicePDF)
	}
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}

func (s *Server) Home(c *gin.Context) {
	ctx := c.Request.Context()

	customers, err := s.customerSvc.List(ctx)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	invoices, err := s.invoiceSvc.List(ctx, invoicedomain.ListInvoiceRequest{})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"customers": len(customers), "invoices": len(invoices)})
		return
	}
	c.HTML(http.StatusOK, view.Home, view.Page{
		Title: "Overview",
		Data:  view.HomeData{Customers: len(customers), Invoices: len(invoices)},
	})
}
