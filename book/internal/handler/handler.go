package handler

import (
	"net/http"

	"github.com/Astemirdum/book-service/pkg/metrics"
	md "github.com/Astemirdum/book-service/pkg/middleware"
	"github.com/Astemirdum/book-service/pkg/validate"
	_ "github.com/Astemirdum/book-service/swagger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const apiBasePath = "/api/v1/book"

type Handler struct {
	bookSvc   BookService
	log       *zap.Logger
	metrics   *metrics.Metrics
	metricsAt string
	apiRPS    rate.Limit
	assetsDir string
}

type Option func(*Handler)

// WithMetrics exposes m at path and records every request into it.
func WithMetrics(m *metrics.Metrics, path string) Option {
	return func(h *Handler) {
		h.metrics = m
		h.metricsAt = path
	}
}

func WithRateLimit(rps float64) Option {
	return func(h *Handler) { h.apiRPS = rate.Limit(rps) }
}

func WithAssetsDir(dir string) Option {
	return func(h *Handler) { h.assetsDir = dir }
}

func New(bookSvc BookService, log *zap.Logger, opts ...Option) *Handler {
	h := &Handler{
		bookSvc: bookSvc,
		log:     log.Named("handler"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewRouter assembles the request pipeline. Error-shape normalization is the
// echo HTTPErrorHandler, which sees every error any middleware returns.
func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = h.HTTPErrorHandler
	e.Validator = validate.NewCustomValidator()

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(md.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)))
	if h.metrics != nil {
		e.Use(h.metrics.Middleware())
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPost, http.MethodDelete},
	}))

	e.GET("/manage/health", h.Health)
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	if h.metrics != nil {
		e.GET(h.metricsAt, h.metrics.Handler())
	}

	// route-level middleware: group middleware would register catch-all
	// routes that turn 405 into 404
	limiter := md.NewRateLimiter(h.apiRPS)
	api := e.Group(apiBasePath)
	for _, p := range []string{"", "/"} {
		api.POST(p, h.CreateBook, limiter)
		api.GET(p, h.GetBooks, limiter)
	}
	api.GET("/:id", h.GetBook, limiter)
	api.PUT("/:id", h.UpdateBook, limiter)
	api.DELETE("/:id", h.DeleteBook, limiter)

	if h.assetsDir != "" {
		e.Static("/", h.assetsDir)
	}

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}
