package httpapi

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/library-circulation-go/circulation/analytics/recommend"
	"github.com/AntonStoeckl/library-circulation-go/circulation/catalog"
	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
	"github.com/AntonStoeckl/library-circulation-go/circulation/desk"
	"github.com/AntonStoeckl/library-circulation-go/circulation/features/query/dashboardstats"
	"github.com/AntonStoeckl/library-circulation-go/circulation/features/query/demandforecast"
	"github.com/AntonStoeckl/library-circulation-go/circulation/features/query/overduereport"
	"github.com/AntonStoeckl/library-circulation-go/circulation/features/query/overduerisk"
	"github.com/AntonStoeckl/library-circulation-go/circulation/shell"
)

const (
	appName         = "circulationd"
	logAttrMethod   = "method"
	logAttrPath     = "path"
	logAttrStatus   = "http_status"
	logAttrDuration = "duration_ms"
)

// Desk is the circulation surface served over HTTP, implemented by *desk.Desk.
type Desk interface {
	Borrow(ctx context.Context, caller catalog.Patron, titleID string, loanPeriodDays int) (desk.BorrowReceipt, error)
	Return(ctx context.Context, caller catalog.Patron, loanID string) (desk.ReturnReceipt, error)
	MyLoans(ctx context.Context, caller catalog.Patron) ([]core.LoanView, error)
	LoanHistory(ctx context.Context, caller catalog.Patron) ([]core.LoanView, error)
	AllLoans(ctx context.Context, caller catalog.Patron) ([]core.LoanView, error)
	OverdueReport(ctx context.Context, caller catalog.Patron) (overduereport.Report, error)
	DashboardStats(ctx context.Context, caller catalog.Patron) (dashboardstats.Stats, error)
	Recommendations(ctx context.Context, caller catalog.Patron, patronID uuid.UUID, limit int) ([]recommend.Recommendation, error)
	DemandForecast(ctx context.Context, caller catalog.Patron) (demandforecast.DemandForecast, error)
	OverdueRisk(ctx context.Context, caller catalog.Patron) (overduerisk.OverdueRisk, error)
}

type server struct {
	desk             Desk
	resolver         JWTPatronResolver
	validate         *validator.Validate
	metricsHandler   http.Handler
	logger           shell.Logger
	contextualLogger shell.ContextualLogger
}

// Option configures the app built by NewApp.
type Option func(*server)

// WithMetricsHandler serves handler on GET /metrics, typically promhttp.HandlerFor(registry, ...).
func WithMetricsHandler(handler http.Handler) Option {
	return func(s *server) {
		s.metricsHandler = handler
	}
}

// WithLogging logs every request at info level and unexpected failures at error level.
func WithLogging(logger shell.Logger) Option {
	return func(s *server) {
		s.logger = logger
	}
}

// WithContextualLogging is like WithLogging but passes the request context to the logger.
func WithContextualLogging(logger shell.ContextualLogger) Option {
	return func(s *server) {
		s.contextualLogger = logger
	}
}

// NewApp builds the fiber app serving d. Every /api route requires a credential accepted by resolver.
func NewApp(d Desk, resolver JWTPatronResolver, options ...Option) *fiber.App {
	s := &server{
		desk:     d,
		resolver: resolver,
		validate: validator.New(),
	}

	s.validate.RegisterTagNameFunc(jsonFieldName)

	for _, option := range options {
		option(s)
	}

	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
		JSONEncoder:           jsoniter.ConfigCompatibleWithStandardLibrary.Marshal,
		JSONDecoder:           jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal,
	})

	app.Use(s.logRequest)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	if s.metricsHandler != nil {
		app.Get("/metrics", adaptor.HTTPHandler(s.metricsHandler))
	}

	api := app.Group("/api", authenticate(resolver))
	api.Post("/borrow", s.borrow)
	api.Post("/return", s.returnLoan)
	api.Get("/loans", s.myLoans)
	api.Get("/loans/history", s.loanHistory)
	api.Get("/loans/all", s.allLoans)
	api.Get("/overdue", s.overdueReport)
	api.Get("/dashboard/stats", s.dashboardStats)
	api.Get("/recommendations/:patron_id", s.recommendations)
	api.Get("/analytics/demand-forecast", s.demandForecast)
	api.Get("/analytics/overdue-predictions", s.overduePredictions)

	return app
}

func (s *server) logRequest(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		status = statusOf(err)
	}

	shell.LogInfo(
		c.UserContext(),
		s.logger,
		s.contextualLogger,
		"request handled",
		logAttrMethod, c.Method(),
		logAttrPath, c.Path(),
		logAttrStatus, status,
		logAttrDuration, shell.ToMilliseconds(time.Since(start)),
	)

	return err
}

func (s *server) logError(c *fiber.Ctx, msg string, err error) {
	shell.LogError(
		c.UserContext(),
		s.logger,
		s.contextualLogger,
		msg,
		logAttrMethod, c.Method(),
		logAttrPath, c.Path(),
		shell.LogAttrError, err.Error(),
	)
}

func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}

	return name
}

// bind decodes the JSON body into req and validates its struct tags.
func (s *server) bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return invalidRequest(err)
	}

	if err := s.validate.Struct(req); err != nil {
		return invalidRequest(err)
	}

	return nil
}
