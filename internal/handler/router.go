package handler

import (
	"net/http"
	"time"

	"github.com/bfcgroup/portal-api-go/internal/domain"
	"github.com/bfcgroup/portal-api-go/internal/infra/observability"
	"github.com/bfcgroup/portal-api-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Deps bundles everything the router needs.
type Deps struct {
	Auth      *service.AuthService
	Identity  *service.IdentityService
	Sales     *service.SalesService
	Reports   *service.ReportService
	Expenses  *service.ExpenseService
	Directory *service.DirectoryService
	Metrics   *observability.Metrics
	Logger    *zap.Logger
	JWTSecret string
}

// NewRouter creates the HTTP router with all routes and middleware.
// Routes follow the API contract consumed by the portal frontend.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(observability.ZapLoggerMiddleware(d.Logger))
	r.Use(observability.TracingMiddleware)
	r.Use(requestMetricsMiddleware(d.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(d.Directory, d.Logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authLoginHandler(d.Auth, d.Logger))
			r.Post("/signup", authSignupHandler(d.Auth, d.Logger))

			r.Group(func(r chi.Router) {
				r.Use(JWTAuthMiddleware(d.JWTSecret, d.Logger))
				r.Post("/logout", authLogoutHandler(d.Auth, d.Logger))
				r.Put("/password", authChangePasswordHandler(d.Auth, d.Logger))
				r.Get("/session", authSessionHandler(d.Identity, d.Logger))
			})
		})

		// Everything below requires a valid session.
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(d.JWTSecret, d.Logger))

			r.Route("/sales", func(r chi.Router) {
				r.Get("/leads", listLeadsHandler(d.Sales, d.Logger))
				r.Post("/leads", createLeadHandler(d.Sales, d.Logger))
				r.Put("/leads/{salesId}", updateLeadHandler(d.Sales, d.Logger))
				r.Delete("/leads/{salesId}", deleteLeadHandler(d.Sales, d.Logger))

				r.Get("/opportunities", listOpportunitiesHandler(d.Sales, d.Logger))
				r.Post("/opportunities", createOpportunityHandler(d.Sales, d.Logger))
				r.Put("/opportunities/{opportunityId}", updateOpportunityHandler(d.Sales, d.Logger))
				r.Delete("/opportunities/{opportunityId}", deleteOpportunityHandler(d.Sales, d.Logger))

				r.Post("/refresh", refreshSalesHandler(d.Sales, d.Logger))

				r.Get("/reports", listReportsHandler(d.Reports, d.Logger))
				r.Post("/reports", generateReportHandler(d.Reports, d.Logger))
			})

			r.Route("/expenses", func(r chi.Router) {
				r.Get("/", listExpensesHandler(d.Expenses, d.Logger))
				r.Post("/", createExpenseHandler(d.Expenses, d.Logger))
				r.Put("/{expenseId}", updateExpenseHandler(d.Expenses, d.Logger))
				r.Delete("/{expenseId}", deleteExpenseHandler(d.Expenses, d.Logger))
				r.Post("/receipts", uploadReceiptHandler(d.Expenses, d.Logger))
				r.Get("/currencies", currenciesHandler())
			})

			r.Get("/travel", listTravelHandler(d.Expenses, d.Logger))
			r.Post("/travel", createTravelHandler(d.Expenses, d.Logger))

			r.Get("/employees", listEmployeesHandler(d.Directory, d.Logger))
			r.Get("/employees/{employeeId}", getEmployeeHandler(d.Directory, d.Logger))

			r.Get("/metrics/portal", portalMetricsHandler(d.Metrics))
		})
	})

	return r
}

// requestMetricsMiddleware counts every request as success or error.
func requestMetricsMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if ww.Status() >= http.StatusInternalServerError {
				metrics.IncrRequest("error")
			} else {
				metrics.IncrRequest("success")
			}
			if pattern := chi.RouteContext(r.Context()).RoutePattern(); pattern != "" {
				metrics.RecordRequestDuration(r.Method+" "+pattern, time.Since(start))
			}
		})
	}
}

// =============================================
// Health & metrics
// =============================================

func healthzHandler(directory *service.DirectoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "portal-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		start := time.Now()
		_, err := directory.List(ctx)
		latency := time.Since(start).Milliseconds()
		status := "healthy"
		if err != nil {
			status = "degraded"
			logger.Warn("healthz: supabase check failed", zap.Error(err))
		}
		services = append(services, domain.ServiceHealth{
			Name: "supabase", Status: status, LatencyMs: latency, LastChecked: now,
		})

		overall := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overall = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overall = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overall,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func portalMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetPortalSnapshot())
	}
}
