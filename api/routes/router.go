package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/thedilution/dilution-backend/api/controllers"
	"github.com/thedilution/dilution-backend/api/middleware"
	"github.com/thedilution/dilution-backend/internal/auth"
	"github.com/thedilution/dilution-backend/internal/consumption"
	"github.com/thedilution/dilution-backend/internal/dashboard"
	"github.com/thedilution/dilution-backend/internal/dilutions"
	"github.com/thedilution/dilution-backend/internal/formulas"
	"github.com/thedilution/dilution-backend/internal/hardware"
	"github.com/thedilution/dilution-backend/internal/inventory"
	"github.com/thedilution/dilution-backend/internal/jobcards"
	"github.com/thedilution/dilution-backend/internal/notifications"
	"github.com/thedilution/dilution-backend/internal/users"
	"github.com/thedilution/dilution-backend/pkg/config"
	"github.com/thedilution/dilution-backend/pkg/db"
	"github.com/thedilution/dilution-backend/pkg/enums"
	"github.com/thedilution/dilution-backend/pkg/logger"
	pkgredis "github.com/thedilution/dilution-backend/pkg/redis"
)

// Deps bundles everything the router mounts.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	DBPinger      db.Pinger
	RedisPinger   db.Pinger
	Idempotency   pkgredis.IdempotencyStore
	RateLimiter   middleware.RateLimiter
	Registry      *prometheus.Registry
	AuthService   auth.Service
	RegisterSvc   auth.RegisterService
	JobcardSvc    jobcards.Service
	InventorySvc  inventory.Service
	FormulaSvc    formulas.Service
	DilutionSvc   dilutions.Service
	Notifications notifications.Service
	HardwareSvc   hardware.Service
	UsersSvc      users.Service
	ConsumptionSv consumption.Service
	DashboardSvc  dashboard.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]db.Pinger{
			"database": deps.DBPinger,
			"redis":    deps.RedisPinger,
		}))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		rl := cfg.RateLimit
		loginPolicy := middleware.NewRateLimitPolicy("login", rl.LoginWindow, rl.LoginIPLimit, rl.LoginUserLimit)
		registerPolicy := middleware.NewRateLimitPolicy("register", rl.RegisterWindow, rl.RegisterIPLimit, rl.RegisterUserLimit)

		r.With(middleware.RateLimit(loginPolicy, deps.RateLimiter, logg)).
			Post("/login", controllers.Login(deps.AuthService, logg))
		r.With(middleware.RateLimit(registerPolicy, deps.RateLimiter, logg)).
			Post("/register", controllers.Register(deps.RegisterSvc, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Route("/jobcards", func(r chi.Router) {
			r.Get("/", controllers.ListJobcards(deps.JobcardSvc, logg))
			r.Post("/", controllers.CreateJobcard(deps.JobcardSvc, logg))
			r.Get("/{id}", controllers.GetJobcard(deps.JobcardSvc, logg))
			r.Post("/{id}/complete", controllers.CompleteJobcard(deps.JobcardSvc, logg))

			// update can flip status to approved, so it carries the same
			// guard as the approval endpoints
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireApprover(logg))
				r.Put("/{id}", controllers.UpdateJobcard(deps.JobcardSvc, logg))
				r.Delete("/{id}", controllers.DeleteJobcard(deps.JobcardSvc, logg))
				r.Post("/{id}/approve", controllers.ApproveJobcard(deps.JobcardSvc, logg))
				r.Post("/{id}/reject", controllers.RejectJobcard(deps.JobcardSvc, logg))
				r.Post("/{id}/execute", controllers.ExecuteJobcard(deps.JobcardSvc, logg))
			})
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", controllers.ListInventoryItems(deps.InventorySvc, logg))
			r.Post("/", controllers.CreateInventoryItem(deps.InventorySvc, logg))
			r.Get("/{id}", controllers.GetInventoryItem(deps.InventorySvc, logg))
			r.Put("/{id}", controllers.UpdateInventoryItem(deps.InventorySvc, logg))
			r.Delete("/{id}", controllers.DeleteInventoryItem(deps.InventorySvc, logg))
			r.Post("/{id}/stock", controllers.AddStock(deps.InventorySvc, logg))
			r.Get("/{id}/stock", controllers.ListStockBatches(deps.InventorySvc, logg))
			r.Delete("/stock/{batchID}", controllers.RemoveStockBatch(deps.InventorySvc, logg))
		})

		r.Route("/formulas", func(r chi.Router) {
			r.Get("/", controllers.ListFormulas(deps.FormulaSvc, logg))
			r.Post("/", controllers.CreateFormula(deps.FormulaSvc, logg))
			r.Get("/{id}", controllers.GetFormula(deps.FormulaSvc, logg))
			r.Put("/{id}/details", controllers.SetFormulaDetails(deps.FormulaSvc, logg))
			r.Delete("/{id}", controllers.DeleteFormula(deps.FormulaSvc, logg))
		})

		r.Route("/dilutions", func(r chi.Router) {
			r.Get("/", controllers.ListDilutions(deps.DilutionSvc, logg))
			r.Post("/", controllers.CreateDilution(deps.DilutionSvc, logg))
			r.Get("/{id}", controllers.GetDilution(deps.DilutionSvc, logg))
			r.Put("/{id}", controllers.UpdateDilution(deps.DilutionSvc, logg))
			r.Delete("/{id}", controllers.DeleteDilution(deps.DilutionSvc, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
			r.Post("/{id}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
		})

		r.Route("/hardware", func(r chi.Router) {
			r.Get("/", controllers.ListHardware(deps.HardwareSvc, logg))
			r.Post("/", controllers.CreateHardware(deps.HardwareSvc, logg))
			r.Get("/logs", controllers.ListHardwareLogs(deps.HardwareSvc, logg))
			r.Get("/{id}", controllers.GetHardware(deps.HardwareSvc, logg))
			r.Put("/{id}", controllers.UpdateHardware(deps.HardwareSvc, logg))
			r.Delete("/{id}", controllers.DeleteHardware(deps.HardwareSvc, logg))
			r.Post("/{id}/logs", controllers.CreateHardwareLog(deps.HardwareSvc, logg))
			r.Get("/{id}/logs", controllers.ListHardwareLogsByMachine(deps.HardwareSvc, logg))
		})

		r.Get("/consumption", controllers.ListConsumption(deps.ConsumptionSv, logg))
		r.Get("/dashboard", controllers.DashboardSummary(deps.DashboardSvc, logg))

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
			r.Get("/", controllers.ListUsers(deps.UsersSvc, logg))
			r.Post("/", controllers.CreateUser(deps.UsersSvc, logg))
			r.Get("/{id}", controllers.GetUser(deps.UsersSvc, logg))
			r.Put("/{id}", controllers.UpdateUser(deps.UsersSvc, logg))
			r.Post("/{id}/deactivate", controllers.DeactivateUser(deps.UsersSvc, logg))
		})
	})

	return r
}
