package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/cmlabs-hris/timeclock/internal/handler/http/middleware"
	"github.com/cmlabs-hris/timeclock/internal/handler/http/response"
	"github.com/cmlabs-hris/timeclock/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

// RouterConfig carries deployment details the router needs.
type RouterConfig struct {
	Env            string
	Version        string
	AllowedOrigins []string
	LogLevel       slog.Level
}

type Handlers struct {
	Shift  ShiftHandler
	Master MasterHandler
	Report ReportHandler
	Sync   SyncHandler
	Admin  AdminHandler
}

func NewRouter(cfg RouterConfig, JWTService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.LogLevel,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "timeclock"),
		slog.String("version", cfg.Version),
		slog.String("env", cfg.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(jwtauth.Verifier(JWTService.JWTAuth()))

		r.Route("/shifts", func(r chi.Router) {
			r.Post("/clock-in", h.Shift.ClockIn)
			r.Post("/clock-out", h.Shift.ClockOut)
			r.Get("/status/{employeeID}", h.Shift.Status)
			r.Get("/events", h.Shift.Events)
			r.Get("/", h.Shift.List)

			// Admin only
			r.Group(func(r chi.Router) {
				r.Use(middleware.AdminRequired(JWTService))
				r.Delete("/retention", h.Shift.Purge)
			})
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/summary", h.Report.Summary)
			r.Get("/export", h.Report.Export)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/unlock", h.Admin.Unlock)

			r.Group(func(r chi.Router) {
				r.Use(middleware.AdminRequired(JWTService))
				r.Post("/lock", h.Admin.Lock)
				r.Put("/pin", h.Admin.ChangePIN)
			})
		})

		// Directory reads feed the clock screen
		r.Get("/branches", h.Master.ListBranches)
		r.Get("/branches/{id}", h.Master.GetBranch)
		r.Get("/employees", h.Master.ListEmployees)
		r.Get("/employees/{id}", h.Master.GetEmployee)

		// Requires an admin session
		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminRequired(JWTService))

			r.Post("/branches", h.Master.CreateBranch)
			r.Put("/branches/{id}", h.Master.UpdateBranch)
			r.Delete("/branches/{id}", h.Master.DeleteBranch)

			r.Post("/employees", h.Master.CreateEmployee)
			r.Put("/employees/{id}", h.Master.UpdateEmployee)
			r.Delete("/employees/{id}", h.Master.DeleteEmployee)

			r.Route("/sync", func(r chi.Router) {
				r.Post("/push/{target}", h.Sync.Push)
				r.Post("/pull/{target}", h.Sync.Pull)
			})

			r.Route("/settings", func(r chi.Router) {
				r.Get("/sync", h.Sync.GetSettings)
				r.Put("/sync", h.Sync.UpdateSettings)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route not found")
	})
	return r
}
