package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ilan2004/Ev-wheels-sub003/internal/authz"
	"github.com/ilan2004/Ev-wheels-sub003/internal/config"
	"github.com/ilan2004/Ev-wheels-sub003/internal/metrics"
	"github.com/ilan2004/Ev-wheels-sub003/internal/middleware"
	"github.com/ilan2004/Ev-wheels-sub003/internal/queue"
	"github.com/ilan2004/Ev-wheels-sub003/internal/store"
)

// AuthService is the session provider surface the handlers need.
type AuthService interface {
	Login(ctx context.Context, email, password string) (accessToken, refreshToken string, err error)
	Refresh(ctx context.Context, refreshToken string) (newAccess, newRefresh string, err error)
	Logout(ctx context.Context, refreshToken string) error
}

// TaskEnqueuer decouples handlers from the asynq client. A nil enqueuer
// disables notification fan-out.
type TaskEnqueuer interface {
	EnqueueTransitionNotice(payload queue.TransitionNoticePayload) error
}

type Server struct {
	gateway   *authz.Gateway
	users     store.UserStore
	locations store.LocationStore
	customers store.CustomerStore
	workflow  store.WorkflowStore
	auth      AuthService
	tasks     TaskEnqueuer
	metrics   *metrics.AuthzMetrics

	authMiddleware func(http.Handler) http.Handler
	cors           func(http.Handler) http.Handler
}

type Deps struct {
	Gateway        *authz.Gateway
	Users          store.UserStore
	Locations      store.LocationStore
	Customers      store.CustomerStore
	Workflow       store.WorkflowStore
	Auth           AuthService
	Tasks          TaskEnqueuer
	Metrics        *metrics.AuthzMetrics
	AuthMiddleware func(http.Handler) http.Handler
	CORS           *config.CORSConfig
}

func NewServer(d Deps) *Server {
	return &Server{
		gateway:        d.Gateway,
		users:          d.Users,
		locations:      d.Locations,
		customers:      d.Customers,
		workflow:       d.Workflow,
		auth:           d.Auth,
		tasks:          d.Tasks,
		metrics:        d.Metrics,
		authMiddleware: d.AuthMiddleware,
		cors:           middleware.NewCORSHandler(d.CORS),
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.cors)
	r.Use(middleware.RequestContext)
	r.Use(middleware.LoggingMiddleware)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/refresh", s.handleRefresh)
	r.Post("/auth/logout", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Use(middleware.ActorContext)

		r.Get("/locations", s.handleListLocations)
		r.Post("/locations", s.handleCreateLocation)

		r.Get("/customers", s.handleListCustomers)
		r.Post("/customers", s.handleCreateCustomer)

		r.Route("/tickets", s.workflowRoutes(ticketResource))
		r.Route("/vehicle-cases", s.workflowRoutes(vehicleResource))
		r.Route("/battery-cases", s.workflowRoutes(batteryResource))

		r.Route("/inventory/movements", func(r chi.Router) {
			r.Get("/", s.handleListMovements)
			r.Post("/", s.handleCreateMovement)
			r.Post("/{id}/approve", s.handleApproveMovement)
			r.Post("/{id}/reject", s.handleRejectMovement)
			r.Get("/{id}/history", s.handleHistory(movementResource))
		})

		r.Patch("/users/{id}/role", s.handleUpdateUserRole)
	})

	return r
}
