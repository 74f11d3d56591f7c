package router

import (
	"it-asset-tracker/internal/config"
	"it-asset-tracker/internal/handler"
	"it-asset-tracker/internal/metrics"
	"it-asset-tracker/internal/middleware"
	"it-asset-tracker/internal/model"
	"net/http"

	"github.com/gorilla/mux"
)

// Handlers groups the HTTP handlers the router mounts.
type Handlers struct {
	Assets handler.AssetHandlerInterface
	Users  handler.UserHandlerInterface
	Health http.Handler
}

// NewRouter creates a new router and sets up the routes with security
// middleware and role checks.
func NewRouter(h Handlers, auth *middleware.AuthMiddleware, m *metrics.Metrics, cfg *config.Config) *mux.Router {
	r := mux.NewRouter()

	securityMW := middleware.NewSecurityMiddleware(&cfg.Security)

	// Apply global middleware in order
	r.Use(middleware.RequestMetrics(m))
	r.Use(securityMW.SecurityHeaders)
	r.Use(securityMW.CORS)
	r.Use(securityMW.TrustedProxy)
	r.Use(securityMW.RateLimit)
	r.Use(securityMW.RequestTimeout)

	api := r.PathPrefix("/api/v1").Subrouter()

	// Preflight requests only need the CORS middleware. A method matcher here
	// would turn unknown paths into 405s.
	api.PathPrefix("/").MatcherFunc(isPreflight).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Public routes
	api.Handle("/health", h.Health).Methods(http.MethodGet)
	api.HandleFunc("/auth/login", h.Users.LoginHandler).Methods(http.MethodPost)
	api.HandleFunc("/auth/forgot-password", h.Users.ForgotPasswordHandler).Methods(http.MethodPost)
	api.HandleFunc("/auth/reset-password", h.Users.ResetPasswordHandler).Methods(http.MethodPost)

	viewer := protected(api, auth, model.RoleViewer)
	editor := protected(api, auth, model.RoleEditor)
	admin := protected(api, auth, model.RoleAdmin)

	// Read views. Fixed paths are registered before /assets/{id}.
	viewer.HandleFunc("/assets", h.Assets.ListAssetsHandler).Methods(http.MethodGet)
	viewer.HandleFunc("/assets/removed", h.Assets.ListRemovedHandler).Methods(http.MethodGet)
	viewer.HandleFunc("/assets/status/{status}", h.Assets.ListByStatusHandler).Methods(http.MethodGet)
	viewer.HandleFunc("/assets/grouped-by-model", h.Assets.GroupedByModelHandler).Methods(http.MethodGet)
	viewer.HandleFunc("/assets/grouped-by-email", h.Assets.GroupedByEmailHandler).Methods(http.MethodGet)
	viewer.HandleFunc("/assets/summary", h.Assets.SummaryHandler).Methods(http.MethodGet)
	viewer.HandleFunc("/assets/total-value", h.Assets.TotalValueHandler).Methods(http.MethodGet)
	viewer.HandleFunc("/assets/expiring-warranty", h.Assets.ExpiringWarrantyHandler).Methods(http.MethodGet)
	viewer.HandleFunc("/assets/count/{category}", h.Assets.CountByCategoryHandler).Methods(http.MethodGet)
	viewer.HandleFunc("/assets/next-id/{category}", h.Assets.NextAssetIDHandler).Methods(http.MethodGet)
	viewer.HandleFunc("/assets/{id}", h.Assets.GetAssetHandler).Methods(http.MethodGet)
	viewer.HandleFunc("/reports/inventory.xlsx", h.Assets.InventoryWorkbookHandler).Methods(http.MethodGet)

	// Lifecycle writes
	editor.HandleFunc("/assets", h.Assets.CreateAssetHandler).Methods(http.MethodPost)
	editor.HandleFunc("/assets/{id}", h.Assets.EditAssetHandler).Methods(http.MethodPut)
	editor.HandleFunc("/assets/{id}/transition", h.Assets.TransitionAssetHandler).Methods(http.MethodPost)

	// Destructive and administrative operations
	admin.HandleFunc("/assets/{id}/purge", h.Assets.PurgeAssetHandler).Methods(http.MethodDelete)
	admin.HandleFunc("/assets/{id}", h.Assets.DeleteAssetHandler).Methods(http.MethodDelete)
	admin.HandleFunc("/maintenance/duplicate-serials", h.Assets.RepairDuplicateSerialsHandler).Methods(http.MethodPost)
	admin.HandleFunc("/reports/inventory/archive", h.Assets.ArchiveInventoryHandler).Methods(http.MethodPost)
	admin.HandleFunc("/users", h.Users.ListUsersHandler).Methods(http.MethodGet)
	admin.HandleFunc("/users", h.Users.CreateUserHandler).Methods(http.MethodPost)
	admin.HandleFunc("/users/{id}", h.Users.UpdateUserHandler).Methods(http.MethodPut)
	admin.HandleFunc("/users/{id}", h.Users.DeleteUserHandler).Methods(http.MethodDelete)

	return r
}

func isPreflight(r *http.Request, _ *mux.RouteMatch) bool {
	return r.Method == http.MethodOptions
}

// protected returns a subrouter of api that requires a bearer token with at
// least the given role.
func protected(api *mux.Router, auth *middleware.AuthMiddleware, role string) *mux.Router {
	sub := api.NewRoute().Subrouter()
	sub.Use(auth.Authenticate)
	sub.Use(middleware.RequireRole(role))
	return sub
}
