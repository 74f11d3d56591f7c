package router

import (
	"io"
	"it-asset-tracker/internal/auth"
	"it-asset-tracker/internal/config"
	"it-asset-tracker/internal/metrics"
	"it-asset-tracker/internal/middleware"
	"it-asset-tracker/internal/model"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// stubHandlers answers every route with the handler's name.
type stubHandlers struct{}

func reply(name string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, name)
	}
}

func (stubHandlers) CreateAssetHandler(w http.ResponseWriter, r *http.Request) { reply("create")(w) }
func (stubHandlers) GetAssetHandler(w http.ResponseWriter, r *http.Request)    { reply("get")(w) }
func (stubHandlers) EditAssetHandler(w http.ResponseWriter, r *http.Request)   { reply("edit")(w) }
func (stubHandlers) TransitionAssetHandler(w http.ResponseWriter, r *http.Request) {
	reply("transition")(w)
}
func (stubHandlers) DeleteAssetHandler(w http.ResponseWriter, r *http.Request) { reply("delete")(w) }
func (stubHandlers) PurgeAssetHandler(w http.ResponseWriter, r *http.Request)  { reply("purge")(w) }
func (stubHandlers) ListAssetsHandler(w http.ResponseWriter, r *http.Request)  { reply("list")(w) }
func (stubHandlers) ListRemovedHandler(w http.ResponseWriter, r *http.Request) { reply("removed")(w) }
func (stubHandlers) ListByStatusHandler(w http.ResponseWriter, r *http.Request) {
	reply("by-status")(w)
}
func (stubHandlers) GroupedByModelHandler(w http.ResponseWriter, r *http.Request) {
	reply("by-model")(w)
}
func (stubHandlers) GroupedByEmailHandler(w http.ResponseWriter, r *http.Request) {
	reply("by-email")(w)
}
func (stubHandlers) SummaryHandler(w http.ResponseWriter, r *http.Request)    { reply("summary")(w) }
func (stubHandlers) TotalValueHandler(w http.ResponseWriter, r *http.Request) { reply("total")(w) }
func (stubHandlers) ExpiringWarrantyHandler(w http.ResponseWriter, r *http.Request) {
	reply("warranty")(w)
}
func (stubHandlers) CountByCategoryHandler(w http.ResponseWriter, r *http.Request) {
	reply("count")(w)
}
func (stubHandlers) NextAssetIDHandler(w http.ResponseWriter, r *http.Request) { reply("next-id")(w) }
func (stubHandlers) RepairDuplicateSerialsHandler(w http.ResponseWriter, r *http.Request) {
	reply("repair")(w)
}
func (stubHandlers) InventoryWorkbookHandler(w http.ResponseWriter, r *http.Request) {
	reply("workbook")(w)
}
func (stubHandlers) ArchiveInventoryHandler(w http.ResponseWriter, r *http.Request) {
	reply("archive")(w)
}
func (stubHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) { reply("login")(w) }
func (stubHandlers) ForgotPasswordHandler(w http.ResponseWriter, r *http.Request) {
	reply("forgot")(w)
}
func (stubHandlers) ResetPasswordHandler(w http.ResponseWriter, r *http.Request) { reply("reset")(w) }
func (stubHandlers) ListUsersHandler(w http.ResponseWriter, r *http.Request)     { reply("users")(w) }
func (stubHandlers) CreateUserHandler(w http.ResponseWriter, r *http.Request)    { reply("create-user")(w) }
func (stubHandlers) UpdateUserHandler(w http.ResponseWriter, r *http.Request)    { reply("update-user")(w) }
func (stubHandlers) DeleteUserHandler(w http.ResponseWriter, r *http.Request)    { reply("delete-user")(w) }

func testConfig() *config.Config {
	return &config.Config{Security: config.SecurityConfig{
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
		RequestTimeout: 5 * time.Second,
		EnableCORS:     true,
		AllowedOrigins: []string{"*"},
	}}
}

func newTestRouter() http.Handler {
	tokens := auth.NewTokenManager(testSecret, time.Hour)
	h := Handlers{
		Assets: stubHandlers{},
		Users:  stubHandlers{},
		Health: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { reply("health")(w) }),
	}
	return NewRouter(h, middleware.NewAuthMiddleware(tokens), metrics.New(), testConfig())
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	token, _, err := auth.NewTokenManager(testSecret, time.Hour).Generate(uuid.New(), "jane@example.com", role)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRoutesAndRoles(t *testing.T) {
	router := newTestRouter()
	id := uuid.New().String()

	tests := []struct {
		method   string
		path     string
		role     string
		expected int
		body     string
	}{
		{http.MethodGet, "/api/v1/health", "", http.StatusOK, "health"},
		{http.MethodPost, "/api/v1/auth/login", "", http.StatusOK, "login"},
		{http.MethodGet, "/api/v1/assets", "", http.StatusUnauthorized, ""},

		{http.MethodGet, "/api/v1/assets", model.RoleViewer, http.StatusOK, "list"},
		{http.MethodGet, "/api/v1/assets/removed", model.RoleViewer, http.StatusOK, "removed"},
		{http.MethodGet, "/api/v1/assets/summary", model.RoleViewer, http.StatusOK, "summary"},
		{http.MethodGet, "/api/v1/assets/status/In%20Use", model.RoleViewer, http.StatusOK, "by-status"},
		{http.MethodGet, "/api/v1/assets/" + id, model.RoleViewer, http.StatusOK, "get"},
		{http.MethodGet, "/api/v1/reports/inventory.xlsx", model.RoleViewer, http.StatusOK, "workbook"},
		{http.MethodPost, "/api/v1/assets", model.RoleViewer, http.StatusForbidden, ""},

		{http.MethodPost, "/api/v1/assets", model.RoleEditor, http.StatusOK, "create"},
		{http.MethodPut, "/api/v1/assets/" + id, model.RoleEditor, http.StatusOK, "edit"},
		{http.MethodPost, "/api/v1/assets/" + id + "/transition", model.RoleEditor, http.StatusOK, "transition"},
		{http.MethodDelete, "/api/v1/assets/" + id, model.RoleEditor, http.StatusForbidden, ""},
		{http.MethodGet, "/api/v1/users", model.RoleEditor, http.StatusForbidden, ""},

		{http.MethodDelete, "/api/v1/assets/" + id, model.RoleAdmin, http.StatusOK, "delete"},
		{http.MethodDelete, "/api/v1/assets/" + id + "/purge", model.RoleAdmin, http.StatusOK, "purge"},
		{http.MethodPost, "/api/v1/maintenance/duplicate-serials", model.RoleAdmin, http.StatusOK, "repair"},
		{http.MethodPost, "/api/v1/reports/inventory/archive", model.RoleAdmin, http.StatusOK, "archive"},
		{http.MethodGet, "/api/v1/users", model.RoleAdmin, http.StatusOK, "users"},
		{http.MethodDelete, "/api/v1/users/" + id, model.RoleAdmin, http.StatusOK, "delete-user"},
		{http.MethodGet, "/api/v1/assets/summary", model.RoleAdmin, http.StatusOK, "summary"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path+" as "+tt.role, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.role != "" {
				req.Header.Set("Authorization", bearer(t, tt.role))
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, tt.expected, rr.Code, rr.Body.String())
			if tt.body != "" {
				assert.Equal(t, tt.body, rr.Body.String())
			}
			assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
		})
	}
}

func TestPreflight(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/assets", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRoute(t *testing.T) {
	router := newTestRouter()

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/inventory", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
