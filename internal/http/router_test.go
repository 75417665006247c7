package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	intconfig "studio/internal/config"
	"studio/internal/domain/models"
	h "studio/internal/http/handlers"
	"studio/internal/pricing"
	"studio/internal/services"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
)

var testSecret = []byte("router-test-secret")

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h.Configure(h.Deps{
		JWTSecret: testSecret,
		Prices:    services.StaticPrices(pricing.DefaultPriceTable()),
	})
	t.Cleanup(func() { h.Configure(h.Deps{}) })
	return NewRouter(intconfig.Env{})
}

func token(t *testing.T, email string, role models.UserRole) string {
	t.Helper()
	tok, _, err := services.AuthService{Secret: testSecret}.Issue(email, role)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return tok
}

func serve(r http.Handler, method, path, tok, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPublicRoutes(t *testing.T) {
	r := newTestRouter(t)

	if w := serve(r, http.MethodGet, "/api/health", "", ""); w.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", w.Code)
	}
	w := serve(r, http.MethodGet, "/metrics", "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "studio_http_requests_total") {
		t.Fatalf("metrics: expected studio counters, got %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/api/nope", "", ""); w.Code != http.StatusNotFound {
		t.Fatalf("unknown route: expected 404, got %d", w.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestRouter(t)

	for _, path := range []string{"/api/bookings", "/api/reports", "/api/settings", "/api/schedule", "/api/auth/me"} {
		if w := serve(r, http.MethodGet, path, "", ""); w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, w.Code)
		}
	}
}

func TestOwnerRoutesRejectAdmins(t *testing.T) {
	r := newTestRouter(t)
	admin := token(t, "anna@studio.ua", models.RoleAdmin)

	cases := []struct{ method, path string }{
		{http.MethodPut, "/api/settings/rooms"},
		{http.MethodPut, "/api/settings/equipment"},
		{http.MethodGet, "/api/roles"},
		{http.MethodPut, "/api/roles/bohdan@studio.ua"},
		{http.MethodDelete, "/api/roles/bohdan@studio.ua"},
		{http.MethodPost, "/api/staff"},
		{http.MethodPost, "/api/reports/repair"},
		{http.MethodPut, "/api/schedule"},
	}
	for _, tc := range cases {
		if w := serve(r, tc.method, tc.path, admin, "{}"); w.Code != http.StatusForbidden {
			t.Fatalf("%s %s: expected 403, got %d", tc.method, tc.path, w.Code)
		}
	}
}

func TestOwnerRoutesUseStoredRole(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	gin.SetMode(gin.TestMode)
	h.Configure(h.Deps{DB: db, JWTSecret: testSecret, Prices: services.StaticPrices(pricing.DefaultPriceTable())})
	t.Cleanup(func() { h.Configure(h.Deps{}) })
	r := NewRouter(intconfig.Env{})

	mock.ExpectQuery("SELECT email, role, created_at, created_by FROM user_roles").WithArgs("former@studio.ua").
		WillReturnRows(sqlmock.NewRows([]string{"email", "role", "created_at", "created_by"}).
			AddRow("former@studio.ua", "admin", time.Now(), nil))

	stale := token(t, "former@studio.ua", models.RoleOwner)
	if w := serve(r, http.MethodGet, "/api/roles", stale, ""); w.Code != http.StatusForbidden {
		t.Fatalf("owner token of a demoted owner: expected 403, got %d %s", w.Code, w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestQuoteThroughRouter(t *testing.T) {
	r := newTestRouter(t)
	admin := token(t, "anna@studio.ua", models.RoleAdmin)

	body := `{"bandName":"Kozak System","date":"2025-01-06","startTime":"16:00","endTime":"19:00","roomId":"main","payment":{"type":"card"}}`
	w := serve(r, http.MethodPost, "/api/quotes", admin, body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"totalPrice":930`) {
		t.Fatalf("expected total 930, got %s", w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected request id header")
	}
}
