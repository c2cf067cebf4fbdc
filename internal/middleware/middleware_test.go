package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mesworup/Pneumonia-Detection-CNN/internal/config"
	"github.com/mesworup/Pneumonia-Detection-CNN/internal/domain"
	"github.com/mesworup/Pneumonia-Detection-CNN/pkg/auth"
	"github.com/mesworup/Pneumonia-Detection-CNN/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAuthenticator map[string]*domain.User

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (*domain.User, error) {
	if u, ok := s[token]; ok {
		return u, nil
	}
	return nil, auth.ErrTokenInvalid
}

func perform(r http.Handler, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuthAndRole(t *testing.T) {
	doctor := &domain.User{ID: uuid.New(), Name: "Doc", Role: domain.RoleDoctor}
	patient := &domain.User{ID: uuid.New(), Name: "Pat", Role: domain.RolePatient}
	authn := stubAuthenticator{"doc-token": doctor, "pat-token": patient}

	r := gin.New()
	r.Use(RequestID())
	r.GET("/doctors-only",
		RequireAuth(authn, zap.NewNop()),
		RequireRole(domain.RoleDoctor),
		func(c *gin.Context) {
			actor, _ := ActorFrom(c)
			c.String(http.StatusOK, actor.ID.String())
		},
	)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic doc-token", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"wrong role", "Bearer pat-token", http.StatusForbidden},
		{"allowed", "Bearer doc-token", http.StatusOK},
		{"lowercase scheme", "bearer doc-token", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := map[string]string{}
			if tt.header != "" {
				h["Authorization"] = tt.header
			}
			w := perform(r, http.MethodGet, "/doctors-only", h)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
			if tt.want == http.StatusOK && w.Body.String() != doctor.ID.String() {
				t.Errorf("actor id = %s", w.Body.String())
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	lim := NewIPRateLimiter(rate.Every(time.Hour), 2)
	r := gin.New()
	r.GET("/login", lim.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		if w := perform(r, http.MethodGet, "/login", nil); w.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i+1, w.Code)
		}
	}
	w := perform(r, http.MethodGet, "/login", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: status %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}

	// A different client has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.RemoteAddr = "10.1.2.3:4444"
	other := httptest.NewRecorder()
	r.ServeHTTP(other, req)
	if other.Code != http.StatusOK {
		t.Errorf("other client: status %d", other.Code)
	}
}

func TestRateLimiter_SweepsIdleVisitors(t *testing.T) {
	lim := NewIPRateLimiter(rate.Limit(1), 1)
	now := time.Now()
	lim.now = func() time.Time { return now }

	lim.get("1.1.1.1")
	now = now.Add(2 * limiterIdleTTL)
	lim.get("2.2.2.2")

	if _, ok := lim.visitors["1.1.1.1"]; ok {
		t.Error("idle visitor was not evicted")
	}
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS(config.CORSConfig{
		AllowedOrigins: []string{"http://localhost:5173"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Authorization"},
		MaxAge:         time.Hour,
	}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, http.MethodOptions, "/x", map[string]string{"Origin": "http://localhost:5173"})
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allow origin = %q", got)
	}

	w = perform(r, http.MethodGet, "/x", map[string]string{"Origin": "http://evil.example"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("foreign origin allowed: %q", got)
	}
}

func TestRequestIDAndRecovery(t *testing.T) {
	m := metrics.NewCollector("mwtest")
	r := gin.New()
	r.Use(RequestID(), Recovery(zap.NewNop()), Metrics(m), Logger(zap.NewNop()))
	r.GET("/boom", func(*gin.Context) { panic("kaboom") })
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, RequestIDFrom(c)) })

	w := perform(r, http.MethodGet, "/ok", map[string]string{"X-Request-ID": "abc-123"})
	if w.Body.String() != "abc-123" || w.Header().Get("X-Request-ID") != "abc-123" {
		t.Errorf("request id not propagated: body %q header %q", w.Body.String(), w.Header().Get("X-Request-ID"))
	}

	w = perform(r, http.MethodGet, "/ok", nil)
	if _, err := uuid.Parse(w.Body.String()); err != nil {
		t.Errorf("generated request id %q is not a uuid", w.Body.String())
	}

	w = perform(r, http.MethodGet, "/boom", nil)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("panic status = %d", w.Code)
	}
}
