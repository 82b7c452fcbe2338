package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/geocoder89/freelancehours/internal/auth"
	"github.com/geocoder89/freelancehours/internal/config"
	apphttp "github.com/geocoder89/freelancehours/internal/http"
	"github.com/geocoder89/freelancehours/internal/http/handlers"
	"github.com/geocoder89/freelancehours/internal/identity"
	"github.com/geocoder89/freelancehours/internal/notifications"
	"github.com/geocoder89/freelancehours/internal/observability"
	"github.com/geocoder89/freelancehours/internal/repo/memory"
	"github.com/geocoder89/freelancehours/internal/session"
	"github.com/gin-gonic/gin"
)

const adminEmail = "boss@example.com"

// stubProvider treats the authorization code as a key into a table of
// identities, standing in for the Google round trip.
type stubProvider struct {
	identities map[string]identity.Assertion
}

func (p stubProvider) AuthCodeURL(state string) string {
	return "https://accounts.example/o/oauth2/auth?state=" + url.QueryEscape(state)
}

func (p stubProvider) Exchange(_ context.Context, code string) (identity.Assertion, error) {
	a, ok := p.identities[code]
	if !ok {
		return identity.Assertion{}, fmt.Errorf("unknown code %q", code)
	}
	return a, nil
}

var testIdentities = map[string]identity.Assertion{
	"admin": {ProviderID: "g-admin", Email: "Boss@Example.com", DisplayName: "Boss", EmailVerified: true},
	"alice": {ProviderID: "g-alice", Email: "a@x.com", DisplayName: "Alice", EmailVerified: true},
	"bob":   {ProviderID: "g-bob", Email: "bob@example.com", DisplayName: "Bob", EmailVerified: true},
	"carol": {ProviderID: "g-carol", Email: "carol@example.com", DisplayName: "Carol", EmailVerified: true},
}

func testConfig() config.Config {
	return config.Config{
		Env:               "test",
		ServiceName:       "freelancehours-test",
		Storage:           "memory",
		SessionStore:      "memory",
		SessionSecret:     "test-secret-key",
		SessionTTL:        time.Hour,
		AdminEmail:        adminEmail,
		AdminName:         "Boss",
		DashboardPath:     "/dashboard",
		LoginPath:         "/login",
		AuthRatePerMinute: 1000,
	}
}

type testApp struct {
	router http.Handler
	store  *memory.Store
}

func setupApp(t *testing.T) testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	store := memory.New()

	// the admin exists before the first login, like a seeded deployment
	if _, _, err := store.Users.EnsureAdmin(context.Background(), cfg.AdminEmail, cfg.AdminName); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	sessions := session.NewMemoryStore(cfg.SessionTTL)
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

	router := apphttp.NewRouter(logger, apphttp.Deps{
		Users:    store.Users,
		Clients:  store.Clients,
		Hours:    store.Hours,
		Sessions: sessions,
		Tokens:   auth.NewManager(cfg.SessionSecret, 0),
		Provider: stubProvider{identities: testIdentities},
		Prom:     observability.NewProm(),
		Checks: map[string]handlers.Check{
			"sessions": sessions.Ping,
		},
		Notifier: notifications.NewLogNotifier(logger),
	}, cfg)

	return testApp{router: router, store: store}
}

// helpers

func doRequest(router http.Handler, method, path string, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func mustReadJSON[T any](t *testing.T, w *httptest.ResponseRecorder, out *T) {
	t.Helper()
	err := json.Unmarshal(w.Body.Bytes(), out)
	if err != nil {
		t.Fatalf("failed to unmarshal json: %v, body=%s", err, w.Body.String())
	}
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// login walks the whole OAuth redirect dance for the identity behind code
// and returns the session cookie.
func login(t *testing.T, router http.Handler, code string) *http.Cookie {
	t.Helper()

	w := doRequest(router, http.MethodGet, "/api/auth/google", "")
	if w.Code != http.StatusFound {
		t.Fatalf("login start: status %d", w.Code)
	}

	loc, err := url.Parse(w.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse provider redirect: %v", err)
	}

	state := findCookie(w, handlers.StateCookieName)
	if state == nil {
		t.Fatalf("state cookie not set")
	}

	q := url.Values{"code": {code}, "state": {loc.Query().Get("state")}}
	w = doRequest(router, http.MethodGet, "/api/auth/google/callback?"+q.Encode(), "", state)

	if w.Code != http.StatusFound || w.Header().Get("Location") != "/dashboard" {
		t.Fatalf("callback for %s: status %d location %q", code, w.Code, w.Header().Get("Location"))
	}

	c := findCookie(w, handlers.SessionCookieName)
	if c == nil || c.Value == "" {
		t.Fatalf("session cookie not set for %s", code)
	}

	return c
}

type userResponse struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	IsAdmin      bool   `json:"isAdmin"`
	IsFreelancer bool   `json:"isFreelancer"`
}

type clientResponse struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	UserID *int64  `json:"userId"`
	Email  *string `json:"email"`
	Status string  `json:"status"`
	Notes  string  `json:"notes"`
}

type entryResponse struct {
	ID          int64  `json:"id"`
	ClientID    int64  `json:"clientId"`
	Description string `json:"description"`
	Hours       string `json:"hours"`
	Date        string `json:"date"`
}

type errorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func currentUser(t *testing.T, router http.Handler, c *http.Cookie) userResponse {
	t.Helper()

	w := doRequest(router, http.MethodGet, "/api/auth/user", "", c)
	if w.Code != http.StatusOK {
		t.Fatalf("current user: status %d", w.Code)
	}

	var u userResponse
	mustReadJSON(t, w, &u)
	return u
}

func createClient(t *testing.T, router http.Handler, admin *http.Cookie, name, email string) clientResponse {
	t.Helper()

	w := doRequest(router, http.MethodPost, "/api/clients", fmt.Sprintf(`{"name":%q,"email":%q}`, name, email), admin)
	if w.Code != http.StatusCreated {
		t.Fatalf("create client: status %d body=%s", w.Code, w.Body.String())
	}

	var c clientResponse
	mustReadJSON(t, w, &c)
	return c
}
