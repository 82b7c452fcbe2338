package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/freelancehours/internal/actorctx"
	"github.com/geocoder89/freelancehours/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// Make sure Gin does not spam the console during the test
func init() {
	gin.SetMode(gin.TestMode)
}

var (
	adminUser  = user.User{ID: 1, Email: "boss@example.com", Name: "Boss", Role: user.RoleAdmin}
	clientUser = user.User{ID: 2, Email: "c@example.com", Name: "Client", Role: user.RoleClient}
)

// setupRouter mounts one handler, running as principal when it is non-nil.
func setupRouter(method, path string, principal *user.User, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, func(c *gin.Context) {
		if principal != nil {
			c.Request = c.Request.WithContext(actorctx.WithPrincipal(c.Request.Context(), *principal))
		}
		c.Next()
	}, h)

	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func mustReadJSON[T any](t *testing.T, w *httptest.ResponseRecorder, out *T) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to unmarshal json: %v, body=%s", err, w.Body.String())
	}
}
