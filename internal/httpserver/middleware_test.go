package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pmboard/internal/handler"
	"pmboard/pkg/rbac"
	"pmboard/pkg/trace"
	"pmboard/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func bearer(t *testing.T, userID int, role string) string {
	t.Helper()
	token, err := util.GenerateJWT(userID, role, testSecret, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func whoami(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"user_id":  c.GetInt(handler.CtxUserID),
		"role":     c.GetString(handler.CtxRole),
		"trace_id": trace.FromContext(c.Request.Context()),
	})
}

func TestAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/me", AuthMiddleware(testSecret), whoami)

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing", "", http.StatusUnauthorized, `{"error":"missing token"}`},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, `{"error":"missing token"}`},
		{"garbage", "Bearer nope", http.StatusUnauthorized, `{"error":"invalid token"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}

	t.Run("valid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", bearer(t, 4, rbac.RolePM))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"user_id":4`)
		assert.Contains(t, w.Body.String(), `"role":"pm"`)
	})
}

func TestRequirePermission(t *testing.T) {
	r := gin.New()
	r.GET("/replay", AuthMiddleware(testSecret), RequirePermission(rbac.PermissionReplayOutbox), whoami)

	for role, want := range map[string]int{
		rbac.RoleAdmin:  http.StatusOK,
		rbac.RolePM:     http.StatusForbidden,
		rbac.RoleMember: http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/replay", nil)
		req.Header.Set("Authorization", bearer(t, 1, role))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, role)
	}
}

func TestRequirePermissionWithoutAuth(t *testing.T) {
	r := gin.New()
	r.GET("/replay", RequirePermission(rbac.PermissionReplayOutbox), whoami)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/replay", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTraceMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(TraceMiddleware(), RequestLogger(zap.NewNop()))
	r.GET("/t", whoami)

	req := httptest.NewRequest(http.MethodGet, "/t", nil)
	req.Header.Set(trace.HeaderName, "trace-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "trace-123", w.Header().Get(trace.HeaderName))
	assert.Contains(t, w.Body.String(), `"trace_id":"trace-123"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/t", nil))
	assert.Len(t, w.Header().Get(trace.HeaderName), 36)
}
