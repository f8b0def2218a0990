package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"pmboard/internal/handler"
	"pmboard/pkg/rbac"
	"pmboard/pkg/trace"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

type fakeBroker bool

func (b fakeBroker) IsConnected() bool { return bool(b) }

type fakeReplayer struct{ replayed []int64 }

func (f *fakeReplayer) ReplayEvent(ctx context.Context, id int64) error {
	f.replayed = append(f.replayed, id)
	return nil
}

func (f *fakeReplayer) ReplayFailedEvents(ctx context.Context, limit int) (int, error) {
	return 0, nil
}

func newTestRouter(opts Options, replayer handler.Replayer) *Router {
	log := zap.NewNop()
	if opts.Logger == nil {
		opts.Logger = log
	}
	opts.JWTSecret = testSecret
	return NewRouter(Handlers{
		Auth:         handler.NewAuthHandler(nil, log),
		Projects:     handler.NewProjectHandler(nil, log),
		Tasks:        handler.NewTaskHandler(nil, log),
		Approvals:    handler.NewApprovalHandler(nil, log),
		Blockers:     handler.NewBlockerHandler(nil, log),
		Comments:     handler.NewCommentHandler(nil, log),
		Notification: handler.NewNotificationHandler(nil, log),
		Admin:        handler.NewAdminHandler(replayer, log),
	}, opts)
}

func TestHealthAndReadiness(t *testing.T) {
	tests := []struct {
		name   string
		opts   Options
		status int
		body   string
	}{
		{"ready", Options{DB: fakePinger{}}, http.StatusOK, "ready"},
		{"ready with broker", Options{DB: fakePinger{}, Broker: fakeBroker(true)}, http.StatusOK, "ready"},
		{"db down", Options{DB: fakePinger{err: errors.New("refused")}}, http.StatusServiceUnavailable, "db_not_ready"},
		{"mq down", Options{DB: fakePinger{}, Broker: fakeBroker(false)}, http.StatusServiceUnavailable, "mq_not_ready"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(tt.opts, &fakeReplayer{})

			w := httptest.NewRecorder()
			r.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.NotEmpty(t, w.Header().Get(trace.HeaderName))

			w = httptest.NewRecorder()
			r.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestRouter(Options{DB: fakePinger{}}, &fakeReplayer{})

	for _, path := range []string{
		"/api/projects",
		"/api/project-tasks?projectId=1",
		"/api/project-stage-approvals?projectId=1",
		"/api/stage-approvals/pending",
		"/api/notifications",
	} {
		w := httptest.NewRecorder()
		r.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestStagesRoute(t *testing.T) {
	r := newTestRouter(Options{DB: fakePinger{}}, &fakeReplayer{})

	req := httptest.NewRequest(http.MethodGet, "/api/stages", nil)
	req.Header.Set("Authorization", bearer(t, 3, rbac.RoleMember))
	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"stage-1"`)
	assert.Contains(t, w.Body.String(), `"stage-5"`)
}

func TestAdminReplayRoute(t *testing.T) {
	replayer := &fakeReplayer{}
	r := newTestRouter(Options{DB: fakePinger{}}, replayer)

	req := httptest.NewRequest(http.MethodPost, "/admin/outbox/replay?id=42", nil)
	req.Header.Set("Authorization", bearer(t, 1, rbac.RolePM))
	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, replayer.replayed)

	req = httptest.NewRequest(http.MethodPost, "/admin/outbox/replay?id=42", nil)
	req.Header.Set("Authorization", bearer(t, 1, rbac.RoleAdmin))
	w = httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int64{42}, replayer.replayed)
}
