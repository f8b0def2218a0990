package mqhandler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	mqcontracts "pmboard/contracts/mq"
	"pmboard/internal/model"
	"pmboard/pkg/trace"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memNotifications struct {
	rows []model.Notification
	err  error
}

func (m *memNotifications) Insert(ctx context.Context, n *model.Notification) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	for _, r := range m.rows {
		if r.UserID == n.UserID && r.EventID == n.EventID {
			return false, nil
		}
	}
	n.ID = len(m.rows) + 1
	m.rows = append(m.rows, *n)
	return true, nil
}

type memDeduper struct {
	seen     map[string]bool
	released []string
}

func newMemDeduper() *memDeduper {
	return &memDeduper{seen: map[string]bool{}}
}

func (d *memDeduper) AcquireOnce(ctx context.Context, handler, eventID string) bool {
	key := handler + ":" + eventID
	if d.seen[key] {
		return false
	}
	d.seen[key] = true
	return true
}

func (d *memDeduper) Release(ctx context.Context, handler, eventID string) {
	delete(d.seen, handler+":"+eventID)
	d.released = append(d.released, eventID)
}

func raw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestStageNotificationRecipients(t *testing.T) {
	tests := []struct {
		name       string
		routingKey string
		payload    mqcontracts.StageEventPayload
		wantUser   int
		wantType   string
		wantText   string
	}{
		{
			name:       "submitted notifies lead",
			routingKey: mqcontracts.RoutingStageSubmitted,
			payload:    mqcontracts.StageEventPayload{EventID: "e1", ProjectID: 1, ProjectName: "Apollo", StageID: "stage-2", ActorID: 3, RequesterID: 3, LeadID: 2},
			wantUser:   2,
			wantType:   TypeStageSubmitted,
			wantText:   "submitted for approval",
		},
		{
			name:       "approved notifies requester",
			routingKey: mqcontracts.RoutingStageApproved,
			payload:    mqcontracts.StageEventPayload{EventID: "e2", ProjectID: 1, StageID: "stage-2", ActorID: 1, RequesterID: 3, LeadID: 2},
			wantUser:   3,
			wantType:   TypeStageApproved,
			wantText:   "approved",
		},
		{
			name:       "rejected carries comment",
			routingKey: mqcontracts.RoutingStageRejected,
			payload:    mqcontracts.StageEventPayload{EventID: "e3", ProjectID: 1, StageID: "stage-2", ActorID: 1, RequesterID: 3, LeadID: 2, Comment: "missing budget"},
			wantUser:   3,
			wantType:   TypeStageRejected,
			wantText:   "missing budget",
		},
		{
			name:       "decision without requester falls back to lead",
			routingKey: mqcontracts.RoutingStageApproved,
			payload:    mqcontracts.StageEventPayload{EventID: "e4", ProjectID: 1, StageID: "stage-1", ActorID: 1, LeadID: 2},
			wantUser:   2,
			wantType:   TypeStageApproved,
			wantText:   "approved",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &memNotifications{}
			h := NewStageNotificationHandler(repo, newMemDeduper(), zap.NewNop())

			require.NoError(t, h.Handle(tt.routingKey)(context.Background(), raw(t, tt.payload)))
			require.Len(t, repo.rows, 1)
			assert.Equal(t, tt.wantUser, repo.rows[0].UserID)
			assert.Equal(t, tt.wantType, repo.rows[0].Type)
			assert.Equal(t, tt.payload.EventID, repo.rows[0].EventID)
			assert.Contains(t, repo.rows[0].Content, tt.wantText)
		})
	}
}

func TestStageNotificationSkipsSelf(t *testing.T) {
	repo := &memNotifications{}
	h := NewStageNotificationHandler(repo, newMemDeduper(), zap.NewNop())

	// the lead submitting their own stage
	p := mqcontracts.StageEventPayload{EventID: "e1", ProjectID: 1, StageID: "stage-1", ActorID: 2, RequesterID: 2, LeadID: 2}
	require.NoError(t, h.Handle(mqcontracts.RoutingStageSubmitted)(context.Background(), raw(t, p)))
	assert.Empty(t, repo.rows)
}

func TestDuplicateDeliveryIsIgnored(t *testing.T) {
	repo := &memNotifications{}
	h := NewStageNotificationHandler(repo, newMemDeduper(), zap.NewNop())
	handle := h.Handle(mqcontracts.RoutingStageSubmitted)

	p := raw(t, mqcontracts.StageEventPayload{EventID: "e1", ProjectID: 1, StageID: "stage-1", ActorID: 3, LeadID: 2})
	require.NoError(t, handle(context.Background(), p))
	require.NoError(t, handle(context.Background(), p))
	assert.Len(t, repo.rows, 1)
}

func TestMalformedPayloadIsAcked(t *testing.T) {
	repo := &memNotifications{}
	h := NewStageNotificationHandler(repo, newMemDeduper(), zap.NewNop())

	assert.NoError(t, h.Handle(mqcontracts.RoutingStageSubmitted)(context.Background(), json.RawMessage(`{"event_id":`)))
	assert.Empty(t, repo.rows)
}

func TestRetryableFailureReleasesDedup(t *testing.T) {
	repo := &memNotifications{err: errors.New("connection reset by peer")}
	dedup := newMemDeduper()
	h := NewBlockerNotificationHandler(repo, dedup, zap.NewNop())

	p := raw(t, mqcontracts.BlockerReportedPayload{EventID: "b1", BlockerID: 4, TaskID: 9, ProjectID: 1, ReporterID: 3, LeadID: 2, Reason: "vendor"})
	err := h.HandleBlockerReported(context.Background(), p)
	require.Error(t, err)
	assert.Equal(t, []string{"b1"}, dedup.released)

	// the redelivery succeeds once the store recovers
	repo.err = nil
	require.NoError(t, h.HandleBlockerReported(context.Background(), p))
	require.Len(t, repo.rows, 1)
	assert.Equal(t, 2, repo.rows[0].UserID)
	assert.Equal(t, TypeBlockerReported, repo.rows[0].Type)
	assert.Contains(t, repo.rows[0].Content, "task #9")
}

func TestPermanentFailureIsAcked(t *testing.T) {
	repo := &memNotifications{err: &pgconn.PgError{Code: "23503"}}
	dedup := newMemDeduper()
	h := NewBlockerNotificationHandler(repo, dedup, zap.NewNop())

	p := raw(t, mqcontracts.BlockerReportedPayload{EventID: "b1", ProjectID: 1, ReporterID: 3, LeadID: 2})
	assert.NoError(t, h.HandleBlockerReported(context.Background(), p))
	assert.Empty(t, dedup.released)
}

func TestWithPayloadTrace(t *testing.T) {
	ctx := withPayloadTrace(context.Background(), "from-payload")
	assert.Equal(t, "from-payload", trace.FromContext(ctx))

	ctx = withPayloadTrace(trace.WithContext(context.Background(), "from-header"), "from-payload")
	assert.Equal(t, "from-header", trace.FromContext(ctx))

	assert.Empty(t, trace.FromContext(withPayloadTrace(context.Background(), "")))
}
