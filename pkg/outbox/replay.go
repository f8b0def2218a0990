package outbox

import (
	"context"
	"fmt"
)

// ReplayService 手动重放 outbox 事件
type ReplayService struct {
	store      Store
	publisher  Publisher
	maxRetries int
}

func NewReplayService(store Store, publisher Publisher) *ReplayService {
	return &ReplayService{
		store:      store,
		publisher:  publisher,
		maxRetries: 5,
	}
}

// ReplayEvent 重放指定的事件，不论其当前状态
func (s *ReplayService) ReplayEvent(ctx context.Context, eventID int64) error {
	event, err := s.store.GetEventByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to get event: %w", err)
	}

	if err := publishEvent(ctx, s.publisher, event); err != nil {
		if markErr := s.store.MarkAsFailed(ctx, eventID, s.maxRetries); markErr != nil {
			return fmt.Errorf("failed to publish and mark as failed: %w (mark error: %v)", err, markErr)
		}
		return fmt.Errorf("failed to publish: %w", err)
	}

	if err := s.store.MarkAsSent(ctx, eventID); err != nil {
		return fmt.Errorf("failed to mark as sent: %w", err)
	}
	return nil
}

// ReplayFailedEvents 重放所有失败的事件，返回成功数量
func (s *ReplayService) ReplayFailedEvents(ctx context.Context, limit int) (int, error) {
	events, err := s.store.GetFailedEvents(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to get failed events: %w", err)
	}

	successCount := 0
	for _, event := range events {
		if err := s.ReplayEvent(ctx, event.ID); err != nil {
			continue
		}
		successCount++
	}
	return successCount, nil
}
