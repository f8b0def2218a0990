package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// InsertEventInTx 在调用方事务中写入 outbox，事件与业务行一起提交或回滚
func InsertEventInTx(ctx context.Context, tx pgx.Tx, repo *Repository, aggregateType string, aggregateID *int64, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", routingKey, err)
	}

	if err := repo.InsertEvent(ctx, tx, &Event{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		RoutingKey:    routingKey,
		Payload:       body,
		Status:        StatusPending,
	}); err != nil {
		return fmt.Errorf("insert %s outbox event: %w", routingKey, err)
	}
	return nil
}
