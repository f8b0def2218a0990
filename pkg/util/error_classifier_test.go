package util

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsRetryableError(t *testing.T) {
	var syntaxErr error
	{
		var v map[string]any
		syntaxErr = json.Unmarshal([]byte("{"), &v)
	}

	tests := []struct {
		name      string
		err       error
		retryable bool
		kind      string
	}{
		{"nil", nil, false, ""},
		{"json", syntaxErr, false, "json_decode_error"},
		{"no rows", fmt.Errorf("load: %w", pgx.ErrNoRows), false, "not_found"},
		{"unique", &pgconn.PgError{Code: "23505"}, false, "constraint_violation"},
		{"foreign key", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"}), false, "constraint_violation"},
		{"connection", &pgconn.PgError{Code: "08006"}, true, "db_connection_error"},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true, "db_serialization_error"},
		{"syntax", &pgconn.PgError{Code: "42601"}, false, "db_error"},
		{"deadline", context.DeadlineExceeded, true, "timeout"},
		{"canceled", context.Canceled, false, "context_canceled"},
		{"other", errors.New("boom"), true, "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retryable, kind := IsRetryableError(tt.err)
			assert.Equal(t, tt.retryable, retryable)
			assert.Equal(t, tt.kind, kind)
		})
	}
}
