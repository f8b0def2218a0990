package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil))
	assert.ErrorIs(t, mapError(pgx.ErrNoRows), ErrNotFound)
	assert.ErrorIs(t, mapError(fmt.Errorf("scan: %w", pgx.ErrNoRows)), ErrNotFound)
	assert.ErrorIs(t, mapError(&pgconn.PgError{Code: "23505"}), ErrDuplicate)

	other := errors.New("connection reset")
	assert.Equal(t, other, mapError(other))
	fk := &pgconn.PgError{Code: "23503"}
	assert.Equal(t, error(fk), mapError(fk))
}
