package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsDuplicateKeyErr(t *testing.T) {
	assert.False(t, IsDuplicateKeyErr(nil))
	assert.True(t, IsDuplicateKeyErr(gorm.ErrDuplicatedKey))
	assert.True(t, IsDuplicateKeyErr(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsDuplicateKeyErr(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsDuplicateKeyErr(errors.New("UNIQUE constraint failed: invoices.order_id")))
	assert.True(t, IsDuplicateKeyErr(errors.New("Error 1062: Duplicate entry")))
	assert.False(t, IsDuplicateKeyErr(errors.New("boom")))
}

func TestIsTransientErr(t *testing.T) {
	assert.True(t, IsTransientErr(&pgconn.PgError{Code: "40001"}))
	assert.True(t, IsTransientErr(&pgconn.PgError{Code: "08006"}))
	assert.False(t, IsTransientErr(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsTransientErr(errors.New("database is locked")))
	assert.False(t, IsTransientErr(errors.New("syntax error")))
	assert.False(t, IsTransientErr(nil))
}
