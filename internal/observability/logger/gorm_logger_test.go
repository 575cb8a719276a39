package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smallbiznis/gstengine/pkg/telemetry/correlation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestDescribeStatement(t *testing.T) {
	cases := []struct {
		sql, op, table string
	}{
		{`SELECT * FROM "invoices" WHERE order_id = $1`, "SELECT", "invoices"},
		{`INSERT INTO "commission_ledger_entries" ("id") VALUES ($1) ON CONFLICT DO NOTHING`, "INSERT", "commission_ledger_entries"},
		{`UPDATE public.invoice_sequences SET last_value = last_value + 1`, "UPDATE", "invoice_sequences"},
		{`WITH x AS (SELECT 1) DELETE FROM tds_records`, "SELECT", "tds_records"},
		{``, "UNKNOWN", ""},
	}
	for _, tc := range cases {
		op, table := describeStatement(tc.sql)
		assert.Equal(t, tc.op, op, tc.sql)
		assert.Equal(t, tc.table, table, tc.sql)
	}
}

func TestGormLoggerTrace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewGormLogger(zap.New(core), DefaultGormLoggerConfig())
	ctx := correlation.ContextWithCorrelationID(context.Background(), "ord-9")
	stmt := func() (string, int64) { return `SELECT * FROM "invoices"`, 0 }

	l.Trace(ctx, time.Now(), stmt, gormlogger.ErrRecordNotFound)
	l.Trace(ctx, time.Now(), stmt, nil)
	require.Zero(t, logs.Len())

	l.Trace(ctx, time.Now(), stmt, errors.New("boom"))
	l.Trace(ctx, time.Now().Add(-time.Second), stmt, nil)

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, "gorm statement failed", entries[0].Message)
	assert.Equal(t, "gorm statement slow", entries[1].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "invoices", fields["table"])
	assert.Equal(t, "ord-9", fields["correlation_id"])
}
