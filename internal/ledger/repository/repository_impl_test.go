package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	ledgerdomain "github.com/smallbiznis/gstengine/internal/ledger/domain"
	"github.com/smallbiznis/gstengine/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func entry(id int64, orderID string) *ledgerdomain.Entry {
	at := time.Date(2024, 7, 15, 6, 30, 0, 0, time.UTC)
	return &ledgerdomain.Entry{
		ID:               snowflake.ID(id),
		VendorID:         "V",
		OrderID:          orderID,
		InvoiceID:        snowflake.ID(id + 100),
		InvoiceNumber:    "V/2024-25/00001",
		FiscalYear:       "2024-25",
		OrderValue:       1_000,
		CommissionPct:    decimal.NewFromInt(10),
		CommissionAmount: 100,
		WithheldPct:      decimal.Zero,
		NetAmount:        900,
		Currency:         "INR",
		Status:           ledgerdomain.StatusPending,
		OccurredAt:       at,
		CreatedAt:        at,
		UpdatedAt:        at,
	}
}

func TestInsertIgnoresDuplicateOrder(t *testing.T) {
	conn := db.NewTest(t, &ledgerdomain.Entry{})
	repo := Provide()
	ctx := context.Background()

	inserted, err := repo.Insert(ctx, conn, entry(1, "ord-1"))
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.Insert(ctx, conn, entry(2, "ord-1"))
	require.NoError(t, err)
	assert.False(t, inserted)

	stored, err := repo.FindByOrderID(ctx, conn, "ord-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, snowflake.ID(1), stored.ID)
}

func TestInsertRendersMySQLConflictClause(t *testing.T) {
	conn, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "app:secret@tcp(127.0.0.1:3306)/gst?parseTime=True",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)

	var rendered string
	require.NoError(t, conn.Callback().Create().After("gorm:create").Register("capture_sql", func(tx *gorm.DB) {
		rendered = tx.Statement.SQL.String()
	}))

	_, err = Provide().Insert(context.Background(), conn, entry(1, "ord-1"))
	require.NoError(t, err)
	assert.Contains(t, rendered, "INSERT INTO `commission_ledger_entries`")
	assert.Contains(t, rendered, "ON DUPLICATE KEY UPDATE")
	assert.NotContains(t, rendered, "ON CONFLICT")
}
