package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/gstengine/internal/audit/domain"
	"github.com/smallbiznis/gstengine/internal/audit/repository"
	"github.com/smallbiznis/gstengine/internal/clock"
	"github.com/smallbiznis/gstengine/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuditService(t *testing.T) auditdomain.Service {
	t.Helper()
	conn := db.NewTest(t, &auditdomain.AuditLog{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return NewService(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
		Clock: clock.NewFakeClock(time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC)),
	})
}

func TestAuditLogMasksTaxIDs(t *testing.T) {
	svc := newAuditService(t)
	ctx := context.Background()

	err := svc.AuditLog(ctx, auditdomain.Entry{
		VendorID:   "V1",
		Action:     auditdomain.ActionInvoiceGenerated,
		TargetType: "invoice",
		TargetID:   "V1/2024-25/00001",
		Metadata: map[string]any{
			"customer_tax_id": "27AAPFU0939F1ZV",
			"gross_total":     112000,
		},
	})
	require.NoError(t, err)

	logs, err := svc.List(ctx, auditdomain.ListFilter{VendorID: "V1"})
	require.NoError(t, err)
	require.Len(t, logs, 1)

	entry := logs[0]
	assert.Equal(t, auditdomain.ActorTypeSystem, entry.ActorType)
	assert.Equal(t, "27****1ZV", entry.Metadata["customer_tax_id"])
	assert.Equal(t, json.Number("112000"), entry.Metadata["gross_total"])
	require.NotNil(t, entry.TargetID)
	assert.Equal(t, "V1/2024-25/00001", *entry.TargetID)
}

func TestAuditLogRequiresAction(t *testing.T) {
	svc := newAuditService(t)
	err := svc.AuditLog(context.Background(), auditdomain.Entry{Action: " "})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidAction)
}

func TestListFiltersByAction(t *testing.T) {
	svc := newAuditService(t)
	ctx := context.Background()

	require.NoError(t, svc.AuditLog(ctx, auditdomain.Entry{VendorID: "V1", Action: auditdomain.ActionInvoiceGenerated}))
	require.NoError(t, svc.AuditLog(ctx, auditdomain.Entry{VendorID: "V1", Action: auditdomain.ActionLedgerEntryRecorded}))

	logs, err := svc.List(ctx, auditdomain.ListFilter{Action: auditdomain.ActionLedgerEntryRecorded})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, auditdomain.ActionLedgerEntryRecorded, logs[0].Action)

	start := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	_, err = svc.List(ctx, auditdomain.ListFilter{StartAt: &start, EndAt: &end})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidTimeRange)
}
