package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ActionInvoiceGenerated     = "invoice.generated"
	ActionInvoiceStatusChanged = "invoice.status_changed"
	ActionLedgerEntryRecorded  = "ledger.entry_recorded"
	ActionLedgerEntryPaidOut   = "ledger.entry_paid_out"
	ActionPayoutDispatched     = "payout.dispatched"
	ActionReportFiled          = "report.filed"
)

const ActorTypeSystem = "system"

type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey"`
	VendorID   *string           `gorm:"type:text;index"`
	ActorType  string            `gorm:"type:text;not null"`
	ActorID    *string           `gorm:"type:text"`
	Action     string            `gorm:"type:text;not null;index"`
	TargetType string            `gorm:"type:text;not null"`
	TargetID   *string           `gorm:"type:text"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP;index"`
}

func (AuditLog) TableName() string { return "audit_logs" }

// Entry is a financial event to be written to the trail.
type Entry struct {
	VendorID   string
	ActorType  string
	ActorID    string
	Action     string
	TargetType string
	TargetID   string
	Metadata   map[string]any
}

type ListFilter struct {
	VendorID   string
	Action     string
	TargetType string
	TargetID   string
	StartAt    *time.Time
	EndAt      *time.Time
	Limit      int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditLog) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*AuditLog, error)
}
