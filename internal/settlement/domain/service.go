package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type SplitCalculator interface {
	Split(in SplitInput) (PayoutSplit, error)
}

type TDSService interface {
	Withhold(ctx context.Context, in TDSInput) (*TDSRecord, error)
	WithholdTx(ctx context.Context, tx *gorm.DB, in TDSInput) (*TDSRecord, bool, error)
	Recorded(ctx context.Context, record *TDSRecord)
	ForOrder(ctx context.Context, orderID string) (*TDSRecord, error)
	Certificate(ctx context.Context, vendorID, fiscalYear string, quarter int) (*CertificateSummary, error)
	WithheldBetween(ctx context.Context, vendorID string, from, to time.Time) (int64, error)
}
