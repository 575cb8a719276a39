package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	auditdomain "github.com/smallbiznis/gstengine/internal/audit/domain"
	"github.com/smallbiznis/gstengine/internal/clock"
	"github.com/smallbiznis/gstengine/internal/observability/metrics"
	"github.com/smallbiznis/gstengine/internal/payout/adapters"
	payoutdomain "github.com/smallbiznis/gstengine/internal/payout/domain"
	"github.com/smallbiznis/gstengine/pkg/kv"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	keyPrefix     = "payout:idem:"
	pendingPrefix = "pending:"
	inFlightTTL   = 5 * time.Minute
	completedTTL  = 90 * 24 * time.Hour
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Store    kv.Store
	Registry *adapters.Registry
	AuditSvc auditdomain.Service `optional:"true"`
	Metrics  *metrics.Metrics    `optional:"true"`
	Clock    clock.Clock
}

type Service struct {
	log      *zap.Logger
	store    kv.Store
	registry *adapters.Registry
	auditSvc auditdomain.Service
	metrics  *metrics.Metrics
	clock    clock.Clock
}

func New(p Params) *Service {
	return &Service{
		log:      p.Log.Named("payout.service"),
		store:    p.Store,
		registry: p.Registry,
		auditSvc: p.AuditSvc,
		metrics:  p.Metrics,
		clock:    p.Clock,
	}
}

// Dispatch sends in through the named provider at most once per
// idempotency key. A completed key returns the stored transfer without
// calling the provider; a key still being dispatched fails ErrPayoutInFlight;
// a provider failure frees the key for a later retry.
func (s *Service) Dispatch(ctx context.Context, providerName string, in payoutdomain.Instruction, idempotencyKey string) (*payoutdomain.Transfer, error) {
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if idempotencyKey == "" {
		return nil, payoutdomain.ErrInvalidInstruction.WithField("idempotency_key")
	}
	if err := validate(&in); err != nil {
		return nil, err
	}
	provider, err := s.registry.Get(providerName)
	if err != nil {
		return nil, err
	}

	key := keyPrefix + idempotencyKey
	pending := pendingPrefix + uuid.NewString()
	acquired, err := s.store.SetNX(ctx, key, pending, inFlightTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return s.replay(ctx, key, in)
	}

	reference, err := provider.Transfer(ctx, in, idempotencyKey)
	if err != nil {
		if _, releaseErr := s.store.CompareAndDelete(context.WithoutCancel(ctx), key, pending); releaseErr != nil {
			s.log.Warn("failed to release payout guard", zap.String("idempotency_key", idempotencyKey), zap.Error(releaseErr))
		}
		s.log.Warn("payout dispatch failed",
			zap.String("provider", provider.Name()),
			zap.String("order_id", in.OrderID),
			zap.Error(err),
		)
		s.metrics.RecordPayoutDispatch(ctx, provider.Name(), "failed")
		return nil, payoutdomain.ErrDispatchFailed.Wrap(err)
	}

	transfer := &payoutdomain.Transfer{
		Provider:       provider.Name(),
		Reference:      reference,
		IdempotencyKey: idempotencyKey,
		VendorID:       in.VendorID,
		OrderID:        in.OrderID,
		Amount:         in.Amount,
		Currency:       in.Currency,
		DispatchedAt:   s.clock.Now().UTC(),
	}
	encoded, err := json.Marshal(transfer)
	if err != nil {
		return nil, err
	}
	// On failure the pending guard stays in place until it expires.
	if err := s.store.Set(context.WithoutCancel(ctx), key, string(encoded), completedTTL); err != nil {
		s.log.Error("failed to persist payout transfer",
			zap.String("idempotency_key", idempotencyKey),
			zap.String("reference", reference),
			zap.Error(err),
		)
	}

	s.log.Info("payout dispatched",
		zap.String("provider", transfer.Provider),
		zap.String("reference", reference),
		zap.String("vendor_id", in.VendorID),
		zap.String("order_id", in.OrderID),
		zap.Int64("amount", in.Amount),
	)
	s.metrics.RecordPayoutDispatch(ctx, transfer.Provider, "dispatched")
	s.audit(ctx, transfer)
	return transfer, nil
}

func (s *Service) Lookup(ctx context.Context, idempotencyKey string) (*payoutdomain.Transfer, error) {
	raw, ok, err := s.store.Get(ctx, keyPrefix+strings.TrimSpace(idempotencyKey))
	if err != nil {
		return nil, err
	}
	if !ok || strings.HasPrefix(raw, pendingPrefix) {
		return nil, payoutdomain.ErrTransferNotFound.WithField("idempotency_key")
	}
	var transfer payoutdomain.Transfer
	if err := json.Unmarshal([]byte(raw), &transfer); err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (s *Service) replay(ctx context.Context, key string, in payoutdomain.Instruction) (*payoutdomain.Transfer, error) {
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok || strings.HasPrefix(raw, pendingPrefix) {
		s.metrics.RecordPayoutDispatch(ctx, "", "in_flight")
		return nil, payoutdomain.ErrPayoutInFlight.WithField("idempotency_key")
	}
	var transfer payoutdomain.Transfer
	if err := json.Unmarshal([]byte(raw), &transfer); err != nil {
		return nil, err
	}
	if !transfer.Matches(in) {
		return nil, payoutdomain.ErrInvalidInstruction.
			WithField("idempotency_key").
			WithMessage("idempotency key was used for order %s amount %d", transfer.OrderID, transfer.Amount)
	}
	s.metrics.RecordPayoutDispatch(ctx, transfer.Provider, "replayed")
	return &transfer, nil
}

func (s *Service) audit(ctx context.Context, transfer *payoutdomain.Transfer) {
	if s.auditSvc == nil {
		return
	}
	if err := s.auditSvc.AuditLog(ctx, auditdomain.Entry{
		VendorID:   transfer.VendorID,
		Action:     auditdomain.ActionPayoutDispatched,
		TargetType: "payout",
		TargetID:   transfer.Reference,
		Metadata: map[string]any{
			"provider":        transfer.Provider,
			"order_id":        transfer.OrderID,
			"amount":          transfer.Amount,
			"currency":        transfer.Currency,
			"idempotency_key": transfer.IdempotencyKey,
		},
	}); err != nil {
		s.log.Warn("payout audit failed", zap.Error(err))
	}
}

func validate(in *payoutdomain.Instruction) error {
	in.VendorID = strings.TrimSpace(in.VendorID)
	in.OrderID = strings.TrimSpace(in.OrderID)
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	switch {
	case in.VendorID == "":
		return payoutdomain.ErrInvalidInstruction.WithField("vendor_id")
	case in.OrderID == "":
		return payoutdomain.ErrInvalidInstruction.WithField("order_id")
	case in.Amount <= 0:
		return payoutdomain.ErrInvalidInstruction.WithField("amount").WithMessage("amount must be positive, got %d", in.Amount)
	case in.Currency == "":
		return payoutdomain.ErrInvalidInstruction.WithField("currency")
	}
	return nil
}

var _ payoutdomain.Service = (*Service)(nil)
