// Package testkit wires the invoicing pipeline on an in-memory database for
// tests in other packages.
package testkit

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/gstengine/internal/audit/domain"
	auditrepo "github.com/smallbiznis/gstengine/internal/audit/repository"
	auditservice "github.com/smallbiznis/gstengine/internal/audit/service"
	"github.com/smallbiznis/gstengine/internal/clock"
	"github.com/smallbiznis/gstengine/internal/config"
	invoicedomain "github.com/smallbiznis/gstengine/internal/invoice/domain"
	"github.com/smallbiznis/gstengine/internal/invoice/render"
	invoicerepo "github.com/smallbiznis/gstengine/internal/invoice/repository"
	invoiceservice "github.com/smallbiznis/gstengine/internal/invoice/service"
	ledgerdomain "github.com/smallbiznis/gstengine/internal/ledger/domain"
	ledgerrepo "github.com/smallbiznis/gstengine/internal/ledger/repository"
	ledgerservice "github.com/smallbiznis/gstengine/internal/ledger/service"
	"github.com/smallbiznis/gstengine/internal/observability/metrics"
	payoutadapters "github.com/smallbiznis/gstengine/internal/payout/adapters"
	"github.com/smallbiznis/gstengine/internal/payout/adapters/manual"
	payoutservice "github.com/smallbiznis/gstengine/internal/payout/service"
	"github.com/smallbiznis/gstengine/internal/providers/email"
	sequencedomain "github.com/smallbiznis/gstengine/internal/sequence/domain"
	sequencerepo "github.com/smallbiznis/gstengine/internal/sequence/repository"
	sequenceservice "github.com/smallbiznis/gstengine/internal/sequence/service"
	settlementdomain "github.com/smallbiznis/gstengine/internal/settlement/domain"
	settlementrepo "github.com/smallbiznis/gstengine/internal/settlement/repository"
	settlementservice "github.com/smallbiznis/gstengine/internal/settlement/service"
	taxdomain "github.com/smallbiznis/gstengine/internal/tax/domain"
	taxrepo "github.com/smallbiznis/gstengine/internal/tax/repository"
	taxservice "github.com/smallbiznis/gstengine/internal/tax/service"
	"github.com/smallbiznis/gstengine/pkg/db"
	"github.com/smallbiznis/gstengine/pkg/kv"
	"github.com/smallbiznis/gstengine/pkg/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	VendorTaxID   = "27AAPFU0939F1ZV"
	CustomerTaxID = "29AAGCB7383J1Z4"
)

// Harness holds a fully wired invoicing stack.
type Harness struct {
	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      *clock.FakeClock
	Rules      *config.TaxRulesHolder
	Metrics    *metrics.Metrics
	Email      *email.NoOpProvider
	Audit      auditdomain.Service
	Resolver   *taxservice.Resolver
	Calculator *taxservice.Calculator
	Allocator  *sequenceservice.Service
	Generator  *invoiceservice.Generator
	Invoices   *invoiceservice.Service
	InvoiceDB  invoicedomain.Repository

	KV      *kv.MemoryStore
	Ledger  ledgerdomain.Service
	TDS     *settlementservice.TDSService
	Split   *settlementservice.SplitCalculator
	Manual  *manual.Provider
	Payouts *payoutservice.Service
}

// Option adjusts the tax rules before the stack is built.
type Option func(*config.TaxRules)

func WithRules(fn func(*config.TaxRules)) Option {
	return Option(fn)
}

// New builds the stack and migrates models plus the invoicing tables.
func New(t testing.TB, models []any, opts ...Option) *Harness {
	t.Helper()

	all := append([]any{
		&taxdomain.RateEntry{},
		&sequencedomain.Counter{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceLine{},
		&auditdomain.AuditLog{},
		&ledgerdomain.Entry{},
		&settlementdomain.TDSRecord{},
		&settlementdomain.CumulativePayout{},
	}, models...)
	conn := db.NewTest(t, all...)

	node, err := snowflake.NewNode(7)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	rules := config.DefaultTaxRules()
	for _, opt := range opts {
		opt(&rules)
	}

	h := &Harness{
		DB:      conn,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   clock.NewFakeClock(time.Date(2024, 7, 15, 6, 30, 0, 0, time.UTC)),
		Rules:   config.NewStaticTaxRules(rules),
		Metrics: metrics.NewNoop(),
		Email:   &email.NoOpProvider{},
	}

	h.Audit = auditservice.NewService(auditservice.Params{
		DB:    conn,
		Log:   h.Log,
		GenID: node,
		Repo:  auditrepo.Provide(),
		Clock: h.Clock,
	})

	rateRepo := taxrepo.NewRepository(conn)
	h.Resolver = taxservice.NewResolver(taxservice.ResolverParams{Log: h.Log, Repository: rateRepo})
	seeder := taxservice.NewSeeder(taxservice.SeederParams{
		Log:      h.Log,
		Repo:     rateRepo,
		Rules:    h.Rules,
		Resolver: h.Resolver,
		Clock:    h.Clock,
	})
	if _, err := seeder.Seed(t.Context()); err != nil {
		t.Fatalf("seed rates: %v", err)
	}
	h.Calculator = taxservice.NewCalculator(taxservice.CalculatorParams{Resolver: h.Resolver})

	h.Allocator = sequenceservice.New(sequenceservice.Params{
		Log:     h.Log,
		Store:   sequencerepo.NewGormStore(conn),
		Rules:   h.Rules,
		Metrics: h.Metrics,
	})

	h.Generator = invoiceservice.NewGenerator(invoiceservice.GeneratorParams{
		Log:        h.Log,
		GenID:      node,
		Calculator: h.Calculator,
		Allocator:  h.Allocator,
		Rules:      h.Rules,
		Validator:  validation.New(),
		Clock:      h.Clock,
	})

	h.InvoiceDB = invoicerepo.Provide()
	h.Invoices = invoiceservice.NewService(invoiceservice.ServiceParam{
		DB:        conn,
		Log:       h.Log,
		Repo:      h.InvoiceDB,
		Generator: h.Generator,
		Renderer:  render.NewPDF(),
		Email:     h.Email,
		AuditSvc:  h.Audit,
		Metrics:   h.Metrics,
		Clock:     h.Clock,
	})

	h.KV = kv.NewMemoryStore().WithClock(h.Clock.Now)
	h.Ledger = ledgerservice.NewService(ledgerservice.Params{
		DB:       conn,
		Log:      h.Log,
		GenID:    node,
		Repo:     ledgerrepo.Provide(),
		AuditSvc: h.Audit,
		Metrics:  h.Metrics,
		Clock:    h.Clock,
	})
	h.TDS = settlementservice.NewTDSService(settlementservice.TDSParams{
		DB:      conn,
		Log:     h.Log,
		GenID:   node,
		Repo:    settlementrepo.Provide(),
		Rules:   h.Rules,
		Metrics: h.Metrics,
		Clock:   h.Clock,
	})
	h.Split = settlementservice.NewSplitCalculator()
	h.Manual = manual.New()
	h.Payouts = payoutservice.New(payoutservice.Params{
		Log:      h.Log,
		Store:    h.KV,
		Registry: payoutadapters.NewRegistry(h.Manual),
		AuditSvc: h.Audit,
		Metrics:  h.Metrics,
		Clock:    h.Clock,
	})
	return h
}
