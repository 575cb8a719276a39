package scheduler

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	auditdomain "github.com/smallbiznis/gstengine/internal/audit/domain"
	"github.com/smallbiznis/gstengine/internal/fiscal"
	obsmetrics "github.com/smallbiznis/gstengine/internal/observability/metrics"
	reportdomain "github.com/smallbiznis/gstengine/internal/report/domain"
	reportservice "github.com/smallbiznis/gstengine/internal/report/service"
	"github.com/smallbiznis/gstengine/internal/report/sink"
	schedtesting "github.com/smallbiznis/gstengine/internal/scheduler/testing"
	"github.com/smallbiznis/gstengine/internal/testkit"
	"github.com/smallbiznis/gstengine/pkg/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	h        *testkit.Harness
	sched    *Scheduler
	sink     *sink.Memory
	locker   *kv.Locker
	registry *prometheus.Registry
	clock    *schedtesting.PeriodClock
}

func newEnv(t *testing.T) *env {
	t.Helper()
	h := testkit.New(t, nil)
	mem := sink.NewMemory()
	reports := reportservice.NewService(reportservice.Params{
		Log:      h.Log,
		Invoices: h.Invoices,
		TDS:      h.TDS,
		Rules:    h.Rules,
		Store:    h.KV,
		Sink:     mem,
		Metrics:  h.Metrics,
	})
	registry := prometheus.NewRegistry()
	locker := kv.NewLocker(h.KV)
	sched, err := New(Params{
		Log:        h.Log,
		InvoiceSvc: h.Invoices,
		ReportSvc:  reports,
		AuditSvc:   h.Audit,
		Rules:      h.Rules,
		Store:      h.KV,
		Locker:     locker,
		GenID:      h.GenID,
		Clock:      h.Clock,
		Metrics:    obsmetrics.NewSchedulerMetrics(registry, obsmetrics.Config{ServiceName: "gstengine", Environment: "test"}),
	})
	require.NoError(t, err)
	return &env{
		h:        h,
		sched:    sched,
		sink:     mem,
		locker:   locker,
		registry: registry,
		clock:    schedtesting.NewPeriodClock(h.Clock, h.Rules.Get().Calendar()),
	}
}

func (e *env) issue(t *testing.T, vendorID, orderID string) {
	t.Helper()
	_, err := e.h.Invoices.Issue(t.Context(), testkit.Order(orderID, vendorID, 100000, e.h.Clock.Now()), testkit.Vendor(vendorID))
	require.NoError(t, err)
}

func counterValue(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := registry.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, m := range family.GetMetric() {
			matched := 0
			for _, pair := range m.GetLabel() {
				if want, ok := labels[pair.GetName()]; ok && want == pair.GetValue() {
					matched++
				}
			}
			if matched == len(labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestDuePeriods(t *testing.T) {
	cal := fiscal.Default()
	at := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 1, 0, 0, 0, fiscal.IST) }
	keys := func(periods []fiscal.Period) []string {
		out := make([]string, len(periods))
		for i, p := range periods {
			out[i] = p.Key()
		}
		return out
	}

	assert.Equal(t, []string{"2024-07"}, keys(DuePeriods(cal, at(2024, time.August, 1))))
	assert.Equal(t, []string{"2024-06", "2024-25-Q1"}, keys(DuePeriods(cal, at(2024, time.July, 1))))
	assert.Equal(t, []string{"2025-03", "2024-25-Q4"}, keys(DuePeriods(cal, at(2025, time.April, 1))))
	assert.Equal(t, []string{"2024-12", "2024-25-Q3"}, keys(DuePeriods(cal, at(2025, time.January, 10))))
	assert.Equal(t, []string{"2025-01"}, keys(DuePeriods(cal, at(2025, time.February, 10))))
}

func TestPeriodReportsJobFilesPreviousMonth(t *testing.T) {
	e := newEnv(t)
	ctx := t.Context()
	e.issue(t, "V", "ord-1")
	e.issue(t, "W", "ord-2")
	e.clock.StartOfNextMonth()

	require.NoError(t, e.sched.RunOnce(ctx))

	keys := e.sink.Keys()
	assert.Len(t, keys, 12, "two vendors, two kinds, three formats")
	assert.Contains(t, keys[0], "reports/v/2024-07/")

	logs, err := e.h.Audit.List(ctx, auditdomain.ListFilter{Action: auditdomain.ActionReportFiled})
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	require.NoError(t, e.sched.RunOnce(ctx))
	labels := map[string]string{"job": JobPeriodReports, "resource": "vendor"}
	assert.Equal(t, float64(2), counterValue(t, e.registry, "gstengine_scheduler_batch_processed_total", labels),
		"filed period is not regenerated")
	assert.Equal(t, float64(2), counterValue(t, e.registry, "gstengine_scheduler_job_runs_total", map[string]string{"job": JobPeriodReports}))
}

func TestPeriodReportsJobFilesQuarterAtQuarterEnd(t *testing.T) {
	e := newEnv(t)
	e.clock.At(2024, time.June, 20, 12)
	e.issue(t, "V", "ord-1")
	e.clock.StartOfNextQuarter()

	require.NoError(t, e.sched.RunOnce(t.Context()))

	var monthly, quarterly int
	for _, key := range e.sink.Keys() {
		switch {
		case strings.Contains(key, "/2024-06/"):
			monthly++
		case strings.Contains(key, "/2024-25-Q1/"):
			quarterly++
		}
	}
	assert.Equal(t, 6, monthly)
	assert.Equal(t, 6, quarterly)
}

func TestPeriodReportsJobSkipsLockedPeriod(t *testing.T) {
	e := newEnv(t)
	ctx := t.Context()
	e.issue(t, "V", "ord-1")
	e.clock.StartOfNextMonth()

	token, ok, err := e.locker.TryLock(ctx, "scheduler:lock:reports:2024-07", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, e.sched.RunOnce(ctx))
	assert.Empty(t, e.sink.Keys())

	require.NoError(t, e.locker.Release(ctx, "scheduler:lock:reports:2024-07", token))
	require.NoError(t, e.sched.RunOnce(ctx))
	assert.Len(t, e.sink.Keys(), 6)
}

func TestRunJobTimeoutIsSoft(t *testing.T) {
	e := newEnv(t)

	err := e.sched.runJob(t.Context(), "timeout_job", 5*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, err)

	assert.Equal(t, float64(1), counterValue(t, e.registry, "gstengine_scheduler_job_timeouts_total", map[string]string{"job": "timeout_job"}))
	assert.Equal(t, float64(1), counterValue(t, e.registry, "gstengine_scheduler_job_errors_total", map[string]string{
		"job":    "timeout_job",
		"reason": obsmetrics.SchedulerJobReasonDeadlineExceeded,
	}))
}

func TestRunJobWrapsErrors(t *testing.T) {
	e := newEnv(t)

	err := e.sched.runJob(t.Context(), "failing_job", time.Second, func(context.Context) error {
		return reportdomain.ErrInvalidKind
	})
	require.ErrorIs(t, err, reportdomain.ErrInvalidKind)
	assert.Contains(t, err.Error(), "failing_job")
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Params{})
	require.ErrorIs(t, err, ErrInvalidConfig)
}
