package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/gstengine/internal/audit/domain"
	"github.com/smallbiznis/gstengine/internal/clock"
	"github.com/smallbiznis/gstengine/internal/config"
	"github.com/smallbiznis/gstengine/internal/fiscal"
	invoicedomain "github.com/smallbiznis/gstengine/internal/invoice/domain"
	obslogger "github.com/smallbiznis/gstengine/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/gstengine/internal/observability/metrics"
	reportdomain "github.com/smallbiznis/gstengine/internal/report/domain"
	"github.com/smallbiznis/gstengine/pkg/kv"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

const filedTTL = 400 * 24 * time.Hour

type Params struct {
	fx.In

	Log        *zap.Logger
	InvoiceSvc invoicedomain.Service
	ReportSvc  reportdomain.Service
	AuditSvc   auditdomain.Service `optional:"true"`
	Rules      *config.TaxRulesHolder
	Store      kv.Store
	Locker     *kv.Locker
	GenID      *snowflake.Node
	Clock      clock.Clock
	Config     Config                       `optional:"true"`
	Metrics    *obsmetrics.SchedulerMetrics `optional:"true"`
}

type Scheduler struct {
	log        *zap.Logger
	cfg        Config
	genID      *snowflake.Node
	clock      clock.Clock
	invoiceSvc invoicedomain.Service
	reportSvc  reportdomain.Service
	auditSvc   auditdomain.Service
	rules      *config.TaxRulesHolder
	store      kv.Store
	locker     *kv.Locker
	metrics    *obsmetrics.SchedulerMetrics
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.InvoiceSvc == nil || p.ReportSvc == nil || p.Store == nil || p.Locker == nil || p.GenID == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	m := p.Metrics
	if m == nil {
		m = obsmetrics.Scheduler()
	}
	return &Scheduler{
		log:        p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:        p.Config.withDefaults(),
		genID:      p.GenID,
		clock:      p.Clock,
		invoiceSvc: p.InvoiceSvc,
		reportSvc:  p.ReportSvc,
		auditSvc:   p.AuditSvc,
		rules:      p.Rules,
		store:      p.Store,
		locker:     p.Locker,
		metrics:    m,
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run, owner := s.ensureJobRun(ctx, name)
	if owner {
		s.logJobStart(ctx, run)
	}
	log := s.logger(ctx).With(
		zap.String("job", name),
		zap.String("run_id", run.runID),
	)
	s.metrics.IncJobRun(name)

	err := fn(ctx)
	s.metrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	if owner {
		if err != nil && run.errorCount == 0 {
			run.IncError()
		}
		s.logJobFinish(ctx, run)
	}
	if err == nil {
		return nil
	}

	// a deadline is a soft timeout; the next tick resumes the work
	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		s.metrics.IncJobTimeout(name)
	}
	s.metrics.IncJobError(name, err)
	if isTimeout {
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error
	if s.isJobEnabled(JobPeriodReports) {
		err = errors.Join(err, s.runJob(parent, JobPeriodReports, s.cfg.JobTimeout, s.PeriodReportsJob))
	}
	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := s.clock.Now().Add(s.cfg.RunInterval)

	for {
		runLag := s.clock.Now().Sub(nextRun)
		if runLag > 0 {
			s.metrics.ObserveRunLoopLag(runLag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

// DuePeriods returns the periods that closed most recently as of now: the
// previous month, plus the previous fiscal quarter when that month ended one.
func DuePeriods(calendar fiscal.Calendar, now time.Time) []fiscal.Period {
	month := calendar.PreviousMonth(now)
	periods := []fiscal.Period{month}
	if calendar.QuarterOf(now) != month.Quarter || calendar.YearOf(now) != month.Year {
		if quarter, err := calendar.Quarter(month.Year, month.Quarter); err == nil {
			periods = append(periods, quarter)
		}
	}
	return periods
}

// PeriodReportsJob files the configured reports for every vendor that
// invoiced during each due period. A period is marked filed only once every
// vendor succeeded, so failures are retried on the next tick. One runner
// works on a period at a time.
func (s *Scheduler) PeriodReportsJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, JobPeriodReports)
	if owner {
		s.logJobStart(ctx, run)
		defer s.logJobFinish(ctx, run)
	}

	calendar := s.rules.Get().Calendar()
	var jobErr error
	for _, period := range DuePeriods(calendar, s.clock.Now()) {
		if ctx.Err() != nil {
			return errors.Join(jobErr, ctx.Err())
		}
		if err := s.filePeriod(ctx, run, calendar, period); err != nil {
			jobErr = errors.Join(jobErr, err)
		}
	}
	return jobErr
}

func (s *Scheduler) filePeriod(ctx context.Context, run *jobRun, calendar fiscal.Calendar, period fiscal.Period) error {
	doneKey := "scheduler:reports:filed:" + period.Key()
	if _, filed, err := s.store.Get(ctx, doneKey); err != nil {
		return err
	} else if filed {
		return nil
	}

	lockKey := "scheduler:lock:reports:" + period.Key()
	token, ok, err := s.locker.TryLock(ctx, lockKey, s.cfg.LockTTL)
	if err != nil {
		return err
	}
	if !ok {
		s.logger(ctx).Debug("scheduler.period.locked", zap.String("period", period.Key()))
		return nil
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), lockKey, token); err != nil {
			s.logger(ctx).Warn("scheduler.lock.release_failed", zap.String("period", period.Key()), zap.Error(err))
		}
	}()

	from, to := calendar.PeriodBounds(period)
	vendors, err := s.invoiceSvc.VendorsBetween(ctx, from, to)
	if err != nil {
		s.logJobError(ctx, run, "scheduler.vendors.list_failed", "", err, zap.String("period", period.Key()))
		return err
	}

	var periodErr error
	filed := 0
	for _, vendorID := range vendors {
		if ctx.Err() != nil {
			return errors.Join(periodErr, ctx.Err())
		}
		if err := s.fileVendor(ctx, vendorID, period); err != nil {
			periodErr = errors.Join(periodErr, err)
			s.logJobError(ctx, run, "scheduler.report.failed", vendorID, err, zap.String("period", period.Key()))
			continue
		}
		filed++
		run.AddProcessed(1)
	}
	s.metrics.AddBatchProcessed(JobPeriodReports, "vendor", filed)
	if periodErr != nil {
		return periodErr
	}

	if err := s.store.Set(ctx, doneKey, s.clock.Now().UTC().Format(time.RFC3339), filedTTL); err != nil {
		return err
	}
	s.logger(ctx).Info("scheduler.period.filed",
		zap.String("period", period.Key()),
		zap.Int("vendors", filed),
	)
	return nil
}

func (s *Scheduler) fileVendor(ctx context.Context, vendorID string, period fiscal.Period) error {
	log := obslogger.WithVendor(s.logger(ctx), vendorID)
	var keys []string
	for _, kind := range s.cfg.Kinds {
		report, err := s.reportSvc.Generate(ctx, vendorID, period, kind)
		if err != nil {
			return err
		}
		for _, format := range s.cfg.Formats {
			export, err := s.reportSvc.Export(ctx, report, format)
			if err != nil {
				return err
			}
			keys = append(keys, export.ObjectKey)
		}
	}
	log.Debug("scheduler.vendor.filed", zap.String("period", period.Key()), zap.Int("exports", len(keys)))

	if s.auditSvc != nil {
		if err := s.auditSvc.AuditLog(ctx, auditdomain.Entry{
			VendorID:   vendorID,
			ActorType:  auditdomain.ActorTypeSystem,
			ActorID:    "scheduler",
			Action:     auditdomain.ActionReportFiled,
			TargetType: "report_period",
			TargetID:   period.Key(),
			Metadata:   map[string]any{"exports": keys},
		}); err != nil {
			log.Warn("scheduler.audit.failed", zap.Error(err))
		}
	}
	return nil
}
