package scheduler

import (
	"time"

	"github.com/smallbiznis/gstengine/internal/config"
	reportdomain "github.com/smallbiznis/gstengine/internal/report/domain"
)

const JobPeriodReports = "period_reports"

// Config controls scheduler intervals and the reports filed each period.
type Config struct {
	RunInterval time.Duration
	JobTimeout  time.Duration
	LockTTL     time.Duration
	Kinds       []reportdomain.Kind
	Formats     []reportdomain.Format
	EnabledJobs []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval: time.Hour,
		JobTimeout:  10 * time.Minute,
		LockTTL:     15 * time.Minute,
		Kinds:       []reportdomain.Kind{reportdomain.KindGSTR1, reportdomain.KindGSTR3B},
		Formats:     []reportdomain.Format{reportdomain.FormatJSON, reportdomain.FormatCSV, reportdomain.FormatXLSX},
	}
}

func ProvideConfig(cfg config.Config) Config {
	c := DefaultConfig()
	if cfg.Scheduler.RunIntervalSeconds > 0 {
		c.RunInterval = time.Duration(cfg.Scheduler.RunIntervalSeconds) * time.Second
	}
	return c
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaults.LockTTL
	}
	if len(c.Kinds) == 0 {
		c.Kinds = defaults.Kinds
	}
	if len(c.Formats) == 0 {
		c.Formats = defaults.Formats
	}
	return c
}
