package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/gstengine/internal/fiscal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// TaxRules are the operator-tunable statutory parameters. Amounts are minor
// currency units; percentages are decimal strings with at most two places.
type TaxRules struct {
	FiscalYearStartMonth  int        `mapstructure:"fiscalYearStartMonth"`
	B2CLargeThreshold     int64      `mapstructure:"b2cLargeThreshold"`
	TDSThreshold          int64      `mapstructure:"tdsThreshold"`
	TDSRateWithTaxID      string     `mapstructure:"tdsRateWithTaxID"`
	TDSRateWithoutTaxID   string     `mapstructure:"tdsRateWithoutTaxID"`
	DefaultCommissionPct  string     `mapstructure:"defaultCommissionPct"`
	InvoiceNumberTemplate string     `mapstructure:"invoiceNumberTemplate"`
	SequenceMaxRetries    int        `mapstructure:"sequenceMaxRetries"`
	Currency              string     `mapstructure:"currency"`
	Rates                 []RateSeed `mapstructure:"rates"`
}

// RateSeed is one classification code loaded into the rate table at startup.
type RateSeed struct {
	Code        string `mapstructure:"code"`
	Rate        string `mapstructure:"rate"`
	Category    string `mapstructure:"category"`
	Description string `mapstructure:"description"`
	Exempt      bool   `mapstructure:"exempt"`
}

func DefaultTaxRules() TaxRules {
	return TaxRules{
		FiscalYearStartMonth:  int(time.April),
		B2CLargeThreshold:     25_000_000,
		TDSThreshold:          50_000_000,
		TDSRateWithTaxID:      "1",
		TDSRateWithoutTaxID:   "5",
		DefaultCommissionPct:  "10",
		InvoiceNumberTemplate: "{VENDOR}/{FY}/{SEQ5}",
		SequenceMaxRetries:    3,
		Currency:              "INR",
		Rates: []RateSeed{
			{Code: "0401", Rate: "0", Category: "dairy", Description: "Fresh milk and cream", Exempt: true},
			{Code: "0901", Rate: "5", Category: "beverages", Description: "Coffee"},
			{Code: "1006", Rate: "5", Category: "cereals", Description: "Rice, pre-packaged"},
			{Code: "3004", Rate: "12", Category: "pharma", Description: "Medicaments"},
			{Code: "6109", Rate: "12", Category: "apparel", Description: "T-shirts, knitted"},
			{Code: "7113", Rate: "3", Category: "jewellery", Description: "Articles of jewellery"},
			{Code: "8471", Rate: "18", Category: "electronics", Description: "Computers"},
			{Code: "8703", Rate: "28", Category: "automobile", Description: "Motor cars"},
			{Code: "998314", Rate: "18", Category: "services", Description: "IT design and development"},
		},
	}
}

func (r TaxRules) FiscalStart() time.Month {
	return time.Month(r.FiscalYearStartMonth)
}

// Calendar is the fiscal calendar in Indian Standard Time.
func (r TaxRules) Calendar() fiscal.Calendar {
	return fiscal.NewCalendar(r.FiscalStart(), fiscal.IST)
}

// TDSRate returns the withholding percentage for a vendor.
func (r TaxRules) TDSRate(hasTaxID bool) decimal.Decimal {
	defaults := DefaultTaxRules()
	if hasTaxID {
		return parsePercent(r.TDSRateWithTaxID, defaults.TDSRateWithTaxID)
	}
	return parsePercent(r.TDSRateWithoutTaxID, defaults.TDSRateWithoutTaxID)
}

func (r TaxRules) CommissionPct() decimal.Decimal {
	return parsePercent(r.DefaultCommissionPct, DefaultTaxRules().DefaultCommissionPct)
}

func parsePercent(raw, fallback string) decimal.Decimal {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.RequireFromString(fallback)
	}
	return value
}

// TaxRulesHolder keeps the latest valid TaxRules and swaps them atomically on
// file change.
type TaxRulesHolder struct {
	current atomic.Value // holds TaxRules
}

// NewStaticTaxRules returns a holder that never reloads.
func NewStaticTaxRules(rules TaxRules) *TaxRulesHolder {
	holder := &TaxRulesHolder{}
	holder.current.Store(rules)
	return holder
}

func NewTaxRulesHolder(log *zap.Logger) (*TaxRulesHolder, error) {
	log = log.Named("config.tax")
	v := viper.New()

	v.SetConfigName("tax")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/gstengine")
	v.AddConfigPath(".")

	v.SetEnvPrefix("GSTENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultTaxRules()
	v.SetDefault("tax.fiscalYearStartMonth", defaults.FiscalYearStartMonth)
	v.SetDefault("tax.b2cLargeThreshold", defaults.B2CLargeThreshold)
	v.SetDefault("tax.tdsThreshold", defaults.TDSThreshold)
	v.SetDefault("tax.tdsRateWithTaxID", defaults.TDSRateWithTaxID)
	v.SetDefault("tax.tdsRateWithoutTaxID", defaults.TDSRateWithoutTaxID)
	v.SetDefault("tax.defaultCommissionPct", defaults.DefaultCommissionPct)
	v.SetDefault("tax.invoiceNumberTemplate", defaults.InvoiceNumberTemplate)
	v.SetDefault("tax.sequenceMaxRetries", defaults.SequenceMaxRetries)
	v.SetDefault("tax.currency", defaults.Currency)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		v.SetDefault("tax.rates", defaults.Rates)
	}

	cfg, err := decodeTaxRules(v)
	if err != nil {
		return nil, err
	}

	holder := &TaxRulesHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeTaxRules(v)
		if err != nil {
			log.Warn("invalid tax config ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("tax config reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func decodeTaxRules(v *viper.Viper) (TaxRules, error) {
	var cfg TaxRules
	if err := v.UnmarshalKey("tax", &cfg); err != nil {
		return TaxRules{}, err
	}
	if err := ValidateTaxRules(cfg); err != nil {
		return TaxRules{}, err
	}
	return cfg, nil
}

func (h *TaxRulesHolder) Get() TaxRules {
	if h == nil {
		return DefaultTaxRules()
	}
	return h.current.Load().(TaxRules)
}

func ValidateTaxRules(cfg TaxRules) error {
	if cfg.FiscalYearStartMonth < 1 || cfg.FiscalYearStartMonth > 12 {
		return errors.New("tax.fiscalYearStartMonth must be between 1 and 12")
	}
	if cfg.B2CLargeThreshold <= 0 {
		return errors.New("tax.b2cLargeThreshold must be positive")
	}
	if cfg.TDSThreshold < 0 {
		return errors.New("tax.tdsThreshold cannot be negative")
	}
	for key, raw := range map[string]string{
		"tax.tdsRateWithTaxID":     cfg.TDSRateWithTaxID,
		"tax.tdsRateWithoutTaxID":  cfg.TDSRateWithoutTaxID,
		"tax.defaultCommissionPct": cfg.DefaultCommissionPct,
	} {
		if err := validatePercent(raw); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	if !strings.Contains(cfg.InvoiceNumberTemplate, "{SEQ") {
		return errors.New("tax.invoiceNumberTemplate must contain a {SEQ} token")
	}
	if cfg.SequenceMaxRetries < 0 {
		return errors.New("tax.sequenceMaxRetries cannot be negative")
	}
	seen := map[string]struct{}{}
	for i, seed := range cfg.Rates {
		code := strings.TrimSpace(seed.Code)
		if code == "" {
			return fmt.Errorf("tax.rates[%d].code cannot be empty", i)
		}
		if _, dup := seen[code]; dup {
			return fmt.Errorf("tax.rates[%d].code %s is duplicated", i, code)
		}
		seen[code] = struct{}{}
		if err := validatePercent(seed.Rate); err != nil {
			return fmt.Errorf("tax.rates[%d].rate: %w", i, err)
		}
	}
	return nil
}

func validatePercent(raw string) error {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	if value.IsNegative() || value.GreaterThan(decimal.NewFromInt(100)) {
		return errors.New("percentage must be within 0-100")
	}
	if !value.Equal(value.Round(2)) {
		return errors.New("percentage allows at most two decimal places")
	}
	return nil
}
