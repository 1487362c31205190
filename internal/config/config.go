// Package config loads reconciler settings from flags, environment variables
// and an optional YAML file, and turns them into validated run parameters.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"timesheet-reconciliation/internal/domain"
	"timesheet-reconciliation/internal/gateway"
	"timesheet-reconciliation/internal/usecase"
)

// EnvPrefix is prepended to every environment variable, e.g. RECON_THRESHOLD.
const EnvPrefix = "RECON"

// DefaultConfigFile is read from the working directory when present.
const DefaultConfigFile = "reconciler.yaml"

// EnvFiles are loaded into the process environment before settings are read.
// Variables already set are never overridden, so earlier files win.
var EnvFiles = []string{".env.local", ".env"}

// LoadEnvFiles loads the given dotenv files, skipping missing ones, and
// returns the files that were read.
func LoadEnvFiles(files ...string) []string {
	var loaded []string
	for _, f := range files {
		if err := godotenv.Load(f); err == nil {
			loaded = append(loaded, f)
		}
	}
	return loaded
}

// Settings mirrors the configuration file layout.
type Settings struct {
	ProtimeDir    string         `mapstructure:"protime"`
	AgencyDir     string         `mapstructure:"agency"`
	OutputDir     string         `mapstructure:"output"`
	Threshold     string         `mapstructure:"threshold"`
	StartWeek     string         `mapstructure:"start_week"`
	EndWeek       string         `mapstructure:"end_week"`
	Format        string         `mapstructure:"format"`
	PartnerAgency string         `mapstructure:"partner_agency"`
	Extensions    []string       `mapstructure:"extensions"`
	Concurrency   int            `mapstructure:"concurrency"`
	Names         NameSettings   `mapstructure:"names"`
	Columns       ColumnSettings `mapstructure:"columns"`
	Log           LogSettings    `mapstructure:"log"`
}

// NameSettings controls name normalization.
type NameSettings struct {
	KeepHyphens bool `mapstructure:"keep_hyphens"`
}

// ColumnSettings holds the header mapping of each source.
type ColumnSettings struct {
	Protime usecase.ColumnMapping `mapstructure:"protime"`
	Agency  usecase.ColumnMapping `mapstructure:"agency"`
}

// LogSettings configures the logger.
type LogSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file (if any), unmarshals and validates the result.
// An explicit configFile must exist; the default file is optional.
func Load(v *viper.Viper, configFile string) (*Settings, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName(strings.TrimSuffix(DefaultConfigFile, ".yaml"))
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Validate checks the settings that do not depend on run parameters.
func (s *Settings) Validate() error {
	switch strings.ToLower(s.Format) {
	case gateway.FormatXLSX, gateway.FormatCSV:
	default:
		return domain.NewValidationError("format", s.Format, "must be xlsx or csv")
	}
	if s.Concurrency < 1 {
		return domain.NewValidationError("concurrency", s.Concurrency, "must be at least 1")
	}
	if len(s.Extensions) == 0 {
		return domain.NewValidationError("extensions", s.Extensions, "at least one file extension is required")
	}
	if strings.TrimSpace(s.PartnerAgency) == "" {
		return domain.NewValidationError("partner_agency", s.PartnerAgency, "must not be blank")
	}
	for field, value := range map[string]string{
		"columns.protime.week":    s.Columns.Protime.Week,
		"columns.protime.name":    s.Columns.Protime.Name,
		"columns.protime.hours":   s.Columns.Protime.Hours,
		"columns.protime.invoice": s.Columns.Protime.Invoice,
		"columns.protime.agency":  s.Columns.Protime.Agency,
		"columns.agency.week":     s.Columns.Agency.Week,
		"columns.agency.name":     s.Columns.Agency.Name,
		"columns.agency.hours":    s.Columns.Agency.Hours,
		"columns.agency.invoice":  s.Columns.Agency.Invoice,
	} {
		if strings.TrimSpace(value) == "" {
			return domain.NewValidationError(field, value, "column name must not be blank")
		}
	}
	return nil
}

// RunParams validates the per-run inputs and returns the immutable parameter
// value handed to the orchestrator.
func (s *Settings) RunParams() (domain.RunParams, error) {
	if strings.TrimSpace(s.ProtimeDir) == "" {
		return domain.RunParams{}, domain.NewValidationError("protime", s.ProtimeDir, "directory is required")
	}
	if strings.TrimSpace(s.AgencyDir) == "" {
		return domain.RunParams{}, domain.NewValidationError("agency", s.AgencyDir, "directory is required")
	}
	threshold, err := ParseThreshold(s.Threshold)
	if err != nil {
		return domain.RunParams{}, err
	}
	weeks, err := ParseWeekRange(s.StartWeek, s.EndWeek)
	if err != nil {
		return domain.RunParams{}, err
	}
	output := s.OutputDir
	if strings.TrimSpace(output) == "" {
		output = "."
	}
	return domain.RunParams{
		ProtimeDir: s.ProtimeDir,
		AgencyDir:  s.AgencyDir,
		OutputDir:  output,
		Threshold:  threshold,
		Weeks:      weeks,
	}, nil
}

// ParseThreshold parses a minute threshold. Blank means no filtering; a
// decimal comma is accepted.
func ParseThreshold(raw string) (decimal.NullDecimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(strings.Replace(raw, ",", ".", 1))
	if err != nil {
		return decimal.NullDecimal{}, domain.NewValidationError("threshold", raw, "must be a number of minutes")
	}
	if d.IsNegative() {
		return decimal.NullDecimal{}, domain.NewValidationError("threshold", raw, "must not be negative")
	}
	return decimal.NewNullDecimal(d), nil
}

// ParseWeekRange parses an inclusive week range. Both bounds blank means no
// filtering; otherwise both must be positive integers with start <= end.
func ParseWeekRange(start, end string) (*domain.WeekRange, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" && end == "" {
		return nil, nil
	}
	if start == "" || end == "" {
		return nil, domain.NewValidationError("weeks", start+"-"+end, "start and end week must be given together")
	}
	s, err := parsePositiveWeek("start_week", start)
	if err != nil {
		return nil, err
	}
	e, err := parsePositiveWeek("end_week", end)
	if err != nil {
		return nil, err
	}
	if s > e {
		return nil, domain.NewValidationError("weeks", fmt.Sprintf("%d-%d", s, e), "start week must not be after end week")
	}
	return &domain.WeekRange{Start: s, End: e}, nil
}

func parsePositiveWeek(field, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, domain.NewValidationError(field, raw, "must be a positive whole number")
	}
	return n, nil
}
