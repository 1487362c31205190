package config

import (
	"github.com/spf13/viper"

	"timesheet-reconciliation/internal/gateway"
	"timesheet-reconciliation/internal/usecase"
)

// SetDefaults registers default values for every setting on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("protime", "")
	v.SetDefault("agency", "")
	v.SetDefault("output", ".")
	v.SetDefault("threshold", "")
	v.SetDefault("start_week", "")
	v.SetDefault("end_week", "")

	v.SetDefault("format", gateway.FormatXLSX)
	v.SetDefault("partner_agency", usecase.DefaultPartnerAgency)
	v.SetDefault("extensions", gateway.DefaultExtensions)
	v.SetDefault("concurrency", gateway.DefaultConcurrency)
	v.SetDefault("names.keep_hyphens", false)

	v.SetDefault("columns.protime.week", usecase.DefaultProtimeColumns.Week)
	v.SetDefault("columns.protime.name", usecase.DefaultProtimeColumns.Name)
	v.SetDefault("columns.protime.hours", usecase.DefaultProtimeColumns.Hours)
	v.SetDefault("columns.protime.invoice", usecase.DefaultProtimeColumns.Invoice)
	v.SetDefault("columns.protime.agency", usecase.DefaultProtimeColumns.Agency)

	v.SetDefault("columns.agency.week", usecase.DefaultAgencyColumns.Week)
	v.SetDefault("columns.agency.name", usecase.DefaultAgencyColumns.Name)
	v.SetDefault("columns.agency.hours", usecase.DefaultAgencyColumns.Hours)
	v.SetDefault("columns.agency.invoice", usecase.DefaultAgencyColumns.Invoice)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "auto")
}
