// Package constants provides shared constants for the statement-engine application.
package constants

// Statement names used as keys throughout the model.
const (
	StatementIncome   = "income"
	StatementBalance  = "balance"
	StatementCashFlow = "cashflow"
)

// Financial constants
const (
	// PercentDivisor converts stored percentages (0-100) to ratios at point of use.
	PercentDivisor = 100.0

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// CurrencyTolerance is the tolerance for stored-value comparisons (1 cent)
	CurrencyTolerance = 0.01

	// ReconciliationTolerance is the tolerance used when checking that
	// breakdown values sum back to their stream total.
	ReconciliationTolerance = 0.5
)

// Display unit scale factors relative to the canonical stored unit.
const (
	UnitScaleUnits     = 1.0
	UnitScaleThousands = 1000.0
	UnitScaleMillions  = 1000000.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultModelFile is the default model definition file name
	DefaultModelFile = "model.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// DefaultProjectDatabase is the default path of the project store
	DefaultProjectDatabase = "projects.db"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML models (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024
)

// Category resolver constants
const (
	// FallbackCategoryWindow is the number of leading rows assumed to be
	// current assets when a balance sheet carries no anchors at all.
	FallbackCategoryWindow = 10
)
