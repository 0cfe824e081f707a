package constants

// Application constants
const (
	// Application metadata
	AppName        = "dqetl-cli"
	AppDescription = "Batch ETL with data-quality scoring and improvement"
	AppVersion     = "0.1.0"

	// Default configuration values
	DefaultLogLevel     = "info"
	DefaultSourcesPath  = "sources"
	DefaultOutputPath   = "output"
	DefaultReportsPath  = "quality_reports"
	DefaultReportFormat = "text"

	// Quality defaults
	DefaultQualityThreshold = 99.0

	// Sentinel written by the mode strategy when a column has no
	// non-missing values to draw a mode from.
	UnknownSentinel = "UNKNOWN"
)

// Overall-score weights. They sum to 1.0 so the weighted score stays
// within [0,100].
const (
	WeightCompleteness = 0.30
	WeightUniqueness   = 0.25
	WeightFormat       = 0.25
	WeightCodification = 0.20
)

// Quality tiers derived from the overall score by fixed thresholds.
const (
	QualityExcellent = "Excellent"
	QualityGood      = "Good"
	QualityFair      = "Fair"
	QualityPoor      = "Poor"
	QualityVeryPoor  = "Very Poor"
)

// Dataset families
const (
	FamilyPopulation  = "population"
	FamilyConsumption = "consumption"
)

// Improvement log categories
const (
	CategoryDuplicates    = "duplicates"
	CategoryCompleteness  = "completeness"
	CategoryFormat        = "format"
	CategoryCodification  = "codification"
	CategoryBusinessRules = "business_rules"
	CategoryErrors        = "errors"
)

// Population dataset columns
const (
	ColPersonID  = "ID_Personne"
	ColLastName  = "Nom"
	ColFirstName = "Prenom"
	ColAddress   = "Adresse"
	ColCSP       = "CSP"
)

// Consumption dataset columns
const (
	ColAddressID    = "ID_Adr"
	ColStreetNumber = "N"
	ColStreetName   = "Nom_Rue"
	ColPostalCode   = "Code_Postal"
	ColDailyKWh     = "NB_KW_Jour"
)

// ValidCSPCodes lists the accepted socio-professional category codes:
// the eight INSEE categories plus "0" for unknown.
func ValidCSPCodes() []string {
	return []string{"0", "1", "2", "3", "4", "5", "6", "7", "8"}
}
