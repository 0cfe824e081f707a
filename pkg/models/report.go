package models

import "time"

// ColumnCompleteness holds per-column completeness statistics.
type ColumnCompleteness struct {
	MissingCount      int     `json:"missing_count"`
	MissingPercentage float64 `json:"missing_percentage"`
	CompleteCount     int     `json:"complete_count"`
	CompletenessScore float64 `json:"completeness_score"`
}

// DuplicateStats holds dataset-level duplicate statistics. A row is a
// duplicate when an earlier row carries the same key (keep-first semantics).
type DuplicateStats struct {
	TotalRows           int     `json:"total_rows"`
	DuplicateCount      int     `json:"duplicate_count"`
	DuplicatePercentage float64 `json:"duplicate_percentage"`
	UniqueRows          int     `json:"unique_rows"`
	UniquenessScore     float64 `json:"uniqueness_score"`
}

// FormatConsistency holds per-column format statistics over non-missing
// values. HasData is false when the column is absent or entirely missing.
type FormatConsistency struct {
	HasData                bool           `json:"has_data"`
	TotalNonNull           int            `json:"total_non_null"`
	TypeHistogram          map[string]int `json:"type_histogram"`
	NumericConvertible     int            `json:"numeric_convertible"`
	FormatConsistencyScore float64        `json:"format_consistency_score"`
}

// CodificationConsistency holds per-column valid-code statistics.
type CodificationConsistency struct {
	HasData           bool     `json:"has_data"`
	TotalValues       int      `json:"total_values"`
	UniqueValues      int      `json:"unique_values"`
	ValidCodesCount   int      `json:"valid_codes_count"`
	InvalidCodesCount int      `json:"invalid_codes_count"`
	InvalidValues     []string `json:"invalid_values"`
	CodificationScore float64  `json:"codification_score"`
}

// QualityScore folds the four dimensions into a weighted overall score and
// a discrete quality tier.
type QualityScore struct {
	CompletenessScore   float64 `json:"completeness_score"`
	UniquenessScore     float64 `json:"uniqueness_score"`
	FormatScore         float64 `json:"format_score"`
	CodificationScore   float64 `json:"codification_score"`
	OverallQualityScore float64 `json:"overall_quality_score"`
	QualityLevel        string  `json:"quality_level"`
}

// DatasetInfo is a snapshot of dataset shape at evaluation time.
type DatasetInfo struct {
	RowCount    int      `json:"row_count"`
	ColumnCount int      `json:"column_count"`
	Columns     []string `json:"columns"`
}

// QualityReport is the full quality snapshot for one dataset. Reports are
// immutable once produced; recomputing on the same dataset yields the same
// report apart from ID and GeneratedAt.
type QualityReport struct {
	ID           string                             `json:"id"`
	SourceName   string                             `json:"source_name"`
	GeneratedAt  time.Time                          `json:"generated_at"`
	DatasetInfo  DatasetInfo                        `json:"dataset_info"`
	Completeness map[string]ColumnCompleteness      `json:"completeness"`
	Duplicates   DuplicateStats                     `json:"duplicates"`
	Format       map[string]FormatConsistency       `json:"format_consistency"`
	Codification map[string]CodificationConsistency `json:"codification_consistency"`
	QualityScore QualityScore                       `json:"quality_score"`
}

// ColumnPolicy declares, per dataset family, which columns receive format
// and codification checks and which columns define row identity. Column
// roles are declared by the caller rather than sniffed from values.
type ColumnPolicy struct {
	NumericColumns []string            `json:"numeric_columns"`
	CodedColumns   map[string][]string `json:"coded_columns"`
	KeyColumns     []string            `json:"key_columns"`
}
