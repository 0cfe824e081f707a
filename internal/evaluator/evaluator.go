package evaluator

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/enerqual/dqetl/pkg/constants"
	"github.com/enerqual/dqetl/pkg/models"
)

// Evaluator computes quality signals for tabular datasets. All checks are
// pure: the dataset is never mutated and no reference to it is retained.
type Evaluator struct {
	logger *logrus.Logger
}

// NewEvaluator creates a new quality evaluator.
func NewEvaluator(logger *logrus.Logger) *Evaluator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Evaluator{logger: logger}
}

// Completeness computes per-column missing-value statistics. When no
// columns are given, all dataset columns are checked. A zero-row dataset
// scores 100 for every column (vacuously complete).
func (e *Evaluator) Completeness(ds *models.Dataset, columns ...string) map[string]models.ColumnCompleteness {
	if len(columns) == 0 {
		columns = ds.Columns
	}

	out := make(map[string]models.ColumnCompleteness, len(columns))
	total := ds.RowCount()
	for _, col := range columns {
		if !ds.HasColumn(col) {
			continue
		}
		if total == 0 {
			out[col] = models.ColumnCompleteness{CompletenessScore: 100}
			continue
		}
		missing := ds.MissingCount(col)
		missingPct := round2(100 * float64(missing) / float64(total))
		out[col] = models.ColumnCompleteness{
			MissingCount:      missing,
			MissingPercentage: missingPct,
			CompleteCount:     total - missing,
			CompletenessScore: round2(100 - missingPct),
		}
	}
	return out
}

// Duplicates computes duplicate statistics under keep-first semantics: the
// first row of each distinct key is unique, every later row with the same
// key is a duplicate. An empty key set means full-row identity.
func (e *Evaluator) Duplicates(ds *models.Dataset, keyColumns ...string) models.DuplicateStats {
	total := ds.RowCount()
	if total == 0 {
		return models.DuplicateStats{UniquenessScore: 100}
	}

	seen := make(map[string]struct{}, total)
	duplicates := 0
	for _, row := range ds.Rows {
		key := ds.RowKey(row, keyColumns)
		if _, ok := seen[key]; ok {
			duplicates++
			continue
		}
		seen[key] = struct{}{}
	}

	unique := total - duplicates
	return models.DuplicateStats{
		TotalRows:           total,
		DuplicateCount:      duplicates,
		DuplicatePercentage: round2(100 * float64(duplicates) / float64(total)),
		UniqueRows:          unique,
		UniquenessScore:     round2(100 * float64(unique) / float64(total)),
	}
}

// FormatConsistency computes, over the non-missing values of one column,
// a histogram of value kinds and the share that parses as numeric. A
// missing column or a column with no data yields an explicit no-data
// result instead of an error.
func (e *Evaluator) FormatConsistency(ds *models.Dataset, column string) models.FormatConsistency {
	values, ok := ds.Column(column)
	if !ok {
		return models.FormatConsistency{TypeHistogram: map[string]int{}}
	}

	histogram := make(map[string]int)
	nonNull := 0
	convertible := 0
	for _, val := range values {
		if val.IsMissing() {
			continue
		}
		nonNull++
		histogram[string(val.Kind())]++
		if val.IsNumeric() {
			convertible++
		}
	}

	if nonNull == 0 {
		return models.FormatConsistency{TypeHistogram: histogram}
	}

	return models.FormatConsistency{
		HasData:                true,
		TotalNonNull:           nonNull,
		TypeHistogram:          histogram,
		NumericConvertible:     convertible,
		FormatConsistencyScore: round2(100 * float64(convertible) / float64(nonNull)),
	}
}

// CodificationConsistency checks the non-missing values of one column
// against a set of valid codes, comparing rendered string forms. With a
// nil or empty set, numeric-parseable stands in as the validity test.
// Invalid values are reported once per distinct value.
func (e *Evaluator) CodificationConsistency(ds *models.Dataset, column string, validCodes []string) models.CodificationConsistency {
	values, ok := ds.Column(column)
	if !ok {
		return models.CodificationConsistency{InvalidValues: []string{}}
	}

	codeSet := make(map[string]struct{}, len(validCodes))
	for _, code := range validCodes {
		codeSet[code] = struct{}{}
	}

	distinct := make(map[string]struct{})
	invalidSeen := make(map[string]struct{})
	invalid := make([]string, 0)
	nonNull := 0
	valid := 0
	for _, val := range values {
		if val.IsMissing() {
			continue
		}
		nonNull++
		text := val.Text()
		distinct[text] = struct{}{}

		ok := false
		if len(codeSet) > 0 {
			_, ok = codeSet[text]
		} else {
			ok = val.IsNumeric()
		}
		if ok {
			valid++
			continue
		}
		if _, dup := invalidSeen[text]; !dup {
			invalidSeen[text] = struct{}{}
			invalid = append(invalid, text)
		}
	}

	if nonNull == 0 {
		return models.CodificationConsistency{InvalidValues: invalid}
	}

	return models.CodificationConsistency{
		HasData:           true,
		TotalValues:       nonNull,
		UniqueValues:      len(distinct),
		ValidCodesCount:   valid,
		InvalidCodesCount: nonNull - valid,
		InvalidValues:     invalid,
		CodificationScore: round2(100 * float64(valid) / float64(nonNull)),
	}
}

// ComputeOverallScore folds the sub-reports into the weighted overall
// score and quality tier. Dimensions with no checked columns contribute 0,
// which can pull down an otherwise clean dataset; callers are expected to
// know which dimensions their column policy exercises.
func (e *Evaluator) ComputeOverallScore(
	completeness map[string]models.ColumnCompleteness,
	duplicates models.DuplicateStats,
	format map[string]models.FormatConsistency,
	codification map[string]models.CodificationConsistency,
) models.QualityScore {
	completenessScore := 0.0
	if len(completeness) > 0 {
		sum := 0.0
		for _, c := range completeness {
			sum += c.CompletenessScore
		}
		completenessScore = sum / float64(len(completeness))
	}

	formatScore := 0.0
	if len(format) > 0 {
		sum := 0.0
		for _, f := range format {
			sum += f.FormatConsistencyScore
		}
		formatScore = sum / float64(len(format))
	}

	codificationScore := 0.0
	if len(codification) > 0 {
		sum := 0.0
		for _, c := range codification {
			sum += c.CodificationScore
		}
		codificationScore = sum / float64(len(codification))
	}

	overall := constants.WeightCompleteness*completenessScore +
		constants.WeightUniqueness*duplicates.UniquenessScore +
		constants.WeightFormat*formatScore +
		constants.WeightCodification*codificationScore

	return models.QualityScore{
		CompletenessScore:   round2(completenessScore),
		UniquenessScore:     round2(duplicates.UniquenessScore),
		FormatScore:         round2(formatScore),
		CodificationScore:   round2(codificationScore),
		OverallQualityScore: round2(overall),
		QualityLevel:        QualityLevel(overall),
	}
}

// GenerateQualityReport runs every check selected by the column policy and
// assembles the full quality report. This is the single entry point the
// rest of the system uses.
func (e *Evaluator) GenerateQualityReport(ds *models.Dataset, sourceName string, policy models.ColumnPolicy) *models.QualityReport {
	e.logger.WithFields(logrus.Fields{
		"source":  sourceName,
		"rows":    ds.RowCount(),
		"columns": ds.ColumnCount(),
	}).Info("Generating quality report")

	completeness := e.Completeness(ds)
	duplicates := e.Duplicates(ds, policy.KeyColumns...)

	format := make(map[string]models.FormatConsistency, len(policy.NumericColumns))
	for _, col := range policy.NumericColumns {
		if ds.HasColumn(col) {
			format[col] = e.FormatConsistency(ds, col)
		}
	}

	codification := make(map[string]models.CodificationConsistency, len(policy.CodedColumns))
	for col, codes := range policy.CodedColumns {
		if ds.HasColumn(col) {
			codification[col] = e.CodificationConsistency(ds, col, codes)
		}
	}

	score := e.ComputeOverallScore(completeness, duplicates, format, codification)

	columns := make([]string, len(ds.Columns))
	copy(columns, ds.Columns)

	report := &models.QualityReport{
		ID:          uuid.NewString(),
		SourceName:  sourceName,
		GeneratedAt: time.Now().UTC(),
		DatasetInfo: models.DatasetInfo{
			RowCount:    ds.RowCount(),
			ColumnCount: ds.ColumnCount(),
			Columns:     columns,
		},
		Completeness: completeness,
		Duplicates:   duplicates,
		Format:       format,
		Codification: codification,
		QualityScore: score,
	}

	e.logger.WithFields(logrus.Fields{
		"source":        sourceName,
		"overall_score": score.OverallQualityScore,
		"quality_level": score.QualityLevel,
	}).Info("Quality report generated")

	return report
}

// QualityLevel maps an overall score to its discrete tier.
func QualityLevel(score float64) string {
	switch {
	case score >= 90:
		return constants.QualityExcellent
	case score >= 80:
		return constants.QualityGood
	case score >= 70:
		return constants.QualityFair
	case score >= 60:
		return constants.QualityPoor
	default:
		return constants.QualityVeryPoor
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
