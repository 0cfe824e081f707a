package improver

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/enerqual/dqetl/pkg/constants"
	"github.com/enerqual/dqetl/pkg/models"
)

// Improver applies a declarative cleaning configuration to datasets and
// keeps an append-only audit log of every corrective action. Each method
// returns a new dataset; the input is never mutated. A fresh Improver is
// expected per improvement run, so the log always covers exactly one run.
type Improver struct {
	logger *logrus.Logger
	runID  string
	log    []models.ImprovementEntry
}

// NewImprover creates a new improver with an empty log.
func NewImprover(logger *logrus.Logger) *Improver {
	if logger == nil {
		logger = logrus.New()
	}
	return &Improver{
		logger: logger,
		runID:  uuid.NewString(),
		log:    []models.ImprovementEntry{},
	}
}

// RunID returns this run's identifier.
func (im *Improver) RunID() string {
	return im.runID
}

// Log returns a copy of the accumulated audit trail.
func (im *Improver) Log() []models.ImprovementEntry {
	out := make([]models.ImprovementEntry, len(im.log))
	copy(out, im.log)
	return out
}

// Summary derives action counts by category from the log. It never
// consults a dataset.
func (im *Improver) Summary() models.ImprovementSummary {
	byCategory := make(map[string]int)
	for _, entry := range im.log {
		byCategory[entry.Category]++
	}
	return models.ImprovementSummary{
		TotalActions: len(im.log),
		ByCategory:   byCategory,
	}
}

func (im *Improver) appendLog(category, detail string) {
	im.log = append(im.log, models.ImprovementEntry{
		Category:  category,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	})
}

// RemoveDuplicates drops every row beyond the first occurrence of its key,
// preserving the order of surviving rows. An empty key set means full-row
// identity. The removal is logged only when at least one row was dropped.
func (im *Improver) RemoveDuplicates(ds *models.Dataset, keyColumns ...string) *models.Dataset {
	out := models.NewDataset(ds.Columns...)
	seen := make(map[string]struct{}, ds.RowCount())
	removed := 0
	for _, row := range ds.Rows {
		key := ds.RowKey(row, keyColumns)
		if _, ok := seen[key]; ok {
			removed++
			continue
		}
		seen[key] = struct{}{}
		out.AppendRow(row)
	}

	if removed > 0 {
		im.appendLog(constants.CategoryDuplicates,
			fmt.Sprintf("removed %d duplicate rows (keep first)", removed))
		im.logger.WithFields(logrus.Fields{
			"run_id":  im.runID,
			"removed": removed,
		}).Info("Removed duplicate rows")
	}
	return out
}

// ImproveCompleteness fills missing values per column according to the
// given strategies. Columns absent from the dataset are skipped silently;
// configurations are written generically and not every dataset has every
// optional column. The mean strategy requires a column with at least one
// numeric value and is skipped with a warning otherwise.
func (im *Improver) ImproveCompleteness(ds *models.Dataset, strategies map[string]models.FillStrategy) *models.Dataset {
	out := ds.Clone()

	for _, col := range orderedKeys(strategies) {
		strategy := strategies[col]
		if !out.HasColumn(col) {
			continue
		}
		if out.MissingCount(col) == 0 {
			continue
		}

		filled := 0
		switch strategy.Kind {
		case models.FillMean:
			mean, ok := columnMean(out, col)
			if !ok {
				im.logger.WithFields(logrus.Fields{
					"run_id": im.runID,
					"column": col,
				}).Warn("Mean strategy skipped: column has no numeric values")
				continue
			}
			filled = fillMissing(out, col, models.Number(mean))
		case models.FillMode:
			mode, ok := columnMode(out, col)
			if !ok {
				mode = models.String(constants.UnknownSentinel)
			}
			filled = fillMissing(out, col, mode)
		case models.FillForward:
			filled = forwardFill(out, col)
		case models.FillLiteral:
			filled = fillMissing(out, col, models.String(strategy.Literal))
		default:
			im.logger.WithFields(logrus.Fields{
				"run_id":   im.runID,
				"column":   col,
				"strategy": strategy.Kind,
			}).Warn("Unknown fill strategy skipped")
			continue
		}

		if filled > 0 {
			im.appendLog(constants.CategoryCompleteness,
				fmt.Sprintf("column %s: filled %d missing values using %s", col, filled, strategy.Kind))
		}
	}
	return out
}

// StandardizeFormat applies per-column formatting transforms to non-missing
// values. Unparseable values under the numeric rule become missing. A
// column is logged only when at least one value actually changed.
func (im *Improver) StandardizeFormat(ds *models.Dataset, rules map[string]models.FormatRule) *models.Dataset {
	out := ds.Clone()
	titleCaser := cases.Title(language.French)

	for _, col := range orderedKeys(rules) {
		rule := rules[col]
		if !out.HasColumn(col) {
			continue
		}

		var re *regexp.Regexp
		if rule.Kind == models.FormatPattern {
			var err error
			re, err = regexp.Compile(rule.Pattern)
			if err != nil {
				im.appendLog(constants.CategoryErrors,
					fmt.Sprintf("format rule for column %s: invalid pattern %q: %v", col, rule.Pattern, err))
				im.logger.WithFields(logrus.Fields{
					"run_id":  im.runID,
					"column":  col,
					"pattern": rule.Pattern,
				}).Warn("Skipping format rule with invalid pattern")
				continue
			}
		}

		changed := 0
		for _, row := range out.Rows {
			val := row[col]
			if val.IsMissing() {
				continue
			}
			next, ok := applyFormat(val, rule, re, titleCaser)
			if !ok {
				continue
			}
			if !next.Equal(val) {
				row[col] = next
				changed++
			}
		}

		if changed > 0 {
			im.appendLog(constants.CategoryFormat,
				fmt.Sprintf("column %s: reformatted %d values using %s", col, changed, rule.Kind))
		}
	}
	return out
}

// NormalizeCodification replaces values found as keys in each column's
// remapping table with their mapped code. Values not present as keys are
// left untouched. The log records mapped and unmapped distinct values.
func (im *Improver) NormalizeCodification(ds *models.Dataset, rules map[string]map[string]string) *models.Dataset {
	out := ds.Clone()

	for _, col := range orderedKeys(rules) {
		mapping := rules[col]
		if !out.HasColumn(col) || len(mapping) == 0 {
			continue
		}

		mappedDistinct := make(map[string]struct{})
		unmappedDistinct := make(map[string]struct{})
		replaced := 0
		for _, row := range out.Rows {
			val := row[col]
			if val.IsMissing() {
				continue
			}
			text := val.Text()
			if target, ok := mapping[text]; ok {
				row[col] = models.String(target)
				mappedDistinct[text] = struct{}{}
				replaced++
			} else {
				unmappedDistinct[text] = struct{}{}
			}
		}

		if replaced > 0 {
			unmapped := make([]string, 0, len(unmappedDistinct))
			for v := range unmappedDistinct {
				unmapped = append(unmapped, v)
			}
			sort.Strings(unmapped)
			im.appendLog(constants.CategoryCodification,
				fmt.Sprintf("column %s: remapped %d values (%d distinct codes), %d distinct codes unmapped [%s]",
					col, replaced, len(mappedDistinct), len(unmapped), strings.Join(unmapped, ", ")))
		}
	}
	return out
}

// ApplyBusinessRules processes rules strictly in order; each rule sees the
// effects of the rules before it. A rule whose predicate fails to evaluate
// is logged under the errors category and skipped, and processing
// continues with the next rule.
func (im *Improver) ApplyBusinessRules(ds *models.Dataset, rules []models.BusinessRule) *models.Dataset {
	out := ds.Clone()

	for _, rule := range rules {
		matched := make([]int, 0)
		var evalErr error
		for i, row := range out.Rows {
			hit, err := rule.Predicate.Evaluate(row)
			if err != nil {
				evalErr = err
				break
			}
			if hit {
				matched = append(matched, i)
			}
		}

		if evalErr != nil {
			im.appendLog(constants.CategoryErrors,
				fmt.Sprintf("business rule %s: %v", rule.Name, evalErr))
			im.logger.WithFields(logrus.Fields{
				"run_id": im.runID,
				"rule":   rule.Name,
			}).WithError(evalErr).Warn("Skipping business rule")
			continue
		}
		if len(matched) == 0 {
			continue
		}

		im.applyAction(out, rule.Action, matched)
		im.appendLog(constants.CategoryBusinessRules,
			fmt.Sprintf("rule %s (%s): affected %d rows", rule.Name, rule.Predicate.Describe(), len(matched)))
	}
	return out
}

func (im *Improver) applyAction(ds *models.Dataset, action models.RuleAction, matched []int) {
	switch action.Kind {
	case models.ActionSetValue:
		for _, i := range matched {
			ds.Rows[i][action.Column] = models.String(action.Value)
		}
	case models.ActionMultiplyBy:
		for _, i := range matched {
			val := ds.Rows[i][action.Column]
			if f, numeric := val.Float(); numeric {
				ds.Rows[i][action.Column] = models.Number(f * action.Factor)
			}
		}
	case models.ActionSetFlag:
		ds.AddColumn(action.FlagColumn, models.Missing())
		for _, i := range matched {
			ds.Rows[i][action.FlagColumn] = models.String(action.Value)
		}
	}
}

func applyFormat(val models.Value, rule models.FormatRule, re *regexp.Regexp, titleCaser cases.Caser) (models.Value, bool) {
	switch rule.Kind {
	case models.FormatTitleCase:
		return models.String(titleCaser.String(strings.ToLower(val.Text()))), true
	case models.FormatUpperCase:
		return models.String(strings.ToUpper(val.Text())), true
	case models.FormatLowerCase:
		return models.String(strings.ToLower(val.Text())), true
	case models.FormatCleanSpaces:
		return models.String(strings.TrimSpace(val.Text())), true
	case models.FormatNumeric:
		if f, numeric := val.Float(); numeric {
			return models.Number(f), true
		}
		return models.Missing(), true
	case models.FormatPattern:
		return models.String(re.ReplaceAllString(val.Text(), rule.Replacement)), true
	default:
		return models.Missing(), false
	}
}

func fillMissing(ds *models.Dataset, column string, fill models.Value) int {
	filled := 0
	for _, row := range ds.Rows {
		if row[column].IsMissing() {
			row[column] = fill
			filled++
		}
	}
	return filled
}

func forwardFill(ds *models.Dataset, column string) int {
	filled := 0
	last := models.Missing()
	for _, row := range ds.Rows {
		val := row[column]
		if val.IsMissing() {
			if !last.IsMissing() {
				row[column] = last
				filled++
			}
			continue
		}
		last = val
	}
	return filled
}

func columnMean(ds *models.Dataset, column string) (float64, bool) {
	sum := 0.0
	count := 0
	for _, row := range ds.Rows {
		if f, numeric := row[column].Float(); numeric {
			sum += f
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

func columnMode(ds *models.Dataset, column string) (models.Value, bool) {
	counts := make(map[string]int)
	values := make(map[string]models.Value)
	for _, row := range ds.Rows {
		val := row[column]
		if val.IsMissing() {
			continue
		}
		text := val.Text()
		counts[text]++
		values[text] = val
	}
	if len(counts) == 0 {
		return models.Missing(), false
	}

	// Ties break toward the lexicographically smaller value so the mode
	// is deterministic across runs.
	best := ""
	bestCount := -1
	for text, count := range counts {
		if count > bestCount || (count == bestCount && text < best) {
			best = text
			bestCount = count
		}
	}
	return values[best], true
}

func orderedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
