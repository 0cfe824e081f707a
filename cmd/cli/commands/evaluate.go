package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/enerqual/dqetl/internal/evaluator"
	"github.com/enerqual/dqetl/internal/pipeline"
	"github.com/enerqual/dqetl/internal/storage/file"
	"github.com/enerqual/dqetl/pkg/constants"
	"github.com/enerqual/dqetl/pkg/models"
)

type EvaluateOptions struct {
	InputFile    string
	Family       string
	ReportFormat string
	OutputFile   string
	Threshold    float64
}

func NewEvaluateCmd() *cobra.Command {
	opts := &EvaluateOptions{}

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score the quality of a dataset",
		Long: `Evaluate a CSV dataset against the quality metrics: completeness,
uniqueness, format consistency and codification consistency, folded into
a weighted overall score and a quality tier.`,
		Example: `  # Score a population dataset
  dqetl-cli evaluate --input sources/population_paris.csv --family population

  # Emit the full report as JSON
  dqetl-cli evaluate --input data.csv --family consumption --report-format json --output report.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.InputFile, "input", "i", "", "Input CSV file to evaluate (required)")
	cmd.Flags().StringVarP(&opts.Family, "family", "f", "", "Dataset family (population, consumption) (required)")
	cmd.Flags().StringVar(&opts.ReportFormat, "report-format", constants.DefaultReportFormat, "Report format (text, json)")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "-", "Output file for report (- for stdout)")
	cmd.Flags().Float64Var(&opts.Threshold, "threshold", constants.DefaultQualityThreshold, "Quality threshold (0 to 100)")

	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("family")

	return cmd
}

func runEvaluate(opts *EvaluateOptions) error {
	logger := newLogger()

	policy, err := pipeline.PolicyForFamily(opts.Family)
	if err != nil {
		return err
	}

	storage, err := file.NewStorage(&file.StorageConfig{BasePath: "."}, logger)
	if err != nil {
		return err
	}
	ds, err := storage.ReadDataset(opts.InputFile)
	if err != nil {
		return fmt.Errorf("failed to load input data: %w", err)
	}

	eval := evaluator.NewEvaluator(logger)
	report := eval.GenerateQualityReport(ds, sourceLabel(opts.InputFile), policy)

	if err := outputReport(report, opts.ReportFormat, opts.OutputFile); err != nil {
		return fmt.Errorf("failed to output report: %w", err)
	}

	score := report.QualityScore.OverallQualityScore
	if score >= opts.Threshold {
		fmt.Printf("\n✓ Quality threshold met (%.2f >= %.2f)\n", score, opts.Threshold)
		return nil
	}
	fmt.Printf("\n✗ Quality below threshold (%.2f < %.2f)\n", score, opts.Threshold)
	return fmt.Errorf("quality below threshold")
}

func sourceLabel(path string) string {
	base := path
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	return strings.TrimSuffix(base, ".csv")
}

func outputReport(report *models.QualityReport, format, outputFile string) error {
	switch strings.ToLower(format) {
	case "json":
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return writeOutput(string(data)+"\n", outputFile)
	default:
		return writeOutput(formatReportText(report), outputFile)
	}
}

func formatReportText(report *models.QualityReport) string {
	var b strings.Builder

	b.WriteString("\nQuality Report: " + report.SourceName + "\n")
	b.WriteString(strings.Repeat("=", 16+len(report.SourceName)) + "\n\n")
	fmt.Fprintf(&b, "Rows: %d  Columns: %d\n\n", report.DatasetInfo.RowCount, report.DatasetInfo.ColumnCount)

	score := report.QualityScore
	fmt.Fprintf(&b, "Overall Quality Score: %.2f%% (%s)\n", score.OverallQualityScore, score.QualityLevel)
	fmt.Fprintf(&b, "- Completeness: %.2f%%\n", score.CompletenessScore)
	fmt.Fprintf(&b, "- Uniqueness: %.2f%%\n", score.UniquenessScore)
	fmt.Fprintf(&b, "- Format: %.2f%%\n", score.FormatScore)
	fmt.Fprintf(&b, "- Codification: %.2f%%\n", score.CodificationScore)

	b.WriteString("\nCompleteness by column:\n")
	for _, col := range sortedKeys(report.Completeness) {
		c := report.Completeness[col]
		fmt.Fprintf(&b, "- %s: %d missing (%.2f%%)\n", col, c.MissingCount, c.MissingPercentage)
	}

	d := report.Duplicates
	fmt.Fprintf(&b, "\nDuplicates: %d of %d rows (%.2f%%)\n", d.DuplicateCount, d.TotalRows, d.DuplicatePercentage)

	if len(report.Codification) > 0 {
		b.WriteString("\nCodification:\n")
		for _, col := range sortedKeys(report.Codification) {
			c := report.Codification[col]
			fmt.Fprintf(&b, "- %s: %d invalid of %d", col, c.InvalidCodesCount, c.TotalValues)
			if len(c.InvalidValues) > 0 {
				fmt.Fprintf(&b, " [%s]", strings.Join(c.InvalidValues, ", "))
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

func writeOutput(content, outputFile string) error {
	if outputFile == "-" {
		fmt.Print(content)
		return nil
	}
	return os.WriteFile(outputFile, []byte(content), 0644)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
