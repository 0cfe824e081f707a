package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/enerqual/dqetl/internal/pipeline"
)

type RunOptions struct {
	SourcesPath string
	OutputPath  string
	ReportsPath string
	Threshold   float64
}

func NewRunCmd() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full quality ETL over all configured sources",
		Long: `Run the batch ETL: extract each source, score it, improve it when the
overall score falls below the threshold, re-score, and persist improved
datasets plus before/after quality reports.`,
		Example: `  # Run with defaults (sources/, output/, quality_reports/, threshold 99)
  dqetl-cli run

  # Run against another sources directory with a lower bar
  dqetl-cli run --sources data/sources --threshold 95`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(opts)
		},
	}

	defaults := pipeline.DefaultConfig()
	cmd.Flags().StringVar(&opts.SourcesPath, "sources", defaults.SourcesPath, "Directory containing source CSV files")
	cmd.Flags().StringVar(&opts.OutputPath, "output", defaults.OutputPath, "Directory for improved datasets")
	cmd.Flags().StringVar(&opts.ReportsPath, "reports", defaults.ReportsPath, "Directory for quality reports")
	cmd.Flags().Float64Var(&opts.Threshold, "threshold", defaults.Threshold, "Quality acceptance threshold (0 to 100)")

	viper.BindPFlag("threshold", cmd.Flags().Lookup("threshold"))

	return cmd
}

func runPipeline(opts *RunOptions) error {
	logger := newLogger()

	config := pipeline.DefaultConfig()
	config.SourcesPath = opts.SourcesPath
	config.OutputPath = opts.OutputPath
	config.ReportsPath = opts.ReportsPath
	config.Threshold = viper.GetFloat64("threshold")

	p, err := pipeline.NewPipeline(config, logger)
	if err != nil {
		return err
	}

	summary, err := p.Run(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("\nRun Summary\n===========\n")
	fmt.Printf("Sources processed: %d\n", summary.SourcesProcessed)
	fmt.Printf("Conforming (>= %.1f%%): %d/%d\n", summary.Threshold, summary.ConformingSources, summary.SourcesProcessed)
	fmt.Printf("Average improvement: %+.2f points\n", summary.AverageImprovement)
	fmt.Printf("Rows processed: %d\n", summary.TotalRowsProcessed)
	for _, result := range summary.Results {
		status := "✗"
		if result.MeetsThreshold {
			status = "✓"
		}
		fmt.Printf("%s %s: %.2f%% -> %.2f%% (%+.2f)\n",
			status, result.SourceName, result.ScoreBefore, result.ScoreAfter, result.Improvement)
	}

	if summary.ConformingSources < summary.SourcesProcessed {
		return fmt.Errorf("%d source(s) below threshold", summary.SourcesProcessed-summary.ConformingSources)
	}
	return nil
}
