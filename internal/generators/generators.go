// Package generators produces the synthetic population and consumption
// datasets the pipeline demonstrates on. Defects are injected on purpose:
// missing values, duplicate rows, inconsistent codes and outliers, so the
// quality engine has something to find and fix.
package generators

import (
	"context"

	"github.com/enerqual/dqetl/pkg/errors"
	"github.com/enerqual/dqetl/pkg/models"
)

// Generator is the common contract of the synthetic dataset generators.
type Generator interface {
	// Family returns the dataset family the generator produces.
	Family() string
	// Generate produces a dataset. Output is deterministic for a fixed
	// configuration seed.
	Generate(ctx context.Context) (*models.Dataset, error)
}

// ScaleConfig fixes row counts per source for one scale preset.
type ScaleConfig struct {
	Name             string `json:"name"`
	PopulationParis  int    `json:"population_paris"`
	PopulationEvry   int    `json:"population_evry"`
	ConsumptionParis int    `json:"consumption_paris"`
	ConsumptionEvry  int    `json:"consumption_evry"`
}

// ScaleConfigs returns the named scale presets.
func ScaleConfigs() map[string]ScaleConfig {
	return map[string]ScaleConfig{
		"small": {
			Name:             "small",
			PopulationParis:  5_000,
			PopulationEvry:   2_500,
			ConsumptionParis: 7_500,
			ConsumptionEvry:  3_500,
		},
		"medium": {
			Name:             "medium",
			PopulationParis:  50_000,
			PopulationEvry:   25_000,
			ConsumptionParis: 75_000,
			ConsumptionEvry:  35_000,
		},
		"large": {
			Name:             "large",
			PopulationParis:  250_000,
			PopulationEvry:   150_000,
			ConsumptionParis: 500_000,
			ConsumptionEvry:  300_000,
		},
	}
}

// ScaleConfigByName resolves a scale preset by name.
func ScaleConfigByName(name string) (ScaleConfig, error) {
	config, ok := ScaleConfigs()[name]
	if !ok {
		return ScaleConfig{}, errors.NewGenerationError("INVALID_SCALE",
			"unknown scale preset: "+name)
	}
	return config, nil
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
