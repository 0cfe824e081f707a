package generators

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	exprand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/enerqual/dqetl/pkg/constants"
	"github.com/enerqual/dqetl/pkg/errors"
	"github.com/enerqual/dqetl/pkg/models"
)

// ConsumptionConfig contains configuration for consumption dataset
// generation.
type ConsumptionConfig struct {
	City string `json:"city"` // "paris" or "evry"
	Size int    `json:"size"` // rows before duplicate injection
	Seed uint64 `json:"seed"` // random seed for reproducibility

	// Log-normal parameters of the daily consumption distribution,
	// about 16 kWh/day on average with the defaults.
	LogMean  float64 `json:"log_mean"`
	LogSigma float64 `json:"log_sigma"`

	// Defect injection rates, as fractions of rows.
	MissingNumberRate      float64 `json:"missing_number_rate"`
	MissingConsumptionRate float64 `json:"missing_consumption_rate"`
	OutlierRate            float64 `json:"outlier_rate"`
	NegativeRate           float64 `json:"negative_rate"`
	DuplicateRate          float64 `json:"duplicate_rate"`
}

// ConsumptionGenerator generates synthetic daily energy consumption
// readings with injected quality defects.
type ConsumptionGenerator struct {
	logger     *logrus.Logger
	config     *ConsumptionConfig
	randSource *exprand.Rand
	lognormal  distuv.LogNormal
}

var parisPostalCodes = []float64{
	75001, 75002, 75003, 75004, 75005, 75006, 75007, 75008, 75009, 75010,
	75011, 75012, 75013, 75014, 75015, 75016, 75017, 75018, 75019, 75020,
}

var evryPostalCodes = []float64{91000, 91100, 91200, 91300, 91400, 91500}

var streetWords = []string{"Paix", "République", "Liberté", "Fraternité", "Justice"}

// NewConsumptionGenerator creates a new consumption generator.
func NewConsumptionGenerator(config *ConsumptionConfig, logger *logrus.Logger) *ConsumptionGenerator {
	if config == nil {
		config = DefaultConsumptionConfig("paris", 7_500)
	}
	if logger == nil {
		logger = logrus.New()
	}
	if config.Seed == 0 {
		config.Seed = uint64(time.Now().UnixNano())
	}

	src := exprand.NewSource(config.Seed)
	return &ConsumptionGenerator{
		logger:     logger,
		config:     config,
		randSource: exprand.New(src),
		lognormal: distuv.LogNormal{
			Mu:    config.LogMean,
			Sigma: config.LogSigma,
			Src:   src,
		},
	}
}

// DefaultConsumptionConfig returns a configuration with the defect rates
// the demonstration datasets are tuned to.
func DefaultConsumptionConfig(city string, size int) *ConsumptionConfig {
	return &ConsumptionConfig{
		City:                   city,
		Size:                   size,
		LogMean:                2.8,
		LogSigma:               0.5,
		MissingNumberRate:      0.02,
		MissingConsumptionRate: 0.025,
		OutlierRate:            0.01,
		NegativeRate:           0.003,
		DuplicateRate:          0.02,
	}
}

// Family returns the dataset family this generator produces.
func (g *ConsumptionGenerator) Family() string {
	return constants.FamilyConsumption
}

// Generate produces a synthetic consumption dataset.
func (g *ConsumptionGenerator) Generate(ctx context.Context) (*models.Dataset, error) {
	if g.config.Size <= 0 {
		return nil, errors.NewGenerationError("INVALID_SIZE", "consumption size must be positive")
	}

	g.logger.WithFields(logrus.Fields{
		"city": g.config.City,
		"size": g.config.Size,
		"seed": g.config.Seed,
	}).Info("Generating consumption dataset")

	postalCodes := parisPostalCodes
	idOffset := 20_000_000
	if strings.EqualFold(g.config.City, "evry") {
		postalCodes = evryPostalCodes
		idOffset = 30_000_000
	}

	ds := models.NewDataset(
		constants.ColAddressID,
		constants.ColStreetNumber,
		constants.ColStreetName,
		constants.ColPostalCode,
		constants.ColDailyKWh,
	)

	for i := 0; i < g.config.Size; i++ {
		if i%50_000 == 0 {
			if err := checkContext(ctx); err != nil {
				return nil, err
			}
		}
		row := models.Row{
			constants.ColAddressID:    models.Number(float64(idOffset + i + 1)),
			constants.ColStreetNumber: g.streetNumber(),
			constants.ColStreetName:   g.streetName(),
			constants.ColPostalCode:   models.Number(postalCodes[g.randSource.Intn(len(postalCodes))]),
			constants.ColDailyKWh:     g.consumption(),
		}
		ds.AppendRow(row)
	}

	g.injectDuplicates(ds)

	g.logger.WithFields(logrus.Fields{
		"city": g.config.City,
		"rows": ds.RowCount(),
	}).Info("Consumption dataset generated")

	return ds, nil
}

func (g *ConsumptionGenerator) streetNumber() models.Value {
	if g.randSource.Float64() < g.config.MissingNumberRate {
		return models.Missing()
	}
	return models.Number(float64(g.randSource.Intn(500) + 1))
}

func (g *ConsumptionGenerator) streetName() models.Value {
	word := streetWords[g.randSource.Intn(len(streetWords))]
	variant := g.randSource.Intn(200) + 1
	return models.String("Rue de la " + word + " " + strconv.Itoa(variant))
}

// consumption draws a daily reading from the log-normal base distribution
// with a seasonal factor, then injects outliers, impossible negatives and
// missing readings at the configured rates.
func (g *ConsumptionGenerator) consumption() models.Value {
	if g.randSource.Float64() < g.config.MissingConsumptionRate {
		return models.Missing()
	}

	base := g.lognormal.Rand()
	seasonal := 1 + 0.4*math.Sin(2*math.Pi*g.randSource.Float64())
	value := base * seasonal

	if g.randSource.Float64() < g.config.OutlierRate {
		if g.randSource.Float64() < 0.5 {
			value = 0.1 + g.randSource.Float64()*2.9 // implausibly low
		} else {
			value = 80 + g.randSource.Float64()*120 // implausibly high
		}
	}
	if g.randSource.Float64() < g.config.NegativeRate {
		value = -math.Abs(value)
	}

	return models.Number(math.Round(value*10) / 10)
}

func (g *ConsumptionGenerator) injectDuplicates(ds *models.Dataset) {
	count := int(float64(ds.RowCount()) * g.config.DuplicateRate)
	for i := 0; i < count; i++ {
		original := ds.Rows[g.randSource.Intn(ds.RowCount())]
		ds.AppendRow(original.Clone())
	}
}
