package generators

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/enerqual/dqetl/pkg/constants"
	"github.com/enerqual/dqetl/pkg/errors"
	"github.com/enerqual/dqetl/pkg/models"
)

// PopulationConfig contains configuration for population dataset generation.
type PopulationConfig struct {
	City string `json:"city"` // "paris" or "evry"
	Size int    `json:"size"` // rows before duplicate injection
	Seed int64  `json:"seed"` // random seed for reproducibility

	// Defect injection rates, as fractions of rows.
	MissingLastNameRate  float64 `json:"missing_last_name_rate"`
	MissingFirstNameRate float64 `json:"missing_first_name_rate"`
	MissingAddressRate   float64 `json:"missing_address_rate"`
	BadCSPRate           float64 `json:"bad_csp_rate"`
	DuplicateRate        float64 `json:"duplicate_rate"`
}

// PopulationGenerator generates synthetic population records with injected
// quality defects.
type PopulationGenerator struct {
	logger     *logrus.Logger
	config     *PopulationConfig
	randSource *rand.Rand
}

var lastNames = []string{
	"Martin", "Bernard", "Dubois", "Thomas", "Robert", "Richard", "Petit",
	"Durand", "Leroy", "Moreau", "Simon", "Laurent", "Lefebvre", "Michel",
	"Garcia", "David", "Bertrand", "Roux", "Vincent", "Fournier", "Nguyen",
	"Lopez", "Gonzalez", "Chen", "Wang", "Kim", "Johnson", "Brown",
}

var firstNames = []string{
	"Jean", "Marie", "Michel", "Alain", "Patrick", "Pierre", "Philippe",
	"Christophe", "Sophie", "Julie", "Camille", "Emma", "Lea", "Manon",
	"Lucas", "Hugo", "Louis", "Gabriel", "Arthur", "Mohamed", "Fatima",
	"Sarah", "David", "Daniel", "Kevin", "Lisa",
}

var parisStreets = []string{
	"Rue de Rivoli", "Avenue des Champs-Elysées", "Boulevard Saint-Germain",
	"Rue de la Paix", "Avenue Montaigne", "Rue du Faubourg Saint-Honoré",
	"Boulevard Haussmann", "Rue Lafayette", "Avenue Victor Hugo",
	"Rue Saint-Antoine",
}

var evryStreets = []string{
	"Rue de l'Essonne", "Avenue de la Gare", "Boulevard des Champs",
	"Rue de la République", "Avenue du Parc", "Boulevard Liberté",
	"Avenue Jean Jaurès", "Rue Nationale", "Avenue François Mitterrand",
}

// Problematic CSP values injected at BadCSPRate: textual labels,
// out-of-range digits, placeholder codes and missing markers.
var badCSPValues = []string{"cadre", "employé", "ouvrier", "retraité", "9", "NC", "X", ""}

// NewPopulationGenerator creates a new population generator.
func NewPopulationGenerator(config *PopulationConfig, logger *logrus.Logger) *PopulationGenerator {
	if config == nil {
		config = DefaultPopulationConfig("paris", 5_000)
	}
	if logger == nil {
		logger = logrus.New()
	}
	if config.Seed == 0 {
		config.Seed = time.Now().UnixNano()
	}
	return &PopulationGenerator{
		logger:     logger,
		config:     config,
		randSource: rand.New(rand.NewSource(config.Seed)),
	}
}

// DefaultPopulationConfig returns a configuration with the defect rates
// the demonstration datasets are tuned to.
func DefaultPopulationConfig(city string, size int) *PopulationConfig {
	return &PopulationConfig{
		City:                 city,
		Size:                 size,
		MissingLastNameRate:  0.02,
		MissingFirstNameRate: 0.015,
		MissingAddressRate:   0.01,
		BadCSPRate:           0.15,
		DuplicateRate:        0.03,
	}
}

// Family returns the dataset family this generator produces.
func (g *PopulationGenerator) Family() string {
	return constants.FamilyPopulation
}

// Generate produces a synthetic population dataset.
func (g *PopulationGenerator) Generate(ctx context.Context) (*models.Dataset, error) {
	if g.config.Size <= 0 {
		return nil, errors.NewGenerationError("INVALID_SIZE", "population size must be positive")
	}

	g.logger.WithFields(logrus.Fields{
		"city": g.config.City,
		"size": g.config.Size,
		"seed": g.config.Seed,
	}).Info("Generating population dataset")

	streets := parisStreets
	idOffset := 0
	if strings.EqualFold(g.config.City, "evry") {
		streets = evryStreets
		idOffset = 10_000_000
	}

	ds := models.NewDataset(
		constants.ColPersonID,
		constants.ColLastName,
		constants.ColFirstName,
		constants.ColAddress,
		constants.ColCSP,
	)

	for i := 0; i < g.config.Size; i++ {
		if i%50_000 == 0 {
			if err := checkContext(ctx); err != nil {
				return nil, err
			}
		}
		row := models.Row{
			constants.ColPersonID:  models.Number(float64(idOffset + i + 1)),
			constants.ColLastName:  g.maybeMissing(lastNames, g.config.MissingLastNameRate),
			constants.ColFirstName: g.maybeMissing(firstNames, g.config.MissingFirstNameRate),
			constants.ColAddress:   g.address(streets),
			constants.ColCSP:       g.csp(),
		}
		ds.AppendRow(row)
	}

	g.injectDuplicates(ds)

	g.logger.WithFields(logrus.Fields{
		"city": g.config.City,
		"rows": ds.RowCount(),
	}).Info("Population dataset generated")

	return ds, nil
}

func (g *PopulationGenerator) maybeMissing(pool []string, missingRate float64) models.Value {
	if g.randSource.Float64() < missingRate {
		return models.Missing()
	}
	return models.String(pool[g.randSource.Intn(len(pool))])
}

func (g *PopulationGenerator) address(streets []string) models.Value {
	if g.randSource.Float64() < g.config.MissingAddressRate {
		return models.Missing()
	}
	number := g.randSource.Intn(999) + 1
	street := streets[g.randSource.Intn(len(streets))]
	return models.String(fmt.Sprintf("%d %s", number, street))
}

// csp draws a socio-professional code following a roughly realistic French
// distribution, replaced by a problematic value at BadCSPRate.
func (g *PopulationGenerator) csp() models.Value {
	if g.randSource.Float64() < g.config.BadCSPRate {
		bad := badCSPValues[g.randSource.Intn(len(badCSPValues))]
		if bad == "" {
			return models.Missing()
		}
		return models.String(bad)
	}

	r := g.randSource.Float64()
	switch {
	case r < 0.03:
		return models.String("1") // agriculteurs
	case r < 0.09:
		return models.String("2") // artisans, commerçants
	case r < 0.25:
		return models.String("3") // cadres
	case r < 0.50:
		return models.String("4") // professions intermédiaires
	case r < 0.78:
		return models.String("5") // employés
	case r < 0.92:
		return models.String("6") // ouvriers
	case r < 0.97:
		return models.String("7") // retraités
	default:
		return models.String("8") // sans activité
	}
}

// injectDuplicates re-appends randomly chosen rows, occasionally with an
// upper-cased first name so near-duplicates appear as well.
func (g *PopulationGenerator) injectDuplicates(ds *models.Dataset) {
	count := int(float64(ds.RowCount()) * g.config.DuplicateRate)
	for i := 0; i < count; i++ {
		original := ds.Rows[g.randSource.Intn(ds.RowCount())]
		duplicate := original.Clone()
		if g.randSource.Float64() < 0.5 {
			if first := duplicate[constants.ColFirstName]; !first.IsMissing() {
				duplicate[constants.ColFirstName] = models.String(strings.ToUpper(first.Text()))
			}
		}
		ds.AppendRow(duplicate)
	}
}
