package improver

import (
	"github.com/enerqual/dqetl/pkg/constants"
	"github.com/enerqual/dqetl/pkg/models"
)

// PopulationConfig returns the cleaning configuration for population-shaped
// datasets (identity, name, first name, address, socio-professional code).
// Every call builds a fresh config; callers may mutate their copy freely.
func PopulationConfig() models.ImprovementConfig {
	return models.ImprovementConfig{
		CompletenessStrategies: map[string]models.FillStrategy{
			constants.ColLastName:  {Kind: models.FillMode},
			constants.ColFirstName: {Kind: models.FillMode},
			constants.ColAddress:   {Kind: models.FillLiteral, Literal: "Adresse inconnue"},
			constants.ColCSP:       {Kind: models.FillLiteral, Literal: "0"},
		},
		FormatRules: map[string]models.FormatRule{
			constants.ColLastName:  {Kind: models.FormatTitleCase},
			constants.ColFirstName: {Kind: models.FormatTitleCase},
			constants.ColAddress:   {Kind: models.FormatCleanSpaces},
		},
		CodificationRules: map[string]map[string]string{
			constants.ColCSP: {
				"agriculteur": "1",
				"artisan":     "2",
				"cadre":       "3",
				"employe":     "5",
				"employé":     "5",
				"ouvrier":     "6",
				"retraite":    "7",
				"retraité":    "7",
				"NC":          "0",
				"X":           "0",
			},
		},
		BusinessRules: []models.BusinessRule{
			{
				Name:      "csp_default_unknown",
				Predicate: models.NotIn{Column: constants.ColCSP, Values: constants.ValidCSPCodes()},
				Action: models.RuleAction{
					Kind:   models.ActionSetValue,
					Column: constants.ColCSP,
					Value:  "0",
				},
			},
		},
	}
}

// ConsumptionConfig returns the cleaning configuration for consumption-shaped
// datasets (address identifier, street number, street name, postal code,
// daily consumption). Every call builds a fresh config.
func ConsumptionConfig() models.ImprovementConfig {
	return models.ImprovementConfig{
		CompletenessStrategies: map[string]models.FillStrategy{
			constants.ColStreetNumber: {Kind: models.FillMode},
			constants.ColStreetName:   {Kind: models.FillForward},
			constants.ColDailyKWh:     {Kind: models.FillMean},
		},
		FormatRules: map[string]models.FormatRule{
			constants.ColStreetName: {Kind: models.FormatCleanSpaces},
			constants.ColPostalCode: {Kind: models.FormatNumeric},
			constants.ColDailyKWh:   {Kind: models.FormatNumeric},
		},
		CodificationRules: map[string]map[string]string{},
		BusinessRules: []models.BusinessRule{
			{
				// Negative readings are physically impossible; reset them
				// to zero rather than inventing a plausible value.
				Name:      "consumption_floor_negative",
				Predicate: models.LessThan{Column: constants.ColDailyKWh, Bound: 0},
				Action: models.RuleAction{
					Kind:   models.ActionSetValue,
					Column: constants.ColDailyKWh,
					Value:  "0",
				},
			},
			{
				Name:      "consumption_flag_extreme",
				Predicate: models.GreaterThan{Column: constants.ColDailyKWh, Bound: 100},
				Action: models.RuleAction{
					Kind:       models.ActionSetFlag,
					FlagColumn: "Anomalie_Conso",
					Value:      "consommation extrême",
				},
			},
			{
				Name:      "consumption_cap_extreme",
				Predicate: models.GreaterThan{Column: constants.ColDailyKWh, Bound: 100},
				Action: models.RuleAction{
					Kind:   models.ActionMultiplyBy,
					Column: constants.ColDailyKWh,
					Factor: 0.5,
				},
			},
		},
	}
}

// ConfigForFamily returns the preset configuration for a dataset family.
// The second return is false for unknown families.
func ConfigForFamily(family string) (models.ImprovementConfig, bool) {
	switch family {
	case constants.FamilyPopulation:
		return PopulationConfig(), true
	case constants.FamilyConsumption:
		return ConsumptionConfig(), true
	default:
		return models.ImprovementConfig{}, false
	}
}
