package pipeline

import (
	"github.com/enerqual/dqetl/pkg/constants"
	"github.com/enerqual/dqetl/pkg/errors"
	"github.com/enerqual/dqetl/pkg/models"
)

// PolicyForFamily returns the column-selection policy for a dataset
// family. Column roles are declared here once per family instead of being
// inferred from sampled values.
func PolicyForFamily(family string) (models.ColumnPolicy, error) {
	switch family {
	case constants.FamilyPopulation:
		return models.ColumnPolicy{
			NumericColumns: []string{constants.ColPersonID},
			CodedColumns: map[string][]string{
				constants.ColCSP: constants.ValidCSPCodes(),
			},
		}, nil
	case constants.FamilyConsumption:
		return models.ColumnPolicy{
			NumericColumns: []string{
				constants.ColStreetNumber,
				constants.ColPostalCode,
				constants.ColDailyKWh,
			},
			// Postal codes have no enumerated code set; the nil set makes
			// the codification check fall back to numeric parseability.
			CodedColumns: map[string][]string{
				constants.ColPostalCode: nil,
			},
		}, nil
	default:
		return models.ColumnPolicy{}, errors.NewValidationError("INVALID_FAMILY",
			"unknown dataset family: "+family)
	}
}
