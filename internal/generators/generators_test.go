package generators

import (
	"context"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enerqual/dqetl/pkg/constants"
	"github.com/enerqual/dqetl/pkg/models"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func TestScaleConfigs(t *testing.T) {
	configs := ScaleConfigs()
	require.NotEmpty(t, configs)

	small, err := ScaleConfigByName("small")
	require.NoError(t, err)
	assert.Greater(t, small.PopulationParis, 0)
	assert.Greater(t, small.PopulationEvry, 0)
	assert.Greater(t, small.ConsumptionParis, 0)
	assert.Greater(t, small.ConsumptionEvry, 0)

	_, err = ScaleConfigByName("galactic")
	assert.Error(t, err)
}

func TestPopulationGeneratorColumns(t *testing.T) {
	config := DefaultPopulationConfig("paris", 200)
	config.Seed = 42
	gen := NewPopulationGenerator(config, quietLogger())
	assert.Equal(t, constants.FamilyPopulation, gen.Family())

	ds, err := gen.Generate(context.Background())
	require.NoError(t, err)

	expected := []string{
		constants.ColPersonID, constants.ColLastName, constants.ColFirstName,
		constants.ColAddress, constants.ColCSP,
	}
	assert.Equal(t, expected, ds.Columns)

	// Duplicate injection appends rows beyond the configured size.
	assert.GreaterOrEqual(t, ds.RowCount(), config.Size)
	assert.LessOrEqual(t, ds.RowCount(), config.Size+int(float64(config.Size)*config.DuplicateRate)+1)
}

func TestPopulationGeneratorDeterminism(t *testing.T) {
	generate := func() *models.Dataset {
		config := DefaultPopulationConfig("paris", 300)
		config.Seed = 7
		ds, err := NewPopulationGenerator(config, quietLogger()).Generate(context.Background())
		require.NoError(t, err)
		return ds
	}

	first := generate()
	second := generate()
	require.Equal(t, first.RowCount(), second.RowCount())
	for i := range first.Rows {
		for _, col := range first.Columns {
			assert.True(t, first.Rows[i][col].Equal(second.Rows[i][col]),
				"row %d column %s", i, col)
		}
	}
}

func TestPopulationGeneratorInjectsDefects(t *testing.T) {
	config := DefaultPopulationConfig("paris", 3_000)
	config.Seed = 11
	ds, err := NewPopulationGenerator(config, quietLogger()).Generate(context.Background())
	require.NoError(t, err)

	assert.Greater(t, ds.MissingCount(constants.ColLastName), 0)
	assert.Greater(t, ds.MissingCount(constants.ColFirstName), 0)
	assert.Greater(t, ds.MissingCount(constants.ColAddress), 0)

	valid := make(map[string]struct{})
	for _, code := range constants.ValidCSPCodes() {
		valid[code] = struct{}{}
	}
	invalid := 0
	for _, row := range ds.Rows {
		val := row[constants.ColCSP]
		if val.IsMissing() {
			invalid++
			continue
		}
		if _, ok := valid[val.Text()]; !ok {
			invalid++
		}
	}
	// About 15% of rows carry a problematic CSP value.
	assert.Greater(t, invalid, ds.RowCount()/20)

	seen := make(map[string]int)
	for _, row := range ds.Rows {
		seen[ds.RowKey(row, nil)]++
	}
	duplicates := 0
	for _, n := range seen {
		duplicates += n - 1
	}
	assert.Greater(t, duplicates, 0)
}

func TestPopulationGeneratorCityOffsets(t *testing.T) {
	config := DefaultPopulationConfig("evry", 10)
	config.Seed = 1
	ds, err := NewPopulationGenerator(config, quietLogger()).Generate(context.Background())
	require.NoError(t, err)

	id, ok := ds.Rows[0][constants.ColPersonID].Float()
	require.True(t, ok)
	assert.Equal(t, 10_000_001.0, id)
}

func TestPopulationGeneratorInvalidSize(t *testing.T) {
	config := DefaultPopulationConfig("paris", 0)
	config.Seed = 1
	_, err := NewPopulationGenerator(config, quietLogger()).Generate(context.Background())
	assert.Error(t, err)
}

func TestPopulationGeneratorContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	config := DefaultPopulationConfig("paris", 100)
	config.Seed = 1
	_, err := NewPopulationGenerator(config, quietLogger()).Generate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConsumptionGeneratorColumns(t *testing.T) {
	config := DefaultConsumptionConfig("paris", 200)
	config.Seed = 42
	gen := NewConsumptionGenerator(config, quietLogger())
	assert.Equal(t, constants.FamilyConsumption, gen.Family())

	ds, err := gen.Generate(context.Background())
	require.NoError(t, err)

	expected := []string{
		constants.ColAddressID, constants.ColStreetNumber, constants.ColStreetName,
		constants.ColPostalCode, constants.ColDailyKWh,
	}
	assert.Equal(t, expected, ds.Columns)
	assert.GreaterOrEqual(t, ds.RowCount(), config.Size)
}

func TestConsumptionGeneratorDeterminism(t *testing.T) {
	generate := func() *models.Dataset {
		config := DefaultConsumptionConfig("evry", 300)
		config.Seed = 9
		ds, err := NewConsumptionGenerator(config, quietLogger()).Generate(context.Background())
		require.NoError(t, err)
		return ds
	}

	first := generate()
	second := generate()
	require.Equal(t, first.RowCount(), second.RowCount())
	for i := range first.Rows {
		for _, col := range first.Columns {
			assert.True(t, first.Rows[i][col].Equal(second.Rows[i][col]),
				"row %d column %s", i, col)
		}
	}
}

func TestConsumptionGeneratorValueRanges(t *testing.T) {
	config := DefaultConsumptionConfig("paris", 3_000)
	config.Seed = 13
	ds, err := NewConsumptionGenerator(config, quietLogger()).Generate(context.Background())
	require.NoError(t, err)

	assert.Greater(t, ds.MissingCount(constants.ColDailyKWh), 0)
	assert.Greater(t, ds.MissingCount(constants.ColStreetNumber), 0)

	negatives := 0
	sum := 0.0
	count := 0
	for _, row := range ds.Rows {
		kwh, ok := row[constants.ColDailyKWh].Float()
		if !ok {
			continue
		}
		if kwh < 0 {
			negatives++
		}
		sum += kwh
		count++

		code, ok := row[constants.ColPostalCode].Float()
		require.True(t, ok)
		assert.GreaterOrEqual(t, code, 75001.0)
		assert.LessOrEqual(t, code, 75020.0)

		street := row[constants.ColStreetName]
		require.False(t, street.IsMissing())
		assert.True(t, strings.HasPrefix(street.Text(), "Rue de la "))
	}
	assert.Greater(t, negatives, 0)

	// The log-normal base with defaults averages about 16 kWh/day; the
	// seasonal factor is mean-preserving, so the sample mean stays in a
	// wide plausibility band.
	mean := sum / float64(count)
	assert.Greater(t, mean, 8.0)
	assert.Less(t, mean, 35.0)
}

func TestConsumptionGeneratorCityOffsets(t *testing.T) {
	config := DefaultConsumptionConfig("evry", 10)
	config.Seed = 1
	ds, err := NewConsumptionGenerator(config, quietLogger()).Generate(context.Background())
	require.NoError(t, err)

	id, ok := ds.Rows[0][constants.ColAddressID].Float()
	require.True(t, ok)
	assert.Equal(t, 30_000_001.0, id)

	code, ok := ds.Rows[0][constants.ColPostalCode].Float()
	require.True(t, ok)
	assert.GreaterOrEqual(t, code, 91000.0)
	assert.LessOrEqual(t, code, 91500.0)
}

func TestConsumptionGeneratorInvalidSize(t *testing.T) {
	config := DefaultConsumptionConfig("paris", -1)
	config.Seed = 1
	_, err := NewConsumptionGenerator(config, quietLogger()).Generate(context.Background())
	assert.Error(t, err)
}
