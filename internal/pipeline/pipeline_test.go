package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enerqual/dqetl/internal/improver"
	"github.com/enerqual/dqetl/internal/storage/file"
	"github.com/enerqual/dqetl/pkg/constants"
	"github.com/enerqual/dqetl/pkg/models"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func testConfig(t *testing.T, threshold float64, sources ...SourceSpec) *Config {
	t.Helper()
	base := t.TempDir()
	return &Config{
		SourcesPath: filepath.Join(base, "sources"),
		OutputPath:  filepath.Join(base, "output"),
		ReportsPath: filepath.Join(base, "reports"),
		Threshold:   threshold,
		Sources:     sources,
	}
}

func writeSourceCSV(t *testing.T, config *Config, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(config.SourcesPath, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(config.SourcesPath, name+".csv"), []byte(content), 0644))
}

const dirtyPopulationCSV = `ID_Personne,Nom,Prenom,Adresse,CSP
1,MARTIN,jean,12 Rue Verte,cadre
1,MARTIN,jean,12 Rue Verte,cadre
2,bernard,,3 Rue Bleue,9
3,petit,JEAN,,5
4,durand,marie,8 Rue Rouge,X
`

const cleanPopulationCSV = `ID_Personne,Nom,Prenom,Adresse,CSP
1,Martin,Jean,12 Rue Verte,3
2,Bernard,Marie,3 Rue Bleue,5
3,Petit,Luc,7 Rue Jaune,6
`

func TestPolicyForFamily(t *testing.T) {
	policy, err := PolicyForFamily(constants.FamilyPopulation)
	require.NoError(t, err)
	assert.Contains(t, policy.CodedColumns, constants.ColCSP)
	assert.Equal(t, []string{constants.ColPersonID}, policy.NumericColumns)

	policy, err = PolicyForFamily(constants.FamilyConsumption)
	require.NoError(t, err)
	assert.Contains(t, policy.NumericColumns, constants.ColDailyKWh)
	assert.Contains(t, policy.CodedColumns, constants.ColPostalCode)

	_, err = PolicyForFamily("weather")
	assert.Error(t, err)
}

func TestNewPipelineValidatesThreshold(t *testing.T) {
	config := testConfig(t, 150)
	_, err := NewPipeline(config, quietLogger())
	assert.Error(t, err)

	config = testConfig(t, -1)
	_, err = NewPipeline(config, quietLogger())
	assert.Error(t, err)
}

func TestProcessSourceImprovesDirtyData(t *testing.T) {
	source := SourceSpec{Name: "population_paris", Family: constants.FamilyPopulation}
	config := testConfig(t, 99, source)
	writeSourceCSV(t, config, source.Name, dirtyPopulationCSV)

	p, err := NewPipeline(config, quietLogger())
	require.NoError(t, err)

	result, err := p.ProcessSource(context.Background(), source)
	require.NoError(t, err)

	assert.Equal(t, 5, result.OriginalRows)
	assert.Equal(t, 4, result.FinalRows)
	assert.True(t, result.Improved)
	assert.Greater(t, result.ScoreAfter, result.ScoreBefore)
	assert.Equal(t, result.ScoreAfter-result.ScoreBefore, result.Improvement)
	assert.Equal(t, "population_paris_improved.csv", result.OutputFile)
	assert.Greater(t, result.Summary.TotalActions, 0)

	// Both reports were persisted.
	for _, name := range []string{
		"population_paris_before_quality.json",
		"population_paris_after_quality.json",
	} {
		data, err := os.ReadFile(filepath.Join(config.ReportsPath, name))
		require.NoError(t, err, name)
		var report models.QualityReport
		require.NoError(t, json.Unmarshal(data, &report))
	}

	// The improved dataset is readable and fully cleaned.
	outputDir, err := file.NewStorage(&file.StorageConfig{BasePath: config.OutputPath}, quietLogger())
	require.NoError(t, err)
	improved, err := outputDir.ReadDataset(result.OutputFile)
	require.NoError(t, err)
	assert.Equal(t, 4, improved.RowCount())
	assert.Equal(t, 0, improved.TotalMissing())
}

func TestProcessSourcePassthroughWhenConforming(t *testing.T) {
	source := SourceSpec{Name: "population_paris", Family: constants.FamilyPopulation}
	config := testConfig(t, 50, source)
	writeSourceCSV(t, config, source.Name, cleanPopulationCSV)

	p, err := NewPipeline(config, quietLogger())
	require.NoError(t, err)

	result, err := p.ProcessSource(context.Background(), source)
	require.NoError(t, err)

	assert.False(t, result.Improved)
	assert.True(t, result.MeetsThreshold)
	assert.Equal(t, result.ScoreBefore, result.ScoreAfter)
	assert.Equal(t, "population_paris_validated.csv", result.OutputFile)
	assert.Equal(t, 0, result.Summary.TotalActions)

	// Passthrough writes the data untouched.
	outputDir, err := file.NewStorage(&file.StorageConfig{BasePath: config.OutputPath}, quietLogger())
	require.NoError(t, err)
	out, err := outputDir.ReadDataset(result.OutputFile)
	require.NoError(t, err)
	assert.Equal(t, 3, out.RowCount())
}

func TestProcessSourceUnknownFamily(t *testing.T) {
	source := SourceSpec{Name: "mystery", Family: "weather"}
	config := testConfig(t, 99, source)

	p, err := NewPipeline(config, quietLogger())
	require.NoError(t, err)

	_, err = p.ProcessSource(context.Background(), source)
	assert.Error(t, err)
}

func TestRunSkipsBrokenSources(t *testing.T) {
	good := SourceSpec{Name: "population_paris", Family: constants.FamilyPopulation}
	missing := SourceSpec{Name: "no_such_file", Family: constants.FamilyPopulation}
	config := testConfig(t, 99, good, missing)
	writeSourceCSV(t, config, good.Name, dirtyPopulationCSV)

	p, err := NewPipeline(config, quietLogger())
	require.NoError(t, err)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.SourcesProcessed)
	require.Len(t, summary.Results, 1)
	assert.Equal(t, good.Name, summary.Results[0].SourceName)
	assert.Equal(t, summary.Results[0].Improvement, summary.AverageImprovement)
	assert.Equal(t, summary.Results[0].FinalRows, summary.TotalRowsProcessed)

	// The run summary was persisted.
	data, err := os.ReadFile(filepath.Join(config.ReportsPath, "run_summary.json"))
	require.NoError(t, err)
	var loaded RunSummary
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, 1, loaded.SourcesProcessed)
}

func TestRunRespectsContext(t *testing.T) {
	source := SourceSpec{Name: "population_paris", Family: constants.FamilyPopulation}
	config := testConfig(t, 99, source)
	writeSourceCSV(t, config, source.Name, dirtyPopulationCSV)

	p, err := NewPipeline(config, quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestImproveSequence(t *testing.T) {
	config := testConfig(t, 99)
	p, err := NewPipeline(config, quietLogger())
	require.NoError(t, err)

	ds := models.NewDataset(constants.ColDailyKWh)
	ds.AppendRow(models.Row{constants.ColDailyKWh: models.Number(-5)})
	ds.AppendRow(models.Row{constants.ColDailyKWh: models.Number(-5)})
	ds.AppendRow(models.Row{constants.ColDailyKWh: models.Missing()})
	ds.AppendRow(models.Row{constants.ColDailyKWh: models.Number(200)})

	family, ok := improver.ConfigForFamily(constants.FamilyConsumption)
	require.True(t, ok)

	improved, summary := p.Improve(ds, family)

	// Dedupe dropped one row, the mean impute used the surviving rows,
	// the floor and cap rules both fired.
	assert.Equal(t, 3, improved.RowCount())
	assert.Greater(t, summary.TotalActions, 0)
	assert.Greater(t, summary.ByCategory[constants.CategoryBusinessRules], 0)

	f, okf := improved.Rows[0][constants.ColDailyKWh].Float()
	require.True(t, okf)
	assert.Equal(t, 0.0, f)

	f, okf = improved.Rows[2][constants.ColDailyKWh].Float()
	require.True(t, okf)
	assert.Equal(t, 100.0, f)
	assert.False(t, improved.Rows[2]["Anomalie_Conso"].IsMissing())
}
