package file

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enerqual/dqetl/pkg/models"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	storage, err := NewStorage(&StorageConfig{
		BasePath:   t.TempDir(),
		CreateDirs: true,
	}, logger)
	require.NoError(t, err)
	return storage
}

func TestNewStorageValidation(t *testing.T) {
	_, err := NewStorage(nil, nil)
	assert.Error(t, err)

	_, err = NewStorage(&StorageConfig{}, nil)
	assert.Error(t, err)
}

func TestDatasetRoundtrip(t *testing.T) {
	storage := newTestStorage(t)

	ds := models.NewDataset("id", "name", "kwh")
	ds.AppendRow(models.Row{
		"id":   models.Number(1),
		"name": models.String("Martin"),
		"kwh":  models.Number(12.5),
	})
	ds.AppendRow(models.Row{
		"id":   models.Number(2),
		"name": models.Missing(),
		"kwh":  models.String("douze"),
	})

	require.NoError(t, storage.WriteDataset("out.csv", ds))

	loaded, err := storage.ReadDataset("out.csv")
	require.NoError(t, err)
	assert.Equal(t, ds.Columns, loaded.Columns)
	require.Equal(t, 2, loaded.RowCount())

	// CSV flattens everything to strings; values compare on rendered text.
	assert.Equal(t, "1", loaded.Rows[0]["id"].Text())
	assert.Equal(t, "Martin", loaded.Rows[0]["name"].Text())
	assert.Equal(t, "12.5", loaded.Rows[0]["kwh"].Text())

	// Empty cells come back as missing.
	assert.True(t, loaded.Rows[1]["name"].IsMissing())
	assert.Equal(t, "douze", loaded.Rows[1]["kwh"].Text())

	// Numeric interpretation still works after the roundtrip.
	f, ok := loaded.Rows[0]["kwh"].Float()
	require.True(t, ok)
	assert.Equal(t, 12.5, f)
}

func TestReadDatasetNotFound(t *testing.T) {
	storage := newTestStorage(t)
	_, err := storage.ReadDataset("missing.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FILE_NOT_FOUND")
}

func TestReadDatasetEmptyFile(t *testing.T) {
	storage := newTestStorage(t)
	path := filepath.Join(storage.config.BasePath, "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	_, err := storage.ReadDataset("empty.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EMPTY_FILE")
}

func TestReadDatasetHeaderOnly(t *testing.T) {
	storage := newTestStorage(t)
	path := filepath.Join(storage.config.BasePath, "header.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b,c\n"), 0644))

	ds, err := storage.ReadDataset("header.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ds.Columns)
	assert.Equal(t, 0, ds.RowCount())
}

func TestWriteDatasetCreatesSubdirectories(t *testing.T) {
	storage := newTestStorage(t)

	ds := models.NewDataset("a")
	ds.AppendRow(models.Row{"a": models.String("x")})
	require.NoError(t, storage.WriteDataset(filepath.Join("nested", "deep", "out.csv"), ds))

	_, err := storage.ReadDataset(filepath.Join("nested", "deep", "out.csv"))
	assert.NoError(t, err)
}

func TestWriteJSON(t *testing.T) {
	storage := newTestStorage(t)

	doc := map[string]interface{}{"run": "abc", "score": 87.5}
	require.NoError(t, storage.WriteJSON("summary.json", doc))

	data, err := os.ReadFile(filepath.Join(storage.config.BasePath, "summary.json"))
	require.NoError(t, err)

	var loaded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, "abc", loaded["run"])
	assert.Equal(t, 87.5, loaded["score"])
}

func TestWriteReport(t *testing.T) {
	storage := newTestStorage(t)

	report := &models.QualityReport{ID: "r1", SourceName: "test_source"}
	require.NoError(t, storage.WriteReport("report.json", report))

	data, err := os.ReadFile(filepath.Join(storage.config.BasePath, "report.json"))
	require.NoError(t, err)

	var loaded models.QualityReport
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, "r1", loaded.ID)
	assert.Equal(t, "test_source", loaded.SourceName)
}
