// Package file persists datasets as CSV and quality reports as JSON. It is
// the external persistence collaborator of the quality engine; the engine
// itself never touches the filesystem.
package file

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/enerqual/dqetl/pkg/errors"
	"github.com/enerqual/dqetl/pkg/models"
)

// StorageConfig contains configuration for file-based storage.
type StorageConfig struct {
	BasePath   string `json:"base_path" yaml:"base_path"`
	CreateDirs bool   `json:"create_dirs" yaml:"create_dirs"`
}

// Storage reads and writes datasets and reports under a base path.
type Storage struct {
	config *StorageConfig
	logger *logrus.Logger
}

// NewStorage creates a new file storage instance.
func NewStorage(config *StorageConfig, logger *logrus.Logger) (*Storage, error) {
	if config == nil {
		return nil, errors.NewValidationError("INVALID_CONFIG", "StorageConfig cannot be nil")
	}
	if config.BasePath == "" {
		return nil, errors.NewValidationError("INVALID_CONFIG", "BasePath is required")
	}
	if logger == nil {
		logger = logrus.New()
	}

	if config.CreateDirs {
		if err := os.MkdirAll(config.BasePath, 0755); err != nil {
			return nil, errors.WrapError(err, errors.ErrorTypeStorage, "DIRECTORY_CREATION_FAILED",
				fmt.Sprintf("Failed to create directory: %s", config.BasePath))
		}
	}

	return &Storage{config: config, logger: logger}, nil
}

// ReadDataset loads a CSV file into a dataset. The first record is the
// header; empty cells become missing values. Cell contents stay strings,
// numeric interpretation is left to the checks that need it.
func (s *Storage) ReadDataset(name string) (*models.Dataset, error) {
	path := s.resolve(name)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewStorageError("FILE_NOT_FOUND",
				fmt.Sprintf("dataset file does not exist: %s", path))
		}
		return nil, errors.WrapError(err, errors.ErrorTypeStorage, "READ_FAILED",
			fmt.Sprintf("failed to open dataset file: %s", path))
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeStorage, "CSV_PARSE_FAILED",
			fmt.Sprintf("failed to parse CSV file: %s", path))
	}
	if len(records) == 0 {
		return nil, errors.NewStorageError("EMPTY_FILE",
			fmt.Sprintf("dataset file has no header: %s", path))
	}

	ds := models.NewDataset(records[0]...)
	for _, record := range records[1:] {
		row := make(models.Row, len(ds.Columns))
		for i, col := range ds.Columns {
			if i >= len(record) || record[i] == "" {
				row[col] = models.Missing()
			} else {
				row[col] = models.String(record[i])
			}
		}
		ds.AppendRow(row)
	}

	s.logger.WithFields(logrus.Fields{
		"path":    path,
		"rows":    ds.RowCount(),
		"columns": ds.ColumnCount(),
	}).Info("Dataset loaded")

	return ds, nil
}

// WriteDataset writes a dataset as CSV. Missing values become empty cells.
func (s *Storage) WriteDataset(name string, ds *models.Dataset) error {
	path := s.resolve(name)
	if err := s.ensureParent(path); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, "WRITE_FAILED",
			fmt.Sprintf("failed to create dataset file: %s", path))
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(ds.Columns); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, "WRITE_FAILED", "failed to write CSV header")
	}
	record := make([]string, len(ds.Columns))
	for _, row := range ds.Rows {
		for i, col := range ds.Columns {
			record[i] = row[col].Text()
		}
		if err := writer.Write(record); err != nil {
			return errors.WrapError(err, errors.ErrorTypeStorage, "WRITE_FAILED", "failed to write CSV record")
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, "WRITE_FAILED", "failed to flush CSV writer")
	}

	s.logger.WithFields(logrus.Fields{
		"path": path,
		"rows": ds.RowCount(),
	}).Info("Dataset written")

	return nil
}

// WriteReport persists a quality report as indented JSON.
func (s *Storage) WriteReport(name string, report *models.QualityReport) error {
	return s.writeJSON(name, report)
}

// WriteJSON persists any JSON-serializable document, used for run
// summaries and improvement logs.
func (s *Storage) WriteJSON(name string, doc interface{}) error {
	return s.writeJSON(name, doc)
}

func (s *Storage) writeJSON(name string, doc interface{}) error {
	path := s.resolve(name)
	if err := s.ensureParent(path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, "MARSHAL_FAILED",
			fmt.Sprintf("failed to marshal document: %s", path))
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, "WRITE_FAILED",
			fmt.Sprintf("failed to write document: %s", path))
	}

	s.logger.WithField("path", path).Info("Document written")
	return nil
}

func (s *Storage) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.config.BasePath, name)
}

func (s *Storage) ensureParent(path string) error {
	if !s.config.CreateDirs {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, "DIRECTORY_CREATION_FAILED",
			fmt.Sprintf("Failed to create directory: %s", dir))
	}
	return nil
}
