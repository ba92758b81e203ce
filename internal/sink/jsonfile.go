// Package sink writes the final dataset: a wells.json artifact, plus an
// optional Kafka stream for downstream consumers.
package sink

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/couchcryptid/well-data-etl/internal/domain"
)

// JSONFile writes the output collection as a single JSON array, once, at the
// end of a run. No incremental writes.
type JSONFile struct {
	path   string
	logger *slog.Logger
}

// NewJSONFile creates a writer targeting the given path.
func NewJSONFile(path string, logger *slog.Logger) *JSONFile {
	return &JSONFile{path: path, logger: logger}
}

// Write serializes the records and replaces the artifact atomically (write
// to a temp file in the same directory, then rename) so a failed run never
// leaves a truncated wells.json behind.
func (s *JSONFile) Write(records []domain.OutputRecord) error {
	if records == nil {
		records = []domain.OutputRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("serialize output records: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}

	s.logger.Info("artifact written", "path", s.path, "records", len(records), "bytes", len(data))
	return nil
}
