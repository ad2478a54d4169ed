// Package export writes metric snapshots to Parquet using
// github.com/parquet-go/parquet-go.
package export

import (
	"fmt"
	"io"
	"os"
	"time"

	"aura-backend/internal/models"

	"github.com/parquet-go/parquet-go"
)

// MetricRecord is one metric of one dataset at export time
type MetricRecord struct {
	// SessionID is the session the dataset belonged to (empty for CLI exports)
	SessionID string `parquet:"session_id,snappy"`

	// Source names the ingested file or table
	Source string `parquet:"source,snappy"`

	Key string `parquet:"key,snappy"`

	// Value is null when the metric could not be computed
	Value *float64 `parquet:"value,optional,snappy"`

	Computed    bool   `parquet:"computed,snappy"`
	Description string `parquet:"description,snappy"`

	// ExportedAt is stored as TIMESTAMP with nanosecond precision
	ExportedAt time.Time `parquet:"exported_at,snappy"`
}

// ConvertMetrics flattens a metric list into records
func ConvertMetrics(sessionID, source string, ms []models.Metric, at time.Time) []MetricRecord {
	records := make([]MetricRecord, 0, len(ms))
	for _, m := range ms {
		r := MetricRecord{
			SessionID:   sessionID,
			Source:      source,
			Key:         m.Key,
			Computed:    m.Computed,
			Description: m.Description,
			ExportedAt:  at,
		}
		if m.Value != nil {
			v := *m.Value
			r.Value = &v
		}
		records = append(records, r)
	}
	return records
}

// WriteMetrics writes records as a complete Parquet file to w
func WriteMetrics(w io.Writer, records []MetricRecord) error {
	writer := parquet.NewGenericWriter[MetricRecord](w)
	if _, err := writer.Write(records); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write metrics to parquet: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}
	return nil
}

// WriteMetricsFile writes records to a Parquet file at outputPath
func WriteMetricsFile(records []MetricRecord, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := WriteMetrics(file, records); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
