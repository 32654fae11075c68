package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parkerdavis/leadscout/internal/pipeline"
)

var csvHeader = []string{
	"identity_key",
	"display_name",
	"current_role",
	"title_category",
	"organization",
	"location",
	"source_strategy",
	"extracted_at",
}

// CSV writes one row per record, with a derived title-category column for
// downstream filtering.
type CSV struct {
	path string
}

// NewCSV creates a sink writing to path.
func NewCSV(path string) *CSV {
	return &CSV{path: path}
}

func (s *CSV) Name() string { return "csv" }

func (s *CSV) Write(_ context.Context, outcome *pipeline.Outcome) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", s.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, record := range outcome.Records {
		row := []string{
			record.IdentityKey,
			record.DisplayName,
			record.CurrentRole,
			CategorizeTitle(record.CurrentRole),
			record.Organization,
			record.Location,
			record.SourceStrategy,
			record.ExtractedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write record %s: %w", record.IdentityKey, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", s.path, err)
	}
	return nil
}
