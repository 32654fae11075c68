package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/parkerdavis/leadscout/internal/pipeline"
)

// JSON writes the full outcome, records included, to one pretty-printed file.
type JSON struct {
	path string
}

// NewJSON creates a sink writing to path. Parent directories are created on
// first write.
func NewJSON(path string) *JSON {
	return &JSON{path: path}
}

func (s *JSON) Name() string { return "json" }

func (s *JSON) Write(_ context.Context, outcome *pipeline.Outcome) error {
	data, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(s.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	return nil
}
