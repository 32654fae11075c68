package sink

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/parkerdavis/leadscout/internal/pipeline"
)

// FileDebug stores exhaustion snapshots on disk, one HTML file (and a
// screenshot when available) per capture, named after the run that produced
// it. It implements pipeline.DebugSink.
type FileDebug struct {
	dir     string
	verbose bool
}

// NewFileDebug creates a snapshot store rooted at dir.
func NewFileDebug(dir string, verbose bool) *FileDebug {
	return &FileDebug{dir: dir, verbose: verbose}
}

func (s *FileDebug) Capture(_ context.Context, artifact pipeline.Artifact) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create debug directory: %w", err)
	}

	htmlPath := filepath.Join(s.dir, artifact.RunID+".html")
	if err := os.WriteFile(htmlPath, []byte(artifact.HTML), 0o644); err != nil {
		return fmt.Errorf("failed to write page snapshot: %w", err)
	}
	if s.verbose {
		log.Printf("[DEBUG] Saved page snapshot for %s to %s", artifact.URL, htmlPath)
	}

	if len(artifact.Screenshot) > 0 {
		shotPath := filepath.Join(s.dir, artifact.RunID+".png")
		if err := os.WriteFile(shotPath, artifact.Screenshot, 0o644); err != nil {
			return fmt.Errorf("failed to write screenshot: %w", err)
		}
	}
	return nil
}
