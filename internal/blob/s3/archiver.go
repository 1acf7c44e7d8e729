package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/alanyoungcy/kalshi15m/internal/domain"
)

// BlobWriter is the narrow upload surface the archiver needs.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// Archiver uploads finished run summaries to object storage, partitioned by
// run date. Uploads are best effort; a failed archive never undoes a run.
type Archiver struct {
	writer BlobWriter
}

// NewArchiver creates a new Archiver.
func NewArchiver(writer BlobWriter) *Archiver {
	return &Archiver{writer: writer}
}

// ArchiveRun serializes the summary as JSON and uploads it to
// runs/YYYY-MM-DD/<runID>.json. It returns the object path.
func (a *Archiver) ArchiveRun(ctx context.Context, summary domain.RunSummary) (string, error) {
	buf, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("s3blob: marshal run %s: %w", summary.RunID, err)
	}

	path := runPath(summary)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/json"); err != nil {
		return "", fmt.Errorf("s3blob: archive run %s: %w", summary.RunID, err)
	}
	return path, nil
}

// runPath builds the S3 key for a run summary, partitioned by the run's
// start date.
//
//	runs/2026-08-30/<run-id>.json
func runPath(summary domain.RunSummary) string {
	return fmt.Sprintf("runs/%s/%s.json", summary.StartedAt.UTC().Format("2006-01-02"), summary.RunID)
}
