// Package checkpoint persists per-partition progress as an append-only
// JSONL log. The log is the only durable state of a run: each completed
// task becomes exactly one flushed line, and resumption is a matter of
// re-reading which task ids are already present.
package checkpoint

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/depbench/depquery/internal/models"
)

// maxLineSize bounds a single log line. Responses embed full raw model
// output, so lines can get large.
const maxLineSize = 16 * 1024 * 1024

// Load scans an existing output log and returns the set of task ids it
// contains. A missing file yields an empty set. Malformed lines are
// skipped: a crash mid-write must not block resumption.
func Load(path string) (map[string]struct{}, error) {
	done := make(map[string]struct{})

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return done, nil
		}
		return nil, fmt.Errorf("opening checkpoint log: %w", err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	skipped := 0
	for scanner.Scan() {
		var rec struct {
			TaskID string `json:"task_id"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil || rec.TaskID == "" {
			skipped++
			continue
		}
		done[rec.TaskID] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning checkpoint log %s: %w", path, err)
	}

	if skipped > 0 {
		slog.Debug("skipped malformed checkpoint lines", "path", path, "count", skipped)
	}

	return done, nil
}

// Log appends result records to a partition's output log.
type Log struct {
	f *os.File
}

// Open opens (or creates) the output log for appending.
func Open(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening checkpoint log for append: %w", err)
	}
	return &Log{f: f}, nil
}

// Append writes one record as a single line and syncs it to disk, so a
// crash after this call cannot lose or corrupt the entry.
func (l *Log) Append(rec *models.ResultRecord) error {
	line, err := rec.MarshalLine()
	if err != nil {
		return fmt.Errorf("marshaling result for %s: %w", rec.TaskID, err)
	}
	if _, err := l.f.Write(line); err != nil {
		return fmt.Errorf("appending result for %s: %w", rec.TaskID, err)
	}
	if err := l.f.Sync(); err != nil {
		return fmt.Errorf("syncing checkpoint log: %w", err)
	}
	return nil
}

func (l *Log) Close() error {
	return l.f.Close()
}
