package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/depbench/depquery/internal/checkpoint"
	"github.com/depbench/depquery/internal/models"
	"github.com/depbench/depquery/internal/subset"
)

// maxLineSize bounds one partition line. Prompts embed whole source
// files, so lines can get large.
const maxLineSize = 16 * 1024 * 1024

// PartitionOptions configures the processing of one partition file.
type PartitionOptions struct {
	// PromptPath is the partition file (.jsonl, optionally gzipped).
	PromptPath string

	// OutputPath is the partition's append-only output log.
	OutputPath string

	// Tasks drives individual tasks through the retry policy.
	Tasks *TaskRunner

	// TraceOnly / SourceOnly restrict processing to one category.
	TraceOnly  bool
	SourceOnly bool

	// Subset, when non-nil, restricts processing to its task ids.
	Subset *subset.Subset

	Logger *slog.Logger
}

// RunPartition processes one partition sequentially, in file order.
// Tasks already present in the output log are skipped, every newly
// completed task is appended and flushed immediately, and a fatal task
// failure stops this partition without touching what was already
// recorded.
func RunPartition(ctx context.Context, opts PartitionOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("partition", filepath.Base(opts.PromptPath))

	done, err := checkpoint.Load(opts.OutputPath)
	if err != nil {
		return err
	}

	tasks, err := readPartition(opts.PromptPath)
	if err != nil {
		return err
	}

	log, err := checkpoint.Open(opts.OutputPath)
	if err != nil {
		return err
	}
	defer log.Close() //nolint:errcheck

	logger.Info("processing partition", "tasks", len(tasks), "resumed", len(done))

	completed := 0
	skipped := 0

	for _, task := range tasks {
		if opts.SourceOnly && task.Category != "source" {
			skipped++
			continue
		}
		if opts.TraceOnly && task.Category != "trace" {
			skipped++
			continue
		}
		if _, ok := done[task.TaskID]; ok {
			skipped++
			continue
		}
		if !opts.Subset.Contains(task.TaskType(), task.Language, task.TaskID) {
			skipped++
			continue
		}
		if task.Prompt == "" {
			skipped++
			continue
		}

		resp, err := opts.Tasks.Run(ctx, &task, opts.TraceOnly)
		if err != nil {
			// Everything completed before this task stays checkpointed;
			// the rest of this partition is abandoned for this run.
			return fmt.Errorf("partition %s halted at task %s: %w",
				filepath.Base(opts.PromptPath), task.TaskID, err)
		}

		rec := &models.ResultRecord{TaskRecord: task, Response: resp}
		if err := log.Append(rec); err != nil {
			return err
		}
		completed++
	}

	logger.Info("partition complete", "completed", completed, "skipped", skipped)
	return nil
}

// readPartition loads all task records of a partition, in file order.
// Gzipped partitions are decompressed transparently.
func readPartition(path string) ([]models.TaskRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening partition: %w", err)
	}
	defer f.Close() //nolint:errcheck

	var reader io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("opening gzipped partition %s: %w", path, err)
		}
		defer gz.Close() //nolint:errcheck
		reader = gz
	}

	var tasks []models.TaskRecord

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var task models.TaskRecord
		if err := json.Unmarshal([]byte(line), &task); err != nil {
			return nil, fmt.Errorf("partition %s line %d: %w", path, lineNum, err)
		}
		tasks = append(tasks, task)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading partition %s: %w", path, err)
	}

	return tasks, nil
}

// OutputName derives a partition's output log filename from its input
// filename: prompts.jsonl -> prompts_response.jsonl.
func OutputName(promptFile string) string {
	base := filepath.Base(promptFile)
	base = strings.TrimSuffix(base, ".gz")
	base = strings.TrimSuffix(base, ".jsonl")
	return base + "_response.jsonl"
}
