package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/depbench/depquery/internal/llm"
	"github.com/depbench/depquery/internal/parse"
	"github.com/depbench/depquery/internal/subset"
)

// PoolOptions configures a directory run: one worker per partition, up
// to Workers partitions in flight.
type PoolOptions struct {
	// PromptDir holds the partition files to fan out over.
	PromptDir string

	// ResponseDir receives one output log per partition.
	ResponseDir string

	Workers int

	// NewClient builds a fresh model client for each partition, so
	// workers share no state.
	NewClient func(ctx context.Context) (llm.Client, error)

	Parser parse.Parser
	Policy RetryPolicy

	TraceOnly  bool
	SourceOnly bool
	Subset     *subset.Subset

	Logger *slog.Logger
}

// RunDir processes every partition in PromptDir. Partitions are fully
// independent: a fatal halt in one never stops the others, and
// completion order is whichever finishes first. The returned error
// aggregates all partition failures.
func RunDir(ctx context.Context, opts PoolOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	partitions, err := listPartitions(opts.PromptDir)
	if err != nil {
		return err
	}
	if len(partitions) == 0 {
		return fmt.Errorf("no partition files (*.jsonl) in %s", opts.PromptDir)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	logger.Info("starting directory run",
		"partitions", len(partitions), "workers", workers)

	var g errgroup.Group
	g.SetLimit(workers)

	var mu sync.Mutex
	var failures []error

	for _, promptFile := range partitions {
		g.Go(func() error {
			err := runOne(ctx, opts, promptFile, logger)
			if err != nil {
				logger.Error("partition failed", "partition", filepath.Base(promptFile), "error", err)
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
			}
			// Failures are isolated: never cancel sibling partitions.
			return nil
		})
	}

	_ = g.Wait()

	if len(failures) > 0 {
		return fmt.Errorf("%d of %d partitions failed: %w",
			len(failures), len(partitions), errors.Join(failures...))
	}
	return nil
}

func runOne(ctx context.Context, opts PoolOptions, promptFile string, logger *slog.Logger) error {
	client, err := opts.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating model client for %s: %w", filepath.Base(promptFile), err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("closing model client", "partition", filepath.Base(promptFile), "error", err)
		}
	}()

	tasks := NewTaskRunner(client, opts.Parser, opts.Policy, logger)

	return RunPartition(ctx, PartitionOptions{
		PromptPath: promptFile,
		OutputPath: filepath.Join(opts.ResponseDir, OutputName(promptFile)),
		Tasks:      tasks,
		TraceOnly:  opts.TraceOnly,
		SourceOnly: opts.SourceOnly,
		Subset:     opts.Subset,
		Logger:     logger,
	})
}

func listPartitions(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading prompt directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".jsonl") || strings.HasSuffix(name, ".jsonl.gz") {
			files = append(files, filepath.Join(dir, name))
		}
	}
	sort.Strings(files)
	return files, nil
}
