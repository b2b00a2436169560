package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/depbench/depquery/internal/config"
	"github.com/depbench/depquery/internal/llm"
	"github.com/depbench/depquery/internal/parse"
	"github.com/depbench/depquery/internal/runner"
	"github.com/depbench/depquery/internal/subset"
)

var (
	promptPath     string
	resultFolder   string
	modelName      string
	maxTokens      int
	temperature    float64
	litePath       string
	traceOnly      bool
	sourceOnly     bool
	workers        int
	registryPath   string
	requestTimeout time.Duration
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run batch inference over prompt partitions",
		Long: `Run batch inference over a single prompt partition file or a directory
of partitions.

Each partition is a JSONL file of task records. Results are appended to
<result-folder>/<model>/response/<partition>_response.jsonl as each task
completes; rerunning the same command skips everything already recorded
there.`,
		Args: cobra.NoArgs,
		RunE: runCommandE,
	}

	cmd.Flags().StringVarP(&promptPath, "prompt", "p", "", "Prompt partition file or directory of partitions (required)")
	cmd.Flags().StringVarP(&resultFolder, "result-folder", "r", "", "Root directory for results, organized per model (required)")
	cmd.Flags().StringVarP(&modelName, "model", "m", config.DefaultModel, "Model name from the registry (see 'depquery models')")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", config.DefaultMaxTokens, "Max tokens the model may generate per turn")
	cmd.Flags().Float64Var(&temperature, "temperature", 0, "Sampling temperature")
	cmd.Flags().StringVar(&litePath, "lite", "", "JSON subset file restricting the run to named task ids")
	cmd.Flags().BoolVar(&traceOnly, "trace", false, "Only process trace-category records (directory runs only)")
	cmd.Flags().BoolVar(&sourceOnly, "source", false, "Only process source-category records (directory runs with --lite only)")
	cmd.Flags().IntVar(&workers, "workers", config.DefaultWorkers, "Number of partitions processed in parallel")
	cmd.Flags().StringVar(&registryPath, "models-file", "", "YAML file overriding the builtin model registry")
	cmd.Flags().DurationVar(&requestTimeout, "request-timeout", config.DefaultRequestTimeout, "Timeout per model call (0 disables)")

	_ = cmd.MarkFlagRequired("prompt")
	_ = cmd.MarkFlagRequired("result-folder")

	return cmd
}

func runCommandE(cmd *cobra.Command, args []string) error {
	registry := llm.BuiltinRegistry()
	if registryPath != "" {
		var err error
		registry, err = llm.LoadRegistryFile(registryPath)
		if err != nil {
			return err
		}
	}

	cfg := config.NewRunConfig(promptPath, resultFolder,
		config.WithModel(modelName),
		config.WithRegistry(registry),
		config.WithMaxTokens(maxTokens),
		config.WithTemperature(temperature),
		config.WithLite(litePath),
		config.WithTraceOnly(traceOnly),
		config.WithSourceOnly(sourceOnly),
		config.WithWorkers(workers),
		config.WithRequestTimeout(requestTimeout),
	)

	if err := cfg.Validate(); err != nil {
		return err
	}

	spec, err := cfg.ModelSpec()
	if err != nil {
		return err
	}

	var sub *subset.Subset
	if cfg.LitePath() != "" {
		sub, err = subset.Load(cfg.LitePath())
		if err != nil {
			return err
		}
	}

	if err := os.MkdirAll(cfg.ResponseDir(), 0o755); err != nil {
		return fmt.Errorf("creating response directory: %w", err)
	}

	policy := runner.DefaultRetryPolicy()
	policy.RequestTimeout = cfg.RequestTimeout()

	newClient := func(ctx context.Context) (llm.Client, error) {
		return llm.NewClient(ctx, spec, cfg.Params())
	}

	ctx := context.Background()
	logger := slog.Default()

	if cfg.IsDir() {
		fmt.Printf("Running inference on all partitions in: %s\n", cfg.PromptPath())
		fmt.Printf("Model: %s (%s/%s)\n", cfg.Model(), spec.Provider, spec.ModelID)
		fmt.Printf("Workers: %d\n\n", cfg.Workers())

		return runner.RunDir(ctx, runner.PoolOptions{
			PromptDir:   cfg.PromptPath(),
			ResponseDir: cfg.ResponseDir(),
			Workers:     cfg.Workers(),
			NewClient:   newClient,
			Parser:      parse.DependenceParser{},
			Policy:      policy,
			TraceOnly:   cfg.TraceOnly(),
			SourceOnly:  cfg.SourceOnly(),
			Subset:      sub,
			Logger:      logger,
		})
	}

	fmt.Printf("Running inference on single partition: %s\n", cfg.PromptPath())
	fmt.Printf("Model: %s (%s/%s)\n\n", cfg.Model(), spec.Provider, spec.ModelID)

	client, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("closing model client", "error", err)
		}
	}()

	tasks := runner.NewTaskRunner(client, parse.DependenceParser{}, policy, logger)

	return runner.RunPartition(ctx, runner.PartitionOptions{
		PromptPath: cfg.PromptPath(),
		OutputPath: filepath.Join(cfg.ResponseDir(), runner.OutputName(cfg.PromptPath())),
		Tasks:      tasks,
		TraceOnly:  cfg.TraceOnly(),
		SourceOnly: cfg.SourceOnly(),
		Subset:     sub,
		Logger:     logger,
	})
}
