// Package config carries the validated settings for one run. All
// invalid flag combinations are rejected here, before any partition is
// touched.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/depbench/depquery/internal/llm"
)

// Defaults applied when the corresponding option is not set.
const (
	DefaultModel          = "claude3.5"
	DefaultMaxTokens      = 500
	DefaultWorkers        = 10
	DefaultRequestTimeout = 5 * time.Minute
)

// RunConfig holds the settings for one executor invocation.
type RunConfig struct {
	promptPath string
	resultDir  string

	model       string
	registry    llm.Registry
	maxTokens   int
	temperature float64

	litePath   string
	traceOnly  bool
	sourceOnly bool

	workers        int
	requestTimeout time.Duration
	verbose        bool

	// set by Validate
	isDir bool
}

// Option configures a RunConfig.
type Option func(*RunConfig)

func WithModel(name string) Option {
	return func(c *RunConfig) { c.model = name }
}

func WithRegistry(r llm.Registry) Option {
	return func(c *RunConfig) { c.registry = r }
}

func WithMaxTokens(n int) Option {
	return func(c *RunConfig) { c.maxTokens = n }
}

func WithTemperature(t float64) Option {
	return func(c *RunConfig) { c.temperature = t }
}

// WithLite restricts the run to the task ids named in the subset file.
func WithLite(path string) Option {
	return func(c *RunConfig) { c.litePath = path }
}

// WithTraceOnly restricts a directory run to trace-category records.
func WithTraceOnly(v bool) Option {
	return func(c *RunConfig) { c.traceOnly = v }
}

// WithSourceOnly restricts a directory run to source-category records.
func WithSourceOnly(v bool) Option {
	return func(c *RunConfig) { c.sourceOnly = v }
}

func WithWorkers(n int) Option {
	return func(c *RunConfig) { c.workers = n }
}

// WithRequestTimeout bounds each individual model call. Zero disables
// the bound.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *RunConfig) { c.requestTimeout = d }
}

func WithVerbose(v bool) Option {
	return func(c *RunConfig) { c.verbose = v }
}

// NewRunConfig builds a RunConfig for the given prompt path (a single
// partition file or a directory of partitions) and result directory.
func NewRunConfig(promptPath, resultDir string, opts ...Option) *RunConfig {
	cfg := &RunConfig{
		promptPath:     promptPath,
		resultDir:      resultDir,
		model:          DefaultModel,
		registry:       llm.BuiltinRegistry(),
		maxTokens:      DefaultMaxTokens,
		workers:        DefaultWorkers,
		requestTimeout: DefaultRequestTimeout,
	}
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

func (c *RunConfig) PromptPath() string             { return c.promptPath }
func (c *RunConfig) ResultDir() string              { return c.resultDir }
func (c *RunConfig) Model() string                  { return c.model }
func (c *RunConfig) Registry() llm.Registry         { return c.registry }
func (c *RunConfig) MaxTokens() int                 { return c.maxTokens }
func (c *RunConfig) Temperature() float64           { return c.temperature }
func (c *RunConfig) LitePath() string               { return c.litePath }
func (c *RunConfig) TraceOnly() bool                { return c.traceOnly }
func (c *RunConfig) SourceOnly() bool               { return c.sourceOnly }
func (c *RunConfig) Workers() int                   { return c.workers }
func (c *RunConfig) RequestTimeout() time.Duration  { return c.requestTimeout }
func (c *RunConfig) Verbose() bool                  { return c.verbose }

// IsDir reports whether the prompt path is a directory of partitions.
// Only meaningful after Validate.
func (c *RunConfig) IsDir() bool { return c.isDir }

// ResponseDir is where partition output logs are written:
// <result_dir>/<model>/response.
func (c *RunConfig) ResponseDir() string {
	return filepath.Join(c.resultDir, c.model, "response")
}

// ModelSpec resolves the configured model against the registry.
func (c *RunConfig) ModelSpec() (llm.ModelSpec, error) {
	return c.registry.Lookup(c.model)
}

// Params returns the sampling parameters for model calls.
func (c *RunConfig) Params() llm.Params {
	return llm.Params{MaxTokens: c.maxTokens, Temperature: c.temperature}
}

// Validate checks the whole configuration eagerly. No partition is
// read and no output is created until it passes.
func (c *RunConfig) Validate() error {
	info, err := os.Stat(c.promptPath)
	if err != nil {
		return fmt.Errorf("prompt path does not exist: %s", c.promptPath)
	}
	c.isDir = info.IsDir()

	if c.traceOnly && !c.isDir {
		return fmt.Errorf("--trace is only valid when the prompt path is a directory")
	}
	if c.sourceOnly && (!c.isDir || c.litePath == "") {
		return fmt.Errorf("--source is only valid for a directory run with --lite")
	}
	if c.isDir && c.traceOnly == c.sourceOnly {
		return fmt.Errorf("exactly one of --trace and --source must be set for a directory run")
	}

	if c.litePath != "" {
		if _, err := os.Stat(c.litePath); err != nil {
			return fmt.Errorf("lite subset file does not exist: %s", c.litePath)
		}
	}

	if _, err := c.registry.Lookup(c.model); err != nil {
		return err
	}

	if c.maxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", c.maxTokens)
	}
	if c.workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.workers)
	}

	return nil
}
