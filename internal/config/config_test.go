package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/depbench/depquery/internal/llm"
)

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))
	return path
}

func TestNewRunConfig_Defaults(t *testing.T) {
	cfg := NewRunConfig("prompts.jsonl", "results")

	assert.Equal(t, DefaultModel, cfg.Model())
	assert.Equal(t, DefaultMaxTokens, cfg.MaxTokens())
	assert.Equal(t, DefaultWorkers, cfg.Workers())
	assert.Equal(t, DefaultRequestTimeout, cfg.RequestTimeout())
	assert.Equal(t, 0.0, cfg.Temperature())
	assert.False(t, cfg.TraceOnly())
	assert.False(t, cfg.SourceOnly())
	assert.Empty(t, cfg.LitePath())
}

func TestNewRunConfig_Options(t *testing.T) {
	cfg := NewRunConfig("prompts.jsonl", "results",
		WithModel("gemini"),
		WithMaxTokens(1000),
		WithTemperature(0.7),
		WithWorkers(4),
		WithRequestTimeout(30*time.Second),
		WithVerbose(true),
	)

	assert.Equal(t, "gemini", cfg.Model())
	assert.Equal(t, 1000, cfg.MaxTokens())
	assert.Equal(t, 0.7, cfg.Temperature())
	assert.Equal(t, 4, cfg.Workers())
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout())
	assert.True(t, cfg.Verbose())
}

func TestResponseDir(t *testing.T) {
	cfg := NewRunConfig("prompts.jsonl", "results", WithModel("gpt-4o"))
	assert.Equal(t, filepath.Join("results", "gpt-4o", "response"), cfg.ResponseDir())
}

func TestValidate_SingleFile(t *testing.T) {
	dir := t.TempDir()
	promptPath := writeFile(t, dir, "prompts.jsonl")

	cfg := NewRunConfig(promptPath, dir)
	require.NoError(t, cfg.Validate())
	assert.False(t, cfg.IsDir())
}

func TestValidate_DirectoryNeedsMode(t *testing.T) {
	dir := t.TempDir()

	// Neither --trace nor --source.
	cfg := NewRunConfig(dir, dir)
	assert.ErrorContains(t, cfg.Validate(), "exactly one of --trace and --source")

	// --trace alone works for a directory.
	cfg = NewRunConfig(dir, dir, WithTraceOnly(true))
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.IsDir())
}

func TestValidate_PromptPathMissing(t *testing.T) {
	cfg := NewRunConfig(filepath.Join(t.TempDir(), "nope"), "results")
	assert.ErrorContains(t, cfg.Validate(), "prompt path does not exist")
}

func TestValidate_TraceRequiresDirectory(t *testing.T) {
	dir := t.TempDir()
	promptPath := writeFile(t, dir, "prompts.jsonl")

	cfg := NewRunConfig(promptPath, dir, WithTraceOnly(true))
	assert.ErrorContains(t, cfg.Validate(), "--trace is only valid")
}

func TestValidate_SourceRequiresDirectoryAndLite(t *testing.T) {
	dir := t.TempDir()
	promptPath := writeFile(t, dir, "prompts.jsonl")
	litePath := writeFile(t, dir, "lite.json")

	// Single file: rejected.
	cfg := NewRunConfig(promptPath, dir, WithSourceOnly(true), WithLite(litePath))
	assert.ErrorContains(t, cfg.Validate(), "--source is only valid")

	// Directory without --lite: rejected.
	cfg = NewRunConfig(dir, dir, WithSourceOnly(true))
	assert.ErrorContains(t, cfg.Validate(), "--source is only valid")

	// Directory with --lite: accepted.
	cfg = NewRunConfig(dir, dir, WithSourceOnly(true), WithLite(litePath))
	require.NoError(t, cfg.Validate())
}

func TestValidate_BothModesRejected(t *testing.T) {
	dir := t.TempDir()
	litePath := writeFile(t, dir, "lite.json")

	cfg := NewRunConfig(dir, dir, WithTraceOnly(true), WithSourceOnly(true), WithLite(litePath))
	assert.ErrorContains(t, cfg.Validate(), "exactly one of --trace and --source")
}

func TestValidate_LiteFileMissing(t *testing.T) {
	dir := t.TempDir()

	cfg := NewRunConfig(dir, dir, WithTraceOnly(true),
		WithLite(filepath.Join(dir, "nope.json")))
	assert.ErrorContains(t, cfg.Validate(), "lite subset file does not exist")
}

func TestValidate_UnknownModel(t *testing.T) {
	dir := t.TempDir()
	promptPath := writeFile(t, dir, "prompts.jsonl")

	cfg := NewRunConfig(promptPath, dir, WithModel("no-such-model"))
	assert.ErrorContains(t, cfg.Validate(), "unknown model")
}

func TestValidate_CustomRegistry(t *testing.T) {
	dir := t.TempDir()
	promptPath := writeFile(t, dir, "prompts.jsonl")

	registry := llm.Registry{
		"local": {Provider: llm.ProviderGemini, ModelID: "gemini-2.0-flash"},
	}
	cfg := NewRunConfig(promptPath, dir, WithModel("local"), WithRegistry(registry))
	require.NoError(t, cfg.Validate())

	spec, err := cfg.ModelSpec()
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderGemini, spec.Provider)
	assert.Equal(t, "gemini-2.0-flash", spec.ModelID)
}

func TestValidate_Bounds(t *testing.T) {
	dir := t.TempDir()
	promptPath := writeFile(t, dir, "prompts.jsonl")

	cfg := NewRunConfig(promptPath, dir, WithMaxTokens(0))
	assert.ErrorContains(t, cfg.Validate(), "max tokens must be positive")

	cfg = NewRunConfig(promptPath, dir, WithWorkers(-1))
	assert.ErrorContains(t, cfg.Validate(), "workers must be positive")
}

func TestParams(t *testing.T) {
	cfg := NewRunConfig("p", "r", WithMaxTokens(800), WithTemperature(0.3))
	assert.Equal(t, llm.Params{MaxTokens: 800, Temperature: 0.3}, cfg.Params())
}
