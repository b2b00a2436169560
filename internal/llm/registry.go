package llm

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/depbench/depquery/schemas"
)

// Provider identifies which adapter backs a model entry.
type Provider string

const (
	ProviderGemini  Provider = "gemini"
	ProviderCopilot Provider = "copilot"
)

// ModelSpec maps a user-facing model name to a provider and the
// provider-side model identifier.
type ModelSpec struct {
	Provider Provider `yaml:"provider"`
	ModelID  string   `yaml:"model_id"`
}

// Registry is the model configuration table. It is plain data passed
// into the executor, so tests and callers can carry their own tables
// side by side.
type Registry map[string]ModelSpec

// BuiltinRegistry returns the default model table.
func BuiltinRegistry() Registry {
	return Registry{
		"claude3.5":          {Provider: ProviderCopilot, ModelID: "claude-3.5-sonnet"},
		"claude3.7":          {Provider: ProviderCopilot, ModelID: "claude-3.7-sonnet"},
		"claude3.7-thinking": {Provider: ProviderCopilot, ModelID: "claude-3.7-sonnet-thought"},
		"llama3-405b":        {Provider: ProviderCopilot, ModelID: "llama-3.1-405b-instruct"},
		"ds-r1":              {Provider: ProviderCopilot, ModelID: "deepseek-r1"},
		"ds-v3":              {Provider: ProviderCopilot, ModelID: "deepseek-v3"},
		"gpt-4o":             {Provider: ProviderCopilot, ModelID: "gpt-4o"},
		"o3":                 {Provider: ProviderCopilot, ModelID: "o3"},
		"o4-mini":            {Provider: ProviderCopilot, ModelID: "o4-mini"},
		"qwen3":              {Provider: ProviderCopilot, ModelID: "qwen3-235b-a22b"},
		"gemini":             {Provider: ProviderGemini, ModelID: "gemini-2.5-pro"},
	}
}

// Lookup resolves a model name, listing the known names on failure so
// the error is actionable from the command line.
func (r Registry) Lookup(name string) (ModelSpec, error) {
	spec, ok := r[name]
	if !ok {
		return ModelSpec{}, fmt.Errorf("unknown model %q (supported: %v)", name, r.Names())
	}
	return spec, nil
}

// Names returns the registered model names, sorted.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadRegistryFile reads a YAML model table and merges it over the
// builtin registry. Entries with the same name replace builtin ones.
// The file is validated against the embedded registry schema before
// any entry is accepted.
func LoadRegistryFile(path string) (Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model registry: %w", err)
	}

	if errs := schemas.ValidateRegistryBytes(data); len(errs) > 0 {
		return nil, fmt.Errorf("model registry %s is invalid:\n  %s", path, joinLines(errs))
	}

	var overrides map[string]ModelSpec
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parsing model registry %s: %w", path, err)
	}

	merged := BuiltinRegistry()
	for name, spec := range overrides {
		merged[name] = spec
	}
	return merged, nil
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n  "
		}
		out += l
	}
	return out
}
