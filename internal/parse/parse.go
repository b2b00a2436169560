// Package parse turns raw model output into structured dependence
// results. Parsers never fail on malformed input: an answer that can't
// be understood is reported as absent so the caller can retry.
package parse

import (
	"encoding/json"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// Parser extracts a structured result from raw model output.
// A nil return means the output was unparseable.
type Parser interface {
	Parse(raw string, taskType string, trace bool) any
}

// SourceResult is the answer shape for dependence-source tasks.
type SourceResult struct {
	Sources []string `mapstructure:"sources" json:"sources"`
}

// TraceResult is the answer shape for trace-generation tasks.
type TraceResult struct {
	Trace []string `mapstructure:"trace" json:"trace"`
}

// DependenceParser reads the model's answer from the last fenced code
// block and decodes it into the shape the run mode expects.
type DependenceParser struct{}

func (DependenceParser) Parse(raw string, taskType string, trace bool) any {
	doc, ok := extractJSON(raw)
	if !ok {
		return nil
	}

	if trace {
		var result TraceResult
		if err := mapstructure.Decode(doc, &result); err != nil || result.Trace == nil {
			return nil
		}
		return &result
	}

	var result SourceResult
	if err := mapstructure.Decode(doc, &result); err != nil || result.Sources == nil {
		return nil
	}
	return &result
}

// extractJSON pulls the JSON document out of the last ``` fenced block,
// falling back to treating the whole text as JSON when no fence exists.
func extractJSON(raw string) (any, bool) {
	candidate := lastFencedBlock(raw)
	if candidate == "" {
		candidate = strings.TrimSpace(raw)
	}

	var doc any
	if err := json.Unmarshal([]byte(candidate), &doc); err != nil {
		return nil, false
	}
	return doc, true
}

func lastFencedBlock(raw string) string {
	const fence = "```"

	end := strings.LastIndex(raw, fence)
	if end <= 0 {
		return ""
	}
	start := strings.LastIndex(raw[:end], fence)
	if start < 0 {
		return ""
	}

	block := raw[start+len(fence) : end]
	// Drop an optional language tag like ```json.
	if nl := strings.IndexByte(block, '\n'); nl >= 0 {
		firstLine := strings.TrimSpace(block[:nl])
		if firstLine != "" && !strings.ContainsAny(firstLine, "{[\"") {
			block = block[nl+1:]
		}
	}
	return strings.TrimSpace(block)
}
