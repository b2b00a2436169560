// Package subset restricts a run to a named allow-list of task ids,
// loaded from a JSON file keyed by task type and language.
package subset

import (
	"encoding/json"
	"fmt"
	"os"
)

// Subset is an allow-list of task ids bucketed by task type and
// language. A nil *Subset allows everything.
type Subset struct {
	ids map[string]map[string]map[string]struct{}
}

// Load reads a subset file: {"<task_type>": {"<language>": ["<task_id>", ...]}}.
func Load(path string) (*Subset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading subset file: %w", err)
	}

	var raw map[string]map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing subset file %s: %w", path, err)
	}

	ids := make(map[string]map[string]map[string]struct{}, len(raw))
	for taskType, byLang := range raw {
		ids[taskType] = make(map[string]map[string]struct{}, len(byLang))
		for lang, list := range byLang {
			set := make(map[string]struct{}, len(list))
			for _, id := range list {
				set[id] = struct{}{}
			}
			ids[taskType][lang] = set
		}
	}

	return &Subset{ids: ids}, nil
}

// Contains reports whether the task id is allowed. Ids under a missing
// task type or language bucket are not allowed.
func (s *Subset) Contains(taskType, language, taskID string) bool {
	if s == nil {
		return true
	}
	byLang, ok := s.ids[taskType]
	if !ok {
		return false
	}
	set, ok := byLang[language]
	if !ok {
		return false
	}
	_, ok = set[taskID]
	return ok
}
