package models

import (
	"encoding/json"
	"strings"
)

// TaskRecord is one unit of work read from a prompt partition: a single
// prompt destined for one multi-turn exchange with the model.
type TaskRecord struct {
	TaskID   string `json:"task_id"`
	Category string `json:"category"`
	Language string `json:"language"`
	Prompt   string `json:"prompt"`
}

// TaskType returns the classifier encoded in the task id prefix,
// e.g. "controldep" for "controldep_p03366_0017".
func (t *TaskRecord) TaskType() string {
	id, _, _ := strings.Cut(t.TaskID, "_")
	return id
}

// Response captures everything the model produced for one task.
type Response struct {
	// Original holds the raw model output of every turn attempted,
	// in order, across all restarts.
	Original []string `json:"original"`

	// Parsed is the structured result, or nil when no turn ever parsed.
	Parsed any `json:"parsed"`

	// InputLen and OutputLen are the unit counts of the last successful
	// turn, or -1 when no turn ever parsed.
	InputLen  int `json:"input_len"`
	OutputLen int `json:"output_len"`

	// NumIter is the number of turns attempted.
	NumIter int `json:"num_iter"`

	// Time is the wall-clock duration in seconds of the final turn
	// sequence, or -1 when the task never completed an attempt cycle.
	Time float64 `json:"time"`
}

// ResultRecord is the durable record appended to a partition's output
// log: the originating task fields plus the model's response. It is
// written exactly once per task id and never mutated afterwards.
type ResultRecord struct {
	TaskRecord
	Response Response `json:"response"`
}

// MarshalLine renders the record as a single JSONL line, newline included.
func (r *ResultRecord) MarshalLine() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
