package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskType(t *testing.T) {
	cases := []struct {
		id   string
		want string
	}{
		{"controldep_p03366_0017", "controldep"},
		{"datadep_p001_0001", "datadep"},
		{"taskdep", "taskdep"},
		{"", ""},
	}
	for _, tc := range cases {
		task := &TaskRecord{TaskID: tc.id}
		assert.Equal(t, tc.want, task.TaskType(), "id %q", tc.id)
	}
}

func TestMarshalLine(t *testing.T) {
	rec := &ResultRecord{
		TaskRecord: TaskRecord{
			TaskID:   "controldep_p001_0001",
			Category: "source",
			Language: "c",
			Prompt:   "which lines?",
		},
		Response: Response{
			Original:  []string{"raw answer"},
			Parsed:    map[string]any{"sources": []string{"line 1"}},
			InputLen:  100,
			OutputLen: 20,
			NumIter:   1,
			Time:      1.25,
		},
	}

	line, err := rec.MarshalLine()
	require.NoError(t, err)

	// One line, newline-terminated, with the task fields flattened
	// alongside the nested response.
	assert.True(t, strings.HasSuffix(string(line), "\n"))
	assert.Equal(t, 1, strings.Count(string(line), "\n"))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(line, &decoded))
	assert.Equal(t, "controldep_p001_0001", decoded["task_id"])
	assert.Contains(t, decoded, "response")

	resp := decoded["response"].(map[string]any)
	assert.Equal(t, float64(1), resp["num_iter"])
	assert.Equal(t, 1.25, resp["time"])
}

func TestMarshalLine_NilParsed(t *testing.T) {
	rec := &ResultRecord{
		TaskRecord: TaskRecord{TaskID: "controldep_a"},
		Response: Response{
			Original:  []string{"unusable", "unusable", "unusable"},
			InputLen:  -1,
			OutputLen: -1,
			NumIter:   3,
			Time:      0.8,
		},
	}

	line, err := rec.MarshalLine()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(line, &decoded))
	resp := decoded["response"].(map[string]any)
	assert.Nil(t, resp["parsed"])
	assert.Equal(t, float64(-1), resp["input_len"])
}
