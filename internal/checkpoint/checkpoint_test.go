package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/depbench/depquery/internal/models"
)

func testRecord(id string) *models.ResultRecord {
	return &models.ResultRecord{
		TaskRecord: models.TaskRecord{
			TaskID:   id,
			Category: "source",
			Language: "c",
			Prompt:   "which lines?",
		},
		Response: models.Response{
			Original:  []string{"answer"},
			InputLen:  10,
			OutputLen: 5,
			NumIter:   1,
			Time:      0.5,
		},
	}
}

func TestLoad_MissingFile(t *testing.T) {
	done, err := Load(filepath.Join(t.TempDir(), "nope.jsonl"))
	require.NoError(t, err)
	assert.Empty(t, done)
}

func TestAppendThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")

	log, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, log.Append(testRecord("controldep_a")))
	require.NoError(t, log.Append(testRecord("controldep_b")))
	require.NoError(t, log.Close())

	done, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, done, 2)
	assert.Contains(t, done, "controldep_a")
	assert.Contains(t, done, "controldep_b")
}

func TestOpen_AppendsToExistingLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Append(testRecord("controldep_a")))
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, second.Append(testRecord("controldep_b")))
	require.NoError(t, second.Close())

	done, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, done, 2)
}

func TestLoad_SkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")

	// A torn final line, a non-JSON line, and a record without a task id
	// are all tolerated; the well-formed entries still load.
	content := `{"task_id":"controldep_a","response":{}}
not json at all
{"category":"source"}
{"task_id":"controldep_b","response":{}}
{"task_id":"controldep_c","resp`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	done, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, done, 2)
	assert.Contains(t, done, "controldep_a")
	assert.Contains(t, done, "controldep_b")
}

func TestAppend_LineIsVisibleBeforeClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")

	log, err := Open(path)
	require.NoError(t, err)
	defer log.Close() //nolint:errcheck

	require.NoError(t, log.Append(testRecord("controldep_a")))

	// Append syncs, so a concurrent reader (or a resumed run after a
	// crash) sees the record immediately.
	done, err := Load(path)
	require.NoError(t, err)
	assert.Contains(t, done, "controldep_a")
}
