package subset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadSubset(t *testing.T, content string) *Subset {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lite.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	sub, err := Load(path)
	require.NoError(t, err)
	return sub
}

func TestContains(t *testing.T) {
	sub := loadSubset(t, `{
		"controldep": {
			"c": ["controldep_p001_0001", "controldep_p002_0003"],
			"java": ["controldep_p010_0002"]
		},
		"datadep": {
			"c": ["datadep_p001_0001"]
		}
	}`)

	assert.True(t, sub.Contains("controldep", "c", "controldep_p001_0001"))
	assert.True(t, sub.Contains("controldep", "java", "controldep_p010_0002"))
	assert.True(t, sub.Contains("datadep", "c", "datadep_p001_0001"))

	assert.False(t, sub.Contains("controldep", "c", "controldep_p999_0001"))
	assert.False(t, sub.Contains("controldep", "python", "controldep_p001_0001"))
	assert.False(t, sub.Contains("taskdep", "c", "controldep_p001_0001"))
}

func TestContains_NilAllowsEverything(t *testing.T) {
	var sub *Subset
	assert.True(t, sub.Contains("controldep", "c", "anything"))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorContains(t, err, "reading subset file")
}

func TestLoad_MalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lite.json")
	require.NoError(t, os.WriteFile(path, []byte(`["not", "an", "object"]`), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "parsing subset file")
}

func TestLoad_EmptyObjectAllowsNothing(t *testing.T) {
	sub := loadSubset(t, `{}`)
	assert.False(t, sub.Contains("controldep", "c", "controldep_p001_0001"))
}
