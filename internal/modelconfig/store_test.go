package modelconfig

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studymate-backend/internal/ollama"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app_config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readKeys(t *testing.T, path string) map[string]interface{} {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	s := Load(filepath.Join(t.TempDir(), "absent.json"), "")

	for _, c := range ollama.Categories {
		assert.Equal(t, DefaultModel, s.ModelFor(c))
	}
}

func TestLoad_MalformedFileUsesDefaults(t *testing.T) {
	tests := []string{"{not json", "[1,2,3]", ""}

	for _, content := range tests {
		s := Load(writeConfig(t, content), "fallback:7b")
		assert.Equal(t, Models{Document: "fallback:7b", Chat: "fallback:7b", Video: "fallback:7b", General: "fallback:7b"}, s.Models())
	}
}

func TestLoad_LegacyKeyFillsMissingCategories(t *testing.T) {
	path := writeConfig(t, `{"OllamaModel":"legacy:latest","ChatModel":"chatty:3b","VideoModel":""}`)

	s := Load(path, "")

	assert.Equal(t, "chatty:3b", s.ModelFor(ollama.Chat))
	assert.Equal(t, "legacy:latest", s.ModelFor(ollama.Document))
	assert.Equal(t, "legacy:latest", s.ModelFor(ollama.Video))
	assert.Equal(t, "legacy:latest", s.ModelFor(ollama.General))
}

func TestLoad_CategoryKeyWinsOverLegacy(t *testing.T) {
	path := writeConfig(t, `{"OllamaModel":"old","GeneralModel":"new"}`)

	assert.Equal(t, "new", Load(path, "").ModelFor(ollama.General))
}

func TestSetModels_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "app_config.json")
	s := Load(path, "")

	require.NoError(t, s.SetModels(Models{Document: "d", Chat: "c", Video: "v", General: "g"}))

	reloaded := Load(path, "")
	assert.Equal(t, Models{Document: "d", Chat: "c", Video: "v", General: "g"}, reloaded.Models())
}

func TestSetModels_PreservesUnrelatedKeysAndRefreshesLegacy(t *testing.T) {
	path := writeConfig(t, `{"Theme":"dark","OllamaModel":"old","WindowWidth":1280}`)
	s := Load(path, "")

	require.NoError(t, s.SetModels(Models{Document: "d", Chat: "c", Video: "v", General: "g"}))

	doc := readKeys(t, path)
	assert.Equal(t, "dark", doc["Theme"])
	assert.Equal(t, 1280.0, doc["WindowWidth"])
	assert.Equal(t, "g", doc["OllamaModel"])
	assert.Equal(t, "d", doc["DocumentModel"])
}

func TestSetModels_EmptyValuesFallBackToDefault(t *testing.T) {
	s := Load(filepath.Join(t.TempDir(), "c.json"), "base:1b")

	require.NoError(t, s.SetModels(Models{Chat: "c"}))

	assert.Equal(t, "c", s.ModelFor(ollama.Chat))
	assert.Equal(t, "base:1b", s.ModelFor(ollama.Video))
}

func TestSetModels_WriteFailureKeepsPreviousModels(t *testing.T) {
	// A regular file where the config directory should be makes every write fail.
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	s := Load(filepath.Join(blocker, "app_config.json"), "base:1b")
	before := s.Models()

	err := s.SetModels(Models{Document: "d", Chat: "c", Video: "v", General: "g"})
	require.Error(t, err)

	assert.Equal(t, before, s.Models())
	assert.Equal(t, "base:1b", s.ModelFor(ollama.Chat))
}

func TestSetModels_OverwritesMalformedFile(t *testing.T) {
	path := writeConfig(t, "{{{{")
	s := Load(path, "")

	require.NoError(t, s.SetAll("one"))

	doc := readKeys(t, path)
	assert.Equal(t, "one", doc["VideoModel"])
}

func TestSetModels_ConcurrentWritersDoNotCorruptFile(t *testing.T) {
	path := writeConfig(t, `{"Keep":"me"}`)
	s := Load(path, "")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := string(rune('a' + i))
			assert.NoError(t, s.SetAll(name))
			_ = s.ModelFor(ollama.Chat)
		}(i)
	}
	wg.Wait()

	doc := readKeys(t, path)
	assert.Equal(t, "me", doc["Keep"])
	assert.Equal(t, s.Models().General, doc["GeneralModel"])

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}
