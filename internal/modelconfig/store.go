// Package modelconfig persists which Ollama model serves each category.
//
// The file is a flat JSON object shared with other settings. Only the keys
// below are owned here; everything else in the file is preserved on save.
package modelconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tidwall/gjson"

	"studymate-backend/internal/ollama"
)

const DefaultModel = "glm-4.7:cloud"

const (
	keyDocument = "DocumentModel"
	keyChat     = "ChatModel"
	keyVideo    = "VideoModel"
	keyGeneral  = "GeneralModel"
	keyLegacy   = "OllamaModel"
)

type Models struct {
	Document string `json:"document_model"`
	Chat     string `json:"chat_model"`
	Video    string `json:"video_model"`
	General  string `json:"general_model"`
}

func (m Models) For(c ollama.Category) string {
	switch c {
	case ollama.Document:
		return m.Document
	case ollama.Chat:
		return m.Chat
	case ollama.Video:
		return m.Video
	default:
		return m.General
	}
}

// withDefaults replaces empty entries so every category resolves.
func (m Models) withDefaults(def string) Models {
	if m.Document == "" {
		m.Document = def
	}
	if m.Chat == "" {
		m.Chat = def
	}
	if m.Video == "" {
		m.Video = def
	}
	if m.General == "" {
		m.General = def
	}
	return m
}

// Store is the process-wide model configuration. Reads are concurrent;
// SetModels and Save are serialized around the file's read-merge-write.
type Store struct {
	mu           sync.RWMutex
	path         string
	defaultModel string
	models       Models
}

// Load reads path leniently. A missing or malformed file yields defaults.
func Load(path, defaultModel string) *Store {
	if defaultModel == "" {
		defaultModel = DefaultModel
	}

	s := &Store{path: path, defaultModel: defaultModel}
	s.models = readModels(path).withDefaults(defaultModel)
	return s
}

func readModels(path string) Models {
	data, err := os.ReadFile(path)
	if err != nil || !gjson.ValidBytes(data) {
		return Models{}
	}

	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return Models{}
	}

	legacy := doc.Get(keyLegacy).String()
	pick := func(key string) string {
		if v := doc.Get(key).String(); v != "" {
			return v
		}
		return legacy
	}

	return Models{
		Document: pick(keyDocument),
		Chat:     pick(keyChat),
		Video:    pick(keyVideo),
		General:  pick(keyGeneral),
	}
}

func (s *Store) Path() string { return s.path }

func (s *Store) Models() Models {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.models
}

// ModelFor implements ollama.ModelResolver.
func (s *Store) ModelFor(c ollama.Category) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.models.For(c)
}

// SetModels replaces all four models and persists them. Empty values fall back to the default model.
// The in-memory selection only changes once the file has been written.
func (s *Store) SetModels(m Models) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := m.withDefaults(s.defaultModel)
	if err := s.writeLocked(next); err != nil {
		return err
	}
	s.models = next
	return nil
}

// SetAll points every category at one model, like the legacy single-model setting.
func (s *Store) SetAll(model string) error {
	return s.SetModels(Models{Document: model, Chat: model, Video: model, General: model})
}

func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(s.models)
}

func (s *Store) writeLocked(m Models) error {
	doc := map[string]json.RawMessage{}
	if data, err := os.ReadFile(s.path); err == nil {
		// Malformed content is replaced rather than blocking the save.
		if err := json.Unmarshal(data, &doc); err != nil {
			doc = map[string]json.RawMessage{}
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read model config: %w", err)
	}

	set := func(key, value string) {
		b, _ := json.Marshal(value)
		doc[key] = b
	}
	set(keyDocument, m.Document)
	set(keyChat, m.Chat)
	set(keyVideo, m.Video)
	set(keyGeneral, m.General)
	set(keyLegacy, m.General)

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode model config: %w", err)
	}
	return writeFileAtomic(s.path, out)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp config: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp config: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp config: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace model config: %w", err)
	}
	return nil
}
