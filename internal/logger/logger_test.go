package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"default config", DefaultConfig(), false},
		{"json to file", Config{Level: "debug", Format: "json", Output: "file", File: filepath.Join(dir, "a.log"), MaxSizeMB: 1}, false},
		{"both outputs", Config{Level: "warn", Format: "console", Output: "both", File: filepath.Join(dir, "b.log"), MaxSizeMB: 1}, false},
		{"bad level", Config{Level: "loud", Format: "json", Output: "console"}, true},
		{"bad format", Config{Level: "info", Format: "xml", Output: "console"}, true},
		{"file without path", Config{Level: "info", Format: "json", Output: "file"}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			log, err := New(tc.config)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			log.Info("hello")
			_ = log.Sync()
		})
	}
}

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.log")

	log, err := New(Config{Level: "info", Format: "json", Output: "file", File: path, MaxSizeMB: 1})
	require.NoError(t, err)

	log.Named("ollama").Info("probe")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"logger":"ollama"`)
	assert.Contains(t, string(data), `"msg":"probe"`)
}
