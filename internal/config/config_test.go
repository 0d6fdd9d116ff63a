package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/persona-chat/internal/client"
)

var configKeys = []string{
	"PORT", "PERSONA_API_BASE_URL", "PERSONA_CHARACTERS_FILE", "PERSONA_AUDIO_PLAYER",
	"UPSTREAM_PORT", "UPSTREAM_PUBLIC_URL", "UPSTREAM_AUDIO_CACHE",
	"ARK_API_KEY", "ARK_ACCESS_KEY", "ARK_SECRET_KEY", "Model", "ARK_TEMPERATURE", "ARK_MAX_TOKENS",
	"SPEECH_APP_ID", "SPEECH_ACCESS_TOKEN", "SPEECH_API_KEY", "SPEECH_TTS_SPEED", "SPEECH_TIMEOUT", "SPEECH_TTS_EMOTION",
	"LOG_LEVEL", "LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, client.DefaultBaseURL, cfg.Client.BaseURL)
	assert.Equal(t, ":8000", cfg.Upstream.Server.Addr)
	assert.Equal(t, "http://localhost:8000", cfg.Upstream.PublicURL)
	assert.Equal(t, 64, cfg.Upstream.AudioCache)
	assert.False(t, cfg.Upstream.AI.Enabled())
	assert.False(t, cfg.Upstream.Speech.Enabled())
	assert.Equal(t, float32(1.0), cfg.Upstream.Speech.Speed)
	assert.Equal(t, 30, cfg.Upstream.Speech.Timeout)
	assert.Equal(t, LogConfig{Level: "info", Format: "console"}, cfg.Log)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "127.0.0.1:9090")
	t.Setenv("PERSONA_API_BASE_URL", "http://localhost:8000/")
	t.Setenv("UPSTREAM_AUDIO_CACHE", "0")
	t.Setenv("ARK_API_KEY", "key")
	t.Setenv("Model", "doubao")
	t.Setenv("ARK_MAX_TOKENS", "256")
	t.Setenv("SPEECH_APP_ID", "app")
	t.Setenv("SPEECH_API_KEY", "token")
	t.Setenv("SPEECH_TTS_EMOTION", "true")
	t.Setenv("LOG_FORMAT", "JSON")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr)
	assert.Equal(t, "http://localhost:8000", cfg.Client.BaseURL)
	assert.Equal(t, 1, cfg.Upstream.AudioCache)
	assert.True(t, cfg.Upstream.AI.Enabled())
	require.NotNil(t, cfg.Upstream.AI.MaxTokens)
	assert.Equal(t, 256, *cfg.Upstream.AI.MaxTokens)
	assert.True(t, cfg.Upstream.Speech.Enabled())
	assert.Equal(t, "token", cfg.Upstream.Speech.AccessToken)
	assert.True(t, cfg.Upstream.Speech.Emotion)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"port":        {"PORT", "eighty"},
		"base url":    {"PERSONA_API_BASE_URL", "ftp://example.com"},
		"no host":     {"UPSTREAM_PUBLIC_URL", "http://"},
		"temperature": {"ARK_TEMPERATURE", "warm"},
		"speed":       {"SPEECH_TTS_SPEED", "fast"},
		"emotion":     {"SPEECH_TTS_EMOTION", "sometimes"},
		"log format":  {"LOG_FORMAT", "xml"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestNewChatModelRequiresCredentials(t *testing.T) {
	_, err := AIConfig{Model: "doubao"}.NewChatModel(t.Context())
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("PERSONA_AUDIO_PLAYER=mpv --no-video\n"), 0o600))

	// godotenv never overrides a variable that is set, even to "".
	require.NoError(t, os.Unsetenv("PERSONA_AUDIO_PLAYER"))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "mpv --no-video", cfg.Client.AudioPlayer)
}
