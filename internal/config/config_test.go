package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "factlens.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 3, cfg.Search.ResultsPerQuery)
	assert.Equal(t, 0.75, cfg.Vision.AuthenticityThreshold)
	assert.Equal(t, 45*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 0.1, cfg.LLM.Tasks.Synthesis.TopP)
}

func TestLoadInterpolatesEnvironment(t *testing.T) {
	t.Setenv("FACTLENS_TEST_GROQ", "gsk-test")
	path := writeConfig(t, `
llm:
  provider: groq
  api_key: ${FACTLENS_TEST_GROQ}
search:
  serpapi_key: ${FACTLENS_TEST_UNSET}
  timeout: 5s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gsk-test", cfg.LLM.APIKey)
	assert.Empty(t, cfg.Search.SerpAPIKey)
	assert.Equal(t, 5*time.Second, cfg.Search.Timeout)
	// Untouched sections keep their defaults.
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "human", cfg.Vision.RealLabel)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad port", "server:\n  port: 70000\n"},
		{"bad provider", "llm:\n  provider: bard\n"},
		{"bad upload", "upload:\n  provider: ftp\n"},
		{"bad threshold", "vision:\n  authenticity_threshold: 1.5\n"},
		{"rule without signal", "synthesis:\n  extra_rules:\n    - category: x\n      keywords: [a]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoadDotEnvSkipsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("FACTLENS_DOTENV_VALUE=from-file\n"), 0644))
	t.Setenv("FACTLENS_DOTENV_VALUE", "")
	os.Unsetenv("FACTLENS_DOTENV_VALUE")

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), envPath))
	assert.Equal(t, "from-file", os.Getenv("FACTLENS_DOTENV_VALUE"))
}

func TestGenerateSampleLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.yaml")
	require.NoError(t, GenerateSample(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "groq", cfg.LLM.Provider)
	assert.Equal(t, 4, cfg.Verify.ClaimConcurrency)
}
