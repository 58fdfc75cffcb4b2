package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoringModeDecode(t *testing.T) {
	t.Parallel()

	var mode ScoringMode
	assert.NoError(t, mode.Decode(""))
	assert.Equal(t, ScoringModeAdditive, mode)
	assert.NoError(t, mode.Decode("blended"))
	assert.Equal(t, ScoringModeBlended, mode)
	assert.EqualError(t, mode.Decode("average"), "unsupported scoring mode 'average'")
}

func TestClassifierProviderDecode(t *testing.T) {
	t.Parallel()

	var provider ClassifierProvider
	assert.NoError(t, provider.Decode(""))
	assert.Equal(t, ClassifierProviderNone, provider)
	assert.NoError(t, provider.Decode("openai_omni"))
	assert.Equal(t, ClassifierProviderOpenAIOmni, provider)
	assert.NoError(t, provider.Decode("chat"))
	assert.Equal(t, ClassifierProviderChat, provider)
	assert.EqualError(t, provider.Decode("tfjs"), "unsupported classifier provider 'tfjs'")
}

func TestNewInstanceConfigDefaults(t *testing.T) {
	// Point at a file that doesn't exist so a developer's .env doesn't leak into the test
	t.Setenv(EnvFileVariable, filepath.Join(t.TempDir(), "missing.env"))

	cnf, err := NewInstanceConfig()
	require.NoError(t, err)
	assert.Equal(t, ScoringModeAdditive, cnf.ScoringMode)
	assert.Equal(t, ClassifierProviderNone, cnf.ClassifierProvider)
	assert.Equal(t, 5*time.Second, cnf.ClassifierTimeout)
	assert.False(t, cnf.ClassifierFailSecure)
	assert.Equal(t, []string{"hooks.slack.com", "*.ems.host"}, cnf.AllowedWebhookDomains)
}

func TestNewInstanceConfigEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("TS_SCORING_MODE=blended\nTS_CLASSIFIER_TIMEOUT=250ms\n"), 0o600))
	t.Setenv(EnvFileVariable, envFile)

	// Real environment values take priority over the file
	t.Setenv("TS_CLASSIFIER_TIMEOUT", "2s")

	t.Cleanup(func() {
		_ = os.Unsetenv("TS_SCORING_MODE")
	})

	cnf, err := NewInstanceConfig()
	require.NoError(t, err)
	assert.Equal(t, ScoringModeBlended, cnf.ScoringMode)
	assert.Equal(t, 2*time.Second, cnf.ClassifierTimeout)
}

func TestNewInstanceConfigRejectsUnknownProvider(t *testing.T) {
	t.Setenv(EnvFileVariable, filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("TS_CLASSIFIER_PROVIDER", "tfjs")

	_, err := NewInstanceConfig()
	assert.Error(t, err)
}
