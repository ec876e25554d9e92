package hpkv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromEnv(t *testing.T) {
	t.Setenv(EnvBaseURL, "https://api.hpkv.io")
	t.Setenv(EnvAPIKey, "secret")

	client, err := NewFromEnv()
	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, "https://api.hpkv.io", client.baseURL)
}

func TestNewFromEnvMissingVariables(t *testing.T) {
	t.Setenv(EnvBaseURL, "")
	t.Setenv(EnvAPIKey, "secret")
	_, err := NewFromEnv()
	require.ErrorContains(t, err, EnvBaseURL)

	t.Setenv(EnvBaseURL, "https://api.hpkv.io")
	t.Setenv(EnvAPIKey, "  ")
	_, err = NewFromEnv()
	require.ErrorContains(t, err, EnvAPIKey)
}
