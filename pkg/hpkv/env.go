package hpkv

import (
	"fmt"
	"os"
	"strings"
)

const (
	// EnvBaseURL names the environment variable holding the API base URL.
	EnvBaseURL = "HPKV_BASE_URL"
	// EnvAPIKey names the environment variable holding the API key.
	EnvAPIKey = "HPKV_API_KEY"
)

// NewFromEnv creates a Client from the HPKV_BASE_URL and HPKV_API_KEY
// environment variables. Options apply as with New.
func NewFromEnv(opts ...Option) (*Client, error) {
	baseURL := strings.TrimSpace(os.Getenv(EnvBaseURL))
	if baseURL == "" {
		return nil, fmt.Errorf("hpkv: %s is not set", EnvBaseURL)
	}
	apiKey := strings.TrimSpace(os.Getenv(EnvAPIKey))
	if apiKey == "" {
		return nil, fmt.Errorf("hpkv: %s is not set", EnvAPIKey)
	}
	return New(baseURL, apiKey, opts...)
}
