package github

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// AuthManager handles GitHub credential resolution and validation
type AuthManager struct {
	client APIClient
}

// NewAuthManager creates a new authentication manager
func NewAuthManager() *AuthManager {
	return &AuthManager{}
}

// ResolveToken retrieves the GitHub token from the environment or the
// configured fallback value
func (am *AuthManager) ResolveToken(configured string) (string, error) {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return strings.TrimSpace(token), nil
	}

	if configured != "" {
		return strings.TrimSpace(configured), nil
	}

	return "", fmt.Errorf("no GitHub token found: set GITHUB_TOKEN or configure github.token in the config file")
}

// Authenticate builds a rate-limited client for the token
func (am *AuthManager) Authenticate(token string, rateLimiter RateLimiter) (APIClient, error) {
	if token == "" {
		return nil, fmt.Errorf("GitHub token cannot be empty")
	}

	am.client = NewClient(token, rateLimiter)
	return am.client, nil
}

// ValidateToken checks the credential against the API and returns the
// authenticated login and token scopes
func (am *AuthManager) ValidateToken(ctx context.Context) (*TokenInfo, error) {
	if am.client == nil {
		return nil, fmt.Errorf("not authenticated: call Authenticate() first")
	}

	info, err := am.client.Authenticated(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to validate GitHub token: %w", err)
	}

	return info, nil
}
