package cleanup

import (
	"net/url"
	"strings"

	"github.com/anki-boi/PDF-to-MD/internal/apperr"
)

// ValidateCredentials checks that both an API key and a model were given.
func ValidateCredentials(apiKey, model string) error {
	if strings.TrimSpace(apiKey) == "" || strings.TrimSpace(model) == "" {
		return apperr.Input("API key and model are required for AI cleanup.")
	}
	return nil
}

// ValidateEndpoint rejects endpoints that are not absolute http(s) URLs.
// An empty endpoint is allowed and means DefaultEndpoint.
func ValidateEndpoint(endpoint string) error {
	if endpoint == "" {
		return nil
	}
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperr.Input("cleanup endpoint must be an http(s) URL, got %q", endpoint)
	}
	return nil
}
