package rpc

import (
	"strings"

	checkerr "github.com/mrz1836/safecheck/pkg/errors"
)

// AuthKind tells how a public RPC endpoint expects to be authenticated.
type AuthKind string

// Known authentication kinds.
const (
	// AuthAPIKeyPath endpoints take the auth token appended to the URL path.
	AuthAPIKeyPath AuthKind = "API_KEY_PATH"
	// AuthNone endpoints are used as-is.
	AuthNone AuthKind = "NO_AUTHENTICATION"
)

// Endpoint is a chain's public RPC descriptor as published by the chain registry.
type Endpoint struct {
	Authentication AuthKind `json:"authentication"`
	Value          string   `json:"value"`
}

// BuildURL resolves endpoint into a callable URL.
//
// API_KEY_PATH endpoints need a non-empty token, which is appended verbatim.
// NO_AUTHENTICATION endpoints ignore the token. Any other kind is rejected.
func BuildURL(endpoint Endpoint, token string) (string, error) {
	switch endpoint.Authentication {
	case AuthAPIKeyPath:
		if token == "" {
			return "", checkerr.WithSuggestion(checkerr.ErrMissingAuthToken,
				"store one with 'safecheck token set <token>' or pass --auth-token")
		}
		return endpoint.Value + token, nil
	case AuthNone:
		return endpoint.Value, nil
	default:
		return "", checkerr.WithDetails(checkerr.ErrUnrecognizedAuthentication, map[string]string{
			"authentication": string(endpoint.Authentication),
		})
	}
}

// Source returns the URL BuildURL would produce with the token masked, so it
// can be shown and logged. Errors match BuildURL.
func Source(endpoint Endpoint, token string) (string, error) {
	if _, err := BuildURL(endpoint, token); err != nil {
		return "", err
	}
	if endpoint.Authentication == AuthAPIKeyPath {
		return endpoint.Value + MaskToken(token), nil
	}
	return endpoint.Value, nil
}

// MaskToken keeps the first four characters of token and elides the rest.
func MaskToken(token string) string {
	const visible = 4
	if len(token) <= visible {
		return strings.Repeat("*", len(token)) + "..."
	}
	return token[:visible] + "..."
}
