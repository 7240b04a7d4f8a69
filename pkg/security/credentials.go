package security

import (
	"encoding/base64"
	"errors"
	"strings"
)

var (
	// ErrMissingCredentials is returned when no Authorization header was sent.
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrMalformedCredentials is returned for headers that cannot be decoded.
	ErrMalformedCredentials = errors.New("malformed credentials")
)

// BasicCredentials is a decoded HTTP Basic username/password pair.
type BasicCredentials struct {
	Username string
	Password string
}

// ParseBasicAuth decodes an "Authorization: Basic ..." header value.
// The password may itself contain colons; only the first one separates the pair.
func ParseBasicAuth(header string) (BasicCredentials, error) {
	if header == "" {
		return BasicCredentials{}, ErrMissingCredentials
	}

	scheme, blob, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Basic") {
		return BasicCredentials{}, ErrMalformedCredentials
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(blob))
	if err != nil {
		return BasicCredentials{}, ErrMalformedCredentials
	}

	username, password, ok := strings.Cut(string(decoded), ":")
	if !ok || username == "" {
		return BasicCredentials{}, ErrMalformedCredentials
	}

	return BasicCredentials{Username: username, Password: password}, nil
}

// ParseBearerToken extracts the token from an "Authorization: Bearer ..." header value.
func ParseBearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingCredentials
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" || strings.TrimSpace(token) == "" {
		return "", ErrMalformedCredentials
	}
	return strings.TrimSpace(token), nil
}
