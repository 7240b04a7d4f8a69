package security

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AdminRole is the role claim value that grants admin access.
const AdminRole = "admin"

// ErrInvalidToken is returned when a bearer token grants no admin access.
var ErrInvalidToken = errors.New("invalid admin token")

// AdminClaims defines the JWT claims accepted for admin access.
type AdminClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// AdminVerifier decides whether a bearer token carries the admin privilege.
// A token is accepted when it equals the static token, or when it is an HS256
// JWT signed with the configured secret and carrying the admin role.
type AdminVerifier struct {
	staticToken string
	jwtSecret   []byte
}

// NewAdminVerifier creates a verifier. Either value may be empty to disable that mode.
func NewAdminVerifier(staticToken, jwtSecret string) *AdminVerifier {
	return &AdminVerifier{staticToken: staticToken, jwtSecret: []byte(jwtSecret)}
}

// Verify returns nil when token grants admin access.
func (v *AdminVerifier) Verify(token string) error {
	if token == "" {
		return ErrInvalidToken
	}

	if v.staticToken != "" && subtle.ConstantTimeCompare([]byte(token), []byte(v.staticToken)) == 1 {
		return nil
	}

	if len(v.jwtSecret) == 0 {
		return ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(token, &AdminClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.jwtSecret, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*AdminClaims)
	if !ok || !parsed.Valid || claims.Role != AdminRole {
		return ErrInvalidToken
	}
	return nil
}

// IssueAdminToken signs an admin JWT valid for ttl.
func IssueAdminToken(secret, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is empty")
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &AdminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role: AdminRole,
	})
	return token.SignedString([]byte(secret))
}
