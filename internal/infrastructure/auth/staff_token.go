package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"table-reservation-service/internal/domain/entity"
)

// StaffRole is the roles claim value required on staff entry points
const StaffRole = "staff"

var (
	ErrMissingToken = fmt.Errorf("%w: missing bearer token", entity.ErrUnauthorized)
	ErrInvalidToken = fmt.Errorf("%w: invalid token", entity.ErrUnauthorized)
	ErrNotStaff     = fmt.Errorf("%w: token lacks the staff role", entity.ErrUnauthorized)
)

// StaffClaims is the payload of a staff token
type StaffClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// StaffGuard checks HS256 bearer tokens on staff entry points.
// A guard without a secret lets every request through.
type StaffGuard struct {
	secret []byte
	now    func() time.Time
}

// NewStaffGuard creates a guard. An empty secret disables it.
func NewStaffGuard(secret string) *StaffGuard {
	return &StaffGuard{secret: []byte(strings.TrimSpace(secret)), now: time.Now}
}

// Enabled reports whether tokens are checked
func (g *StaffGuard) Enabled() bool {
	return g != nil && len(g.secret) > 0
}

// Authorize validates token and requires the staff role. It returns nil claims
// and no error when the guard is disabled.
func (g *StaffGuard) Authorize(token string) (*StaffClaims, error) {
	if !g.Enabled() {
		return nil, nil
	}
	if strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}

	claims := &StaffClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return g.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5*time.Second),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	if !slices.Contains(claims.Roles, StaffRole) {
		return nil, ErrNotStaff
	}
	return claims, nil
}

// IssueStaffToken signs an HS256 staff token for subject valid for ttl
func IssueStaffToken(secret, subject string, ttl time.Duration) (string, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return "", errors.New("secret is required")
	}
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("subject is required")
	}

	now := time.Now()
	claims := StaffClaims{
		Roles: []string{StaffRole},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

type tokenKey struct{}

// ContextWithToken stores the caller's bearer token for resolvers that cannot see headers
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the bearer token stored by ContextWithToken
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}
