// Package token models the OIDC token-supplier capability: something that
// returns a currently valid token string, or fails. The MongoDB driver calls
// the supplier on the initial connect and again on reauthentication, so
// implementations must be safe to invoke repeatedly.
package token

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Token is a bearer token with its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Supplier provides a currently valid token. Implementations regenerate
// expiring material as needed; callers never cache the result across
// connection attempts.
type Supplier interface {
	Token(ctx context.Context) (Token, error)
}

// DefaultTTL is the assertion lifetime for generated tokens.
const DefaultTTL = 1 * time.Hour

// DefaultRefreshSkew is how long before expiry a cached token is considered
// stale and regenerated.
const DefaultRefreshSkew = 5 * time.Minute

// KeyDocument is the on-disk service account key format.
type KeyDocument struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	ProjectID   string `json:"project_id"`
}

// LoadKeyDocument reads and parses a service account key file.
func LoadKeyDocument(path string) (*KeyDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	var doc KeyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse key file: %w", err)
	}
	if doc.ClientEmail == "" || doc.PrivateKey == "" {
		return nil, fmt.Errorf("key file %s is missing client_email or private_key", path)
	}
	return &doc, nil
}

// ServiceAccountConfig configures a ServiceAccountSupplier.
type ServiceAccountConfig struct {
	ClientEmail   string
	PrivateKeyPEM string
	ProjectID     string
	Audience      string
	Issuer        string
	TTL           time.Duration // defaults to DefaultTTL
	RefreshSkew   time.Duration // defaults to DefaultRefreshSkew
}

// ServiceAccountSupplier signs RS256 assertions from a service account key
// and caches each token until it is within the refresh skew of expiry.
// It is not required to be concurrency safe per the demo's single-run
// resource model, but the mutex keeps repeated invocation cheap and correct
// regardless.
type ServiceAccountSupplier struct {
	cfg ServiceAccountConfig
	key *rsa.PrivateKey
	now func() time.Time

	mu     sync.Mutex
	cached *Token
}

// NewServiceAccountSupplier parses the key material and returns a supplier.
func NewServiceAccountSupplier(cfg ServiceAccountConfig) (*ServiceAccountSupplier, error) {
	if cfg.ClientEmail == "" {
		return nil, fmt.Errorf("service account client email is required")
	}
	if cfg.Audience == "" || cfg.Issuer == "" {
		return nil, fmt.Errorf("service account audience and issuer are required")
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(cfg.PrivateKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account private key: %w", err)
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.RefreshSkew <= 0 {
		cfg.RefreshSkew = DefaultRefreshSkew
	}
	return &ServiceAccountSupplier{
		cfg: cfg,
		key: key,
		now: time.Now,
	}, nil
}

// Token returns the cached token while it remains valid past the refresh
// skew, and signs a fresh assertion otherwise.
func (s *ServiceAccountSupplier) Token(ctx context.Context) (Token, error) {
	if err := ctx.Err(); err != nil {
		return Token{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.cached != nil && now.Before(s.cached.ExpiresAt.Add(-s.cfg.RefreshSkew)) {
		return *s.cached, nil
	}

	expiresAt := now.Add(s.cfg.TTL)
	claims := jwt.RegisteredClaims{
		Issuer:    s.cfg.Issuer,
		Subject:   s.cfg.ClientEmail,
		Audience:  jwt.ClaimStrings{s.cfg.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	assertion := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if s.cfg.ProjectID != "" {
		assertion.Header["kid"] = s.cfg.ProjectID
	}

	signed, err := assertion.SignedString(s.key)
	if err != nil {
		return Token{}, fmt.Errorf("failed to sign service account assertion: %w", err)
	}

	tok := Token{Value: signed, ExpiresAt: expiresAt}
	s.cached = &tok
	return tok, nil
}
