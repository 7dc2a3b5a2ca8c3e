// Package token signs and verifies the access and refresh JWTs.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Kind string

const (
	Access  Kind = "access"
	Refresh Kind = "refresh"
)

var (
	// ErrInvalidToken is returned for every verification failure.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is wrapped together with ErrInvalidToken when only the
	// expiry check failed.
	ErrTokenExpired = errors.New("token expired")
)

type Config struct {
	Issuer        string
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// Subject is the identity embedded in an access token.
type Subject struct {
	UserID   string
	Username string
	Email    string
	FullName string
}

type Issued struct {
	Token     string
	ExpiresAt time.Time
}

// Claims is the verified payload of either token kind.
type Claims struct {
	Kind     Kind   `json:"kind"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"fullName,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the subject claim.
func (c Claims) UserID() string { return c.Subject }

type Codec struct {
	issuer  string
	secrets map[Kind][]byte
	ttls    map[Kind]time.Duration
	now     func() time.Time
}

func New(cfg Config) (*Codec, error) {
	if strings.TrimSpace(cfg.AccessSecret) == "" || strings.TrimSpace(cfg.RefreshSecret) == "" {
		return nil, errors.New("token: access and refresh secrets are required")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token: TTLs must be positive")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Codec{
		issuer: cfg.Issuer,
		secrets: map[Kind][]byte{
			Access:  []byte(cfg.AccessSecret),
			Refresh: []byte(cfg.RefreshSecret),
		},
		ttls: map[Kind]time.Duration{
			Access:  cfg.AccessTTL,
			Refresh: cfg.RefreshTTL,
		},
		now: now,
	}, nil
}

func (c *Codec) TTL(kind Kind) time.Duration { return c.ttls[kind] }

func (c *Codec) IssueAccessToken(sub Subject) (Issued, error) {
	claims := Claims{
		Kind:     Access,
		Username: sub.Username,
		Email:    sub.Email,
		FullName: sub.FullName,
	}
	return c.sign(sub.UserID, claims)
}

func (c *Codec) IssueRefreshToken(userID string) (Issued, error) {
	return c.sign(userID, Claims{Kind: Refresh})
}

func (c *Codec) sign(userID string, claims Claims) (Issued, error) {
	if strings.TrimSpace(userID) == "" {
		return Issued{}, errors.New("token: subject is required")
	}
	now := c.now()
	expiresAt := now.Add(c.ttls[claims.Kind])
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    c.issuer,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secrets[claims.Kind])
	if err != nil {
		return Issued{}, fmt.Errorf("token: sign %s token: %w", claims.Kind, err)
	}
	return Issued{Token: signed, ExpiresAt: expiresAt.Truncate(time.Second)}, nil
}

// Verify parses raw as a token of the given kind.
func (c *Codec) Verify(raw string, kind Kind) (Claims, error) {
	secret, ok := c.secrets[kind]
	if !ok {
		return Claims{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidToken, kind)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(c.issuer),
		jwt.WithTimeFunc(c.now),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, ErrTokenExpired)
		}
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Kind != kind {
		return Claims{}, fmt.Errorf("%w: expected %s token", ErrInvalidToken, kind)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}
