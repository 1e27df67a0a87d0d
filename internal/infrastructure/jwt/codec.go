package jwtinfra

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-kanban/internal/config"
	"github.com/go-kanban/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "go-kanban"

// Claims holds the JWT payload fields.
type Claims struct {
	UserID    string `json:"user_id,omitempty"`
	Role      string `json:"role"`
	Validated bool   `json:"validated"`
	jwt.RegisteredClaims
}

// Codec turns a Subject into a session token and back.
//
// In the default "none" mode the token is an unsigned JWT: the payload is
// only base64url encoded, so anyone holding the cookie can read it and a
// client that controls its own cookie can forge it. hs256 and rs256 add a
// signature that Decode verifies.
type Codec struct {
	method    jwt.SigningMethod
	signKey   interface{}
	verifyKey interface{}
	ttl       time.Duration
	now       func() time.Time
}

// NewCodec builds a codec for cfg.TokenSigning. rs256 reads the PEM key pair
// from JWT_PRIVATE_KEY_PATH and JWT_PUBLIC_KEY_PATH.
func NewCodec(cfg *config.Config) (*Codec, error) {
	switch cfg.TokenSigning {
	case config.SigningNone, "":
		return NewUnsignedCodec(cfg.SessionTTL), nil
	case config.SigningHS256:
		return NewHMACCodec([]byte(cfg.TokenSecret), cfg.SessionTTL)
	case config.SigningRS256:
		privKey, pubKey, err := loadRSAKeys(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath)
		if err != nil {
			return nil, err
		}
		return NewRSACodec(privKey, pubKey, cfg.SessionTTL), nil
	default:
		return nil, fmt.Errorf("unknown token signing mode %q", cfg.TokenSigning)
	}
}

func NewUnsignedCodec(ttl time.Duration) *Codec {
	return &Codec{
		method:    jwt.SigningMethodNone,
		signKey:   jwt.UnsafeAllowNoneSignatureType,
		verifyKey: jwt.UnsafeAllowNoneSignatureType,
		ttl:       ttl,
		now:       time.Now,
	}
}

func NewHMACCodec(secret []byte, ttl time.Duration) (*Codec, error) {
	if len(secret) < 32 {
		return nil, errors.New("hs256 secret must be at least 32 bytes")
	}
	return &Codec{method: jwt.SigningMethodHS256, signKey: secret, verifyKey: secret, ttl: ttl, now: time.Now}, nil
}

func NewRSACodec(privKey *rsa.PrivateKey, pubKey *rsa.PublicKey, ttl time.Duration) *Codec {
	return &Codec{method: jwt.SigningMethodRS256, signKey: privKey, verifyKey: pubKey, ttl: ttl, now: time.Now}
}

func loadRSAKeys(privPath, pubPath string) (*rsa.PrivateKey, *rsa.PublicKey, error) {
	privBytes, err := os.ReadFile(privPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read private key: %w", err)
	}
	privKey, err := jwt.ParseRSAPrivateKeyFromPEM(privBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("parse private key: %w", err)
	}

	pubBytes, err := os.ReadFile(pubPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read public key: %w", err)
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("parse public key: %w", err)
	}
	return privKey, pubKey, nil
}

// WithClock returns a copy of the codec that reads the time from now.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	cp := *c
	cp.now = now
	return &cp
}

// Mode names the signing algorithm, "none" for unsigned tokens.
func (c *Codec) Mode() string { return c.method.Alg() }

func (c *Codec) TTL() time.Duration { return c.ttl }

// Encode serializes s with issuedAt = now and expiresAt = now + ttl.
func (c *Codec) Encode(s domain.Subject) (domain.SessionToken, error) {
	issuedAt := c.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(c.ttl)
	claims := Claims{
		UserID:    s.UserID,
		Role:      s.Role.String(),
		Validated: s.Validated,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   s.UserID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	value, err := jwt.NewWithClaims(c.method, claims).SignedString(c.signKey)
	if err != nil {
		return domain.SessionToken{}, fmt.Errorf("sign session token: %w", err)
	}
	return domain.SessionToken{Value: value, IssuedAt: issuedAt, ExpiresAt: expiresAt}, nil
}

// Decode parses a token produced by Encode. The error is always
// domain.ErrTokenExpired or domain.ErrMalformedToken. A token is expired once
// now is strictly after its expiresAt.
func (c *Codec) Decode(value string) (domain.Subject, error) {
	// Time claims are checked below: the library treats now == exp as expired.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	claims := &Claims{}
	_, err := parser.ParseWithClaims(value, claims, func(*jwt.Token) (interface{}, error) {
		return c.verifyKey, nil
	})
	if err != nil {
		return domain.Anonymous(), fmt.Errorf("session token: %v: %w", err, domain.ErrMalformedToken)
	}
	if err := c.checkTimes(claims); err != nil {
		return domain.Anonymous(), err
	}

	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return domain.Anonymous(), fmt.Errorf("session token role %q: %w", claims.Role, domain.ErrMalformedToken)
	}
	if role != domain.RoleGuest && claims.UserID == "" {
		return domain.Anonymous(), fmt.Errorf("session token without user id: %w", domain.ErrMalformedToken)
	}
	return domain.Subject{UserID: claims.UserID, Role: role, Validated: claims.Validated}, nil
}

func (c *Codec) checkTimes(claims *Claims) error {
	if claims.Issuer != issuer {
		return fmt.Errorf("session token issuer %q: %w", claims.Issuer, domain.ErrMalformedToken)
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return fmt.Errorf("session token without iat/exp: %w", domain.ErrMalformedToken)
	}
	now := c.now()
	if claims.IssuedAt.After(now) {
		return fmt.Errorf("session token issued in the future: %w", domain.ErrMalformedToken)
	}
	if now.After(claims.ExpiresAt.Time) {
		return fmt.Errorf("session token: %w", domain.ErrTokenExpired)
	}
	return nil
}
