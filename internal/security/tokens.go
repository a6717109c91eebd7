package security

import (
	"errors"
	"fmt"
	"os"
	"time"

	"task-manager/api/internal/apperr"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the validated payload of an access token.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type TokenConfig struct {
	PrivateKeyPath string
	PublicKeyPath  string
	Algorithm      string
	TTL            time.Duration
}

// TokenCodec issues and validates signed access tokens. Keys are read once
// at construction; the codec is safe for concurrent use.
type TokenCodec struct {
	method     jwt.SigningMethod
	signingKey any
	verifyKey  any
	ttl        time.Duration
}

func NewTokenCodec(cfg TokenConfig) (*TokenCodec, error) {
	privatePEM, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	publicPEM, err := os.ReadFile(cfg.PublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	return NewTokenCodecFromPEM(privatePEM, publicPEM, cfg.Algorithm, cfg.TTL)
}

func NewTokenCodecFromPEM(privatePEM, publicPEM []byte, algorithm string, ttl time.Duration) (*TokenCodec, error) {
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}

	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}

	var signingKey, verifyKey any
	var err error
	switch method.(type) {
	case *jwt.SigningMethodRSA, *jwt.SigningMethodRSAPSS:
		if signingKey, err = jwt.ParseRSAPrivateKeyFromPEM(privatePEM); err != nil {
			return nil, fmt.Errorf("parse RSA private key: %w", err)
		}
		if verifyKey, err = jwt.ParseRSAPublicKeyFromPEM(publicPEM); err != nil {
			return nil, fmt.Errorf("parse RSA public key: %w", err)
		}
	case *jwt.SigningMethodECDSA:
		if signingKey, err = jwt.ParseECPrivateKeyFromPEM(privatePEM); err != nil {
			return nil, fmt.Errorf("parse EC private key: %w", err)
		}
		if verifyKey, err = jwt.ParseECPublicKeyFromPEM(publicPEM); err != nil {
			return nil, fmt.Errorf("parse EC public key: %w", err)
		}
	case *jwt.SigningMethodEd25519:
		if signingKey, err = jwt.ParseEdPrivateKeyFromPEM(privatePEM); err != nil {
			return nil, fmt.Errorf("parse Ed25519 private key: %w", err)
		}
		if verifyKey, err = jwt.ParseEdPublicKeyFromPEM(publicPEM); err != nil {
			return nil, fmt.Errorf("parse Ed25519 public key: %w", err)
		}
	default:
		// HMAC and "none" are refused.
		return nil, fmt.Errorf("signing algorithm %q is not asymmetric", algorithm)
	}

	return &TokenCodec{
		method:     method,
		signingKey: signingKey,
		verifyKey:  verifyKey,
		ttl:        ttl,
	}, nil
}

func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

func (c *TokenCodec) Algorithm() string {
	return c.method.Alg()
}

// Issue signs a token for subject valid from now for the configured TTL.
// Token timestamps have second precision, so now is truncated first.
func (c *TokenCodec) Issue(subject string, now time.Time) (string, error) {
	if subject == "" {
		return "", apperr.New(apperr.KindValidation, "TOKEN_SUBJECT_REQUIRED", "token subject is required")
	}
	issuedAt := now.Truncate(time.Second)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(c.ttl)),
	}

	token, err := jwt.NewWithClaims(c.method, claims).SignedString(c.signingKey)
	if err != nil {
		return "", apperr.Unexpected("TOKEN_SIGN_FAILED", err)
	}
	return token, nil
}

func (c *TokenCodec) Validate(token string) (*Claims, error) {
	return c.ValidateAt(token, time.Now())
}

// ValidateAt checks token as of now. A token whose expiry is not strictly
// after now is expired.
func (c *TokenCodec) ValidateAt(token string, now time.Time) (*Claims, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return c.verifyKey, nil },
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Wrap(apperr.KindTokenExpired, "TOKEN_EXPIRED", err)
		}
		return nil, apperr.Wrap(apperr.KindTokenInvalid, "TOKEN_INVALID", err)
	}
	if claims.Subject == "" {
		return nil, apperr.New(apperr.KindTokenInvalid, "TOKEN_SUBJECT_MISSING", "token has no subject")
	}

	out := &Claims{Subject: claims.Subject, ExpiresAt: claims.ExpiresAt.Time}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}
