package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer signs and verifies the bearer tokens handed out at login.
// Tokens carry the institutional email as their subject and expire
// after the configured validity window.
type TokenIssuer struct {
	secret   []byte
	method   jwt.SigningMethod
	alg      string
	validity time.Duration
	leeway   time.Duration
}

// NewTokenIssuer builds an issuer for the given HMAC algorithm
// ("HS256", "HS384" or "HS512"). Leeway widens expiry checks to absorb
// clock skew between hosts and is normally zero.
func NewTokenIssuer(secret, algorithm string, validity, leeway time.Duration) (*TokenIssuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("signing secret is required")
	}
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm %q", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("signing algorithm %q is not an HMAC method", algorithm)
	}
	if validity <= 0 {
		return nil, errors.New("token validity must be positive")
	}
	if leeway < 0 {
		return nil, errors.New("clock skew leeway cannot be negative")
	}
	return &TokenIssuer{
		secret:   []byte(secret),
		method:   method,
		alg:      algorithm,
		validity: validity,
		leeway:   leeway,
	}, nil
}

// Issue signs a token whose subject is the given institutional email.
func (i *TokenIssuer) Issue(correo string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   correo,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.validity)),
	}
	token, err := jwt.NewWithClaims(i.method, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Verify checks the signature and expiry of a token and returns its
// subject. Expired tokens report ErrTokenExpired; every other failure,
// including tokens signed with a different algorithm or secret, reports
// ErrTokenInvalid.
func (i *TokenIssuer) Verify(tokenString string) (string, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{i.alg}),
		jwt.WithLeeway(i.leeway),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}
	if !token.Valid {
		return "", ErrTokenInvalid
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return "", ErrTokenInvalid
	}
	return subject, nil
}
