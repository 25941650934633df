package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed is returned when a token's claims cannot be decoded.
	ErrMalformed = errors.New("token malformed")
	// ErrMissingExpiry is returned when a token carries no exp claim.
	ErrMissingExpiry = errors.New("token missing exp claim")
)

var unverified = jwt.NewParser()

// Expiry decodes token without verifying its signature and returns the
// instant carried by its exp claim.
func Expiry(token string) (time.Time, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := unverified.ParseUnverified(token, &claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrMissingExpiry
	}
	return claims.ExpiresAt.Time, nil
}

// Validator classifies credentials as expired or usable.
//
// The zero value is ready to use and reads time.Now.
type Validator struct {
	// Now overrides the wall clock. Nil means time.Now.
	Now func() time.Time
	// Leeway tolerates clock skew between client and authenticator.
	Leeway time.Duration
}

func (v Validator) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

// Expired reports whether token's expiry lies before now. Malformed tokens
// and tokens without an exp claim are expired.
func (v Validator) Expired(token string) bool {
	if token == "" {
		return true
	}
	exp, err := Expiry(token)
	if err != nil {
		return true
	}
	return exp.Add(v.Leeway).Before(v.now())
}

// Remaining returns how long token stays usable, or zero when it is already
// expired or undecodable.
func (v Validator) Remaining(token string) time.Duration {
	exp, err := Expiry(token)
	if err != nil {
		return 0
	}
	left := exp.Add(v.Leeway).Sub(v.now())
	if left < 0 {
		return 0
	}
	return left
}
