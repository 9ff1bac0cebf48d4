package auth // package auth implements the token service and principal types

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a token is structurally malformed or its
// signature does not verify.  An expired but otherwise well-formed token is
// NOT invalid; expiry is checked separately so the filter and the refresh
// flow can distinguish the two cases.
var ErrInvalidToken = errors.New("invalid token")

// SignedToken bundles a serialized JWT with its expiration time.
type SignedToken struct {
	Token string
	Exp   time.Time
}

// NewAccessToken builds and signs an HS256 access token for the given
// subject (the user's email).  Claims are the standard trio: sub, iat, exp.
func NewAccessToken(secret, email string, ttl time.Duration) (SignedToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub": email,
		"iat": now.Unix(),
		"exp": exp.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken builds and signs an HS256 refresh token.  It is the same
// shape as an access token but longer-lived, and extra claims can be merged
// in.  Extra claims never override sub/iat/exp.  Both token kinds are
// signed with the one shared secret; rotating the secret invalidates every
// outstanding token, which is the accepted tradeoff of the stateless design.
func NewRefreshToken(secret, email string, extra map[string]any, ttl time.Duration) (SignedToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{}
	for k, v := range extra {
		claims[k] = v
	}
	claims["sub"] = email
	claims["iat"] = now.Unix()
	claims["exp"] = exp.Unix()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, Exp: exp}, nil
}

// Subject verifies the token signature and returns the sub claim.  It fails
// closed with ErrInvalidToken on a bad signature, an unexpected signing
// method or a missing subject.  Expired tokens still yield their subject.
func Subject(secret, token string) (string, error) {
	claims, err := parseClaims(secret, token)
	if err != nil {
		return "", err
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}

// IsExpired reports whether the token's exp claim is in the past.  Tokens
// that fail to parse count as expired.
func IsExpired(secret, token string) bool {
	claims, err := parseClaims(secret, token)
	if err != nil {
		return true
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return true
	}
	return time.Now().UTC().After(time.Unix(int64(exp), 0))
}

// Validate reports whether the token belongs to the principal and has not
// expired.  Signature verification already happened inside Subject, so a
// tampered token can never validate.
func Validate(secret, token string, p *Principal) bool {
	sub, err := Subject(secret, token)
	if err != nil {
		return false
	}
	return sub == p.Email && !IsExpired(secret, token)
}

// parseClaims verifies the signature and returns the claims map.  Claim
// validation (exp/nbf) is disabled so callers can inspect expired tokens.
func parseClaims(secret, token string) (jwt.MapClaims, error) {
	tok, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
