package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSubject is returned when a valid token carries neither "sub" nor "id".
var ErrNoSubject = errors.New("token has no subject")

// Verifier validates identity provider JWTs against the provider's JWKS.
// The key set is fetched once and refreshed in the background by keyfunc.
type Verifier struct {
	keyfunc jwt.Keyfunc
	issuer  string
	methods []string
}

// NewVerifier builds a verifier for the provider at baseURL, which serves
// /.well-known/jwks.json and issues tokens with its scheme://host as issuer.
func NewVerifier(baseURL string) (*Verifier, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("auth base URL is not set")
	}
	issuer, err := issuerFor(baseURL)
	if err != nil {
		return nil, err
	}
	jwks, err := keyfunc.NewDefault([]string{strings.TrimRight(baseURL, "/") + "/.well-known/jwks.json"})
	if err != nil {
		return nil, fmt.Errorf("jwks: %w", err)
	}
	return &Verifier{keyfunc: jwks.Keyfunc, issuer: issuer, methods: []string{"EdDSA"}}, nil
}

func issuerFor(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid base URL: %q", baseURL)
	}
	return u.Scheme + "://" + u.Host, nil
}

// Claims validates tokenString and returns its claims.
func (v *Verifier) Claims(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, v.keyfunc,
		jwt.WithIssuer(v.issuer),
		jwt.WithValidMethods(v.methods))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// Verify validates tokenString and returns the player identity it carries.
func (v *Verifier) Verify(_ context.Context, tokenString string) (userID, name string, err error) {
	claims, err := v.Claims(tokenString)
	if err != nil {
		return "", "", err
	}
	userID = UserIDFromClaims(claims)
	if userID == "" {
		return "", "", ErrNoSubject
	}
	return userID, FirstNameFromClaims(claims), nil
}

// FirstNameFromClaims returns the first word of the "name" claim, or a fallback.
func FirstNameFromClaims(claims jwt.MapClaims) string {
	name, _ := claims["name"].(string)
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "Player"
	}
	return parts[0]
}

// UserIDFromClaims returns the user id from claims ("sub" or "id").
func UserIDFromClaims(claims jwt.MapClaims) string {
	if sub, ok := claims["sub"].(string); ok && sub != "" {
		return sub
	}
	if id, ok := claims["id"].(string); ok && id != "" {
		return id
	}
	return ""
}
