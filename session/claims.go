package session

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// TokenClaims is the subset of access-token claims the storefront reads
// for request logging and session diagnostics.
type TokenClaims struct {
	Subject   string
	ExpiresAt time.Time
}

// ParseClaims decodes the access token without verifying its signature.
// Verification belongs to the backend; the client only peeks at who the
// token is for and when it lapses. Returns false for anything that does
// not parse as a JWT.
func ParseClaims(accessToken string) (TokenClaims, bool) {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(accessToken, jwt.MapClaims{})
	if err != nil {
		return TokenClaims{}, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return TokenClaims{}, false
	}

	out := TokenClaims{}
	if sub, ok := claims["sub"].(string); ok {
		out.Subject = sub
	}
	if exp, ok := claims["exp"].(float64); ok {
		out.ExpiresAt = time.Unix(int64(exp), 0)
	}
	return out, true
}
