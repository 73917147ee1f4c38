package identity

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// JWTVerifier verifies Supabase access tokens locally with the project's
// HS256 JWT secret. It cannot notice server-side revocation, so deployments
// opt into it explicitly.
type JWTVerifier struct {
	secret   []byte
	audience string
	parser   *jwt.Parser
}

// NewJWTVerifier creates a local verifier. An empty audience skips the
// audience check.
func NewJWTVerifier(secret, audience string) (*JWTVerifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}

	return &JWTVerifier{
		secret:   []byte(secret),
		audience: audience,
		parser:   jwt.NewParser(opts...),
	}, nil
}

// Verify checks the signature, expiry and audience of token.
func (v *JWTVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	claims := jwt.MapClaims{}
	parsed, err := v.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("jwt parse: %w", err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("jwt invalid")
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return nil, fmt.Errorf("jwt missing subject")
	}

	id := &Identity{
		UserID: subject,
		Email:  stringClaim(claims, "email"),
		Role:   stringClaim(claims, "role"),
	}
	if aud, err := claims.GetAudience(); err == nil && len(aud) > 0 {
		id.Audience = aud[0]
	}
	return id, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if val, ok := claims[key]; ok {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return ""
}
