package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/halo-dev/halo/errors"
)

// SubjectKey is the Gin context key holding the authenticated subject.
const SubjectKey = "auth_subject"

// AuthConfig configures the bearer token middleware.
type AuthConfig struct {
	// Secret is the HS256 signing key. An empty secret rejects every request.
	Secret []byte
	// Issuer, if set, must match the token's iss claim.
	Issuer string
	// SkipPaths are URL path prefixes that bypass authentication.
	SkipPaths []string
}

// Auth returns a Gin middleware that requires an HS256-signed JWT in the
// Authorization header. The token subject is stored under SubjectKey.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if strings.HasPrefix(path, skip) {
				c.Next()
				return
			}
		}

		if len(cfg.Secret) == 0 {
			abort(c, errors.Unauthorized("authentication is enabled but no secret is configured"))
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, errors.Unauthorized("authorization header required"))
			return
		}
		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			abort(c, errors.Unauthorized("invalid authorization header format"))
			return
		}

		claims := &jwt.RegisteredClaims{}
		if _, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
			return cfg.Secret, nil
		}); err != nil {
			abort(c, errors.InvalidToken().WithCause(err))
			return
		}

		c.Set(SubjectKey, claims.Subject)
		c.Next()
	}
}

// SignToken issues an HS256 token for subject valid for ttl.
func SignToken(secret []byte, issuer, subject string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", fmt.Errorf("sign token: empty secret")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
