package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/nemoralis/wlmaz/internal/domain"
	"github.com/nemoralis/wlmaz/internal/logger"
)

// identityKey is the gin context key under which the resolved identity is stored
const identityKey = "wiki_identity"

// SessionConfig holds session token validation configuration
type SessionConfig struct {
	// Secret is the HS256 key shared with the authentication component that
	// mints the session token after the OAuth handshake
	Secret string

	// CookieName is where browsers carry the session token; an Authorization
	// bearer header is accepted as an alternative for non-browser clients
	CookieName string
}

// SessionClaims is the session token payload. The delegated token pair rides
// inside the signed session so the upload pipeline can act as the user without
// this service keeping any credential store of its own.
type SessionClaims struct {
	jwt.RegisteredClaims
	Username   string `json:"username"`
	WikiToken  string `json:"wiki_token"`
	WikiSecret string `json:"wiki_secret"`
}

// Session returns a gin middleware that resolves the caller's identity from
// the session token when one is present. It never rejects: routes that demand
// authentication layer RequireIdentity on top.
func Session(cfg SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := sessionToken(c, cfg.CookieName)
		if raw == "" {
			c.Next()
			return
		}

		identity, err := validateSession(raw, cfg.Secret)
		if err != nil {
			logger.Warn("invalid session token",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)
			c.Next()
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireIdentity returns a gin middleware rejecting unauthenticated requests
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IdentityFrom(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// IdentityFrom returns the resolved identity, nil when the request is anonymous
func IdentityFrom(c *gin.Context) *domain.WikiIdentity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	identity, ok := v.(*domain.WikiIdentity)
	if !ok {
		return nil
	}
	return identity
}

// sessionToken extracts the raw token from the cookie or a bearer header
func sessionToken(c *gin.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}
	authHeader := c.GetHeader("Authorization")
	if parts := strings.SplitN(authHeader, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}

// validateSession parses and validates the session token and maps its claims
// onto a WikiIdentity
func validateSession(tokenString, secret string) (*domain.WikiIdentity, error) {
	if secret == "" {
		return nil, errors.New("session secret not configured")
	}

	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse session token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid session token")
	}
	if claims.Username == "" {
		return nil, errors.New("session token carries no username")
	}

	return &domain.WikiIdentity{
		UserID:      claims.Subject,
		Username:    claims.Username,
		Token:       claims.WikiToken,
		TokenSecret: claims.WikiSecret,
	}, nil
}
