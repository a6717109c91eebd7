package middleware

import (
	"context"
	"net/http"
	"strings"

	"task-manager/api/internal/apperr"
	"task-manager/api/internal/models"
	"task-manager/api/internal/security"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	ContextSubject = "auth_subject"
	ContextUser    = "current_user"
)

// TokenValidator is satisfied by *security.TokenCodec.
type TokenValidator interface {
	Validate(token string) (*security.Claims, error)
}

type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

func unauthorized(c *gin.Context, code, message string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":   code,
		"message": message,
	})
}

// Authn validates the Bearer token and stores its subject under
// ContextSubject.
func Authn(tokens TokenValidator, log zerolog.Logger) gin.HandlerFunc {
	log = log.With().Str("component", "authn").Logger()

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "missing_token", "Authorization header is required")
			return
		}

		scheme, token, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			unauthorized(c, "invalid_token_format", "Authorization header must use Bearer token")
			return
		}

		claims, err := tokens.Validate(strings.TrimSpace(token))
		if err != nil {
			if apperr.Is(err, apperr.KindTokenExpired) {
				log.Info().Str("path", c.FullPath()).Msg("expired token rejected")
				unauthorized(c, "expired_token", "Token has expired")
				return
			}
			log.Warn().Err(err).Str("path", c.FullPath()).Msg("invalid token rejected")
			unauthorized(c, "invalid_token", "Token validation failed")
			return
		}

		c.Set(ContextSubject, claims.Subject)
		c.Next()
	}
}

// CurrentUser loads the user named by the token subject. A subject that no
// longer matches a user, or matches an inactive one, is rejected.
func CurrentUser(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := c.GetString(ContextSubject)
		if subject == "" {
			unauthorized(c, "missing_token", "Authentication required")
			return
		}

		user, err := users.GetByEmail(c.Request.Context(), subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":   "internal_error",
				"message": "internal server error",
			})
			return
		}
		if user == nil {
			unauthorized(c, "invalid_token", "Could not validate credentials")
			return
		}
		if !user.Active {
			unauthorized(c, "inactive_user", "User account is inactive")
			return
		}

		c.Set(ContextUser, user)
		c.Next()
	}
}

// RequireRole must run after CurrentUser.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := UserFrom(c)
		if !ok {
			unauthorized(c, "missing_token", "Authentication required")
			return
		}

		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":   "insufficient_role",
			"message": "User role does not have access to this resource",
		})
	}
}

func UserFrom(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}
