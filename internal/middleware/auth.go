package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Slydexx/esthetica-app/internal/config"
	"github.com/Slydexx/esthetica-app/internal/models"
	"github.com/Slydexx/esthetica-app/internal/repository"
	"github.com/Slydexx/esthetica-app/internal/security"
)

func Auth(cfg *config.AppConfig, users *repository.UserRepository, sessions *repository.SessionRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		user, claims, err := resolveBearer(c, cfg, users, sessions, strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		if user.Status != models.UserStatusActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "user_inactive"})
			return
		}

		c.Set("access_claims", *claims)
		c.Set("current_user", user)

		c.Next()
	}
}

// OptionalAuth resolves a bearer token when present but lets anonymous
// requests through. Photo intake works before sign-in; the paywall and
// credit checks happen further down the pipeline.
func OptionalAuth(cfg *config.AppConfig, users *repository.UserRepository, sessions *repository.SessionRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.Next()
			return
		}

		user, claims, err := resolveBearer(c, cfg, users, sessions, strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil || user.Status != models.UserStatusActive {
			c.Next()
			return
		}

		c.Set("access_claims", *claims)
		c.Set("current_user", user)

		c.Next()
	}
}

type authError string

func (e authError) Error() string { return string(e) }

func resolveBearer(
	c *gin.Context,
	cfg *config.AppConfig,
	users *repository.UserRepository,
	sessions *repository.SessionRepository,
	tokenStr string,
) (models.User, *security.AccessClaims, error) {
	claims, err := security.ParseAccessToken(tokenStr, cfg.Security.JWTAccessSecret)
	if err != nil {
		return models.User{}, nil, authError("invalid_token")
	}

	session, err := sessions.GetByID(c.Request.Context(), claims.SessionID)
	if err != nil {
		return models.User{}, nil, authError("session_not_found")
	}

	if session.UserID != claims.UserID || session.DeviceID != claims.DeviceID {
		return models.User{}, nil, authError("session_mismatch")
	}

	user, err := users.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		return models.User{}, nil, authError("user_not_found")
	}

	_ = sessions.Touch(c.Request.Context(), session.ID, c.ClientIP(), c.GetHeader("User-Agent"))

	return user, claims, nil
}

// CurrentUser fetches the authenticated user from the gin context, if any.
func CurrentUser(c *gin.Context) (models.User, bool) {
	value, ok := c.Get("current_user")
	if !ok {
		return models.User{}, false
	}
	user, ok := value.(models.User)
	return user, ok
}
