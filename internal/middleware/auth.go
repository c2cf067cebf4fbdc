package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mesworup/Pneumonia-Detection-CNN/internal/domain"
	"github.com/mesworup/Pneumonia-Detection-CNN/pkg/auth"
)

const actorKey = "actor"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// RequireAuth verifies the bearer token and stores the caller as a
// domain.Actor. Any failure is a 401 with a generic message.
func RequireAuth(authn Authenticator, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortJSON(c, http.StatusUnauthorized, "not authorized, no token")
			return
		}

		user, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, auth.ErrTokenInvalid) && !errors.Is(err, auth.ErrTokenExpired) {
				log.Error("authentication lookup failed", zap.Error(err), zap.String("request_id", RequestIDFrom(c)))
			}
			abortJSON(c, http.StatusUnauthorized, "not authorized, token failed")
			return
		}

		c.Set(actorKey, domain.Actor{
			ID:        user.ID,
			Name:      user.Name,
			Email:     user.Email,
			Role:      user.Role,
			IPAddress: c.ClientIP(),
			RequestID: RequestIDFrom(c),
		})
		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			abortJSON(c, http.StatusUnauthorized, "not authorized, no token")
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		abortJSON(c, http.StatusForbidden, "User role "+string(actor.Role)+" is not authorized to access this route")
	}
}

func ActorFrom(c *gin.Context) (domain.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return domain.Actor{}, false
	}
	actor, ok := v.(domain.Actor)
	return actor, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abortJSON(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
