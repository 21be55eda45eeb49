package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/convoview/auth/authctx"
	apperrors "github.com/kbukum/convoview/errors"
)

// ClaimsKey is the Gin context key holding validated claims.
const ClaimsKey = "auth.claims"

// TokenValidator validates a bearer token and returns its claims. Returning
// an *apperrors.AppError selects the response; any other error reads as an
// invalid token.
type TokenValidator func(token string) (any, error)

// AuthConfig configures the bearer authentication middleware.
type AuthConfig struct {
	Validator TokenValidator
	// SkipPaths are URL path prefixes that bypass authentication.
	SkipPaths []string
	// QueryParam, when set, is read if no Authorization header is present.
	// Browsers cannot set headers on <audio src> or EventSource requests.
	QueryParam string
}

// Auth validates Bearer tokens. Claims are stored both in the Gin context
// and in the request context (authctx).
func Auth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if strings.HasPrefix(path, skip) {
				c.Next()
				return
			}
		}

		token, ok := bearerToken(c, cfg.QueryParam)
		if !ok {
			abort(c, apperrors.Unauthorized("not authenticated"))
			return
		}

		claims, err := cfg.Validator(token)
		if err != nil {
			if appErr, isApp := apperrors.AsAppError(err); isApp {
				abort(c, appErr)
				return
			}
			abort(c, apperrors.InvalidToken().WithCause(err))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Request = c.Request.WithContext(authctx.Set(c.Request.Context(), claims))
		c.Next()
	}
}

func bearerToken(c *gin.Context, queryParam string) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if queryParam != "" {
			if t := c.Query(queryParam); t != "" {
				return t, true
			}
		}
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func abort(c *gin.Context, appErr *apperrors.AppError) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}
