package middleware

import (
	"context"
	"net/http"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/apierror"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"

	"github.com/gin-gonic/gin"
)

// SessionChecker re-validates the effective account of a token on each
// request. A non-empty reason means the session must end.
type SessionChecker interface {
	SessionBlocked(ctx context.Context, id model.ActingIdentity) (string, error)
}

// ActiveSession logs out callers whose account was disabled or locked after
// the token was issued. Must run after JWTAuth.
func ActiveSession(checker SessionChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := GetIdentity(c)
		if id == nil {
			c.Next()
			return
		}
		reason, err := checker.SessionBlocked(c.Request.Context(), *id)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		if reason != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.NewRedirect(reason, LoginPath))
			return
		}
		c.Next()
	}
}
