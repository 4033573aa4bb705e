package middleware

import (
	"net/http"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/apierror"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Rule is the access requirement of a route.
type Rule struct {
	Roles       []model.Role
	AdminBypass bool
}

// Decision is the outcome of Authorize. Redirect is set on denial.
type Decision struct {
	Allowed  bool
	Status   int
	Redirect string
}

// Authorize applies the access rules in order:
//  1. no identity: 401, back to login
//  2. administrator caller on a route with admin bypass
//  3. caller impersonated by an administrator
//  4. caller role listed by the route
//  5. otherwise 403, back to the caller's own landing page
func Authorize(id *model.ActingIdentity, rule Rule) Decision {
	if id == nil {
		return Decision{Status: http.StatusUnauthorized, Redirect: LoginPath}
	}
	if rule.AdminBypass && id.Effective.Role == model.RoleAdministrator {
		return Decision{Allowed: true}
	}
	if id.Original != nil && id.Original.Role == model.RoleAdministrator {
		return Decision{Allowed: true}
	}
	for _, r := range rule.Roles {
		if id.Effective.Role == r {
			return Decision{Allowed: true}
		}
	}
	return Decision{Status: http.StatusForbidden, Redirect: id.Effective.Role.LandingPath()}
}

// RequireRole admits the listed roles plus administrators.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return guard(Rule{Roles: roles, AdminBypass: true})
}

// RequireRoleStrict admits only the listed roles (administrators included
// only when listed, or when impersonating).
func RequireRoleStrict(roles ...model.Role) gin.HandlerFunc {
	return guard(Rule{Roles: roles})
}

func guard(rule Rule) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := GetIdentity(c)
		d := Authorize(id, rule)
		if d.Allowed {
			c.Next()
			return
		}
		if d.Status == http.StatusUnauthorized {
			c.AbortWithStatusJSON(d.Status, apierror.NewRedirect("authentication required", d.Redirect))
			return
		}
		log.Warn().
			Str("request_id", c.GetString(RequestIDKey)).
			Uint("code", id.Effective.Code).
			Str("role", id.Effective.Role.String()).
			Str("path", c.FullPath()).
			Msg("access denied")
		c.AbortWithStatusJSON(d.Status, apierror.NewRedirect("you do not have access to this page", d.Redirect))
	}
}
