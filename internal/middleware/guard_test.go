package middleware

import (
	"net/http"
	"testing"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"

	"github.com/stretchr/testify/assert"
)

var (
	driverID  = model.Identity{Code: 10, Username: "dana", Role: model.RoleDriver}
	sponsorID = model.Identity{Code: 20, Username: "acme", Role: model.RoleSponsor}
	adminID   = model.Identity{Code: 1, Username: "root", Role: model.RoleAdministrator}
)

func TestAuthorize_Anonymous(t *testing.T) {
	d := Authorize(nil, Rule{Roles: []model.Role{model.RoleDriver}})
	assert.False(t, d.Allowed)
	assert.Equal(t, http.StatusUnauthorized, d.Status)
	assert.Equal(t, LoginPath, d.Redirect)
}

func TestAuthorize_RoleListed(t *testing.T) {
	d := Authorize(&model.ActingIdentity{Effective: driverID}, Rule{Roles: []model.Role{model.RoleDriver}})
	assert.True(t, d.Allowed)
}

func TestAuthorize_WrongRoleRedirectsToOwnLanding(t *testing.T) {
	d := Authorize(&model.ActingIdentity{Effective: driverID}, Rule{Roles: []model.Role{model.RoleSponsor}, AdminBypass: true})
	assert.False(t, d.Allowed)
	assert.Equal(t, http.StatusForbidden, d.Status)
	assert.Equal(t, "/driver/dashboard", d.Redirect)
}

func TestAuthorize_AdminBypass(t *testing.T) {
	admin := &model.ActingIdentity{Effective: adminID}

	assert.True(t, Authorize(admin, Rule{Roles: []model.Role{model.RoleSponsor}, AdminBypass: true}).Allowed)

	strict := Authorize(admin, Rule{Roles: []model.Role{model.RoleSponsor}})
	assert.False(t, strict.Allowed)
	assert.Equal(t, "/administrator/dashboard", strict.Redirect)
}

func TestAuthorize_AdminImpersonatingReachesEveryArea(t *testing.T) {
	id := &model.ActingIdentity{Effective: driverID, Original: &adminID}
	assert.True(t, Authorize(id, Rule{Roles: []model.Role{model.RoleAdministrator}}).Allowed)
	assert.True(t, Authorize(id, Rule{Roles: []model.Role{model.RoleSponsor}}).Allowed)
}

func TestAuthorize_SponsorImpersonatingIsLimitedToEffectiveRole(t *testing.T) {
	id := &model.ActingIdentity{Effective: driverID, Original: &sponsorID}

	assert.True(t, Authorize(id, Rule{Roles: []model.Role{model.RoleDriver}}).Allowed)

	d := Authorize(id, Rule{Roles: []model.Role{model.RoleSponsor}, AdminBypass: true})
	assert.False(t, d.Allowed)
	assert.Equal(t, "/driver/dashboard", d.Redirect)
}
