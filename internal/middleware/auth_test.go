package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/apierror"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Helpers ───────────────────────────────────────────────────────────────────

const testSecret = "test_jwt_secret_32_chars_minimum!"

func signToken(t *testing.T, id model.ActingIdentity, tokenType string, ttl time.Duration) string {
	t.Helper()
	claims := NewClaims(id, tokenType, time.Now(), ttl)
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

type stubChecker struct {
	reason string
	err    error
}

func (s stubChecker) SessionBlocked(context.Context, model.ActingIdentity) (string, error) {
	return s.reason, s.err
}

func testRouter(checker SessionChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler())
	r.Use(JWTAuth(testSecret), ActiveSession(checker))
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, GetIdentity(c))
	})
	r.GET("/sponsor", RequireRole(model.RoleSponsor), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/admin", RequireRoleStrict(model.RoleAdministrator), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

// ── Tests: claims ─────────────────────────────────────────────────────────────

func TestClaims_RoundTripImpersonation(t *testing.T) {
	id := model.ActingIdentity{Effective: driverID, Original: &adminID}
	tok := signToken(t, id, TokenAccess, time.Hour)

	claims, err := ParseToken(testSecret, tok, TokenAccess)
	require.NoError(t, err)
	assert.True(t, claims.Impersonating)
	assert.Equal(t, id, claims.Identity())
}

func TestParseToken_RejectsWrongType(t *testing.T) {
	tok := signToken(t, model.ActingIdentity{Effective: driverID}, TokenRefresh, time.Hour)
	_, err := ParseToken(testSecret, tok, TokenAccess)
	assert.Error(t, err)
}

func TestParseToken_RejectsUnknownRole(t *testing.T) {
	tok := signToken(t, model.ActingIdentity{Effective: model.Identity{Code: 3, Role: "superuser"}}, TokenAccess, time.Hour)
	_, err := ParseToken(testSecret, tok, TokenAccess)
	assert.Error(t, err)
}

func TestParseToken_RejectsOtherSecret(t *testing.T) {
	tok := signToken(t, model.ActingIdentity{Effective: driverID}, TokenAccess, time.Hour)
	_, err := ParseToken("another-secret", tok, TokenAccess)
	assert.Error(t, err)
}

// ── Tests: JWTAuth / ActiveSession ────────────────────────────────────────────

func TestJWTAuth_NoToken(t *testing.T) {
	w := get(testRouter(stubChecker{}), "/whoami", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var body apierror.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, LoginPath, body.Redirect)
}

func TestJWTAuth_ExpiredToken(t *testing.T) {
	tok := signToken(t, model.ActingIdentity{Effective: driverID}, TokenAccess, -time.Second)
	w := get(testRouter(stubChecker{}), "/whoami", tok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuth_ValidToken(t *testing.T) {
	tok := signToken(t, model.ActingIdentity{Effective: sponsorID}, TokenAccess, time.Hour)
	w := get(testRouter(stubChecker{}), "/whoami", tok)
	require.Equal(t, http.StatusOK, w.Code)

	var id model.ActingIdentity
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &id))
	assert.Equal(t, sponsorID, id.Effective)
	assert.Nil(t, id.Original)
}

func TestActiveSession_BlockedAccountLoggedOut(t *testing.T) {
	tok := signToken(t, model.ActingIdentity{Effective: driverID}, TokenAccess, time.Hour)
	w := get(testRouter(stubChecker{reason: "account is disabled"}), "/whoami", tok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "account is disabled")
}

func TestActiveSession_CheckerErrorIs500(t *testing.T) {
	tok := signToken(t, model.ActingIdentity{Effective: driverID}, TokenAccess, time.Hour)
	w := get(testRouter(stubChecker{err: errors.New("db down")}), "/whoami", tok)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db down")
}

// ── Tests: guards ─────────────────────────────────────────────────────────────

func TestRequireRole_DriverDenied(t *testing.T) {
	tok := signToken(t, model.ActingIdentity{Effective: driverID}, TokenAccess, time.Hour)
	w := get(testRouter(stubChecker{}), "/sponsor", tok)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var body apierror.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "/driver/dashboard", body.Redirect)
}

func TestRequireRole_AdminPassesSponsorArea(t *testing.T) {
	tok := signToken(t, model.ActingIdentity{Effective: adminID}, TokenAccess, time.Hour)
	w := get(testRouter(stubChecker{}), "/sponsor", tok)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRoleStrict_SponsorDenied(t *testing.T) {
	tok := signToken(t, model.ActingIdentity{Effective: sponsorID}, TokenAccess, time.Hour)
	w := get(testRouter(stubChecker{}), "/admin", tok)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRoleStrict_ImpersonatingAdminKeepsAccess(t *testing.T) {
	tok := signToken(t, model.ActingIdentity{Effective: driverID, Original: &adminID}, TokenAccess, time.Hour)
	w := get(testRouter(stubChecker{}), "/admin", tok)
	assert.Equal(t, http.StatusOK, w.Code)
}
