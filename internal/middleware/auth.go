package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/apierror"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ClaimsKey   = "claims"
	IdentityKey = "identity"

	TokenAccess  = "access"
	TokenRefresh = "refresh"

	LoginPath = "/auth/login"
)

// JWTClaims are the custom claims embedded in every token. The Original*
// fields are filled only while an impersonation is active and name the
// account that started it.
type JWTClaims struct {
	Code             uint       `json:"code"`
	Username         string     `json:"username"`
	Role             model.Role `json:"role"`
	OriginalCode     *uint      `json:"original_code,omitempty"`
	OriginalUsername string     `json:"original_username,omitempty"`
	OriginalRole     model.Role `json:"original_role,omitempty"`
	Impersonating    bool       `json:"impersonating"`
	TokenType        string     `json:"typ"`
	jwt.RegisteredClaims
}

// NewClaims builds the claims for id valid from now for ttl.
func NewClaims(id model.ActingIdentity, tokenType string, now time.Time, ttl time.Duration) *JWTClaims {
	c := &JWTClaims{
		Code:      id.Effective.Code,
		Username:  id.Effective.Username,
		Role:      id.Effective.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if id.Original != nil {
		code := id.Original.Code
		c.OriginalCode = &code
		c.OriginalUsername = id.Original.Username
		c.OriginalRole = id.Original.Role
		c.Impersonating = true
	}
	return c
}

// Identity converts the claims back into the acting identity.
func (c *JWTClaims) Identity() model.ActingIdentity {
	id := model.ActingIdentity{
		Effective: model.Identity{Code: c.Code, Username: c.Username, Role: c.Role},
	}
	if c.Impersonating && c.OriginalCode != nil {
		id.Original = &model.Identity{Code: *c.OriginalCode, Username: c.OriginalUsername, Role: c.OriginalRole}
	}
	return id
}

// ParseToken verifies signature, expiry and token type.
func ParseToken(secret, tokenStr, tokenType string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.TokenType != tokenType || !claims.Role.Valid() {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Impersonating && !claims.OriginalRole.Valid() {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// JWTAuth validates the Bearer token on every protected route and stores the
// acting identity in the context.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.NewRedirect("authentication required", LoginPath))
			return
		}

		claims, err := ParseToken(secret, strings.TrimPrefix(header, "Bearer "), TokenAccess)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.NewRedirect("invalid or expired token", LoginPath))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(IdentityKey, claims.Identity())
		c.Next()
	}
}

// GetClaims is a helper to retrieve typed claims from the Gin context.
func GetClaims(c *gin.Context) *JWTClaims {
	claims, _ := c.MustGet(ClaimsKey).(*JWTClaims)
	return claims
}

// GetIdentity returns the acting identity, or nil on unauthenticated routes.
func GetIdentity(c *gin.Context) *model.ActingIdentity {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return nil
	}
	id, ok := v.(model.ActingIdentity)
	if !ok {
		return nil
	}
	return &id
}
