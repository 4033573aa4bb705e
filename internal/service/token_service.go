package service

import (
	"time"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/config"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/dto"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/middleware"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService signs access / refresh token pairs for an acting identity.
type TokenService struct {
	secret     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenService(cfg *config.Config, opts ...Option) *TokenService {
	o := applyOptions(opts)
	return &TokenService{
		secret:     cfg.JWTSecret,
		accessTTL:  time.Duration(cfg.JWTExpirationHours) * time.Hour,
		refreshTTL: time.Duration(cfg.JWTRefreshHours) * time.Hour,
		now:        o.now,
	}
}

func (t *TokenService) sign(id model.ActingIdentity, tokenType string, ttl time.Duration) (string, error) {
	claims := middleware.NewClaims(id, tokenType, t.now(), ttl)
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(t.secret))
}

// ParseRefresh validates a refresh token and returns its claims.
func (t *TokenService) ParseRefresh(token string) (*middleware.JWTClaims, error) {
	return middleware.ParseToken(t.secret, token, middleware.TokenRefresh)
}

// Session builds the login response for account acting as id.
func (t *TokenService) Session(account *model.Account, id model.ActingIdentity) (*dto.LoginResponse, error) {
	access, err := t.sign(id, middleware.TokenAccess, t.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := t.sign(id, middleware.TokenRefresh, t.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int(t.accessTTL.Seconds()),
		User:         accountToResponse(account, t.now()),
		Impersonator: id.Original,
		Redirect:     id.Effective.Role.LandingPath(),
	}, nil
}
