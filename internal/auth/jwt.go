package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

type Claims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	Type   string `json:"typ"` // "access" | "refresh"
	jwt.RegisteredClaims
}

func (tm *TokenManager) sign(userID, role, typ string, secret []byte, now time.Time, ttl time.Duration) (string, time.Time, error) {
	exp := now.Add(ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		Role:   role,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	s, err := tok.SignedString(secret)
	return s, exp, err
}

// GeneratePair issues an access and a refresh token for the user.
func (tm *TokenManager) GeneratePair(userID, role string) (access string, refresh string, accessExp time.Time, err error) {
	now := time.Now()
	access, accessExp, err = tm.sign(userID, role, "access", tm.accessSecret, now, tm.accessTTL)
	if err != nil {
		return "", "", time.Time{}, err
	}
	refresh, _, err = tm.sign(userID, role, "refresh", tm.refreshSecret, now, tm.refreshTTL)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return access, refresh, accessExp, nil
}

// ParseAny accepts either token kind; isRefresh tells which one it was.
func (tm *TokenManager) ParseAny(tokenStr string) (claims *Claims, isRefresh bool, err error) {
	if c, ok := tm.parse(tokenStr, tm.accessSecret, "access"); ok {
		return c, false, nil
	}
	if c, ok := tm.parse(tokenStr, tm.refreshSecret, "refresh"); ok {
		return c, true, nil
	}
	return nil, false, ErrInvalidToken
}

func (tm *TokenManager) parse(tokenStr string, secret []byte, typ string) (*Claims, bool) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return claims, err == nil && claims.Type == typ
}
