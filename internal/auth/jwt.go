package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"taskhub/internal/common"
	"taskhub/internal/models"
)

const (
	AccessToken  = "access"
	RefreshToken = "refresh"
)

// Claims is the JWT payload shared by access and refresh tokens.
type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"token_type"`
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	FullName  string `json:"fullname"`
}

type TokenPair struct {
	Refresh string `json:"refresh"`
	Access  string `json:"access"`
}

// TokenIssuer signs and verifies HS256 tokens.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Issue returns a fresh access/refresh pair for u.
func (i *TokenIssuer) Issue(u *models.User) (TokenPair, error) {
	refresh, err := i.sign(u, RefreshToken, i.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	access, err := i.sign(u, AccessToken, i.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Refresh: refresh, Access: access}, nil
}

// Access returns a new access token only.
func (i *TokenIssuer) Access(u *models.User) (string, error) {
	return i.sign(u, AccessToken, i.accessTTL)
}

func (i *TokenIssuer) sign(u *models.User, tokenType string, ttl time.Duration) (string, error) {
	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: tokenType,
		UserID:    u.ID,
		Email:     u.Email,
		FullName:  u.FullName(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return s, nil
}

// Parse validates tokenStr and checks that it carries the expected token type.
// Every failure is reported as common.ErrUnauthorized.
func (i *TokenIssuer) Parse(tokenStr, tokenType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil || !token.Valid {
		return nil, errors.Join(common.ErrUnauthorized, err)
	}
	if claims.TokenType != tokenType || claims.UserID == "" {
		return nil, fmt.Errorf("%w: wrong token type", common.ErrUnauthorized)
	}
	return claims, nil
}
