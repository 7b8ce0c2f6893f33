package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/models"

	"github.com/golang-jwt/jwt/v5"
)

const accessTokenTTL = 15 * time.Minute

var (
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidTokenType = errors.New("invalid token type")
)

// JWTService signs and verifies HS256 access tokens.
type JWTService struct {
	secretKey []byte
	now       func() time.Time
}

func NewJWTService(secretKey string) *JWTService {
	return &JWTService{
		secretKey: []byte(secretKey),
		now:       time.Now,
	}
}

// GenerateAccessToken issues an access token for the identity. Tokens are
// normally minted by the auth service; this is used by tests and the dev
// token command.
func (j *JWTService) GenerateAccessToken(identity models.Identity, ttl time.Duration) (string, int64, error) {
	if identity.IsZero() {
		return "", 0, fmt.Errorf("user id is required")
	}
	if ttl <= 0 {
		ttl = accessTokenTTL
	}
	now := j.now()
	expiry := now.Add(ttl)

	claims := &models.TokenClaims{
		UserID: identity.UserID,
		Role:   string(identity.Role),
		Type:   "access",
		Exp:    expiry.Unix(),
		Iat:    now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", 0, fmt.Errorf("failed to generate access token: %w", err)
	}
	return tokenString, expiry.Unix(), nil
}

// ValidateToken parses the token and checks its signature and expiry.
func (j *JWTService) ValidateToken(tokenString string) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secretKey, nil
	}, jwt.WithTimeFunc(j.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	if j.now().Unix() > claims.Exp {
		return nil, ErrTokenExpired
	}
	return claims, nil
}

// ValidateAccessToken verifies an access token and resolves the caller.
func (j *JWTService) ValidateAccessToken(tokenString string) (models.Identity, error) {
	claims, err := j.ValidateToken(tokenString)
	if err != nil {
		return models.Identity{}, err
	}
	if claims.Type != "access" {
		return models.Identity{}, fmt.Errorf("%w: expected access, got %s", ErrInvalidTokenType, claims.Type)
	}
	if strings.TrimSpace(claims.UserID) == "" {
		return models.Identity{}, fmt.Errorf("token has no user id")
	}
	role, err := models.ParseUserRole(claims.Role)
	if err != nil {
		return models.Identity{}, err
	}
	return models.Identity{UserID: claims.UserID, Role: role}, nil
}
