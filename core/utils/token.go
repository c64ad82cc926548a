package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/liyxianren/mmyq/core/config"
)

// Role distinguishes user tokens from admin tokens.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// TokenClaims are the JWT claims carried by a session token. The jti
// (RegisteredClaims.ID) keys the logout blacklist.
type TokenClaims struct {
	SubjectID int64  `json:"subject_id"`
	Role      Role   `json:"role"`
	GroupName string `json:"group_name,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken issues a signed session token for the given subject.
func GenerateToken(subjectID int64, role Role, groupName string) (string, error) {
	cfg := config.Get()
	now := time.Now()
	claims := &TokenClaims{
		SubjectID: subjectID,
		Role:      role,
		GroupName: groupName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(cfg.JWT.TTLHours) * time.Hour)),
			Issuer:    "mmyq",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWT.Secret))
}

// ValidateAndParseToken verifies the signature and expiry of a session token
// and returns its claims.
func ValidateAndParseToken(tokenString string) (*TokenClaims, error) {
	cfg := config.Get()
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.JWT.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
