package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"rental-service/pkg/config"
)

// UserClaims represents the JWT claims for an authenticated operator.
// CompanyID scopes every request to exactly one company.
type UserClaims struct {
	Email       string `json:"email"`
	UserID      uint   `json:"user_id"`
	CompanyID   *uint  `json:"company_id,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	Role        string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

var jwtConfig *config.JWTConfig

// Initialize sets up the JWT utility with the application configuration
func Initialize(cfg *config.JWTConfig) {
	jwtConfig = cfg
}

// GenerateToken creates a JWT token with user and company information
func GenerateToken(email string, userID uint, companyID *uint, companyName string, role string) (string, error) {
	if jwtConfig == nil {
		return "", errors.New("JWT configuration not provided")
	}

	claims := UserClaims{
		Email:       email,
		UserID:      userID,
		CompanyID:   companyID,
		CompanyName: companyName,
		Role:        role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(jwtConfig.ExpirationHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtConfig.SigningKey))
}

// ValidateToken validates and parses the JWT token
func ValidateToken(tokenString string) (*UserClaims, error) {
	if jwtConfig == nil {
		return nil, errors.New("JWT configuration not provided")
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&UserClaims{},
		func(token *jwt.Token) (interface{}, error) {
			// Validate the signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtConfig.SigningKey), nil
		},
	)

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
