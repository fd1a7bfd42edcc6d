package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/models"
	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/roles"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateJWT issues an HS256 token carrying the caller identity.
func GenerateJWT(secret []byte, userID string, role roles.Role, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"userID": userID,
		"role":   role.String(),
		"exp":    time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseToken validates tokenString and returns the actor it identifies.
func ParseToken(secret []byte, tokenString string) (models.Actor, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return models.Actor{}, err
	}
	if !token.Valid {
		return models.Actor{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Actor{}, errors.New("unexpected claims type")
	}
	userID, ok := claims["userID"].(string)
	if !ok || userID == "" {
		return models.Actor{}, fmt.Errorf("userID is not a string")
	}
	role, _ := claims["role"].(string)
	if !roles.Role(role).IsValid() {
		return models.Actor{}, fmt.Errorf("unknown role %q", role)
	}

	return models.Actor{ID: userID, Role: roles.Role(role)}, nil
}
