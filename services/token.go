package services

import (
	"fmt"
	"strings"

	"pms/errors"
	"pms/types"

	"github.com/dgrijalva/jwt-go"
	"github.com/goccy/go-json"
)

// ActorFromToken reads the userinfo claim of a bearer token. With a secret the HMAC
// signature is verified; without one the payload is only decoded, for deployments where
// the gateway has already validated the token.
func ActorFromToken(tokenString, secret string) (types.Actor, error) {
	claims, err := tokenClaims(tokenString, secret)
	if err != nil {
		return types.Actor{}, err
	}

	userInfo, ok := claims["userinfo"].(map[string]interface{})
	if !ok {
		return types.Actor{}, errors.NewAppError(errors.ErrCodeInvalidToken, "user info missing from token", nil)
	}
	userID, ok := userInfo["userid"].(float64)
	if !ok {
		return types.Actor{}, errors.NewAppError(errors.ErrCodeInvalidToken, "user id missing from token", nil)
	}
	role, ok := userInfo["role"].(float64)
	if !ok {
		return types.Actor{}, errors.NewAppError(errors.ErrCodeInvalidToken, "role missing from token", nil)
	}
	name, _ := userInfo["name"].(string)

	return types.Actor{ID: uint(userID), Name: name, Role: int(role)}, nil
}

func tokenClaims(tokenString, secret string) (jwt.MapClaims, error) {
	if secret != "" {
		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return nil, errors.NewAppError(errors.ErrCodeInvalidToken, "invalid token", err)
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return nil, errors.NewAppError(errors.ErrCodeInvalidToken, "invalid token claims", nil)
		}
		return claims, nil
	}

	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return nil, errors.NewAppError(errors.ErrCodeInvalidToken, "invalid token", nil)
	}
	payload, err := jwt.DecodeSegment(parts[1])
	if err != nil {
		return nil, errors.NewAppError(errors.ErrCodeInvalidToken, "cannot decode token", err)
	}
	claims := jwt.MapClaims{}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, errors.NewAppError(errors.ErrCodeInvalidToken, "cannot parse token", err)
	}
	return claims, nil
}
