package brain

import (
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// optional control-plane auth. Renderers stay unauthenticated; when a
// signing secret is configured, controller and voice clients must carry
// a token in their hello.

type ControlToken struct {
	ClientId Id
	Role     string
}

func MintControlToken(secret string, role string) (string, error) {
	clientId := NewId()
	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims{
		"client_id": clientId.String(),
		"role":      role,
		"iat":       time.Now().Unix(),
	})
	return token.SignedString([]byte(secret))
}

func VerifyControlToken(secret string, tokenStr string) (*ControlToken, error) {
	token, err := gojwt.Parse(
		tokenStr,
		func(token *gojwt.Token) (any, error) {
			return []byte(secret), nil
		},
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(gojwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("bad claims")
	}

	controlToken := &ControlToken{}
	if clientIdStr, ok := claims["client_id"].(string); ok {
		if clientId, err := ParseId(clientIdStr); err == nil {
			controlToken.ClientId = clientId
		}
	}
	if role, ok := claims["role"].(string); ok {
		controlToken.Role = role
	}
	return controlToken, nil
}
