package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SpectatorAuth mints and verifies the session-scoped tokens that grant
// read-only access to a session's broadcast group without roster
// membership.
type SpectatorAuth struct {
	secret []byte
}

func NewSpectatorAuth(secret string) *SpectatorAuth {
	return &SpectatorAuth{secret: []byte(secret)}
}

type spectatorClaims struct {
	SessionID string `json:"sessionId"`
	jwt.RegisteredClaims
}

// Mint creates a spectator token for the session. Tokens carry no expiry
// of their own; session expiry governs their useful lifetime.
func (a *SpectatorAuth) Mint(sessionID string) (string, error) {
	claims := &spectatorClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// Verify checks the token signature and that it was minted for sessionID.
func (a *SpectatorAuth) Verify(tokenString, sessionID string) error {
	token, err := jwt.ParseWithClaims(tokenString, &spectatorClaims{}, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil {
		return ErrInvalidToken
	}
	claims, ok := token.Claims.(*spectatorClaims)
	if !ok || !token.Valid || claims.SessionID != sessionID {
		return ErrInvalidToken
	}
	return nil
}
