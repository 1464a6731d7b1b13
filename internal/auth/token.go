package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims binds a bearer to a game, either as one of its players or as its host.
type Claims struct {
	jwt.RegisteredClaims
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id,omitempty"`
	Host     bool   `json:"host,omitempty"`
}

// DefaultTokenExpiry is the default lifetime for game tokens.
const DefaultTokenExpiry = 24 * time.Hour

const issuer = "mafia"

// GeneratePlayerToken signs a token for a player of the game.
func GeneratePlayerToken(gameID, playerID string, secret []byte, expiry time.Duration) (string, time.Time, error) {
	return GenerateToken(Claims{GameID: gameID, PlayerID: playerID}, secret, expiry)
}

// GenerateHostToken signs a token for the game's host.
func GenerateHostToken(gameID string, secret []byte, expiry time.Duration) (string, time.Time, error) {
	return GenerateToken(Claims{GameID: gameID, Host: true}, secret, expiry)
}

// GenerateToken signs claims as an HS256 JWT expiring after expiry.
func GenerateToken(claims Claims, secret []byte, expiry time.Duration) (token string, expiresAt time.Time, err error) {
	if len(secret) == 0 {
		return "", time.Time{}, errors.New("token secret is required")
	}
	now := time.Now().UTC()
	expiresAt = now.Add(expiry)
	claims.Issuer = issuer
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(expiresAt)
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expiresAt, nil
}

// VerifyToken checks the signature and expiry and returns the claims.
func VerifyToken(token string, secret []byte) (*Claims, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret is required")
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.New("token expired")
		}
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims.GameID == "" || (claims.PlayerID == "" && !claims.Host) {
		return nil, errors.New("invalid token claims: missing game_id or player_id")
	}
	return &claims, nil
}
