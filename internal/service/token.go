package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mkells/robot-orchestra/internal/domain"
)

// TokenService issues and validates participant session tokens. A token binds
// a pseudonymous identity to one match; there are no user accounts behind it.
type TokenService struct {
	secret   []byte
	lifetime time.Duration
}

func NewTokenService(secret string, lifetime time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), lifetime: lifetime}
}

// MatchClaims is the decoded payload of a participant token.
type MatchClaims struct {
	MatchID  uuid.UUID
	Identity domain.Identity
}

// IssueToken signs a session token for a participant in a match.
func (s *TokenService) IssueToken(matchID uuid.UUID, identity domain.Identity) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      identity,
		"matchId":  matchID.String(),
		"identity": string(identity),
		"iat":      now.Unix(),
		"exp":      now.Add(s.lifetime).Unix(),
	})
	return token.SignedString(s.secret)
}

// ValidateToken parses and verifies a participant token.
func (s *TokenService) ValidateToken(tokenString string) (*MatchClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	matchIDStr, ok := claims["matchId"].(string)
	if !ok {
		return nil, fmt.Errorf("missing matchId claim")
	}
	matchID, err := uuid.Parse(matchIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid matchId claim: %w", err)
	}
	identity, ok := claims["identity"].(string)
	if !ok || identity == "" {
		return nil, fmt.Errorf("missing identity claim")
	}

	return &MatchClaims{
		MatchID:  matchID,
		Identity: domain.Identity(identity),
	}, nil
}
