package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"wear_relay/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const defaultTokenTTL = time.Hour

// Domain errors for pairing flows.
var (
	ErrInvalidSecret = errors.New("invalid secret")
	ErrNodeNotFound  = errors.New("node not found")
	ErrInvalidToken  = errors.New("invalid token")
	ErrNoSigningKey  = errors.New("signing key is empty")
)

// AuthConfig holds token parameters read from config.
type AuthConfig struct {
	SigningKey string
	TokenTTL   time.Duration
}

// AuthService pairs handheld nodes and issues their access tokens.
type AuthService struct {
	authRepo repository.Authorization
	key      []byte
	ttl      time.Duration
}

func NewAuthService(repo repository.Authorization, cfg AuthConfig) *AuthService {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &AuthService{authRepo: repo, key: []byte(cfg.SigningKey), ttl: ttl}
}

// SignUp hashes the secret and pairs a new node
func (s *AuthService) SignUp(nodeID, secret string) (int, error) {
	if strings.TrimSpace(nodeID) == "" {
		return 0, errors.New("node id is empty")
	}
	hash, err := hashSecret(secret)
	if err != nil {
		return 0, fmt.Errorf("invalid secret: %w", err)
	}
	return s.authRepo.Create(nodeID, hash)
}

// Claims defines JWT claims
type Claims struct {
	jwt.RegisteredClaims
	NodeID string `json:"node_id"`
}

// GenerateToken validates node credentials and returns a JWT
func (s *AuthService) GenerateToken(nodeID, secret string) (string, error) {
	n, err := s.authRepo.GetByNodeID(nodeID)
	if err != nil {
		return "", err
	}
	if n == nil {
		return "", ErrNodeNotFound
	}

	if err := verifySecret(n.SecretHash, secret); err != nil {
		return "", ErrInvalidSecret
	}

	return s.issueToken(n.NodeID, time.Now())
}

// ParseToken parses a JWT and returns the node id it was issued to
func (s *AuthService) ParseToken(accessToken string) (string, error) {
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Ensure HMAC signing is used
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.NodeID == "" {
		return "", ErrInvalidToken
	}

	return claims.NodeID, nil
}

// helper: hash secret safely
func hashSecret(secret string) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", errors.New("secret is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(hash), nil
}

// helper: verify secret against hash
func verifySecret(hash, secret string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
}

// helper: issue a signed JWT for a node
func (s *AuthService) issueToken(nodeID string, now time.Time) (string, error) {
	if len(s.key) == 0 {
		return "", ErrNoSigningKey
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   nodeID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		NodeID: nodeID,
	})
	return token.SignedString(s.key)
}
