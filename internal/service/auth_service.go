package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/bluesumk/mjjf/internal/model"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// AuthService issues and validates identity tokens. Identities are opaque
// markers; nothing downstream interprets their structure, membership is pure
// equality comparison.
type AuthService struct {
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewAuthService creates a new auth service.
func NewAuthService(secret string) *AuthService {
	return &AuthService{
		jwtSecret: []byte(secret),
		tokenTTL:  30 * 24 * time.Hour,
	}
}

// Login issues a fresh anonymous identity and its bearer token.
func (s *AuthService) Login() (*model.LoginResponse, error) {
	identity := "u_" + uuid.New().String()[:8]

	token, err := s.sign(identity)
	if err != nil {
		return nil, err
	}
	return &model.LoginResponse{Token: token, Identity: identity}, nil
}

// Refresh re-issues a token for an existing identity so a returning caller
// keeps its membership markers.
func (s *AuthService) Refresh(identity string) (*model.LoginResponse, error) {
	if identity == "" {
		return nil, ErrInvalidToken
	}
	token, err := s.sign(identity)
	if err != nil {
		return nil, err
	}
	return &model.LoginResponse{Token: token, Identity: identity}, nil
}

// ValidateToken validates a bearer token and returns its claims.
func (s *AuthService) ValidateToken(tokenString string) (*model.IdentityClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.IdentityClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.IdentityClaims)
	if !ok || !token.Valid || claims.Identity == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) sign(identity string) (string, error) {
	claims := &model.IdentityClaims{
		Identity: identity,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
