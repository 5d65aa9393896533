package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ukm-hub/backend/internal/authz"
	"github.com/ukm-hub/backend/internal/models"
)

// TokenTTL is the fixed session token lifetime.
const TokenTTL = 7 * 24 * time.Hour

var (
	ErrInvalidToken = errors.New("invalid token")
)

// Claims holds JWT claims including user ID and role.
type Claims struct {
	UserID uuid.UUID         `json:"user_id"`
	Role   models.GlobalRole `json:"role"`
	jwt.RegisteredClaims
}

// JWTService handles token generation and validation.
type JWTService struct {
	secret []byte
	now    func() time.Time
}

// NewJWTService creates a JWT service.
func NewJWTService(secret string) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Issue creates a signed token for the user, expiring TokenTTL from now.
func (s *JWTService) Issue(userID uuid.UUID, role models.GlobalRole) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify parses and validates a token, returning its claims. Any signature,
// structure, expiry or claim problem yields ErrInvalidToken.
func (s *JWTService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == uuid.Nil {
		return nil, ErrInvalidToken
	}
	if _, err := models.ParseGlobalRole(string(claims.Role)); err != nil || claims.Role == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyCaller verifies a token and returns the identity it carries.
func (s *JWTService) VerifyCaller(tokenString string) (*authz.Caller, error) {
	claims, err := s.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	return &authz.Caller{UserID: claims.UserID, Role: claims.Role}, nil
}
