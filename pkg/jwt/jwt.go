package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims represents JWT claims
type Claims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// JWTManager issues and verifies HS256 tokens
type JWTManager struct {
	secretKey            []byte
	issuer               string
	accessTokenDuration  time.Duration
	refreshTokenDuration time.Duration
}

func NewJWTManager(secretKey, issuer string, accessTokenDuration, refreshTokenDuration time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:            []byte(secretKey),
		issuer:               issuer,
		accessTokenDuration:  accessTokenDuration,
		refreshTokenDuration: refreshTokenDuration,
	}
}

// AccessTokenDuration is the lifetime of access tokens
func (m *JWTManager) AccessTokenDuration() time.Duration {
	return m.accessTokenDuration
}

// RefreshTokenDuration is the lifetime of refresh tokens
func (m *JWTManager) RefreshTokenDuration() time.Duration {
	return m.refreshTokenDuration
}

func (m *JWTManager) GenerateAccessToken(userID, email, role string) (string, error) {
	return m.sign(Claims{UserID: userID, Email: email, Role: role, TokenType: TokenTypeAccess}, m.accessTokenDuration)
}

func (m *JWTManager) GenerateRefreshToken(userID string) (string, error) {
	return m.sign(Claims{UserID: userID, TokenType: TokenTypeRefresh}, m.refreshTokenDuration)
}

func (m *JWTManager) sign(claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    m.issuer,
		Subject:   claims.UserID,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// ValidateToken validates a JWT token and returns claims
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return m.secretKey, nil
	}, jwt.WithIssuer(m.issuer))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// ValidateTyped validates a token and checks its token_type claim
func (m *JWTManager) ValidateTyped(tokenString, tokenType string) (*Claims, error) {
	claims, err := m.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenType {
		return nil, errors.New("unexpected token type")
	}
	return claims, nil
}
