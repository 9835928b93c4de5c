package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const browserTokenTTL = 30 * 24 * time.Hour

// AuthService signs the cookie that identifies a browser to the dashboard.
// It has nothing to do with the backend admin token, which never leaves the
// server.
type AuthService struct {
	secretKey []byte
	logger    zerolog.Logger
}

type Claims struct {
	BrowserID string `json:"bid"`
	jwt.RegisteredClaims
}

func NewAuthService(secret string, logger zerolog.Logger) *AuthService {
	return &AuthService{
		secretKey: []byte(secret),
		logger:    logger,
	}
}

// NewBrowserID returns a fresh random browser id.
func (s *AuthService) NewBrowserID() string {
	return uuid.NewString()
}

func (s *AuthService) GenerateToken(browserID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		BrowserID: browserID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(browserTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		s.logger.Error().Err(err).Msg("Error signing browser token")
		return "", err
	}
	return tokenString, nil
}

func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secretKey, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if _, err := uuid.Parse(claims.BrowserID); err != nil {
		return nil, errors.New("invalid browser id")
	}

	return claims, nil
}

// MaxAge is the browser cookie lifetime in seconds.
func (s *AuthService) MaxAge() int {
	return int(browserTokenTTL.Seconds())
}
