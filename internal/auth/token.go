// Package auth содержит выпуск и проверку сессионных токенов и хеширование паролей.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken возвращается при невалидной подписи, повреждённом или просроченном токене.
var ErrInvalidToken = errors.New("invalid token")

// tokenTTL — абсолютный срок жизни сессионного токена.
const tokenTTL = 24 * time.Hour

// Claims — утверждения сессионного токена: стандартные плюс идентификатор пользователя.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"uid"`
}

// TokenService выпускает и проверяет подписанные JWT-токены.
// Токены самодостаточны, на сервере не хранятся и не отзываются.
type TokenService struct {
	secretKey []byte
}

// NewTokenService создаёт сервис токенов с указанным секретным ключом.
func NewTokenService(secret string) *TokenService {
	return &TokenService{secretKey: []byte(secret)}
}

// Issue выпускает токен для указанного пользователя со сроком действия один день.
func (s *TokenService) Issue(userID int64) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
		UserID: userID,
	})

	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", err
	}

	return signed, nil
}

// Verify проверяет подпись и срок действия токена и возвращает идентификатор пользователя.
func (s *TokenService) Verify(tokenString string) (int64, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, ErrInvalidToken
	}

	if !token.Valid {
		return 0, ErrInvalidToken
	}

	return claims.UserID, nil
}
