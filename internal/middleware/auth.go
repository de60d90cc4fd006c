// Package middleware содержит HTTP middleware сервиса магазина.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
)

type contextKey string

const userIDKey contextKey = "userID"

// TokenHeader — заголовок, в котором клиент передаёт сессионный токен.
const TokenHeader = "x-auth-token"

// TokenVerifier проверяет сессионный токен и возвращает идентификатор пользователя.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// AuthMiddleware выполняет проверку аутентификации пользователя по токену в заголовке.
type AuthMiddleware struct {
	tokens TokenVerifier
}

// NewAuthMiddleware создаёт новый экземпляр AuthMiddleware с указанным сервисом токенов.
func NewAuthMiddleware(tokens TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Middleware проверяет токен из заголовка и добавляет идентификатор пользователя
// в контекст запроса. Отсутствие токена и невалидный токен различаются сообщением,
// статус в обоих случаях 401.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(TokenHeader)
		if token == "" {
			writeUnauthorized(w, "No token, acceso denegado")
			return
		}

		userID, err := a.tokens.Verify(token)
		if err != nil {
			writeUnauthorized(w, "Token inválido")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeUnauthorized(w http.ResponseWriter, mensaje string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"mensaje": mensaje})
}

// GetUserIDFromContext извлекает идентификатор пользователя из контекста запроса.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}
