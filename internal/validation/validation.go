// Package validation содержит функции валидации входных данных.
package validation

import (
	"regexp"
	"strings"
)

var emailRegexp = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// MinPasswordLength — минимально допустимая длина пароля.
const MinPasswordLength = 6

// IsValidUsername проверяет, что имя пользователя не пустое.
func IsValidUsername(username string) bool {
	return strings.TrimSpace(username) != ""
}

// IsValidEmail проверяет формат адреса электронной почты.
func IsValidEmail(email string) bool {
	return emailRegexp.MatchString(email)
}

// IsValidPassword проверяет минимальную длину пароля.
func IsValidPassword(password string) bool {
	return len(password) >= MinPasswordLength
}
