package auth

import (
	"crypto/rand"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

const tempPasswordChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// HashPassword хеширует пароль bcrypt со случайной солью на каждый вызов.
func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

// CheckPassword сравнивает пароль с сохранённым хешем.
// Любая ошибка bcrypt (в том числе повреждённый хеш) трактуется как несовпадение.
func CheckPassword(password string, hash []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

// GenerateTempPassword генерирует случайный временный пароль указанной длины
// из латинских букв и цифр.
func GenerateTempPassword(length int) (string, error) {
	if length <= 0 {
		length = 10
	}

	max := big.NewInt(int64(len(tempPasswordChars)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = tempPasswordChars[n.Int64()]
	}

	return string(buf), nil
}
