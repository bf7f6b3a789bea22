package auth

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooLong bcrypt 只使用前 72 字节，超出时拒绝而不是静默截断。
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

const passwordCost = bcrypt.DefaultCost

// decoyHash 在用户不存在时参与一次比较，使两类登录失败耗时一致。
var decoyHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("folio-decoy"), passwordCost)
	if err != nil {
		panic(fmt.Sprintf("generate decoy hash: %v", err))
	}
	return hash
})

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	if len(password) > 72 {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPasswordHash reports whether password matches hash.
// 空 hash 视为用户不存在，仍执行一次比较后返回 false。
func CheckPasswordHash(password, hash string) bool {
	if hash == "" {
		_ = bcrypt.CompareHashAndPassword(decoyHash(), []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
