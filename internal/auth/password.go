package auth

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// パスワード長の制約（バイト数）。bcryptは72バイトを超える入力を扱えない。
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// HashPassword はパスワードをbcryptでハッシュ化する。
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength || len(password) > MaxPasswordLength {
		return "", fmt.Errorf("password length must be between %d and %d bytes", MinPasswordLength, MaxPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword はハッシュとパスワードが一致するかを検証する。
// 不一致の場合は (false, nil) を返し、ハッシュが壊れている場合のみエラーを返す。
func CheckPassword(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("failed to compare password: %w", err)
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// dummyPasswordHash はユーザーが存在しない場合の照合に使うハッシュを返す。
// 実ユーザーと同じコストで生成し、ログイン失敗時の応答時間を揃える。
func dummyPasswordHash() string {
	dummyHashOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("mindfulbite-dummy-password"), bcrypt.DefaultCost)
		if err != nil {
			panic(fmt.Sprintf("failed to generate dummy password hash: %v", err))
		}
		dummyHash = string(h)
	})
	return dummyHash
}
