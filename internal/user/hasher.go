package user

import "golang.org/x/crypto/bcrypt"

// PasswordHasher изолирует способ хранения пароля от сервиса и сущности:
// переход с хранения открытым текстом на bcrypt не меняет их контрактов.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(stored, password string) bool
}

// PlainHasher хранит пароль как есть. Вариант по умолчанию; bcrypt
// включается через конфигурацию.
type PlainHasher struct{}

func (PlainHasher) Hash(password string) (string, error) {
	return password, nil
}

func (PlainHasher) Compare(stored, password string) bool {
	return stored == password
}

// BcryptHasher хранит bcrypt-хеш пароля.
type BcryptHasher struct{}

func (BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

func (BcryptHasher) Compare(stored, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}
