package user

import "strings"

// Правила валидации полей пользователя. Единственный источник истины
// для сущности: логин и имя не должны содержать символы из BannedSymbols,
// пароль обязан содержать хотя бы один из них.
const (
	BannedSymbols = "!@#$%^&*"
	Digits        = "123456789"

	MinLoginLength    = 6
	MinNameLength     = 3
	MaxNameLength     = 16
	MinPasswordLength = 6
)

func containsBannedSymbol(s string) bool {
	return strings.ContainsAny(s, BannedSymbols)
}

func containsDigit(s string) bool {
	return strings.ContainsAny(s, Digits)
}
