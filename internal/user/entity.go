package user

import (
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/gofrs/uuid"
)

// User представляет сущность пользователя. Экземпляр, полученный из NewUser,
// гарантированно прошёл валидацию логина, имени и пароля.
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Login     string    `json:"login" db:"login"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Password  string    `json:"-" db:"password"` // Пароль не возвращаем в ответах
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewUser собирает пользователя из DTO и валидирует поля в порядке
// логин → имя → пароль; возвращается первое найденное нарушение.
// Синтаксис email проверяется раньше, на границе запроса.
func NewUser(dto CreateUserDTO) (*User, error) {
	if err := validateLogin(dto.Login); err != nil {
		return nil, err
	}
	if err := validateName(dto.Name); err != nil {
		return nil, err
	}
	if err := validatePassword(dto.Password); err != nil {
		return nil, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}

	now := time.Now()

	return &User{
		ID:        id,
		Login:     dto.Login,
		Name:      dto.Name,
		Email:     dto.Email,
		Password:  dto.Password,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ChangePassword заменяет пароль после проверки, что новый отличается от
// старого и проходит валидацию. Сохранение — забота вызывающего.
func (u *User) ChangePassword(newPassword string) error {
	if u.Password == newPassword {
		return ErrSamePassword
	}

	if err := validatePassword(newPassword); err != nil {
		return err
	}

	u.Password = newPassword
	u.UpdatedAt = time.Now()

	return nil
}

// Длины считаются в символах, не в байтах: кириллический логин из трёх
// букв короче минимума, хотя занимает шесть байт.
func validateLogin(login string) error {
	if utf8.RuneCountInString(login) < MinLoginLength {
		return newValidationError("login", RuleTooShort)
	}

	if containsBannedSymbol(login) {
		return newValidationError("login", RuleForbiddenSymbol)
	}

	return nil
}

func validateName(name string) error {
	length := utf8.RuneCountInString(name)

	if length < MinNameLength {
		return newValidationError("name", RuleTooShort)
	}

	if length > MaxNameLength {
		return newValidationError("name", RuleTooLong)
	}

	if containsBannedSymbol(name) {
		return newValidationError("name", RuleForbiddenSymbol)
	}

	return nil
}

// Пароль строго длиннее MinPasswordLength и обязан содержать спецсимвол,
// цифру, заглавную и строчную буквы — именно в этом порядке проверок.
func validatePassword(password string) error {
	if utf8.RuneCountInString(password) <= MinPasswordLength {
		return newValidationError("password", RuleTooShort)
	}

	if !containsBannedSymbol(password) {
		return newValidationError("password", RuleMissingSymbol)
	}

	if !containsDigit(password) {
		return newValidationError("password", RuleMissingDigit)
	}

	hasUpper := false
	hasLower := false
	for _, r := range password {
		if unicode.IsUpper(r) {
			hasUpper = true
		}
		if unicode.IsLower(r) {
			hasLower = true
		}
	}

	if !hasUpper {
		return newValidationError("password", RuleMissingUpper)
	}

	if !hasLower {
		return newValidationError("password", RuleMissingLower)
	}

	return nil
}
