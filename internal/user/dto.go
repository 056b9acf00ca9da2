package user

// CreateUserDTO — входные данные для создания пользователя. Все поля обязательны.
type CreateUserDTO struct {
	Login    string `json:"login"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// UpdateUserDTO описывает частичное обновление. Логин служит ключом поиска
// и при этом сам может быть заменён; nil означает "оставить как есть".
type UpdateUserDTO struct {
	Login    *string `json:"login,omitempty"`
	Name     *string `json:"name,omitempty"`
	Password *string `json:"password,omitempty"`
	Email    *string `json:"email,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// HasUpdatableFields сообщает, задано ли хотя бы одно из изменяемых полей.
// IsActive сам по себе обновлением не считается.
func (d UpdateUserDTO) HasUpdatableFields() bool {
	return d.Login != nil || d.Name != nil || d.Password != nil || d.Email != nil
}

// LoginDTO несёт данные для входа: логин или email плюс пароль.
type LoginDTO struct {
	Login    string `json:"login,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

func (d LoginDTO) Validate() error {
	if d.Login == "" && d.Email == "" {
		return ErrLoginOrEmailRequired
	}

	return nil
}

// ChangePasswordDTO — данные для смены пароля.
type ChangePasswordDTO struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}
