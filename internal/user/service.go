package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

type Service interface {
	CreateUser(ctx context.Context, dto CreateUserDTO) (*User, error)
	GetUserByIDOrLogin(ctx context.Context, id *uuid.UUID, login *string) (*User, error)
	UpdateUser(ctx context.Context, dto UpdateUserDTO) (*User, error)
	DeleteUser(ctx context.Context, id *uuid.UUID, login *string) error
	ListUsers(ctx context.Context) ([]User, error)
	ActivateUser(ctx context.Context, id uuid.UUID) (*User, error)
	DeactivateUser(ctx context.Context, id uuid.UUID) (*User, error)
	LogIn(ctx context.Context, dto LoginDTO) (*User, error)
	ChangeUserPassword(ctx context.Context, login string, dto ChangePasswordDTO) (*User, error)
}

type service struct {
	repo   Repository
	hasher PasswordHasher

	// strictConflicts переключает поведение CreateUser при занятом
	// логине или email: при false возвращается мягкий пустой результат,
	// при true ошибка конфликта.
	strictConflicts bool
}

func NewService(repo Repository, hasher PasswordHasher, strictConflicts bool) Service {
	if hasher == nil {
		hasher = PlainHasher{}
	}
	return &service{repo: repo, hasher: hasher, strictConflicts: strictConflicts}
}

// CreateUser собирает и валидирует сущность, проверяет конфликты и сохраняет.
// Конфликт логина/email в мягком режиме возвращает nil без ошибки.
func (s *service) CreateUser(ctx context.Context, dto CreateUserDTO) (*User, error) {
	log.Info().Str("login", dto.Login).Msg("Creating user")

	newUser, err := NewUser(dto)
	if err != nil {
		log.Warn().Err(err).Str("login", dto.Login).Msg("User validation failed")
		return nil, err
	}

	newUser.Password, err = s.hasher.Hash(newUser.Password)
	if err != nil {
		log.Error().Err(err).Msg("Failed to prepare password for storage")
		return nil, fmt.Errorf("failed to prepare password: %w", err)
	}

	exists, err := s.repo.ExistsConflicting(ctx, newUser)
	if err != nil {
		if errors.Is(err, ErrLoginExists) || errors.Is(err, ErrEmailExists) {
			if s.strictConflicts {
				return nil, err
			}
			log.Warn().Err(err).Str("login", dto.Login).Msg("User already exists, create skipped")
			return nil, nil
		}
		log.Error().Err(err).Str("login", dto.Login).Msg("Failed to check for existing user")
		return nil, fmt.Errorf("failed to check for existing user: %w", err)
	}
	if exists {
		return nil, nil
	}

	created, err := s.repo.Create(ctx, newUser)
	if err != nil {
		log.Error().Err(err).Str("login", dto.Login).Msg("Failed to create user")
		return nil, err
	}

	log.Info().Str("login", created.Login).Msg("User created")
	return created, nil
}

func (s *service) GetUserByIDOrLogin(ctx context.Context, id *uuid.UUID, login *string) (*User, error) {
	foundUser, err := s.repo.FindByIDOrLogin(ctx, id, login)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrMissingIdentifier) {
			return nil, err
		}
		log.Error().Err(err).Msg("Failed to get user by id or login")
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return foundUser, nil
}

func (s *service) UpdateUser(ctx context.Context, dto UpdateUserDTO) (*User, error) {
	if dto.Password != nil {
		hashed, err := s.hasher.Hash(*dto.Password)
		if err != nil {
			log.Error().Err(err).Msg("Failed to prepare password for storage")
			return nil, fmt.Errorf("failed to prepare password: %w", err)
		}
		dto.Password = &hashed
	}

	updated, err := s.repo.Update(ctx, dto)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNoUpdatableFields) ||
			errors.Is(err, ErrLoginExists) || errors.Is(err, ErrEmailExists) {
			return nil, err
		}
		log.Error().Err(err).Msg("Failed to update user")
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	log.Info().Str("login", updated.Login).Msg("User updated via service")
	return updated, nil
}

func (s *service) DeleteUser(ctx context.Context, id *uuid.UUID, login *string) error {
	err := s.repo.Delete(ctx, id, login)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrMissingIdentifier) {
			return err
		}
		log.Error().Err(err).Msg("Failed to delete user")
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return nil
}

func (s *service) ListUsers(ctx context.Context) ([]User, error) {
	users, err := s.repo.ListAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list users")
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	log.Info().Int("count", len(users)).Msg("Users listed")
	return users, nil
}

func (s *service) ActivateUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.setActive(ctx, id, true)
}

func (s *service) DeactivateUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.setActive(ctx, id, false)
}

// setActive переключает is_active через обычное обновление, перенося текущие
// логин, имя и email. Отсутствующий пользователь даёт мягкий пустой результат.
func (s *service) setActive(ctx context.Context, id uuid.UUID, active bool) (*User, error) {
	foundUser, err := s.GetUserByIDOrLogin(ctx, &id, nil)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn().Str("user_id", id.String()).Bool("active", active).Msg("User not found, activation state unchanged")
			return nil, nil
		}
		return nil, err
	}

	dto := UpdateUserDTO{
		Login:    &foundUser.Login,
		Name:     &foundUser.Name,
		Email:    &foundUser.Email,
		IsActive: &active,
	}

	updated, err := s.UpdateUser(ctx, dto)
	if err != nil {
		return nil, err
	}

	log.Info().Str("login", updated.Login).Bool("active", active).Msg("User activation state changed")
	return updated, nil
}

// LogIn ищет пользователя по логину (приоритетно) или email и сверяет пароль.
// Неверный пароль даёт мягкий пустой результат; неизвестный пользователь
// возвращает ErrNotFound, как при явном поиске.
func (s *service) LogIn(ctx context.Context, dto LoginDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var (
		foundUser *User
		err       error
	)

	if dto.Login != "" {
		foundUser, err = s.GetUserByIDOrLogin(ctx, nil, &dto.Login)
	} else {
		foundUser, err = s.repo.FindByEmail(ctx, dto.Email)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		log.Error().Err(err).Msg("Failed to find user for login")
		return nil, fmt.Errorf("failed to find user for login: %w", err)
	}

	if !s.hasher.Compare(foundUser.Password, dto.Password) {
		log.Warn().Str("login", foundUser.Login).Msg("Login rejected: password mismatch")
		return nil, nil
	}

	log.Info().Str("login", foundUser.Login).Msg("User logged in")
	return foundUser, nil
}

// ChangeUserPassword проверяет старый пароль и проводит новый через правила
// сущности, затем сохраняет.
func (s *service) ChangeUserPassword(ctx context.Context, login string, dto ChangePasswordDTO) (*User, error) {
	foundUser, err := s.GetUserByIDOrLogin(ctx, nil, &login)
	if err != nil {
		return nil, err
	}

	if !s.hasher.Compare(foundUser.Password, dto.OldPassword) {
		log.Warn().Str("login", login).Msg("Password change rejected: old password mismatch")
		return nil, nil
	}

	if s.hasher.Compare(foundUser.Password, dto.NewPassword) {
		return nil, ErrSamePassword
	}

	if err := foundUser.ChangePassword(dto.NewPassword); err != nil {
		return nil, err
	}

	stored, err := s.hasher.Hash(foundUser.Password)
	if err != nil {
		log.Error().Err(err).Msg("Failed to prepare password for storage")
		return nil, fmt.Errorf("failed to prepare password: %w", err)
	}

	updateDTO := UpdateUserDTO{
		Login:    &foundUser.Login,
		Password: &stored,
	}

	updated, err := s.repo.Update(ctx, updateDTO)
	if err != nil {
		log.Error().Err(err).Str("login", login).Msg("Failed to store new password")
		return nil, fmt.Errorf("failed to store new password: %w", err)
	}

	log.Info().Str("login", login).Msg("Password changed")
	return updated, nil
}
