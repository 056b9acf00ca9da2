package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
)

// Репозиторий для работы с пользователями.
type Repository interface {
	Create(ctx context.Context, user *User) (*User, error)
	ExistsConflicting(ctx context.Context, user *User) (bool, error)
	FindByIDOrLogin(ctx context.Context, id *uuid.UUID, login *string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, dto UpdateUserDTO) (*User, error)
	Delete(ctx context.Context, id *uuid.UUID, login *string) error
	ListAll(ctx context.Context) ([]User, error)
}

// DB покрывает и pgxpool.Pool, и pgxmock в тестах.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

type repository struct {
	db DB
}

func NewRepository(db DB) Repository {
	return &repository{db: db}
}

const userColumns = "id, login, name, email, password, is_active, created_at, updated_at"

// Create вставляет нового пользователя. Сервис проверяет конфликты заранее
// через ExistsConflicting, но сама вставка остаётся атомарным сигналом:
// нарушение уникального индекса отображается в ErrLoginExists/ErrEmailExists,
// так что гонка между проверкой и вставкой не приводит к дублям.
func (r *repository) Create(ctx context.Context, user *User) (*User, error) {
	query := `
        INSERT INTO users (id, login, name, email, password, is_active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `

	_, err := r.db.Exec(ctx, query,
		user.ID,
		user.Login,
		user.Name,
		user.Email,
		user.Password,
		user.IsActive,
		user.CreatedAt,
		user.CreatedAt,
	)
	if err != nil {
		if conflictErr := mapUniqueViolation(err); conflictErr != nil {
			return nil, conflictErr
		}
		log.Error().Err(err).Str("login", user.Login).Msg("Failed to insert user")
		return nil, fmt.Errorf("failed to insert user %q: %w", user.Login, err)
	}

	log.Info().Str("login", user.Login).Msg("User inserted")
	return user, nil
}

// ExistsConflicting ищет строку с тем же логином или email. При совпадении
// возвращает true вместе с конкретной ошибкой конфликта, логин проверяется
// раньше email. Совпадение с самим пользователем тоже считается конфликтом,
// поэтому вызывать стоит только для ещё не сохранённых сущностей.
func (r *repository) ExistsConflicting(ctx context.Context, user *User) (bool, error) {
	query := `
        SELECT login, email
        FROM users
        WHERE login = $1 OR email = $2
        LIMIT 1
    `

	var existingLogin, existingEmail string

	err := r.db.QueryRow(ctx, query, user.Login, user.Email).Scan(&existingLogin, &existingEmail)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		log.Error().Err(err).Str("login", user.Login).Msg("Failed to check for conflicting user")
		return false, fmt.Errorf("failed to check for conflicting user: %w", err)
	}

	if user.Login == existingLogin {
		log.Warn().Str("login", user.Login).Msg("User with this login already exists")
		return true, ErrLoginExists
	}
	if user.Email == existingEmail {
		log.Warn().Str("email", user.Email).Msg("User with this email already exists")
		return true, ErrEmailExists
	}

	return true, nil
}

// FindByIDOrLogin требует хотя бы один идентификатор; при обоих заданных
// поиск идёт по id.
func (r *repository) FindByIDOrLogin(ctx context.Context, id *uuid.UUID, login *string) (*User, error) {
	if id == nil && login == nil {
		return nil, ErrMissingIdentifier
	}

	query := "SELECT " + userColumns + " FROM users WHERE "

	var arg interface{}
	if id != nil {
		query += "id = $1"
		arg = *id
	} else {
		query += "login = $1"
		arg = *login
	}

	var u User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&u.ID,
		&u.Login,
		&u.Name,
		&u.Email,
		&u.Password,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Msg("Failed to find user by id or login")
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return &u, nil
}

// FindByEmail ищет пользователя по email; нужен потоку входа, где логин
// может быть не указан.
func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE email = $1"

	var u User
	err := r.db.QueryRow(ctx, query, email).Scan(
		&u.ID,
		&u.Login,
		&u.Name,
		&u.Email,
		&u.Password,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Msg("Failed to find user by email")
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	return &u, nil
}

// Update ищет пользователя по логину из DTO и перезаписывает только заданные
// поля; отсутствующие сохраняют прежние значения. updated_at обновляется
// в той же команде.
func (r *repository) Update(ctx context.Context, dto UpdateUserDTO) (*User, error) {
	if !dto.HasUpdatableFields() {
		return nil, ErrNoUpdatableFields
	}

	if dto.Login == nil {
		// Ключ поиска — логин; без него строка заведомо не найдётся.
		return nil, ErrNotFound
	}

	query := `
        UPDATE users
        SET name = COALESCE($2, name),
            email = COALESCE($3, email),
            password = COALESCE($4, password),
            is_active = COALESCE($5, is_active),
            updated_at = now()
        WHERE login = $1
        RETURNING ` + userColumns

	var u User
	err := r.db.QueryRow(ctx, query,
		*dto.Login,
		dto.Name,
		dto.Email,
		dto.Password,
		dto.IsActive,
	).Scan(
		&u.ID,
		&u.Login,
		&u.Name,
		&u.Email,
		&u.Password,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Warn().Str("login", *dto.Login).Msg("User not found for update")
			return nil, ErrNotFound
		}
		if conflictErr := mapUniqueViolation(err); conflictErr != nil {
			return nil, conflictErr
		}
		log.Error().Err(err).Str("login", *dto.Login).Msg("Failed to update user")
		return nil, fmt.Errorf("failed to update user %q: %w", *dto.Login, err)
	}

	log.Info().Str("login", u.Login).Msg("User updated")
	return &u, nil
}

// Delete удаляет пользователя по id или логину; требуется хотя бы один.
func (r *repository) Delete(ctx context.Context, id *uuid.UUID, login *string) error {
	if id == nil && login == nil {
		return ErrMissingIdentifier
	}

	query := "DELETE FROM users WHERE id = $1 OR login = $2"

	tag, err := r.db.Exec(ctx, query, id, login)
	if err != nil {
		log.Error().Err(err).Msg("Failed to delete user")
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	log.Info().Msg("User deleted")
	return nil
}

// ListAll возвращает всех пользователей в естественном порядке хранения.
func (r *repository) ListAll(ctx context.Context) ([]User, error) {
	query := "SELECT " + userColumns + " FROM users"

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list users")
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(
			&u.ID,
			&u.Login,
			&u.Name,
			&u.Email,
			&u.Password,
			&u.IsActive,
			&u.CreatedAt,
			&u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user rows: %w", err)
	}

	return users, nil
}

// mapUniqueViolation переводит нарушение уникального индекса в доменную
// ошибку конфликта; nil, если ошибка не о том.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return nil
	}

	switch pgErr.ConstraintName {
	case "users_login_key":
		return ErrLoginExists
	case "users_email_key":
		return ErrEmailExists
	default:
		return nil
	}
}
