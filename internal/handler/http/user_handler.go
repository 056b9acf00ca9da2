package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/openverse/user-service/internal/user"
)

type CreateUserRequest struct {
	Login    string `json:"login" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

type UpdateUserRequest struct {
	Login    *string `json:"login,omitempty"`
	Name     *string `json:"name,omitempty"`
	Password *string `json:"password,omitempty"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	IsActive *bool   `json:"is_active,omitempty"`
}

type LogInRequest struct {
	Login    string `json:"login,omitempty"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// UserResponse — все поля пользователя, кроме пароля.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Login     string    `json:"login"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Login:     u.Login,
		Name:      u.Name,
		Email:     u.Email,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type UserHandler struct {
	service  user.Service
	validate *validator.Validate
}

func NewUserHandler(service user.Service) *UserHandler {
	validate := validator.New()
	return &UserHandler{
		service:  service,
		validate: validate,
	}
}

func (h *UserHandler) RegisterRoutes(router chi.Router) {
	router.Post("/users/create", h.handleCreateUser)
	router.Get("/users/get/{id}", h.handleGetUserByID)
	router.Get("/users/login/{login}", h.handleGetUserByLogin)
	router.Put("/users/update", h.handleUpdateUser)
	router.Get("/users/get_all", h.handleGetAllUsers)
	router.Delete("/users/delete/{id}", h.handleDeleteUserByID)
	router.Delete("/users/delete/login/{login}", h.handleDeleteUserByLogin)
	router.Post("/users/log_in", h.handleLogIn)
	router.Put("/users/password/{login}", h.handleChangePassword)
}

// decodeAndValidate разбирает тело запроса и прогоняет его через validator.
// Ответ об ошибке уже отправлен, если вернулось false.
func (h *UserHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, payload interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(payload); err != nil {
		log.Error().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request payload %v", err))
		return false
	}

	if err := h.validate.Struct(payload); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
				Error:   "Validation failed",
				Details: formatValidationErrors(validationErrors),
			})
		} else {
			log.Error().Err(err).Type("validation_error_type", err).Msg("Unexpected error type during validation")
			respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		}
		return false
	}

	return true
}

func (h *UserHandler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateUserRequest
	if !h.decodeAndValidate(w, r, &requestPayload) {
		return
	}

	dto := user.CreateUserDTO{
		Login:    requestPayload.Login,
		Name:     requestPayload.Name,
		Password: requestPayload.Password,
		Email:    requestPayload.Email,
	}

	createdUser, err := h.service.CreateUser(r.Context(), dto)
	if err != nil {
		log.Error().Err(err).Str("login", dto.Login).Msg("Failed to create user via service")

		statusCode := mapErrorToStatusCode(err)

		var clientMessage string

		var validationErr *user.ValidationError
		switch {
		case errors.As(err, &validationErr):
			clientMessage = validationErr.Error()
		case errors.Is(err, user.ErrLoginExists):
			clientMessage = "Login already exists"
		case errors.Is(err, user.ErrEmailExists):
			clientMessage = "Email already exists"
		default:
			clientMessage = "Failed to create user"
		}

		respondWithError(w, statusCode, clientMessage)
		return
	}

	// При конфликте создание пропускается, в теле ответа возвращается null.
	if createdUser == nil {
		respondWithJSON(w, http.StatusCreated, nil)
		return
	}

	respondWithJSON(w, http.StatusCreated, toUserResponse(createdUser))
}

func (h *UserHandler) handleGetUserByID(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")
	userID, err := uuid.FromString(idParam)
	if err != nil {
		log.Warn().Err(err).Str("user_id", idParam).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	foundUser, err := h.service.GetUserByIDOrLogin(r.Context(), &userID, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get user by id via service")

		statusCode := mapErrorToStatusCode(err)

		var clientMessage string

		if errors.Is(err, user.ErrNotFound) {
			clientMessage = "User not found"
		} else {
			clientMessage = "Failed to get user by id"
		}

		respondWithError(w, statusCode, clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, toUserResponse(foundUser))
}

func (h *UserHandler) handleGetUserByLogin(w http.ResponseWriter, r *http.Request) {
	loginParam := chi.URLParam(r, "login")
	if loginParam == "" {
		log.Warn().Msg("Failed to parse login from param")
		respondWithError(w, http.StatusBadRequest, "Login parameter cannot be empty")
		return
	}

	foundUser, err := h.service.GetUserByIDOrLogin(r.Context(), nil, &loginParam)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get user by login via service")

		statusCode := mapErrorToStatusCode(err)

		var clientMessage string

		if errors.Is(err, user.ErrNotFound) {
			clientMessage = "User not found"
		} else {
			clientMessage = "Failed to get user by login"
		}

		respondWithError(w, statusCode, clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, toUserResponse(foundUser))
}

func (h *UserHandler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var requestPayload UpdateUserRequest
	if !h.decodeAndValidate(w, r, &requestPayload) {
		return
	}

	dto := user.UpdateUserDTO{
		Login:    requestPayload.Login,
		Name:     requestPayload.Name,
		Password: requestPayload.Password,
		Email:    requestPayload.Email,
		IsActive: requestPayload.IsActive,
	}

	updatedUser, err := h.service.UpdateUser(r.Context(), dto)
	if err != nil {
		log.Error().Err(err).Msg("Failed to update user via service")

		statusCode := mapErrorToStatusCode(err)

		var clientMessage string

		switch {
		case errors.Is(err, user.ErrNotFound):
			clientMessage = "User not found"
		case errors.Is(err, user.ErrNoUpdatableFields):
			clientMessage = "No fields to update"
		case errors.Is(err, user.ErrLoginExists):
			clientMessage = "Login already exists"
		case errors.Is(err, user.ErrEmailExists):
			clientMessage = "Email already exists"
		default:
			clientMessage = "Failed to update user"
		}

		respondWithError(w, statusCode, clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, toUserResponse(updatedUser))
}

func (h *UserHandler) handleGetAllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list users via service")
		respondWithError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}

	responsePayload := make([]UserResponse, 0, len(users))
	for i := range users {
		responsePayload = append(responsePayload, toUserResponse(&users[i]))
	}

	respondWithJSON(w, http.StatusOK, responsePayload)
}

func (h *UserHandler) handleDeleteUserByID(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")
	userID, err := uuid.FromString(idParam)
	if err != nil {
		log.Warn().Err(err).Str("user_id", idParam).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	h.deleteUser(w, r, &userID, nil)
}

func (h *UserHandler) handleDeleteUserByLogin(w http.ResponseWriter, r *http.Request) {
	loginParam := chi.URLParam(r, "login")
	if loginParam == "" {
		log.Warn().Msg("Failed to parse login from param")
		respondWithError(w, http.StatusBadRequest, "Login parameter cannot be empty")
		return
	}

	h.deleteUser(w, r, nil, &loginParam)
}

func (h *UserHandler) deleteUser(w http.ResponseWriter, r *http.Request, id *uuid.UUID, login *string) {
	err := h.service.DeleteUser(r.Context(), id, login)
	if err != nil {
		log.Error().Err(err).Msg("Failed to delete user via service")

		statusCode := mapErrorToStatusCode(err)

		var clientMessage string

		if errors.Is(err, user.ErrNotFound) {
			clientMessage = "User not found"
		} else {
			clientMessage = "Failed to delete user"
		}

		respondWithError(w, statusCode, clientMessage)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) handleLogIn(w http.ResponseWriter, r *http.Request) {
	var requestPayload LogInRequest
	if !h.decodeAndValidate(w, r, &requestPayload) {
		return
	}

	dto := user.LoginDTO{
		Login:    requestPayload.Login,
		Email:    requestPayload.Email,
		Password: requestPayload.Password,
	}

	loggedInUser, err := h.service.LogIn(r.Context(), dto)
	if err != nil {
		log.Error().Err(err).Msg("Failed to log in user via service")

		statusCode := mapErrorToStatusCode(err)

		var clientMessage string

		switch {
		case errors.Is(err, user.ErrNotFound):
			clientMessage = "User not found"
		case errors.Is(err, user.ErrLoginOrEmailRequired):
			clientMessage = "Either login or email must be provided"
		default:
			clientMessage = "Failed to log in user"
		}

		respondWithError(w, statusCode, clientMessage)
		return
	}

	// Неверный пароль возвращает null вместо ошибки.
	if loggedInUser == nil {
		respondWithJSON(w, http.StatusOK, nil)
		return
	}

	respondWithJSON(w, http.StatusOK, toUserResponse(loggedInUser))
}

func (h *UserHandler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	loginParam := chi.URLParam(r, "login")
	if loginParam == "" {
		log.Warn().Msg("Failed to parse login from param")
		respondWithError(w, http.StatusBadRequest, "Login parameter cannot be empty")
		return
	}

	var requestPayload ChangePasswordRequest
	if !h.decodeAndValidate(w, r, &requestPayload) {
		return
	}

	dto := user.ChangePasswordDTO{
		OldPassword: requestPayload.OldPassword,
		NewPassword: requestPayload.NewPassword,
	}

	updatedUser, err := h.service.ChangeUserPassword(r.Context(), loginParam, dto)
	if err != nil {
		log.Error().Err(err).Str("login", loginParam).Msg("Failed to change password via service")

		statusCode := mapErrorToStatusCode(err)

		var clientMessage string

		var validationErr *user.ValidationError
		switch {
		case errors.Is(err, user.ErrNotFound):
			clientMessage = "User not found"
		case errors.Is(err, user.ErrSamePassword):
			clientMessage = "New password matches the old one"
		case errors.As(err, &validationErr):
			clientMessage = validationErr.Error()
		default:
			clientMessage = "Failed to change password"
		}

		respondWithError(w, statusCode, clientMessage)
		return
	}

	// Старый пароль не подошёл.
	if updatedUser == nil {
		respondWithJSON(w, http.StatusOK, nil)
		return
	}

	respondWithJSON(w, http.StatusOK, toUserResponse(updatedUser))
}
