package user_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/openverse/user-service/internal/user"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) (*user.User, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) ExistsConflicting(ctx context.Context, u *user.User) (bool, error) {
	args := m.Called(ctx, u)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) FindByIDOrLogin(ctx context.Context, id *uuid.UUID, login *string) (*user.User, error) {
	args := m.Called(ctx, id, login)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, dto user.UpdateUserDTO) (*user.User, error) {
	args := m.Called(ctx, dto)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, id *uuid.UUID, login *string) error {
	args := m.Called(ctx, id, login)
	return args.Error(0)
}

func (m *MockUserRepository) ListAll(ctx context.Context) ([]user.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]user.User), args.Error(1)
}

func newTestService(repo user.Repository) user.Service {
	return user.NewService(repo, user.PlainHasher{}, false)
}

func TestUserService_CreateUser_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := newTestService(mockRepo)

	dto := user.CreateUserDTO{
		Login:    "alice01",
		Name:     "Alice",
		Password: "Secret1!",
		Email:    "a@x.com",
	}

	mockRepo.On("ExistsConflicting", mock.Anything, mock.AnythingOfType("*user.User")).
		Return(false, nil).
		Once()
	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *user.User) bool {
		return u.Login == dto.Login &&
			u.Name == dto.Name &&
			u.Email == dto.Email &&
			u.Password == dto.Password &&
			u.IsActive &&
			u.ID != uuid.Nil
	})).Return(&user.User{ID: uuid.Must(uuid.NewV4()), Login: dto.Login}, nil).Once()

	createdUser, err := userService.CreateUser(context.Background(), dto)

	require.NoError(t, err)
	require.NotNil(t, createdUser)
	require.Equal(t, dto.Login, createdUser.Login)
	mockRepo.AssertExpectations(t)
}

func TestUserService_CreateUser_ValidationFailure(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := newTestService(mockRepo)

	dto := user.CreateUserDTO{
		Login:    "bad",
		Name:     "Alice",
		Password: "Secret1!",
		Email:    "a@x.com",
	}

	createdUser, err := userService.CreateUser(context.Background(), dto)
	require.Error(t, err)
	require.ErrorIs(t, err, user.ErrValidation)
	require.Nil(t, createdUser)
	// До репозитория дело не доходит.
	mockRepo.AssertNotCalled(t, "ExistsConflicting", mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUserService_CreateUser_ConflictSoft(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := newTestService(mockRepo)

	dto := user.CreateUserDTO{
		Login:    "alice01",
		Name:     "Alice",
		Password: "Secret1!",
		Email:    "a@x.com",
	}

	mockRepo.On("ExistsConflicting", mock.Anything, mock.AnythingOfType("*user.User")).
		Return(true, user.ErrLoginExists).
		Once()

	createdUser, err := userService.CreateUser(context.Background(), dto)
	require.NoError(t, err)
	require.Nil(t, createdUser)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestUserService_CreateUser_ConflictStrict(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := user.NewService(mockRepo, user.PlainHasher{}, true)

	dto := user.CreateUserDTO{
		Login:    "alice01",
		Name:     "Alice",
		Password: "Secret1!",
		Email:    "a@x.com",
	}

	mockRepo.On("ExistsConflicting", mock.Anything, mock.AnythingOfType("*user.User")).
		Return(true, user.ErrEmailExists).
		Once()

	createdUser, err := userService.CreateUser(context.Background(), dto)
	require.Error(t, err)
	require.ErrorIs(t, err, user.ErrEmailExists)
	require.Nil(t, createdUser)
	mockRepo.AssertExpectations(t)
}

func TestUserService_CreateUser_BcryptHasher(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := user.NewService(mockRepo, user.BcryptHasher{}, false)

	dto := user.CreateUserDTO{
		Login:    "alice01",
		Name:     "Alice",
		Password: "Secret1!",
		Email:    "a@x.com",
	}

	mockRepo.On("ExistsConflicting", mock.Anything, mock.AnythingOfType("*user.User")).
		Return(false, nil).
		Once()
	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *user.User) bool {
		return u.Password != dto.Password &&
			bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(dto.Password)) == nil
	})).Return(&user.User{Login: dto.Login}, nil).Once()

	createdUser, err := userService.CreateUser(context.Background(), dto)
	require.NoError(t, err)
	require.NotNil(t, createdUser)
	mockRepo.AssertExpectations(t)
}

func TestUserService_GetUserByIDOrLogin_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := newTestService(mockRepo)

	userID := uuid.Must(uuid.NewV4())
	expectedUser := user.User{
		ID:        userID,
		Login:     "alice01",
		Name:      "Alice",
		Email:     "a@x.com",
		Password:  "Secret1!",
		IsActive:  true,
		CreatedAt: time.Now().Add(-time.Hour),
		UpdatedAt: time.Now(),
	}

	mockRepo.On("FindByIDOrLogin", mock.Anything, &userID, (*string)(nil)).
		Return(&expectedUser, nil).
		Once()

	foundUser, err := userService.GetUserByIDOrLogin(context.Background(), &userID, nil)

	require.NoError(t, err)
	require.NotNil(t, foundUser)
	diff := cmp.Diff(expectedUser, *foundUser)
	require.Empty(t, diff)
	mockRepo.AssertExpectations(t)
}

func TestUserService_GetUserByIDOrLogin_NotFound(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := newTestService(mockRepo)

	userID := uuid.Must(uuid.NewV4())

	mockRepo.On("FindByIDOrLogin", mock.Anything, &userID, (*string)(nil)).
		Return(nil, user.ErrNotFound).
		Once()

	foundUser, err := userService.GetUserByIDOrLogin(context.Background(), &userID, nil)
	require.Error(t, err)
	require.ErrorIs(t, err, user.ErrNotFound)
	require.Nil(t, foundUser)
	mockRepo.AssertExpectations(t)
}

func TestUserService_GetUserByIDOrLogin_MissingIdentifier(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := newTestService(mockRepo)

	mockRepo.On("FindByIDOrLogin", mock.Anything, (*uuid.UUID)(nil), (*string)(nil)).
		Return(nil, user.ErrMissingIdentifier).
		Once()

	foundUser, err := userService.GetUserByIDOrLogin(context.Background(), nil, nil)
	require.ErrorIs(t, err, user.ErrMissingIdentifier)
	require.Nil(t, foundUser)
	mockRepo.AssertExpectations(t)
}

func TestUserService_UpdateUser_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := newTestService(mockRepo)

	login := "alice01"
	newName := "Alice Updated"
	dto := user.UpdateUserDTO{Login: &login, Name: &newName}

	updatedUser := user.User{
		ID:       uuid.Must(uuid.NewV4()),
		Login:    login,
		Name:     newName,
		Email:    "a@x.com",
		IsActive: true,
	}

	mockRepo.On("Update", mock.Anything, dto).
		Return(&updatedUser, nil).
		Once()

	result, err := userService.UpdateUser(context.Background(), dto)
	require.NoError(t, err)
	require.Equal(t, newName, result.Name)
	mockRepo.AssertExpectations(t)
}

func TestUserService_UpdateUser_HashesPassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := user.NewService(mockRepo, user.BcryptHasher{}, false)

	login := "alice01"
	rawPassword := "Newpass2#"
	dto := user.UpdateUserDTO{Login: &login, Password: &rawPassword}

	mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(d user.UpdateUserDTO) bool {
		return d.Password != nil &&
			*d.Password != rawPassword &&
			bcrypt.CompareHashAndPassword([]byte(*d.Password), []byte(rawPassword)) == nil
	})).Return(&user.User{Login: login}, nil).Once()

	_, err := userService.UpdateUser(context.Background(), dto)
	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestUserService_UpdateUser_NoUpdatableFields(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := newTestService(mockRepo)

	dto := user.UpdateUserDTO{}

	mockRepo.On("Update", mock.Anything, dto).
		Return(nil, user.ErrNoUpdatableFields).
		Once()

	result, err := userService.UpdateUser(context.Background(), dto)
	require.ErrorIs(t, err, user.ErrNoUpdatableFields)
	require.Nil(t, result)
	mockRepo.AssertExpectations(t)
}

func TestUserService_UpdateUser_NotFound(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := newTestService(mockRepo)

	login := "ghostuser"
	name := "Ghost"
	dto := user.UpdateUserDTO{Login: &login, Name: &name}

	mockRepo.On("Update", mock.Anything, dto).
		Return(nil, user.ErrNotFound).
		Once()

	result, err := userService.UpdateUser(context.Background(), dto)
	require.ErrorIs(t, err, user.ErrNotFound)
	require.Nil(t, result)
	mockRepo.AssertExpectations(t)
}

func TestUserService_DeleteUser_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := newTestService(mockRepo)

	userID := uuid.Must(uuid.NewV4())

	mockRepo.On("Delete", mock.Anything, &userID, (*string)(nil)).
		Return(nil).
		Once()

	err := userService.DeleteUser(context.Background(), &userID, nil)
	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestUserService_DeleteUser_NotFound(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := newTestService(mockRepo)

	login := "ghostuser"

	mockRepo.On("Delete", mock.Anything, (*uuid.UUID)(nil), &login).
		Return(user.ErrNotFound).
		Once()

	err := userService.DeleteUser(context.Background(), nil, &login)
	require.ErrorIs(t, err, user.ErrNotFound)
	mockRepo.AssertExpectations(t)
}

func TestUserService_ListUsers_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := newTestService(mockRepo)

	expected := []user.User{
		{Login: "alice01"},
		{Login: "bob0123"},
	}

	mockRepo.On("ListAll", mock.Anything).
		Return(expected, nil).
		Once()

	users, err := userService.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	mockRepo.AssertExpectations(t)
}

func TestUserService_DeactivateUser_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := newTestService(mockRepo)

	userID := uuid.Must(uuid.NewV4())
	existing := user.User{
		ID:       userID,
		Login:    "alice01",
		Name:     "Alice",
		Email:    "a@x.com",
		IsActive: true,
	}

	mockRepo.On("FindByIDOrLogin", mock.Anything, &userID, (*string)(nil)).
		Return(&existing, nil).
		Once()
	mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(d user.UpdateUserDTO) bool {
		return d.Login != nil && *d.Login == existing.Login &&
			d.Name != nil && *d.Name == existing.Name &&
			d.Email != nil && *d.Email == existing.Email &&
			d.IsActive != nil && !*d.IsActive &&
			d.Password == nil
	})).Return(&user.User{ID: userID, Login: existing.Login, IsActive: false}, nil).Once()

	result, err := userService.DeactivateUser(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.False(t, result.IsActive)
	mockRepo.AssertExpectations(t)
}

func TestUserService_ActivateUser_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := newTestService(mockRepo)

	userID := uuid.Must(uuid.NewV4())
	existing := user.User{
		ID:       userID,
		Login:    "alice01",
		Name:     "Alice",
		Email:    "a@x.com",
		IsActive: false,
	}

	mockRepo.On("FindByIDOrLogin", mock.Anything, &userID, (*string)(nil)).
		Return(&existing, nil).
		Once()
	mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(d user.UpdateUserDTO) bool {
		return d.IsActive != nil && *d.IsActive
	})).Return(&user.User{ID: userID, Login: existing.Login, IsActive: true}, nil).Once()

	result, err := userService.ActivateUser(context.Background(), userID)
	require.NoError(t, err)
	require.True(t, result.IsActive)
	mockRepo.AssertExpectations(t)
}

func TestUserService_DeactivateUser_MissingUserIsSoft(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := newTestService(mockRepo)

	userID := uuid.Must(uuid.NewV4())

	mockRepo.On("FindByIDOrLogin", mock.Anything, &userID, (*string)(nil)).
		Return(nil, user.ErrNotFound).
		Once()

	result, err := userService.DeactivateUser(context.Background(), userID)
	require.NoError(t, err)
	require.Nil(t, result)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestUserService_LogIn_ByLogin_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := newTestService(mockRepo)

	login := "alice01"
	existing := user.User{Login: login, Email: "a@x.com", Password: "Secret1!", IsActive: true}

	mockRepo.On("FindByIDOrLogin", mock.Anything, (*uuid.UUID)(nil), &login).
		Return(&existing, nil).
		Once()

	result, err := userService.LogIn(context.Background(), user.LoginDTO{
		Login:    login,
		Password: "Secret1!",
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Equal(t, login, result.Login)
	mockRepo.AssertExpectations(t)
}

func TestUserService_LogIn_ByEmail_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := newTestService(mockRepo)

	existing := user.User{Login: "alice01", Email: "a@x.com", Password: "Secret1!"}

	mockRepo.On("FindByEmail", mock.Anything, "a@x.com").
		Return(&existing, nil).
		Once()

	result, err := userService.LogIn(context.Background(), user.LoginDTO{
		Email:    "a@x.com",
		Password: "Secret1!",
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	mockRepo.AssertExpectations(t)
}

func TestUserService_LogIn_WrongPasswordIsSoft(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := newTestService(mockRepo)

	login := "alice01"
	existing := user.User{Login: login, Password: "Secret1!"}

	mockRepo.On("FindByIDOrLogin", mock.Anything, (*uuid.UUID)(nil), &login).
		Return(&existing, nil).
		Once()

	result, err := userService.LogIn(context.Background(), user.LoginDTO{
		Login:    login,
		Password: "Wrongpass3!",
	})
	require.NoError(t, err)
	require.Nil(t, result)
	mockRepo.AssertExpectations(t)
}

func TestUserService_LogIn_NoIdentifier(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := newTestService(mockRepo)

	result, err := userService.LogIn(context.Background(), user.LoginDTO{Password: "Secret1!"})
	require.ErrorIs(t, err, user.ErrLoginOrEmailRequired)
	require.Nil(t, result)
}

func TestUserService_ChangeUserPassword_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := newTestService(mockRepo)

	login := "alice01"
	existing := user.User{Login: login, Name: "Alice", Email: "a@x.com", Password: "Secret1!"}

	mockRepo.On("FindByIDOrLogin", mock.Anything, (*uuid.UUID)(nil), &login).
		Return(&existing, nil).
		Once()
	mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(d user.UpdateUserDTO) bool {
		return d.Login != nil && *d.Login == login &&
			d.Password != nil && *d.Password == "Newpass2#"
	})).Return(&user.User{Login: login}, nil).Once()

	result, err := userService.ChangeUserPassword(context.Background(), login, user.ChangePasswordDTO{
		OldPassword: "Secret1!",
		NewPassword: "Newpass2#",
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	mockRepo.AssertExpectations(t)
}

func TestUserService_ChangeUserPassword_SamePassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := newTestService(mockRepo)

	login := "alice01"
	existing := user.User{Login: login, Password: "Secret1!"}

	mockRepo.On("FindByIDOrLogin", mock.Anything, (*uuid.UUID)(nil), &login).
		Return(&existing, nil).
		Once()

	result, err := userService.ChangeUserPassword(context.Background(), login, user.ChangePasswordDTO{
		OldPassword: "Secret1!",
		NewPassword: "Secret1!",
	})
	require.ErrorIs(t, err, user.ErrSamePassword)
	require.Nil(t, result)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestUserService_ChangeUserPassword_WrongOldPasswordIsSoft(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := newTestService(mockRepo)

	login := "alice01"
	existing := user.User{Login: login, Password: "Secret1!"}

	mockRepo.On("FindByIDOrLogin", mock.Anything, (*uuid.UUID)(nil), &login).
		Return(&existing, nil).
		Once()

	result, err := userService.ChangeUserPassword(context.Background(), login, user.ChangePasswordDTO{
		OldPassword: "Wrongpass3!",
		NewPassword: "Newpass2#",
	})
	require.NoError(t, err)
	require.Nil(t, result)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestUserService_CreateUser_RepositoryError(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := newTestService(mockRepo)

	dto := user.CreateUserDTO{
		Login:    "alice01",
		Name:     "Alice",
		Password: "Secret1!",
		Email:    "a@x.com",
	}

	mockRepo.On("ExistsConflicting", mock.Anything, mock.AnythingOfType("*user.User")).
		Return(false, errors.New("connection refused")).
		Once()

	createdUser, err := userService.CreateUser(context.Background(), dto)
	require.Error(t, err)
	require.Nil(t, createdUser)
	mockRepo.AssertExpectations(t)
}
