package userservice_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"gorental/internal/domain"
	apperror "gorental/internal/errors"
	"gorental/internal/pkg/logger"
	"gorental/internal/service/userservice"
)

// MockUserRepository é uma implementação mock da interface domain.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user domain.User) (int64, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, userID int64) (domain.User, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, userID int64, fields domain.UserUpdate) (int64, error) {
	args := m.Called(ctx, userID, fields)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockTokenService é uma implementação mock do contrato TokenService
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) GenerateToken(userID int64, username string, userRole string) (string, error) {
	args := m.Called(userID, username, userRole)
	return args.String(0), args.Error(1)
}

func newTestLogger() logger.Logger {
	return logger.NewLogger("debug")
}

// --- Testes para Register ---

func TestRegister_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockTokens := new(MockTokenService)
	svc := userservice.NewService(mockRepo, mockTokens, newTestLogger())

	mockRepo.On("UsernameTaken", mock.Anything, "alice").Return(false, nil)
	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(u domain.User) bool {
		// A senha nunca chega ao repositório em texto puro
		return u.Username == "alice" &&
			u.Role == domain.RoleUser &&
			bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("s3cret")) == nil
	})).Return(int64(7), nil)

	userID, err := svc.Register(context.Background(), domain.UserRegistration{
		Username: "alice",
		Password: "s3cret",
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(7), userID)
	mockRepo.AssertExpectations(t)
}

func TestRegister_Fail_MissingCredentials(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockTokens := new(MockTokenService)
	svc := userservice.NewService(mockRepo, mockTokens, newTestLogger())

	_, err := svc.Register(context.Background(), domain.UserRegistration{Username: "alice"})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_Fail_UsernameTakenPrecheck(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockTokens := new(MockTokenService)
	svc := userservice.NewService(mockRepo, mockTokens, newTestLogger())

	mockRepo.On("UsernameTaken", mock.Anything, "alice").Return(true, nil)

	_, err := svc.Register(context.Background(), domain.UserRegistration{Username: "alice", Password: "s3cret"})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// TestRegister_Fail_UniqueConstraintRace cobre a corrida check-then-insert:
// a pré-checagem passa, mas a constraint UNIQUE do banco rejeita o insert.
// O resultado deve ser o MESMO erro de conflito, nunca um erro genérico.
func TestRegister_Fail_UniqueConstraintRace(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockTokens := new(MockTokenService)
	svc := userservice.NewService(mockRepo, mockTokens, newTestLogger())

	mockRepo.On("UsernameTaken", mock.Anything, "alice").Return(false, nil)
	mockRepo.On("Create", mock.Anything, mock.Anything).Return(int64(0), apperror.NewConflictError("Username already exists", nil))

	_, err := svc.Register(context.Background(), domain.UserRegistration{Username: "alice", Password: "s3cret"})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)
	mockRepo.AssertExpectations(t)
}

// --- Testes para Login ---

func TestLogin_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockTokens := new(MockTokenService)
	svc := userservice.NewService(mockRepo, mockTokens, newTestLogger())

	hashed, _ := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.DefaultCost)
	stored := domain.User{UserID: 7, Username: "alice", Password: string(hashed), Role: domain.RoleUser}

	mockRepo.On("FindByUsername", mock.Anything, "alice").Return(stored, nil)
	mockTokens.On("GenerateToken", int64(7), "alice", "user").Return("signed.jwt.token", nil)

	token, err := svc.Login(context.Background(), "alice", "s3cret")

	assert.NoError(t, err)
	assert.Equal(t, "signed.jwt.token", token)
	mockRepo.AssertExpectations(t)
	mockTokens.AssertExpectations(t)
}

func TestLogin_Fail_WrongPassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockTokens := new(MockTokenService)
	svc := userservice.NewService(mockRepo, mockTokens, newTestLogger())

	hashed, _ := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.DefaultCost)
	stored := domain.User{UserID: 7, Username: "alice", Password: string(hashed)}

	mockRepo.On("FindByUsername", mock.Anything, "alice").Return(stored, nil)

	_, err := svc.Login(context.Background(), "alice", "wrong")

	assert.Error(t, err)
	assert.IsType(t, &apperror.UnauthorizedError{}, err)
	mockTokens.AssertNotCalled(t, "GenerateToken", mock.Anything, mock.Anything, mock.Anything)
}

// TestLogin_Fail_UnknownUser verifica que usuário inexistente e senha errada
// produzem exatamente a mesma mensagem (sem enumeração de usernames).
func TestLogin_Fail_UnknownUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockTokens := new(MockTokenService)
	svc := userservice.NewService(mockRepo, mockTokens, newTestLogger())

	mockRepo.On("FindByUsername", mock.Anything, "ghost").Return(domain.User{}, apperror.NewNotFoundError("Usuário 'ghost' não encontrado"))

	_, unknownErr := svc.Login(context.Background(), "ghost", "whatever")

	hashed, _ := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.DefaultCost)
	mockRepo.On("FindByUsername", mock.Anything, "alice").Return(domain.User{UserID: 7, Username: "alice", Password: string(hashed)}, nil)

	_, wrongPassErr := svc.Login(context.Background(), "alice", "wrong")

	assert.Error(t, unknownErr)
	assert.Error(t, wrongPassErr)
	assert.Equal(t, unknownErr.Error(), wrongPassErr.Error())
}

// --- Testes para Update ---

// TestUpdate_HashesPassword garante que a senha é hasheada no serviço antes
// de chegar ao repositório.
func TestUpdate_HashesPassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockTokens := new(MockTokenService)
	svc := userservice.NewService(mockRepo, mockTokens, newTestLogger())

	newPass := "newpass"
	mockRepo.On("Update", mock.Anything, int64(7), mock.MatchedBy(func(f domain.UserUpdate) bool {
		return f.Password != nil &&
			*f.Password != newPass &&
			bcrypt.CompareHashAndPassword([]byte(*f.Password), []byte(newPass)) == nil
	})).Return(int64(7), nil)

	userID, err := svc.Update(context.Background(), 7, domain.UserUpdate{Password: &newPass})

	assert.NoError(t, err)
	assert.Equal(t, int64(7), userID)
	mockRepo.AssertExpectations(t)
}

func TestUpdate_Fail_UsernameConflict(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockTokens := new(MockTokenService)
	svc := userservice.NewService(mockRepo, mockTokens, newTestLogger())

	newName := "bob"
	mockRepo.On("Update", mock.Anything, int64(7), mock.Anything).Return(int64(0), apperror.NewConflictError("Username already exists", nil))

	_, err := svc.Update(context.Background(), 7, domain.UserUpdate{Username: &newName})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)
}

// --- Testes para Delete ---

func TestDelete_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockTokens := new(MockTokenService)
	svc := userservice.NewService(mockRepo, mockTokens, newTestLogger())

	mockRepo.On("Delete", mock.Anything, int64(7)).Return(int64(7), nil)

	deletedID, err := svc.Delete(context.Background(), 7)

	assert.NoError(t, err)
	assert.Equal(t, int64(7), deletedID)
	mockRepo.AssertExpectations(t)
}
