package userservice

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"gorental/internal/domain"
	apperror "gorental/internal/errors"
	"gorental/internal/pkg/logger"
)

// TokenService é o contrato da camada de token (internal/pkg/token)
// necessário para o login.
type TokenService interface {
	GenerateToken(userID int64, username string, userRole string) (string, error)
}

// Service é a camada de lógica de negócio da entidade User: registro,
// login, perfil, atualização e remoção — sempre com escopo no próprio
// usuário (o id vem das claims, nunca do corpo).
type Service struct {
	users    domain.UserRepository
	tokenSvc TokenService
	logger   logger.Logger
}

// NewService cria uma nova instância do Serviço de Usuário, injetando o
// Repositório e o serviço de tokens.
func NewService(users domain.UserRepository, tokenSvc TokenService, logger logger.Logger) *Service {
	return &Service{users: users, tokenSvc: tokenSvc, logger: logger}
}

// Register registra um novo usuário no sistema.
// A pré-checagem de username é só um fast path de UX: a corrida
// check-then-insert é resolvida pela constraint UNIQUE do banco, cuja
// violação chega do repositório como ConflictError e produz a mesma
// resposta "Username already exists".
func (s *Service) Register(ctx context.Context, registration domain.UserRegistration) (int64, error) {
	s.logger.Debug("Iniciando registro de usuário no serviço.", map[string]interface{}{"username": registration.Username})

	// 1. Validação Básica
	if registration.Username == "" || registration.Password == "" {
		return 0, apperror.NewValidationError("username e password são obrigatórios")
	}

	// 2. Pré-checagem de unicidade (apenas UX)
	taken, err := s.users.UsernameTaken(ctx, registration.Username)
	if err != nil {
		return 0, err
	}
	if taken {
		return 0, apperror.NewConflictError("Username already exists", nil)
	}

	// 3. Hashing da Senha
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(registration.Password), bcrypt.DefaultCost)
	if err != nil {
		return 0, apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}

	// 4. Criação do Objeto User
	newUser := domain.User{
		Username:     registration.Username,
		Password:     string(hashedPassword),
		FirstName:    registration.FirstName,
		LastName:     registration.LastName,
		Email:        registration.Email,
		Phone:        registration.Phone,
		DriveLicense: registration.DriveLicense,
		Role:         domain.RoleUser, // Role padrão; admin é concedido fora da API
	}

	// 5. Chamada ao Repositório para Persistência
	// ConflictError daqui é a guarda autoritativa contra a corrida.
	userID, err := s.users.Create(ctx, newUser)
	if err != nil {
		return 0, err
	}

	s.logger.Info("Usuário registrado com sucesso.", map[string]interface{}{"user_id": userID, "username": registration.Username})
	return userID, nil
}

// Login autentica um usuário, verifica a senha e gera um JWT.
// Usuário inexistente e senha incorreta produzem exatamente o mesmo erro,
// para não permitir enumeração de usernames. A comparação bcrypt é de
// tempo constante.
func (s *Service) Login(ctx context.Context, username string, password string) (string, error) {
	if username == "" || password == "" {
		return "", apperror.NewUnauthorizedError("Invalid login or password.")
	}

	// 1. Buscar Usuário pelo Username (comparação exata)
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			return "", apperror.NewUnauthorizedError("Invalid login or password.")
		}
		// Erro interno de busca (DB fora do ar, timeout)
		return "", err
	}

	// 2. Comparar Senhas (Hashing)
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", apperror.NewUnauthorizedError("Invalid login or password.")
	}

	// 3. Gerar JWT vinculado ao username
	tokenString, err := s.tokenSvc.GenerateToken(user.UserID, user.Username, string(user.Role))
	if err != nil {
		return "", apperror.NewInternalError("Falha ao gerar token de autenticação.", err)
	}

	s.logger.Info("Login realizado com sucesso.", map[string]interface{}{"user_id": user.UserID, "username": user.Username})
	return tokenString, nil
}

// Me retorna o perfil do próprio usuário autenticado (sem o hash da senha —
// o campo não é serializado pela tag json).
func (s *Service) Me(ctx context.Context, userID int64) (domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

// Update aplica uma atualização parcial ao próprio perfil.
// Se a senha vier no payload, é hasheada AQUI — o repositório nunca recebe
// senha em texto puro. Troca de username é revalidada pela constraint
// UNIQUE (ConflictError do repositório).
func (s *Service) Update(ctx context.Context, userID int64, fields domain.UserUpdate) (int64, error) {
	s.logger.Debug("Iniciando atualização de usuário no serviço.", map[string]interface{}{"user_id": userID})

	if fields.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*fields.Password), bcrypt.DefaultCost)
		if err != nil {
			return 0, apperror.NewInternalError("Falha ao gerar hash da senha.", err)
		}
		hashedStr := string(hashed)
		fields.Password = &hashedStr
	}

	updatedID, err := s.users.Update(ctx, userID, fields)
	if err != nil {
		return 0, err
	}

	s.logger.Info("Usuário atualizado com sucesso.", map[string]interface{}{"user_id": updatedID})
	return updatedID, nil
}

// Delete remove o próprio usuário e retorna o id removido.
func (s *Service) Delete(ctx context.Context, userID int64) (int64, error) {
	deletedID, err := s.users.Delete(ctx, userID)
	if err != nil {
		return 0, err
	}

	s.logger.Info("Usuário deletado com sucesso.", map[string]interface{}{"user_id": deletedID})
	return deletedID, nil
}
