package userrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"gorental/internal/domain"
	apperror "gorental/internal/errors"
	"gorental/internal/pkg/logger"
)

// UserRepository implementa a interface domain.UserRepository
type UserRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewUserRepository cria uma nova instância do UserRepository, injetando o DB.
func NewUserRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *UserRepository {
	return &UserRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// isUniqueViolation verifica se o erro do driver é uma violação de chave
// única no PostgreSQL (código 23505). A constraint UNIQUE de username no
// banco é a guarda autoritativa contra duplicatas: a pré-checagem
// UsernameTaken é só um fast path de UX e não resolve a corrida
// check-then-insert.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation"
}

// Create insere um novo usuário e retorna o id gerado pelo banco.
func (r *UserRepository) Create(ctx context.Context, user domain.User) (int64, error) {
	r.logger.Debug("Iniciando Create de usuário no repositório.", map[string]interface{}{"username": user.Username})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const insertSQL = `
        INSERT INTO users (username, password, first_name, last_name, email, phone, drive_license, role)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING user_id`

	var userID int64
	err := r.DB.QueryRowContext(
		ctxTimeout,
		insertSQL,
		user.Username,
		user.Password,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Phone,
		user.DriveLicense,
		user.Role,
	).Scan(&userID)

	if err != nil {
		if isUniqueViolation(err) {
			r.logger.Info("Username duplicado rejeitado pela constraint UNIQUE.", map[string]interface{}{"username": user.Username})
			return 0, apperror.NewConflictError("Username already exists", err)
		}
		r.logger.Error("Falha ao inserir usuário no DB.", err)
		return 0, apperror.NewDBError("failed to insert user", err)
	}

	r.logger.Info("Usuário salvo com sucesso no repositório.", map[string]interface{}{"user_id": userID, "username": user.Username})
	return userID, nil
}

// FindByID busca um usuário pelo id numérico.
func (r *UserRepository) FindByID(ctx context.Context, userID int64) (domain.User, error) {
	r.logger.Debug("Iniciando FindByID de usuário no repositório.", map[string]interface{}{"user_id": userID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `
        SELECT user_id, username, password, first_name, last_name, email, phone, drive_license, role
        FROM users WHERE user_id = $1`

	var user domain.User
	err := r.DB.QueryRowContext(ctxTimeout, query, userID).Scan(
		&user.UserID,
		&user.Username,
		&user.Password,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.Phone,
		&user.DriveLicense,
		&user.Role,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, apperror.NewNotFoundError(fmt.Sprintf("Usuário com id %d não encontrado", userID))
		}
		r.logger.Error("Falha ao buscar usuário por id no DB.", err)
		return domain.User{}, apperror.NewDBError("failed to find user by id", err)
	}

	return user, nil
}

// FindByUsername busca um usuário pelo username (comparação exata,
// sensível a maiúsculas).
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	r.logger.Debug("Iniciando FindByUsername de usuário no repositório.", map[string]interface{}{"username": username})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `
        SELECT user_id, username, password, first_name, last_name, email, phone, drive_license, role
        FROM users WHERE username = $1`

	var user domain.User
	err := r.DB.QueryRowContext(ctxTimeout, query, username).Scan(
		&user.UserID,
		&user.Username,
		&user.Password,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.Phone,
		&user.DriveLicense,
		&user.Role,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Info("Usuário não encontrado no DB por username.", map[string]interface{}{"username": username})
			return domain.User{}, apperror.NewNotFoundError(fmt.Sprintf("Usuário '%s' não encontrado", username))
		}
		r.logger.Error("Falha ao buscar usuário por username no DB.", err)
		return domain.User{}, apperror.NewDBError("failed to find user by username", err)
	}

	return user, nil
}

// UsernameTaken verifica se já existe um usuário com o username informado.
// É apenas a pré-checagem de UX; a constraint UNIQUE é quem decide.
func (r *UserRepository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`

	var taken bool
	if err := r.DB.QueryRowContext(ctxTimeout, query, username).Scan(&taken); err != nil {
		r.logger.Error("Falha ao checar existência de username no DB.", err)
		return false, apperror.NewDBError("failed to check username", err)
	}

	return taken, nil
}

// Update aplica uma atualização parcial: apenas os campos não-nil entram no
// SET. O campo Password, quando presente, já deve chegar hasheado.
// Retorna o id do usuário atualizado.
func (r *UserRepository) Update(ctx context.Context, userID int64, fields domain.UserUpdate) (int64, error) {
	r.logger.Debug("Iniciando Update de usuário no repositório.", map[string]interface{}{"user_id": userID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	// Monta o SET dinamicamente com os campos presentes
	set := make([]string, 0, 7)
	args := make([]interface{}, 0, 8)

	add := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, *value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	add("username", fields.Username)
	add("password", fields.Password)
	add("first_name", fields.FirstName)
	add("last_name", fields.LastName)
	add("email", fields.Email)
	add("phone", fields.Phone)
	add("drive_license", fields.DriveLicense)

	if len(set) == 0 {
		// Nada a atualizar: operação vazia é um sucesso sem escrita.
		return userID, nil
	}

	args = append(args, userID)
	query := fmt.Sprintf("UPDATE users SET %s WHERE user_id = $%d", strings.Join(set, ", "), len(args))

	result, err := r.DB.ExecContext(ctxTimeout, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			// Troca de username colidiu com um existente
			return 0, apperror.NewConflictError("Username already exists", err)
		}
		r.logger.Error("Falha ao atualizar usuário no DB.", err)
		return 0, apperror.NewDBError("failed to update user", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, apperror.NewDBError("failed to read update result", err)
	}
	if rows == 0 {
		return 0, apperror.NewNotFoundError(fmt.Sprintf("Usuário com id %d não encontrado", userID))
	}

	r.logger.Info("Usuário atualizado com sucesso no repositório.", map[string]interface{}{"user_id": userID})
	return userID, nil
}

// Delete remove o usuário e retorna o id removido.
func (r *UserRepository) Delete(ctx context.Context, userID int64) (int64, error) {
	r.logger.Debug("Iniciando Delete de usuário no repositório.", map[string]interface{}{"user_id": userID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `DELETE FROM users WHERE user_id = $1`

	result, err := r.DB.ExecContext(ctxTimeout, query, userID)
	if err != nil {
		r.logger.Error("Falha ao deletar usuário no DB.", err)
		return 0, apperror.NewDBError("failed to delete user", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, apperror.NewDBError("failed to read delete result", err)
	}
	if rows == 0 {
		return 0, apperror.NewNotFoundError(fmt.Sprintf("Usuário com id %d não encontrado", userID))
	}

	r.logger.Info("Usuário deletado com sucesso no repositório.", map[string]interface{}{"user_id": userID})
	return userID, nil
}
