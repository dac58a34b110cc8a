package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"gorental/internal/domain"
	apperror "gorental/internal/errors"
	"gorental/internal/pkg/logger"
	"gorental/internal/pkg/middleware"
)

// UserService define o contrato que o Handler espera da camada de Serviço.
type UserService interface {
	Register(ctx context.Context, registration domain.UserRegistration) (int64, error)
	Login(ctx context.Context, username string, password string) (string, error)
	Me(ctx context.Context, userID int64) (domain.User, error)
	Update(ctx context.Context, userID int64, fields domain.UserUpdate) (int64, error)
	Delete(ctx context.Context, userID int64) (int64, error)
}

// LoginRequest representa o payload de entrada para o login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Handler agrupa todos os métodos de Handler do usuário.
type Handler struct {
	Service UserService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc UserService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// --- Funções Auxiliares ---

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			h.Logger.Error("Falha ao codificar JSON de resposta", err)
		}
	}
}

func (h *Handler) writeUnmappedError(w http.ResponseWriter, r *http.Request, err error) {
	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}

	h.writeJSON(w, status, map[string]interface{}{
		"code":     status,
		"category": category,
		"message":  message,
	})
}

// --- Handlers de Usuário ---

// CreateUserHandler lida com a requisição POST /user (pública).
// @Summary Registra um novo usuário
// @Description Valida o payload, hasheia a senha e cria o registro.
// @Tags users
// @Accept json
// @Produce json
// @Param registration body domain.UserRegistration true "Dados de registro"
// @Success 200 {object} domain.Response "Envelope com userId"
// @Failure 400 {object} domain.Response "Validação ou username duplicado"
// @Router /user [post]
func (h *Handler) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	var reg domain.UserRegistration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		h.writeJSON(w, http.StatusBadRequest, domain.NewResponse(
			http.StatusBadRequest,
			fmt.Sprintf("Server crashed with following error: %v", err),
			nil,
		))
		return
	}

	userID, err := h.Service.Register(ctx, reg)
	if err != nil {
		// Username duplicado (pré-checagem OU constraint UNIQUE do banco —
		// as duas rotas produzem a mesma resposta do contrato).
		var conflictErr *apperror.ConflictError
		if errors.As(err, &conflictErr) {
			h.writeJSON(w, http.StatusBadRequest, domain.NewResponse(
				http.StatusBadRequest,
				"Username already exists",
				nil,
			))
			return
		}

		var validationErr *apperror.ValidationError
		if errors.As(err, &validationErr) {
			h.writeJSON(w, http.StatusBadRequest, domain.NewResponse(
				http.StatusBadRequest,
				fmt.Sprintf("Server crashed with following error: %v", err),
				nil,
			))
			return
		}

		h.writeUnmappedError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, domain.NewResponse(
		http.StatusOK,
		"Signup is successful",
		map[string]interface{}{"userId": userID},
	))
}

// LoginUserHandler lida com a requisição POST /login (pública).
// Falha de credencial responde HTTP 400 com status 401 DENTRO do envelope —
// assimetria herdada do contrato público, preservada.
// @Summary Autentica um usuário e retorna um JWT
// @Tags users
// @Accept json
// @Produce json
// @Param login body LoginRequest true "Credenciais (username e password)"
// @Success 200 {object} domain.Response "Envelope com AccessToken"
// @Failure 400 {object} domain.Response "Credenciais inválidas"
// @Router /login [post]
func (h *Handler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	var loginReq LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
		h.writeJSON(w, http.StatusBadRequest, domain.NewResponse(
			http.StatusUnauthorized,
			"Invalid login or password.",
			nil,
		))
		return
	}

	accessToken, err := h.Service.Login(ctx, loginReq.Username, loginReq.Password)
	if err != nil {
		var unauthorizedErr *apperror.UnauthorizedError
		if errors.As(err, &unauthorizedErr) {
			h.writeJSON(w, http.StatusBadRequest, domain.NewResponse(
				http.StatusUnauthorized,
				"Invalid login or password.",
				nil,
			))
			return
		}
		h.writeUnmappedError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, domain.NewResponse(
		http.StatusOK,
		"",
		map[string]string{"AccessToken": accessToken},
	))
}

// LogoutHandler lida com a requisição DELETE /logout.
// O token é stateless: o logout não revoga nada no servidor, apenas
// confirma ao cliente que deve descartar o token.
// @Summary Encerra a sessão do usuário
// @Tags users
// @Produce json
// @Success 200 {object} map[string]string "Mensagem de logout"
// @Security BearerAuth
// @Router /logout [delete]
func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"msg": "Successfully logged out"})
}

// MeHandler lida com a requisição GET /me.
// @Summary Retorna o perfil do usuário autenticado (sem a senha)
// @Tags users
// @Produce json
// @Success 200 {object} domain.User "Perfil"
// @Failure 400 {object} domain.ErrorResponse "Usuário inexistente"
// @Security BearerAuth
// @Router /me [get]
func (h *Handler) MeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	claims, ok := middleware.GetUserClaimsFromContext(ctx)
	if !ok {
		http.Error(w, apperror.NewUnauthorizedError("Autorização necessária.").Error(), http.StatusUnauthorized)
		return
	}

	profile, err := h.Service.Me(ctx, claims.UserID)
	if err != nil {
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			h.writeJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Code:    http.StatusBadRequest,
				Message: "There is no such id in database",
			})
			return
		}
		h.writeUnmappedError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, profile)
}

// UpdateMeHandler lida com a requisição PUT /updateMe.
// Atualização parcial do próprio perfil; o escopo é sempre o usuário das
// claims (gate Self implícito — não existe parâmetro de id).
// @Summary Atualiza o perfil do usuário autenticado
// @Tags users
// @Accept json
// @Produce json
// @Param update body domain.UserUpdate true "Campos a atualizar (parciais)"
// @Success 200 {object} domain.Response "Envelope com userId"
// @Failure 400 {object} domain.Response "Validação ou username duplicado"
// @Security BearerAuth
// @Router /updateMe [put]
func (h *Handler) UpdateMeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	claims, ok := middleware.GetUserClaimsFromContext(ctx)
	if !ok {
		http.Error(w, apperror.NewUnauthorizedError("Autorização necessária.").Error(), http.StatusUnauthorized)
		return
	}

	var fields domain.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		h.writeJSON(w, http.StatusBadRequest, domain.NewResponse(
			http.StatusBadRequest,
			fmt.Sprintf("Validation error: %v", err),
			nil,
		))
		return
	}

	userID, err := h.Service.Update(ctx, claims.UserID, fields)
	if err != nil {
		var validationErr *apperror.ValidationError
		if errors.As(err, &validationErr) {
			h.writeJSON(w, http.StatusBadRequest, domain.NewResponse(
				http.StatusBadRequest,
				fmt.Sprintf("Validation error: %v", err),
				nil,
			))
			return
		}

		// Username duplicado na troca, ou outra violação de constraint
		var conflictErr *apperror.ConflictError
		var integrityErr *apperror.IntegrityError
		if errors.As(err, &conflictErr) || errors.As(err, &integrityErr) {
			h.writeJSON(w, http.StatusBadRequest, domain.NewResponse(
				http.StatusBadRequest,
				fmt.Sprintf("Server crashed with the following error: %v", err),
				nil,
			))
			return
		}

		h.writeUnmappedError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, domain.NewResponse(
		http.StatusOK,
		"Edit is successful",
		map[string]interface{}{"userId": userID},
	))
}

// DeleteMeHandler lida com a requisição DELETE /deleteMe.
// @Summary Remove a conta do usuário autenticado
// @Tags users
// @Produce json
// @Success 200 {object} map[string]int64 "userId removido"
// @Security BearerAuth
// @Router /deleteMe [delete]
func (h *Handler) DeleteMeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	claims, ok := middleware.GetUserClaimsFromContext(ctx)
	if !ok {
		http.Error(w, apperror.NewUnauthorizedError("Autorização necessária.").Error(), http.StatusUnauthorized)
		return
	}

	deletedID, err := h.Service.Delete(ctx, claims.UserID)
	if err != nil {
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			h.writeJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Code:    http.StatusBadRequest,
				Message: "There is no such user",
			})
			return
		}
		h.writeUnmappedError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]int64{"userId": deletedID})
}
