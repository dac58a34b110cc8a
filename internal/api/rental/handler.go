package rental

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"gorental/internal/domain"
	apperror "gorental/internal/errors"
	"gorental/internal/pkg/logger"
	"gorental/internal/pkg/middleware"
)

// RentalService define o contrato que o Handler espera da camada de Serviço.
type RentalService interface {
	CreateOrder(ctx context.Context, claims domain.UserClaims, input domain.OrderCreation) (int64, error)
	GetOrder(ctx context.Context, claims domain.UserClaims, orderID int64) (domain.Order, error)
	GetRentedCars(ctx context.Context, claims domain.UserClaims) (domain.RentedCars, error)
	DeleteOrder(ctx context.Context, orderID int64) (int64, error)
}

// Handler agrupa todos os métodos de Handler de locação.
type Handler struct {
	Service RentalService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc RentalService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// --- Funções Auxiliares ---

// writeJSON serializa o corpo como JSON com o status informado.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			h.Logger.Error("Falha ao codificar JSON de resposta", err)
		}
	}
}

// writeBareNotFound escreve a resposta crua {code, message} usada pelos
// endpoints de leitura quando o recurso não existe. Por contrato da API o
// status HTTP é 400, não 404.
func (h *Handler) writeBareNotFound(w http.ResponseWriter) {
	h.writeJSON(w, http.StatusBadRequest, domain.ErrorResponse{
		Code:    http.StatusBadRequest,
		Message: "There is no such id in database",
	})
}

// writeUnmappedError trata erros que não fazem parte do contrato do
// endpoint (falha de DB, etc.) com o corpo {code, category, message}.
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

// orderIDFromPath extrai o id numérico de /rental/{orderId}.
func orderIDFromPath(path string) (int64, error) {
	raw := strings.TrimPrefix(path, "/rental/")
	return strconv.ParseInt(raw, 10, 64)
}

// --- Handlers de Locação ---

// CreateOrderHandler lida com a requisição POST /rental.
// @Summary Cria um novo pedido de locação
// @Description Valida o payload e cria um pedido para o usuário autenticado.
// @Tags rental
// @Accept json
// @Produce json
// @Param order body domain.OrderCreation true "Dados do pedido"
// @Success 200 {object} domain.Response "Envelope com orderId"
// @Failure 400 {object} domain.Response "Validação ou integridade violada"
// @Security BearerAuth
// @Router /rental [post]
func (h *Handler) CreateOrderHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	claims, ok := middleware.GetUserClaimsFromContext(ctx)
	if !ok {
		http.Error(w, apperror.NewUnauthorizedError("Autorização necessária.").Error(), http.StatusUnauthorized)
		return
	}

	var input domain.OrderCreation
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeJSON(w, http.StatusBadRequest, domain.NewResponse(
			http.StatusBadRequest,
			fmt.Sprintf("Server crashed with following error: %v", err),
			nil,
		))
		return
	}

	orderID, err := h.Service.CreateOrder(ctx, claims, input)
	if err != nil {
		// Validação e integridade compartilham o mesmo formato de falha do
		// contrato: envelope 400 com o texto do erro.
		var validationErr *apperror.ValidationError
		var integrityErr *apperror.IntegrityError
		if errors.As(err, &validationErr) || errors.As(err, &integrityErr) {
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
		"Order is successful",
		map[string]interface{}{"orderId": orderID},
	))
}

// GetOrderHandler lida com a requisição GET /rental/{orderId}.
// Qualquer usuário autenticado pode ler qualquer pedido — não há checagem
// de ownership neste endpoint (contrato público atual).
// @Summary Busca um pedido pelo id
// @Tags rental
// @Produce json
// @Param orderId path int true "ID do pedido"
// @Success 200 {object} domain.Order "Pedido"
// @Failure 400 {object} domain.ErrorResponse "Pedido inexistente"
// @Security BearerAuth
// @Router /rental/{orderId} [get]
func (h *Handler) GetOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := middleware.GetUserClaimsFromContext(ctx)
	if !ok {
		http.Error(w, apperror.NewUnauthorizedError("Autorização necessária.").Error(), http.StatusUnauthorized)
		return
	}

	orderID, err := orderIDFromPath(r.URL.Path)
	if err != nil {
		h.writeBareNotFound(w)
		return
	}

	order, err := h.Service.GetOrder(ctx, claims, orderID)
	if err != nil {
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			h.writeBareNotFound(w)
			return
		}
		h.writeUnmappedError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

// DeleteOrderHandler lida com a requisição DELETE /rental/{orderId}.
// O gate admin é aplicado na rota (RequirePolicy(PolicyAdmin)): usuário
// comum — inclusive o dono do pedido — recebe 403 antes de chegar aqui.
// @Summary Remove um pedido (somente admin)
// @Tags rental
// @Produce json
// @Param orderId path int true "ID do pedido"
// @Success 200 {object} map[string]int64 "orderId removido"
// @Failure 400 {object} domain.ErrorResponse "Pedido inexistente"
// @Failure 403 {string} string "Role insuficiente"
// @Security BearerAuth
// @Router /rental/{orderId} [delete]
func (h *Handler) DeleteOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID, err := orderIDFromPath(r.URL.Path)
	if err != nil {
		h.writeBareNotFound(w)
		return
	}

	deletedID, err := h.Service.DeleteOrder(ctx, orderID)
	if err != nil {
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			h.writeBareNotFound(w)
			return
		}
		h.writeUnmappedError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]int64{"orderId": deletedID})
}

// GetRentedCarsHandler lida com a requisição GET /rental/getRentedCars.
// Sempre com escopo no usuário autenticado. Zero pedidos responde a falha
// "no such id" (contrato público atual), não uma lista vazia.
// @Summary Lista os carros alugados pelo usuário autenticado
// @Tags rental
// @Produce json
// @Success 200 {object} domain.RentedCars "Quantidade e carros"
// @Failure 400 {object} domain.ErrorResponse "Usuário sem pedidos"
// @Security BearerAuth
// @Router /rental/getRentedCars [get]
func (h *Handler) GetRentedCarsHandler(w http.ResponseWriter, r *http.Request) {
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

	rented, err := h.Service.GetRentedCars(ctx, claims)
	if err != nil {
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			h.writeBareNotFound(w)
			return
		}
		h.writeUnmappedError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, rented)
}
