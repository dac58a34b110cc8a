package middleware

import (
	"context"
	"net/http"

	"gorental/internal/domain"
	apperror "gorental/internal/errors"
	"gorental/internal/pkg/token"
)

// ContextKey é o tipo das chaves de contexto deste pacote.
// Usamos um tipo int para garantir que a chave seja única e não haja conflito
// com outras chaves string (Context Keys devem ser não-exportadas e de um tipo único).
type ContextKey int

const (
	UserClaimsKey ContextKey = iota
)

// TokenService define o contrato de validação necessário para o middleware.
type TokenService interface {
	ValidateToken(tokenString string) (*token.CustomClaims, error)
}

// UserResolver resolve o sujeito do token (username) de volta para o registro
// de usuário. Se o usuário foi deletado depois da emissão do token, a
// resolução falha e a requisição é rejeitada (sujeito desconhecido).
type UserResolver interface {
	FindByUsername(ctx context.Context, username string) (domain.User, error)
}

// NewAuthMiddleware cria uma função de middleware que valida um JWT, resolve o
// sujeito para um usuário existente e anexa as claims (UserID, Username, Role)
// ao contexto da requisição.
func NewAuthMiddleware(tokenSvc TokenService, users UserResolver) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {

			// 1. Extrair o Token do Header Authorization: Bearer <token>
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || len(authHeader) < 7 || authHeader[:7] != "Bearer " {
				// Se o header estiver ausente ou malformado, retorna 401
				http.Error(w, apperror.NewUnauthorizedError("Token de autorização ausente ou malformado.").Error(), http.StatusUnauthorized)
				return
			}

			tokenString := authHeader[7:]

			// 2. Validar o Token (assinatura e expiração)
			claims, err := tokenSvc.ValidateToken(tokenString)
			if err != nil {
				http.Error(w, apperror.NewUnauthorizedError("Token inválido ou expirado.").Error(), http.StatusUnauthorized)
				return
			}

			// 3. Resolver o sujeito no banco
			// O token é vinculado ao username; o registro atual do usuário é a
			// fonte de verdade para id e role (um token antigo não ressuscita
			// um usuário deletado nem preserva uma role revogada).
			user, err := users.FindByUsername(r.Context(), claims.Username)
			if err != nil {
				http.Error(w, apperror.NewUnauthorizedError("Sujeito do token não existe mais.").Error(), http.StatusUnauthorized)
				return
			}

			// 4. Anexar Claims ao Contexto
			userClaims := domain.UserClaims{
				UserID:   user.UserID,
				Username: user.Username,
				Role:     user.Role,
			}

			ctx := context.WithValue(r.Context(), UserClaimsKey, userClaims)

			// Chama o próximo handler com o novo contexto
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	}
}

// GetUserClaimsFromContext é uma função utilitária para extrair as claims no handler.
func GetUserClaimsFromContext(ctx context.Context) (domain.UserClaims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(domain.UserClaims)
	return claims, ok
}

// --- Política de Autorização ---

// Policy é o valor explícito de política de autorização anexado a cada
// operação. Cada endpoint declara exatamente um gate:
//
//	PolicyAny   — basta estar autenticado (e existir no banco);
//	PolicySelf  — a identidade deve ser a dona do recurso (ownerID);
//	PolicyAdmin — a identidade deve ter role admin.
//
// Ownership e role são gates independentes: um admin NÃO satisfaz
// automaticamente PolicySelf para o recurso de outro usuário.
type Policy int

const (
	PolicyAny Policy = iota
	PolicySelf
	PolicyAdmin
)

// Allowed é a função única de avaliação de política.
// ownerID só é consultado para PolicySelf; para os demais gates é ignorado.
func Allowed(claims domain.UserClaims, policy Policy, ownerID int64) bool {
	switch policy {
	case PolicyAny:
		return true
	case PolicySelf:
		return claims.UserID == ownerID
	case PolicyAdmin:
		return claims.Role == domain.RoleAdmin
	}
	return false
}

// RequirePolicy cria um middleware que avalia um gate de rota (PolicyAny ou
// PolicyAdmin) sobre as claims já anexadas pelo AuthMiddleware.
// PolicySelf depende do recurso e é avaliado dentro do handler/serviço com
// a mesma função Allowed.
func RequirePolicy(policy Policy) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {

			// 1. Tentar extrair as Claims do contexto
			claims, ok := GetUserClaimsFromContext(r.Context())

			// Se o AuthMiddleware não foi executado ou falhou em anexar as claims,
			// tratamos como não autorizado.
			if !ok {
				http.Error(w, apperror.NewUnauthorizedError("Autorização necessária. Token não processado.").Error(), http.StatusUnauthorized)
				return
			}

			// 2. Verificar Permissão (AuthZ)
			if !Allowed(claims, policy, claims.UserID) {
				http.Error(w, apperror.NewForbiddenError("Você não tem a permissão necessária.").Error(), http.StatusForbidden)
				return
			}

			// 3. Permissão concedida: Chama o próximo handler
			next.ServeHTTP(w, r)
		}
	}
}
