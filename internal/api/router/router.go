package router

import (
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"gorental/internal/api/rental"
	"gorental/internal/api/user"
	"gorental/internal/pkg/cache"
	"gorental/internal/pkg/middleware"
)

// NewRouter configura e retorna o roteador HTTP principal.
// Recebe os Handlers já inicializados por injeção de dependências, o serviço
// de tokens e o resolvedor de usuários (para o gate de autenticação), além
// do cliente de cache (para o rate limiter).
func NewRouter(
	userHandler *user.Handler,
	rentalHandler *rental.Handler,
	tokenSvc middleware.TokenService,
	users middleware.UserResolver,
	cacheClient cache.Client,
	rateLimit int,
	ratePeriod time.Duration,
) http.Handler {

	// Usamos o ServeMux padrão do net/http para roteamento
	mux := http.NewServeMux()

	// Gates de autenticação/autorização como valores explícitos de política:
	// cada rota declara exatamente um gate.
	auth := middleware.NewAuthMiddleware(tokenSvc, users)
	adminOnly := middleware.RequirePolicy(middleware.PolicyAdmin)

	// --- 1. Rotas de Health Check e Documentação ---
	mux.HandleFunc("/ping", PingHandler)
	mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// --- 2. Rotas públicas de conta ---
	mux.HandleFunc("/user", userHandler.CreateUserHandler)
	mux.HandleFunc("/login", userHandler.LoginUserHandler)

	// --- 3. Rotas autenticadas de conta (escopo sempre no próprio usuário) ---
	mux.HandleFunc("/logout", auth(userHandler.LogoutHandler))
	mux.HandleFunc("/me", auth(userHandler.MeHandler))
	mux.HandleFunc("/updateMe", auth(userHandler.UpdateMeHandler))
	mux.HandleFunc("/deleteMe", auth(userHandler.DeleteMeHandler))

	// --- 4. Rotas de locação ---

	// GET /rental/getRentedCars (mais específica: registrada antes do subtree)
	mux.HandleFunc("/rental/getRentedCars", auth(rentalHandler.GetRentedCarsHandler))

	// POST /rental
	mux.HandleFunc("/rental", auth(rentalHandler.CreateOrderHandler))

	// GET|DELETE /rental/{orderId} — gates diferentes por método:
	// leitura exige só autenticação; remoção exige admin.
	mux.HandleFunc("/rental/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			auth(rentalHandler.GetOrderHandler)(w, r)
		case http.MethodDelete:
			auth(adminOnly(rentalHandler.DeleteOrderHandler))(w, r)
		default:
			http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		}
	})

	// --- 5. Middlewares globais ---
	var handler http.Handler = mux
	handler = middleware.RateLimiter(cacheClient, rateLimit, ratePeriod)(handler)
	handler = middleware.RequestID(handler)

	return handler
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
