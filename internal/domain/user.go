package domain

import "context"

// User representa a entidade do usuário no sistema de aluguel de carros.
type User struct {
	UserID       int64    `json:"user_id"`
	Username     string   `json:"username"`
	Password     string   `json:"-"` // Oculta o hash da senha no JSON de resposta
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	DriveLicense string   `json:"drive_license"`
	Role         UserRole `json:"role"`
}

// UserRole é um tipo string para representar o papel do usuário no sistema.
type UserRole string

// Constantes para os papéis de usuário (boas práticas)
const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

// UserRegistration representa o payload de entrada para o registro.
type UserRegistration struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	DriveLicense string `json:"drive_license"`
}

// UserUpdate representa o payload de atualização parcial do próprio perfil.
// Campos nil não são aplicados (semântica de atualização parcial).
// Atenção ao contrato da API: o corpo usa "name" e "surname" para
// first_name e last_name — mantido assim por compatibilidade.
type UserUpdate struct {
	Username     *string `json:"username"`
	Password     *string `json:"password"`
	FirstName    *string `json:"name"`
	LastName     *string `json:"surname"`
	Email        *string `json:"email"`
	Phone        *string `json:"phone"`
	DriveLicense *string `json:"drive_license"`
}

// UserClaims representa a identidade autenticada de uma requisição, depois
// que o token foi validado e o sujeito resolvido no banco. As camadas de
// serviço dependem apenas deste tipo, nunca do transporte.
type UserClaims struct {
	UserID   int64
	Username string
	Role     UserRole
}

// UserRepository define o contrato de persistência para a entidade User.
// O campo Password em Update, quando presente, já deve chegar hasheado
// pelo chamador (o repositório nunca hasheia).
type UserRepository interface {
	Create(ctx context.Context, user User) (int64, error)
	FindByID(ctx context.Context, userID int64) (User, error)
	FindByUsername(ctx context.Context, username string) (User, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	Update(ctx context.Context, userID int64, fields UserUpdate) (int64, error)
	Delete(ctx context.Context, userID int64) (int64, error)
}
