package domain

import "context"

// Order representa uma reserva de locação de carro.
// Todo Order referencia um User e um Car existentes no momento da criação
// (integridade referencial garantida pelo banco via foreign keys).
// Um pedido nunca é atualizado: o ciclo de vida é criar → deletar (terminal).
type Order struct {
	OrderID    int64  `json:"order_id"`
	UserID     int64  `json:"user_id"`
	CarID      int64  `json:"car_id"`
	Country    string `json:"country"`
	City       string `json:"city"`
	Address    string `json:"address"`
	AmountDays int    `json:"amount_days"`
	Color      string `json:"color"`
	RentTime   string `json:"renttime"`
}

// OrderCreation representa o payload de entrada para a criação de um pedido.
// O user_id NUNCA vem do corpo da requisição — é sempre extraído da
// identidade autenticada pelo serviço.
type OrderCreation struct {
	CarID      int64  `json:"car_id"`
	Country    string `json:"country"`
	City       string `json:"city"`
	Address    string `json:"address"`
	AmountDays int    `json:"amount_days"`
	Color      string `json:"color"`
	RentTime   string `json:"renttime"`
}

// RentedCars é a resposta de listagem dos carros alugados pelo usuário.
type RentedCars struct {
	Quantity int   `json:"quantity"`
	Cars     []Car `json:"cars"`
}

// OrderRepository define o contrato de persistência para a entidade Order.
type OrderRepository interface {
	Create(ctx context.Context, order Order) (int64, error)
	FindByID(ctx context.Context, orderID int64) (Order, error)
	FindByUser(ctx context.Context, userID int64) ([]Order, error)
	Delete(ctx context.Context, orderID int64) (int64, error)
}
