package domain

import "context"

// Car representa o veículo disponível para locação.
// O ciclo de vida dos carros é gerenciado fora deste núcleo; o fluxo de
// pedidos apenas lê registros de Car para enriquecer as respostas.
type Car struct {
	CarID int64  `json:"car_id"`
	Brand string `json:"brand"`
	Model string `json:"model"`
	Year  int    `json:"year"`
	Color string `json:"color"`
}

// CarRepository define o contrato de leitura para a entidade Car.
type CarRepository interface {
	FindByID(ctx context.Context, carID int64) (Car, error)
}
