package rentalservice

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"gorental/internal/domain"
	apperror "gorental/internal/errors"
	"gorental/internal/pkg/logger"
)

// Largura das colunas de texto da tabela orders. Entradas maiores são
// rejeitadas na validação, nunca truncadas.
const maxLocationFieldLen = 20

// Service é a camada de lógica de negócio do fluxo de locação (pedidos).
// Cada pedido segue a máquina de estados: inexistente → ativo → deletado
// (terminal). Não há atualização de pedido: editar é deletar e recriar.
type Service struct {
	orders domain.OrderRepository
	cars   domain.CarRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Locação.
func NewService(orders domain.OrderRepository, cars domain.CarRepository, logger logger.Logger) *Service {
	return &Service{orders: orders, cars: cars, logger: logger}
}

// CreateOrder valida a entrada e cria um novo pedido para a identidade
// autenticada. O user_id vem SEMPRE das claims — nunca do corpo da
// requisição, então um usuário não consegue criar pedido em nome de outro.
// Um car_id inexistente é rejeitado pela foreign key do banco e chega aqui
// como IntegrityError, repassado ao chamador.
func (s *Service) CreateOrder(ctx context.Context, claims domain.UserClaims, input domain.OrderCreation) (int64, error) {
	s.logger.Debug("Iniciando criação de pedido no serviço.", map[string]interface{}{"user_id": claims.UserID, "car_id": input.CarID})

	if err := validateOrderCreation(input); err != nil {
		s.logger.Warn("Falha na validação do pedido.", map[string]interface{}{"user_id": claims.UserID, "error": err.Error()})
		return 0, err
	}

	order := domain.Order{
		UserID:     claims.UserID,
		CarID:      input.CarID,
		Country:    input.Country,
		City:       input.City,
		Address:    input.Address,
		AmountDays: input.AmountDays,
		Color:      input.Color,
		RentTime:   input.RentTime,
	}

	orderID, err := s.orders.Create(ctx, order)
	if err != nil {
		// IntegrityError (car_id inexistente), NotFound e afins já chegam
		// tipados do repositório; repassamos sem re-embrulhar.
		s.logger.Error("Falha ao criar pedido no repositório.", err)
		return 0, err
	}

	s.logger.Info("Pedido criado com sucesso.", map[string]interface{}{"order_id": orderID, "user_id": claims.UserID})
	return orderID, nil
}

// GetOrder busca um pedido pelo id.
// O gate desta operação é apenas "usuário autenticado": NÃO há checagem de
// ownership, então qualquer usuário autenticado pode ler qualquer pedido
// pelo id. Esse comportamento faz parte do contrato público atual e é
// coberto por teste — apertar o gate mudaria a API observável.
func (s *Service) GetOrder(ctx context.Context, claims domain.UserClaims, orderID int64) (domain.Order, error) {
	s.logger.Debug("Buscando pedido no serviço.", map[string]interface{}{"order_id": orderID, "requested_by": claims.UserID})

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	return order, nil
}

// GetRentedCars lista os carros alugados pela identidade autenticada.
// O escopo é sempre claims.UserID — não existe parâmetro de entrada para
// listar pedidos de outro usuário. Cada pedido é enriquecido com o registro
// do carro associado.
// Zero pedidos é tratado como erro (NotFound), não como lista vazia — esse
// é o contrato público atual, preservado deliberadamente.
func (s *Service) GetRentedCars(ctx context.Context, claims domain.UserClaims) (domain.RentedCars, error) {
	s.logger.Debug("Listando carros alugados no serviço.", map[string]interface{}{"user_id": claims.UserID})

	orders, err := s.orders.FindByUser(ctx, claims.UserID)
	if err != nil {
		return domain.RentedCars{}, err
	}

	if len(orders) == 0 {
		return domain.RentedCars{}, apperror.NewNotFoundError("There is no such id in database")
	}

	cars := make([]domain.Car, 0, len(orders))
	for _, order := range orders {
		car, err := s.cars.FindByID(ctx, order.CarID)
		if err != nil {
			// Um pedido apontando para um carro removido é um estado
			// inconsistente do banco; o erro tipado sobe para o handler.
			s.logger.Error("Falha ao resolver carro do pedido.", err)
			return domain.RentedCars{}, err
		}
		cars = append(cars, car)
	}

	s.logger.Info("Carros alugados listados com sucesso.", map[string]interface{}{"user_id": claims.UserID, "quantity": len(cars)})
	return domain.RentedCars{Quantity: len(cars), Cars: cars}, nil
}

// DeleteOrder remove um pedido pelo id e retorna o id removido.
// O gate admin é avaliado na rota (PolicyAdmin): um usuário comum — mesmo o
// dono do pedido — não chega aqui. A existência é checada antes da remoção
// para responder NotFound no formato do contrato.
func (s *Service) DeleteOrder(ctx context.Context, orderID int64) (int64, error) {
	s.logger.Debug("Iniciando remoção de pedido no serviço.", map[string]interface{}{"order_id": orderID})

	if _, err := s.orders.FindByID(ctx, orderID); err != nil {
		return 0, err
	}

	deletedID, err := s.orders.Delete(ctx, orderID)
	if err != nil {
		s.logger.Error("Falha ao deletar pedido no repositório.", err)
		return 0, err
	}

	s.logger.Info("Pedido deletado com sucesso.", map[string]interface{}{"order_id": deletedID})
	return deletedID, nil
}

// validateOrderCreation valida o payload de criação de pedido contra o
// esquema persistido: car_id e amount_days positivos; campos de texto
// obrigatórios, não vazios e com no máximo 20 caracteres (largura da coluna).
// As mensagens são por campo e concatenadas em um único ValidationError.
func validateOrderCreation(input domain.OrderCreation) error {
	problems := make([]string, 0, 7)

	if input.CarID <= 0 {
		problems = append(problems, "car_id: obrigatório e deve ser um inteiro positivo")
	}
	if input.AmountDays <= 0 {
		problems = append(problems, "amount_days: obrigatório e deve ser um inteiro positivo")
	}

	checkText := func(field, value string) {
		if value == "" {
			problems = append(problems, fmt.Sprintf("%s: obrigatório", field))
			return
		}
		if utf8.RuneCountInString(value) > maxLocationFieldLen {
			problems = append(problems, fmt.Sprintf("%s: deve ter no máximo %d caracteres", field, maxLocationFieldLen))
		}
	}

	checkText("country", input.Country)
	checkText("city", input.City)
	checkText("address", input.Address)
	checkText("color", input.Color)
	checkText("renttime", input.RentTime)

	if len(problems) > 0 {
		return apperror.NewValidationError(strings.Join(problems, "; "))
	}
	return nil
}
