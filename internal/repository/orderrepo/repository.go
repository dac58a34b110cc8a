package orderrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"gorental/internal/domain"
	apperror "gorental/internal/errors"
	"gorental/internal/pkg/logger"
)

// OrderRepository implementa a interface domain.OrderRepository.
type OrderRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewOrderRepository cria uma nova instância do OrderRepository, injetando o DB.
func NewOrderRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *OrderRepository {
	return &OrderRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Create insere um novo pedido e retorna o id gerado pelo banco.
// As foreign keys user_id e car_id são validadas pelo próprio PostgreSQL;
// uma violação (car_id inexistente, por exemplo) vira IntegrityError.
func (r *OrderRepository) Create(ctx context.Context, order domain.Order) (int64, error) {
	r.logger.Debug("Iniciando Create de pedido no repositório.", map[string]interface{}{"user_id": order.UserID, "car_id": order.CarID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const insertSQL = `
        INSERT INTO orders (user_id, car_id, country, city, address, amount_days, color, renttime)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING order_id`

	var orderID int64
	err := r.DB.QueryRowContext(
		ctxTimeout,
		insertSQL,
		order.UserID,
		order.CarID,
		order.Country,
		order.City,
		order.Address,
		order.AmountDays,
		order.Color,
		order.RentTime,
	).Scan(&orderID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			r.logger.Info("Pedido rejeitado por violação de foreign key.", map[string]interface{}{"user_id": order.UserID, "car_id": order.CarID})
			return 0, apperror.NewIntegrityError(fmt.Sprintf("referência inexistente (user_id=%d, car_id=%d)", order.UserID, order.CarID), err)
		}
		r.logger.Error("Falha ao inserir pedido no DB.", err)
		return 0, apperror.NewDBError("failed to insert order", err)
	}

	r.logger.Info("Pedido salvo com sucesso no repositório.", map[string]interface{}{"order_id": orderID, "user_id": order.UserID})
	return orderID, nil
}

// FindByID busca um pedido pelo id.
func (r *OrderRepository) FindByID(ctx context.Context, orderID int64) (domain.Order, error) {
	r.logger.Debug("Iniciando FindByID de pedido no repositório.", map[string]interface{}{"order_id": orderID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `
        SELECT order_id, user_id, car_id, country, city, address, amount_days, color, renttime
        FROM orders WHERE order_id = $1`

	var order domain.Order
	err := r.DB.QueryRowContext(ctxTimeout, query, orderID).Scan(
		&order.OrderID,
		&order.UserID,
		&order.CarID,
		&order.Country,
		&order.City,
		&order.Address,
		&order.AmountDays,
		&order.Color,
		&order.RentTime,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Info("Pedido não encontrado no DB.", map[string]interface{}{"order_id": orderID})
			return domain.Order{}, apperror.NewNotFoundError("There is no such id in database")
		}
		r.logger.Error("Falha ao buscar pedido no DB.", err)
		return domain.Order{}, apperror.NewDBError("failed to find order", err)
	}

	return order, nil
}

// FindByUser busca todos os pedidos de um usuário.
// Zero linhas é um resultado válido: retorna slice vazio, nunca erro.
// A ordem de inserção não é garantida.
func (r *OrderRepository) FindByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	r.logger.Debug("Iniciando FindByUser de pedidos no repositório.", map[string]interface{}{"user_id": userID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `
        SELECT order_id, user_id, car_id, country, city, address, amount_days, color, renttime
        FROM orders WHERE user_id = $1`

	rows, err := r.DB.QueryContext(ctxTimeout, query, userID)
	if err != nil {
		r.logger.Error("Falha ao buscar pedidos do usuário no DB.", err)
		return nil, apperror.NewDBError("failed to find orders by user", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.OrderID,
			&order.UserID,
			&order.CarID,
			&order.Country,
			&order.City,
			&order.Address,
			&order.AmountDays,
			&order.Color,
			&order.RentTime,
		); err != nil {
			r.logger.Error("Falha ao mapear pedido do DB.", err)
			return nil, apperror.NewDBError("failed to scan order row", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("failed to iterate order rows", err)
	}

	r.logger.Debug("Pedidos do usuário carregados.", map[string]interface{}{"user_id": userID, "count": len(orders)})
	return orders, nil
}

// Delete remove o pedido e retorna o id removido.
func (r *OrderRepository) Delete(ctx context.Context, orderID int64) (int64, error) {
	r.logger.Debug("Iniciando Delete de pedido no repositório.", map[string]interface{}{"order_id": orderID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `DELETE FROM orders WHERE order_id = $1`

	result, err := r.DB.ExecContext(ctxTimeout, query, orderID)
	if err != nil {
		r.logger.Error("Falha ao deletar pedido no DB.", err)
		return 0, apperror.NewDBError("failed to delete order", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, apperror.NewDBError("failed to read delete result", err)
	}
	if rows == 0 {
		return 0, apperror.NewNotFoundError("There is no such id in database")
	}

	r.logger.Info("Pedido deletado com sucesso no repositório.", map[string]interface{}{"order_id": orderID})
	return orderID, nil
}
