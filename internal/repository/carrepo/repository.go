package carrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorental/internal/domain"
	apperror "gorental/internal/errors"
	"gorental/internal/pkg/cache"
	"gorental/internal/pkg/logger"
)

// Chave de cache para carros.
const carCacheKey = "car:%d"

// TTL do cache de carros. Os carros mudam raramente (o catálogo é gerenciado
// fora deste núcleo), então um TTL curto é suficiente para manter a listagem
// getRentedCars barata sem risco real de staleness.
const carCacheTTL = 5 * time.Minute

// CarRepository implementa a interface domain.CarRepository com a
// estratégia Cache-Aside sobre o Redis.
type CarRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewCarRepository cria e retorna uma nova instância do Repositório de Carros.
func NewCarRepository(db *sql.DB, cacheClient cache.Client, dbTimeout time.Duration, logger logger.Logger) *CarRepository {
	return &CarRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// FindByID busca um carro pelo ID, utilizando a estratégia Cache-Aside.
func (r *CarRepository) FindByID(ctx context.Context, carID int64) (domain.Car, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(carCacheKey, carID)
	var car domain.Car

	// --- 1. Estratégia Cache-Aside (READ) ---
	cachedData, err := r.Cache.Get(ctxTimeout, key)
	if err == nil {
		// Cache HIT
		if json.Unmarshal([]byte(cachedData), &car) == nil {
			return car, nil
		}
		// Se a desserialização falhar, seguimos para o DB
	} else if err != cache.ErrCacheMiss {
		// Erro real de cache (conexão perdida, etc.): logamos e seguimos
		// para o DB — o cache nunca é fonte de verdade.
		r.logger.Warn("Falha ao ler carro do cache Redis.", map[string]interface{}{"car_id": carID, "error": err.Error()})
	}

	// --- 2. Busca no Banco de Dados (PostgreSQL) ---
	const query = `
        SELECT car_id, brand, model, year, color
        FROM cars WHERE car_id = $1`

	err = r.DB.QueryRowContext(ctxTimeout, query, carID).Scan(
		&car.CarID,
		&car.Brand,
		&car.Model,
		&car.Year,
		&car.Color,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Car{}, apperror.NewNotFoundError(fmt.Sprintf("Carro com id %d não existe na base de dados.", carID))
		}
		r.logger.Error("Falha ao buscar carro no DB.", err)
		return domain.Car{}, apperror.NewDBError("failed to find car", err)
	}

	// --- 3. Estratégia Cache-Aside (WRITE) ---
	// Se encontrado no DB, populamos o cache para futuras requisições.
	if carJSON, marshalErr := json.Marshal(car); marshalErr == nil {
		if cacheErr := r.Cache.Set(ctxTimeout, key, carJSON, carCacheTTL); cacheErr != nil {
			r.logger.Warn("Falha ao escrever carro no cache Redis.", map[string]interface{}{"car_id": carID, "error": cacheErr.Error()})
		}
	}

	return car, nil
}
