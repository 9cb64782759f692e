package postgres

import (
	"context"
	"fmt"
	"time"

	"timeTracker/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Storage struct {
	pool *pgxpool.Pool
}

type PoolConfig struct {
	MaxConns    int32
	MinConns    int32
	IdleTimeout time.Duration
}

func New(ctx context.Context, connString string, poolCfg PoolConfig) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	config.MaxConns = poolCfg.MaxConns
	if config.MaxConns == 0 {
		config.MaxConns = 10
	}
	config.MinConns = poolCfg.MinConns
	if config.MinConns == 0 {
		config.MinConns = 2
	}
	config.MaxConnIdleTime = poolCfg.IdleTimeout
	if config.MaxConnIdleTime == 0 {
		config.MaxConnIdleTime = time.Minute * 5
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return &Storage{pool: pool}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	err := s.pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) warnIfSlow(op string, started time.Time) {
	if time.Since(started) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция",
			zap.String("op", op),
			zap.Duration("ms", time.Since(started)))
	}
}
