package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"contractabi/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

// pingTimeout bounds the connectivity check made when a pool is opened.
const pingTimeout = 5 * time.Second

// DatabaseConfig represents database connection configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	Database        string
	Username        string
	Password        string
	Schema          string
	MaxConnections  int
	MinConnections  int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	SSLMode         string
}

// DatabaseConfigFrom maps the application database section to a DatabaseConfig.
func DatabaseConfigFrom(cfg config.DatabaseConfig) DatabaseConfig {
	return DatabaseConfig{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Database:       cfg.Name,
		Username:       cfg.User,
		Password:       cfg.Password,
		Schema:         cfg.Schema,
		MaxConnections: cfg.MaxConnections,
		SSLMode:        cfg.SSLMode,
	}
}

// Validate validates the database configuration.
func (c DatabaseConfig) Validate() error {
	if c.Host == "" {
		return errors.New("host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}
	if c.Database == "" {
		return errors.New("database is required")
	}
	if c.Username == "" {
		return errors.New("username is required")
	}
	if c.Schema == "" {
		return errors.New("schema is required")
	}
	return nil
}

// ConnString renders the libpq keyword/value connection string.
func (c DatabaseConfig) ConnString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s search_path=%s",
		c.Host, c.Port, c.Database, c.Username, c.Password, sslMode, c.Schema,
	)
}

// PoolConfig parses the configuration into a pgxpool configuration.
func (c DatabaseConfig) PoolConfig() (*pgxpool.Config, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(c.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolConfig.MaxConns = 10
	if c.MaxConnections > 0 {
		poolConfig.MaxConns = int32(c.MaxConnections)
	}
	if c.MinConnections > 0 {
		poolConfig.MinConns = int32(c.MinConnections)
	}
	if c.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = c.ConnMaxLifetime
	}
	if c.ConnMaxIdleTime > 0 {
		poolConfig.MaxConnIdleTime = c.ConnMaxIdleTime
	}
	return poolConfig, nil
}

// NewDatabaseConnection creates a connection pool and verifies it with a ping.
func NewDatabaseConnection(ctx context.Context, config DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := config.PoolConfig()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if pingErr := pool.Ping(pingCtx); pingErr != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", WrapError(pingErr, "ping"))
	}

	return pool, nil
}

// HealthMetrics represents database health metrics.
type HealthMetrics struct {
	TotalConnections  int32
	ActiveConnections int32
	IdleConnections   int32
	ResponseTime      time.Duration
}

// CollectHealthMetrics pings the database and reports pool statistics.
func CollectHealthMetrics(ctx context.Context, pool *pgxpool.Pool) (*HealthMetrics, error) {
	if pool == nil {
		return nil, ErrConnectionFailed
	}
	start := time.Now()
	if err := pool.Ping(ctx); err != nil {
		return nil, WrapError(err, "ping")
	}
	stats := pool.Stat()
	return &HealthMetrics{
		TotalConnections:  stats.TotalConns(),
		ActiveConnections: stats.AcquiredConns(),
		IdleConnections:   stats.IdleConns(),
		ResponseTime:      time.Since(start),
	}, nil
}
