package app

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ecoquest/ecoquest-api/internal/api"
	"github.com/ecoquest/ecoquest-api/internal/config"
	"github.com/ecoquest/ecoquest-api/internal/db"
	"github.com/ecoquest/ecoquest-api/internal/logger"
	"github.com/ecoquest/ecoquest-api/internal/repository/dao"
)

// Start migrates the schema and serves the API until ctx is cancelled.
// A non-empty port overrides api.port from the config file.
func Start(ctx context.Context, configPath, port string) error {
	conf, postgresDB, err := setup(configPath)
	if err != nil {
		return err
	}
	if port != "" {
		conf.API.Port = port
	}
	config.Watch(configPath, nil)

	if err = dao.InitTables(postgresDB); err != nil {
		return fmt.Errorf("failed to migrate database -> %w", err)
	}

	var redisClient *redis.Client
	if conf.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     conf.Redis.Addr,
			Password: conf.Redis.Password,
			DB:       conf.Redis.DB,
		})
		defer redisClient.Close()
	}

	s, err := api.NewServer(conf, postgresDB, redisClient)
	if err != nil {
		return fmt.Errorf("failed to initialize server -> %w", err)
	}

	if err = s.Run(ctx); err != nil {
		return fmt.Errorf("failed to run the server -> %w", err)
	}

	return nil
}

// Migrate creates or updates the database schema and exits.
func Migrate(configPath string) error {
	_, postgresDB, err := setup(configPath)
	if err != nil {
		return err
	}

	if err = dao.InitTables(postgresDB); err != nil {
		return fmt.Errorf("failed to migrate database -> %w", err)
	}
	zap.L().Info("migrations applied")

	return nil
}

func setup(configPath string) (*config.AppConfig, *gorm.DB, error) {
	conf, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger -> %w", err)
	}

	dbURL := os.Getenv("DATABASE_URL")
	var postgresDB *gorm.DB
	if dbURL != "" {
		postgresDB, err = db.OpenPostgresWithURL(dbURL)
	} else {
		postgresDB, err = db.OpenPostgres(conf.Postgres)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database -> %w", err)
	}

	return conf, postgresDB, nil
}
