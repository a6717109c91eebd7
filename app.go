package main

import (
	"context"
	"errors"
	"time"

	"task-manager/api/internal/cache"
	"task-manager/api/internal/config"
	"task-manager/api/internal/database"
	"task-manager/api/internal/logger"
	"task-manager/api/internal/monitoring"
	"task-manager/api/internal/repositories"
	"task-manager/api/internal/security"
	"task-manager/api/internal/services"
	"task-manager/api/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/samber/oops"
	gormlogger "gorm.io/gorm/logger"
)

// app holds the collaborators shared by the serve, worker and user commands.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	db      *database.DatabasePool
	redis   *redis.Client
	metrics *monitoring.Metrics
	users   *services.UserService
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Options{
		Level:   cfg.Log.Level,
		Pretty:  cfg.Log.Pretty,
		Service: cfg.Tracing.ServiceName,
	})

	pool, err := openDatabase(cfg, log)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg: cfg,
		log: log,
		db:  pool,
		redis: cache.NewClient(cache.Config{
			Addr:         cfg.GetRedisAddr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		}),
		metrics: monitoring.NewMetrics(),
	}
	a.users = services.NewUserService(
		repositories.NewUserRepository(pool.DB),
		security.NewHasher(cfg.Auth.BCryptCost),
		log,
	)
	return a, nil
}

// openDatabase connects to the configured driver. SQLite files get their
// schema from the models; Postgres is migrated with `migrate up`.
func openDatabase(cfg *config.Config, log zerolog.Logger) (*database.DatabasePool, error) {
	level := gormlogger.Warn
	if cfg.Log.Level == "debug" || cfg.Log.Level == "trace" {
		level = gormlogger.Info
	}

	pc := &database.PoolConfig{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.GetDatabaseDSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		LogLevel:        level,
		SlowThreshold:   200 * time.Millisecond,
		Logger:          &log,
	}
	if cfg.Database.Driver == database.DriverSQLite {
		pc.DSN = "file:" + cfg.Database.SQLitePath + "?_foreign_keys=on"
		pc.MaxOpenConns = 1
	}

	pool, err := database.NewDatabasePool(pc)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("driver", cfg.Database.Driver).Wrap(err)
	}
	if cfg.Database.Driver == database.DriverSQLite {
		if err := database.AutoMigrate(pool.DB); err != nil {
			_ = pool.Close()
			return nil, err
		}
	}
	return pool, nil
}

func (a *app) jobQueue() *worker.JobQueue {
	return worker.NewJobQueue(a.redis, a.cfg.Worker.MaxTries)
}

func (a *app) Close() error {
	return errors.Join(a.redis.Close(), a.db.Close())
}
