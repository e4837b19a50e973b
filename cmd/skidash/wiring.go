package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	config "github.com/davicafu/skidash/internal/config"
	sharedCache "github.com/davicafu/skidash/internal/shared/infra/platform/cache"
	skiDomain "github.com/davicafu/skidash/internal/skipass/domain"
	"github.com/davicafu/skidash/internal/skipass/infra/outbound/analytics/clickhouse"
	"github.com/davicafu/skidash/internal/skipass/infra/outbound/analytics/logsink"
	skiCache "github.com/davicafu/skidash/internal/skipass/infra/outbound/cache"
	"github.com/davicafu/skidash/internal/skipass/infra/outbound/dataset"
	"github.com/davicafu/skidash/internal/skipass/infra/outbound/db/mongodb"
	"github.com/davicafu/skidash/internal/skipass/infra/outbound/db/sqlstore"
)

const connectTimeout = 5 * time.Second

func noop() {}

// buildSource elige la fuente del dataset según DATASET_SOURCE.
func buildSource(ctx context.Context, cfg *config.Config, log *zap.Logger) (skiDomain.DatasetSource, func(), error) {
	log.Info("📦 Dataset source", zap.String("source", cfg.DatasetSource))

	switch cfg.DatasetSource {
	case config.SourceFile:
		return dataset.NewFileSource(cfg.DatasetPath), noop, nil

	case config.SourceHTTP:
		return dataset.NewHTTPSource(cfg.DatasetURL, cfg.DatasetTimeout), noop, nil

	case config.SourceSQLite, config.SourcePostgres, config.SourceMySQL:
		dialect, err := sqlstore.ParseDialect(cfg.DatasetSource)
		if err != nil {
			return nil, nil, err
		}
		dsn := map[sqlstore.Dialect]string{
			sqlstore.SQLite:   cfg.SQLitePath,
			sqlstore.Postgres: cfg.PostgresDSN,
			sqlstore.MySQL:    cfg.MySQLDSN,
		}[dialect]

		db, err := sqlstore.Open(dialect, dsn)
		if err != nil {
			return nil, nil, err
		}
		repo := sqlstore.NewPassRepo(db, dialect)
		if err := repo.InitSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return repo, func() { db.Close() }, nil

	case config.SourceMongoDB:
		ctxConn, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()

		client, err := mongo.Connect(ctxConn, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to mongoDB: %w", err)
		}
		repo, err := mongodb.NewPassRepoMongoDB(ctxConn, client, cfg.MongoDB)
		if err != nil {
			client.Disconnect(context.Background())
			return nil, nil, err
		}
		return repo, func() { client.Disconnect(context.Background()) }, nil
	}

	return nil, nil, fmt.Errorf("unknown dataset source %q", cfg.DatasetSource)
}

// buildCache usa Redis si responde y si no una caché en memoria.
func buildCache(ctx context.Context, cfg *config.Config, log *zap.Logger) (sharedCache.Cache, func()) {
	ctxPing, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctxPing).Err(); err != nil {
		log.Warn("⚠️ Redis no disponible, cache en memoria", zap.Error(err))
		rdb.Close()
		mem := skiCache.NewInMemoryCache(cfg.SessionTTL, time.Minute)
		return mem, mem.Stop
	}

	log.Info("✅ Redis conectado, cache habilitado", zap.String("addr", cfg.RedisAddr))
	return skiCache.NewRedisCache(rdb, cfg.SessionTTL), func() { rdb.Close() }
}

// buildAnalytics usa ClickHouse si está configurado y accesible; si no, el log.
func buildAnalytics(ctx context.Context, cfg *config.Config, log *zap.Logger) (skiDomain.SessionAnalyticsRepository, func()) {
	if cfg.ClickHouseAddr == "" {
		return logsink.NewSessionLog(log), noop
	}

	ctxConn, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	repo, err := clickhouse.NewSessionAnalyticsRepo(ctxConn, cfg.ClickHouseAddr, cfg.ClickHouseDB)
	if err != nil {
		log.Warn("⚠️ ClickHouse no disponible, analítica en el log", zap.Error(err))
		return logsink.NewSessionLog(log), noop
	}
	if err := repo.InitSchema(ctxConn); err != nil {
		log.Warn("⚠️ No se pudo crear el esquema de ClickHouse, analítica en el log", zap.Error(err))
		repo.Close()
		return logsink.NewSessionLog(log), noop
	}

	log.Info("✅ ClickHouse conectado", zap.String("addr", cfg.ClickHouseAddr))
	return repo, func() { repo.Close() }
}
