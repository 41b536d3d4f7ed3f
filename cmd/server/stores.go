package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"photoshare/backend/internal/apperror"
	"photoshare/backend/internal/config"
	carddomain "photoshare/backend/internal/domain/card"
	userdomain "photoshare/backend/internal/domain/user"
	"photoshare/backend/internal/infrastructure/cache"
	"photoshare/backend/internal/infrastructure/postgres"
	"photoshare/backend/internal/infrastructure/sqlite"
)

// stores bundles the repositories of the selected driver.
type stores struct {
	users      userdomain.Repository
	cards      carddomain.Repository
	cache      *cache.CardCache
	reclassify apperror.Reclassifier
	closers    []func()
}

// Close releases every opened handle in reverse order.
func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStores(ctx context.Context, cfg config.Config, log *slog.Logger) (*stores, error) {
	st := &stores{}

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := postgres.New(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, db.Close)
		if cfg.Database.AutoMigrate {
			if err := postgres.MigrateUp(ctx, cfg.Database.URL); err != nil {
				st.Close()
				return nil, err
			}
			log.Info("database migrations applied")
		}
		st.users = postgres.NewUserRepository(db.Pool)
		st.cards = postgres.NewCardRepository(db.Pool)
		st.reclassify = postgres.Reclassify
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.Database.SQLitePath)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, func() { _ = db.Close() })
		st.users = sqlite.NewUserRepository(db)
		st.cards = sqlite.NewCardRepository(db)
		st.reclassify = sqlite.Reclassify
	default:
		return nil, oops.Code("CONFIG_INVALID").Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	if cfg.Redis.URL != "" {
		rdb, err := openRedis(ctx, cfg.Redis.URL)
		if err != nil {
			st.Close()
			return nil, err
		}
		st.closers = append(st.closers, func() { _ = rdb.Close() })
		st.cache = cache.NewCardCache(rdb, cfg.Redis.TTL)
		log.Info("card feed cache enabled", "ttl", cfg.Redis.TTL)
	}

	return st, nil
}

func openRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("setting", "REDIS_URL").Wrap(err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, oops.Code("CACHE_CONNECT_FAILED").Wrap(err)
	}
	return rdb, nil
}
