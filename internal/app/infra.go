package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"go-presence/internal/config"
	cacheadapter "go-presence/internal/infrastructure/cache/adapter"
	cacheport "go-presence/internal/infrastructure/cache/port"
	"go-presence/internal/infrastructure/database"
	busadapter "go-presence/internal/infrastructure/pubsub/adapter"
	busport "go-presence/internal/infrastructure/pubsub/port"
	chatadapter "go-presence/internal/pkg/chat/persistence/repository/adapter"
	chatrepo "go-presence/internal/pkg/chat/persistence/repository/port"
	presenceadapter "go-presence/internal/pkg/presence/persistence/repository/adapter"
	presencerepo "go-presence/internal/pkg/presence/persistence/repository/port"
)

// Infra holds the backing services shared by the api and worker binaries.
type Infra struct {
	Repo   chatrepo.ChatRepository
	Cache  cacheport.Cache
	Online presencerepo.OnlineSet
	Bus    busport.Bus

	closers []func()
}

// Open connects every backend selected by cfg. On error, whatever was
// already opened is closed again.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ *Infra, err error) {
	in := &Infra{}
	defer func() {
		if err != nil {
			in.Close()
		}
	}()

	if err := in.openStore(ctx, cfg, logger); err != nil {
		return nil, err
	}

	var redisClient *redis.Client
	needRedis := cfg.PresenceDriver == config.PresenceDriverRedis || cfg.BusDriver == config.BusDriverRedis
	if needRedis {
		rc, err := cacheadapter.NewRedisAdapter(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		in.closers = append(in.closers, func() { _ = rc.Close() })
		redisClient = rc.Client()
		if cfg.PresenceDriver == config.PresenceDriverRedis {
			in.Cache = rc
		}
	}
	if in.Cache == nil {
		logger.Warn("presence uses process memory; the online set is not shared between instances")
		in.Cache = cacheadapter.NewMemoryCache()
	}
	in.Online = presenceadapter.NewCacheOnlineSet(in.Cache, cfg.PresenceOnlineKey)

	switch cfg.BusDriver {
	case config.BusDriverRedis:
		in.Bus = busadapter.NewRedisBus(redisClient)
	case config.BusDriverNats:
		nb, err := busadapter.NewNatsBus(cfg.NatsURL, "go-presence")
		if err != nil {
			return nil, err
		}
		in.Bus = nb
	default:
		in.Bus = busadapter.NewLocalBus()
	}
	bus := in.Bus
	in.closers = append(in.closers, func() { _ = bus.Close() })

	return in, nil
}

func (in *Infra) openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn("chat store uses process memory; data is lost on restart")
		in.Repo = chatadapter.NewMemoryChatRepository()
		return nil
	}

	pool, err := database.Connect(ctx, cfg.DBURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	in.closers = append(in.closers, pool.Close)

	if err := database.Migrate(ctx, pool, logger); err != nil {
		return err
	}
	in.Repo = chatadapter.NewPgChatRepository(pool)
	return nil
}

// Close releases backends in reverse opening order.
func (in *Infra) Close() {
	for i := len(in.closers) - 1; i >= 0; i-- {
		in.closers[i]()
	}
	in.closers = nil
}
