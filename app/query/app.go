package query

import (
	"context"
	"errors"

	"github.com/alitto/pond/v2"
	"github.com/monacohq/graphsense-REST/app/query/types"
	"github.com/monacohq/graphsense-REST/pkg/config"
	"github.com/monacohq/graphsense-REST/pkg/currency"
	"github.com/monacohq/graphsense-REST/pkg/db/clickhouse"
	"github.com/monacohq/graphsense-REST/pkg/db/graph"
	"github.com/monacohq/graphsense-REST/pkg/logging"
	"github.com/monacohq/graphsense-REST/pkg/metrics"
	"github.com/monacohq/graphsense-REST/pkg/redis"
	"github.com/monacohq/graphsense-REST/pkg/search"
	"github.com/monacohq/graphsense-REST/pkg/utils"
	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"
)

// Initialize initializes the application.
func Initialize(ctx context.Context) *types.App {
	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr'
		panic(err)
	}

	cfgPath := config.Path()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("Unable to load keyspace configuration", zap.String("path", cfgPath), zap.Error(err))
	}

	chClient, err := clickhouse.New(ctx, logger, clickhouse.GetPoolConfigForComponent("query"))
	if err != nil {
		logger.Fatal("Unable to connect to ClickHouse", zap.Error(err))
	}

	// Redis caches tag and cluster lookups (optional)
	var redisClient *redis.Client
	if utils.EnvBool("REDIS_ENABLED", false) {
		redisClient, err = redis.NewClient(ctx, logger)
		if err != nil {
			logger.Warn("Failed to initialize Redis client - lookups will not be cached",
				zap.Error(err))
			redisClient = nil
		} else {
			logger.Info("Redis client initialized for lookup cache")
		}
	} else {
		logger.Info("Redis disabled - lookups will not be cached")
	}

	currencies := loadCurrencies(ctx, logger, cfg, chClient, redisClient)
	if currencies.Size() == 0 {
		logger.Warn("No currency could be loaded - every currency route will answer 404")
	}
	metrics.CurrenciesLoaded.Set(float64(currencies.Size()))

	app := &types.App{
		ClickHouse:  &chClient,
		Currencies:  currencies,
		Configured:  cfg.Names(),
		Engine:      search.NewEngine(search.ConfigFromEnv(), logger),
		RedisClient: redisClient,
		Logger:      logger,
	}

	return app
}

// loadCurrencies builds one service per configured currency. A currency whose
// rate snapshot cannot be loaded is logged and left out; the others are served.
func loadCurrencies(ctx context.Context, logger *zap.Logger, cfg *config.Config, client clickhouse.Client, redisClient *redis.Client) *xsync.Map[string, *currency.Service] {
	currencies := xsync.NewMap[string, *currency.Service]()

	pool := pond.NewPool(clickhouse.GetPoolConfigForComponent("bootstrap").MaxOpenConns)
	defer pool.StopAndWait()

	group := pool.NewGroupContext(ctx)
	groupCtx := group.Context()
	for _, name := range cfg.Names() {
		ks := cfg.Currencies[name].Keyspace()
		group.Submit(func() {
			store := graph.NewWithSharedClient(client, ks)
			svc, err := currency.Load(groupCtx, name, store, logger)
			if err != nil {
				logger.Error("Unable to load currency, it will not be served",
					zap.String("currency", name),
					zap.String("raw", ks.Raw),
					zap.String("transformed", ks.Transformed),
					zap.Error(err))
				return
			}
			if redisClient != nil {
				svc.WithCache(redisClient)
			}
			currencies.Store(name, svc)
		})
	}
	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		logger.Warn("Currency bootstrap group ended with error", zap.Error(err))
	}

	return currencies
}
