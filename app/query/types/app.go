package types

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/monacohq/graphsense-REST/pkg/currency"
	"github.com/monacohq/graphsense-REST/pkg/db/clickhouse"
	"github.com/monacohq/graphsense-REST/pkg/redis"
	"github.com/monacohq/graphsense-REST/pkg/search"
	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"
)

type App struct {
	// ClickHouse pool shared by every currency. Nil in tests.
	ClickHouse *clickhouse.Client
	// Currencies holds one loaded service per served currency, keyed by lowercase name.
	Currencies *xsync.Map[string, *currency.Service]
	// Configured lists every currency from the config file, loaded or not.
	Configured []string
	Engine     *search.Engine
	// RedisClient is optional.
	RedisClient *redis.Client
	// Zap Logger
	Logger *zap.Logger
	// Server represents the HTTP server instance used to handle incoming client requests and manage HTTP routes.
	Server *http.Server
}

// LoadCurrency returns the service for name. Currencies whose snapshot failed
// to load at startup are absent until the process restarts.
func (a *App) LoadCurrency(name string) (*currency.Service, bool) {
	return a.Currencies.Load(strings.ToLower(name))
}

// CurrencyNames lists the loaded currencies in sorted order.
func (a *App) CurrencyNames() []string {
	names := make([]string, 0, a.Currencies.Size())
	a.Currencies.Range(func(name string, _ *currency.Service) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}

// Start starts the application.
func (a *App) Start(ctx context.Context) {
	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = a.Server.Shutdown(shutdownCtx)

	if a.Engine != nil {
		a.Engine.Close()
	}

	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	if a.ClickHouse != nil {
		if err := a.ClickHouse.Close(); err != nil {
			a.Logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	time.Sleep(200 * time.Millisecond)
	a.Logger.Info("さようなら!")
}
