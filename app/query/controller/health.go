package controller

import (
	"net/http"

	"go.uber.org/zap"
)

type healthResponse struct {
	Status     string   `json:"status"`
	Error      string   `json:"error,omitempty"`
	Currencies []string `json:"currencies"`
	Configured []string `json:"configured"`
	Cache      string   `json:"cache"`
}

// HandleHealth pings the store through every loaded currency and reports which
// configured currencies are served.
func (c *Controller) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp := healthResponse{
		Status:     "ok",
		Currencies: c.App.CurrencyNames(),
		Configured: orEmpty(c.App.Configured),
		Cache:      "disabled",
	}

	for _, name := range resp.Currencies {
		svc, ok := c.App.LoadCurrency(name)
		if !ok {
			continue
		}
		if err := svc.Store.Ping(ctx); err != nil {
			c.App.Logger.Warn("Health check failed", zap.String("currency", name), zap.Error(err))
			resp.Status = "errored"
			resp.Error = "database connection error"
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}

	if c.App.RedisClient != nil {
		resp.Cache = "ok"
		if err := c.App.RedisClient.Health(ctx); err != nil {
			c.App.Logger.Warn("Cache health check failed", zap.Error(err))
			resp.Cache = "errored"
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
