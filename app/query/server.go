package query

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/monacohq/graphsense-REST/app/query/controller"
	"github.com/monacohq/graphsense-REST/app/query/types"
	"github.com/monacohq/graphsense-REST/pkg/utils"
)

// NewServer creates the HTTP server for app and stores it on app.Server.
func NewServer(app *types.App) error {
	ctler := controller.NewController(app)
	router, err := ctler.NewRouter()
	if err != nil {
		return err
	}

	// use <ip>:<port> to bind to a specific interface or :<port> to bind to all interfaces
	addr := utils.Env("ADDR", ":3001")

	app.Server = &http.Server{
		Addr:              addr,
		Handler:           controller.WithCORS(router),
		ReadHeaderTimeout: 10 * time.Second,
	}
	app.Logger.Info("Starting server", zap.String("addr", addr), zap.Strings("currencies", app.CurrencyNames()))

	return nil
}
