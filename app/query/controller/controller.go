package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/gorilla/mux"
	"github.com/monacohq/graphsense-REST/app/query/types"
	"github.com/monacohq/graphsense-REST/pkg/currency"
	"github.com/monacohq/graphsense-REST/pkg/db/graph"
	"github.com/monacohq/graphsense-REST/pkg/db/paging"
	"github.com/monacohq/graphsense-REST/pkg/search"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Controller struct {
	App *types.App
}

// NewController returns a new controller.
func NewController(app *types.App) *Controller {
	return &Controller{
		App: app,
	}
}

// WithCORS is a middleware that adds CORS headers to the response.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", http.MethodGet+", "+http.MethodOptions)

		// Fast-path the preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewRouter returns a new router with all the routes defined in this file.
func (c *Controller) NewRouter() (*mux.Router, error) {
	r := mux.NewRouter()

	r.Handle("/health", http.HandlerFunc(c.HandleHealth)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/", c.HandleStatistics).Methods(http.MethodGet)

	cur := r.PathPrefix("/{currency}").Subrouter()
	cur.HandleFunc("/exchangerates", c.HandleExchangeRates).Methods(http.MethodGet)
	cur.HandleFunc("/search", c.HandleSearch).Methods(http.MethodGet)

	// Blocks and transactions
	cur.HandleFunc("/block/{height}", c.HandleBlock).Methods(http.MethodGet)
	cur.HandleFunc("/block/{height}/transactions", c.HandleBlockTransactions).Methods(http.MethodGet)
	cur.HandleFunc("/blocks", c.HandleBlocks).Methods(http.MethodGet)
	cur.HandleFunc("/tx/{txHash}", c.HandleTransaction).Methods(http.MethodGet)
	cur.HandleFunc("/transactions", c.HandleTransactions).Methods(http.MethodGet)

	// Addresses
	cur.HandleFunc("/address/{address}", c.HandleAddress).Methods(http.MethodGet)
	cur.HandleFunc("/address_with_tags/{address}", c.HandleAddressWithTags).Methods(http.MethodGet)
	cur.HandleFunc("/address/{address}/tags", c.HandleAddressTags).Methods(http.MethodGet)
	cur.HandleFunc("/address/{address}/implicitTags", c.HandleImplicitTags).Methods(http.MethodGet)
	cur.HandleFunc("/address/{address}/cluster", c.HandleAddressCluster).Methods(http.MethodGet)
	cur.HandleFunc("/address/{address}/cluster_with_tags", c.HandleAddressClusterWithTags).Methods(http.MethodGet)
	cur.HandleFunc("/address/{address}/transactions", c.HandleAddressTransactions).Methods(http.MethodGet)
	cur.HandleFunc("/address/{address}/neighbors", c.HandleAddressNeighbors).Methods(http.MethodGet)
	cur.HandleFunc("/address/{address}/egonet", c.HandleAddressEgonet).Methods(http.MethodGet)

	// Clusters
	cur.HandleFunc("/cluster/{cluster}", c.HandleCluster).Methods(http.MethodGet)
	cur.HandleFunc("/cluster_with_tags/{cluster}", c.HandleClusterWithTags).Methods(http.MethodGet)
	cur.HandleFunc("/cluster/{cluster}/tags", c.HandleClusterTags).Methods(http.MethodGet)
	cur.HandleFunc("/cluster/{cluster}/addresses", c.HandleClusterAddresses).Methods(http.MethodGet)
	cur.HandleFunc("/cluster/{cluster}/neighbors", c.HandleClusterNeighbors).Methods(http.MethodGet)
	cur.HandleFunc("/cluster/{cluster}/egonet", c.HandleClusterEgonet).Methods(http.MethodGet)
	cur.HandleFunc("/cluster/{cluster}/search", c.HandleClusterSearch).Methods(http.MethodGet)

	return r, nil
}

// service resolves the {currency} route variable. It writes the 404 itself
// when the currency is unknown or failed to load.
func (c *Controller) service(w http.ResponseWriter, r *http.Request) (*currency.Service, bool) {
	svc, ok := c.App.LoadCurrency(mux.Vars(r)["currency"])
	if !ok {
		writeError(w, http.StatusNotFound, "currency not available")
		return nil, false
	}
	return svc, true
}

// writeFailure maps a service error onto its status code. notFound is the
// message used for graph.ErrNotFound.
func (c *Controller) writeFailure(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var pe *parseError
	switch {
	case errors.As(err, &pe):
		writeError(w, http.StatusBadRequest, pe.Error())
	case errors.Is(err, search.ErrInvalidArgument), errors.Is(err, paging.ErrInvalidCursor):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, graph.ErrNotFound):
		writeError(w, http.StatusNotFound, notFound)
	case errors.Is(err, context.Canceled):
		// client went away; nobody reads the answer
		c.App.Logger.Debug("Request cancelled", zap.String("path", r.URL.Path))
	case errors.Is(err, graph.ErrStoreUnavailable):
		c.App.Logger.Warn("Store unavailable", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
	default:
		c.App.Logger.Error("Request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"message": message})
}

// nextPage renders a cursor for transport; nil when there is no further page.
func nextPage(c paging.Cursor) *string {
	if c == nil {
		return nil
	}
	s := c.String()
	return &s
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
