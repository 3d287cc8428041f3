package controller

import (
	"net/http"

	graphmodels "github.com/monacohq/graphsense-REST/pkg/db/models/graph"
)

// HandleStatistics returns the summary statistics of every loaded currency.
func (c *Controller) HandleStatistics(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]*graphmodels.Statistics)
	for _, name := range c.App.CurrencyNames() {
		svc, ok := c.App.LoadCurrency(name)
		if !ok {
			continue
		}
		stats, err := svc.Statistics(r.Context())
		if err != nil {
			c.writeFailure(w, r, err, "statistics not found for "+name)
			return
		}
		out[name] = stats
	}
	writeJSON(w, http.StatusOK, out)
}

type exchangeRatesResponse struct {
	ExchangeRates []graphmodels.Rate `json:"exchangeRates"`
	NextOffset    *int               `json:"nextOffset"`
}

// HandleExchangeRates lists the rate snapshot newest first. offset counts pages
// of limit rows.
func (c *Controller) HandleExchangeRates(w http.ResponseWriter, r *http.Request) {
	svc, ok := c.service(w, r)
	if !ok {
		return
	}

	offset, limit, err := parseRatesWindow(r)
	if err != nil {
		c.writeFailure(w, r, err, "")
		return
	}

	items, more := svc.ExchangeRates(offset, limit)
	resp := exchangeRatesResponse{ExchangeRates: orEmpty(items)}
	if more {
		next := offset/limit + 1
		resp.NextOffset = &next
	}
	writeJSON(w, http.StatusOK, resp)
}
