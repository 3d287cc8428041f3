package controller

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	graphmodels "github.com/monacohq/graphsense-REST/pkg/db/models/graph"
	"github.com/monacohq/graphsense-REST/pkg/db/paging"
)

const (
	maxPageSize = 1000

	defaultRatesLimit = 100
	maxRatesLimit     = 100000
)

// parsePageQuery reads page (a cursor from a previous nextPage), pagesize and
// limit.
func parsePageQuery(r *http.Request) (paging.Query, error) {
	qs := r.URL.Query()
	var q paging.Query

	cursor, err := paging.ParseCursor(qs.Get("page"))
	if err != nil {
		return paging.Query{}, errInvalidPage
	}
	q.Cursor = cursor

	if v := qs.Get("pagesize"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return paging.Query{}, errInvalidPageSize
		}
		q.PageSize = min(n, maxPageSize)
	}

	if v := qs.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return paging.Query{}, errInvalidLimit
		}
		q = q.WithLimit(n)
	}

	return q, nil
}

// parseRatesWindow reads offset (a page number) and limit of the exchange rate
// listing and returns the row window.
func parseRatesWindow(r *http.Request) (offset, limit int, err error) {
	qs := r.URL.Query()
	limit = defaultRatesLimit
	if v := qs.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxRatesLimit {
			return 0, 0, errInvalidLimit
		}
		limit = n
	}

	page := 0
	if v := qs.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, errInvalidOffset
		}
		page = n
	}
	return page * limit, limit, nil
}

func parseDirection(r *http.Request) (graphmodels.Direction, error) {
	dir, err := graphmodels.ParseDirection(r.URL.Query().Get("direction"))
	if err != nil {
		return "", &parseError{msg: err.Error()}
	}
	return dir, nil
}

// parseClusterVar reads the {cluster} route variable. Cluster ids are plain
// non-negative integers.
func parseClusterVar(r *http.Request) (uint64, error) {
	raw := mux.Vars(r)["cluster"]
	id, ok := graphmodels.ParseClusterID(raw).Value()
	if !ok {
		return 0, errInvalidCluster
	}
	return id, nil
}

// parseHeightVar reads the {height} route variable.
func parseHeightVar(r *http.Request) (uint64, error) {
	height, err := strconv.ParseUint(mux.Vars(r)["height"], 10, 64)
	if err != nil {
		return 0, errInvalidHeight
	}
	return height, nil
}

// parseEgonetDirections reads an optional direction; none means both.
func parseEgonetDirections(r *http.Request) ([]graphmodels.Direction, error) {
	if strings.TrimSpace(r.URL.Query().Get("direction")) == "" {
		return []graphmodels.Direction{graphmodels.Incoming, graphmodels.Outgoing}, nil
	}
	dir, err := parseDirection(r)
	if err != nil {
		return nil, err
	}
	return []graphmodels.Direction{dir}, nil
}

// parseLimitParam reads an optional positive limit, capped at maxPageSize.
func parseLimitParam(r *http.Request, def int) (int, error) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, errInvalidLimit
	}
	return min(n, maxPageSize), nil
}

func parseAddressVar(r *http.Request) (string, error) {
	address := strings.TrimSpace(mux.Vars(r)["address"])
	if address == "" {
		return "", errMissingAddress
	}
	return address, nil
}

// parseIntParam reads an optional integer query parameter.
func parseIntParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &parseError{msg: "invalid " + name}
	}
	return n, nil
}

var (
	errInvalidLimit    = &parseError{msg: "invalid limit"}
	errInvalidPageSize = &parseError{msg: "invalid pagesize"}
	errInvalidPage     = &parseError{msg: "invalid page"}
	errInvalidOffset   = &parseError{msg: "invalid offset"}
	errInvalidCluster  = &parseError{msg: "invalid cluster id"}
	errMissingAddress  = &parseError{msg: "address not provided"}
	errInvalidHeight   = &parseError{msg: "invalid block height"}
	errInvalidTxHash   = &parseError{msg: "transaction hash is not hex"}

	errMissingExpression = &parseError{msg: "expression parameter not provided"}
)

type parseError struct{ msg string }

func (e *parseError) Error() string { return e.msg }
