package controller

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	graphmodels "github.com/monacohq/graphsense-REST/pkg/db/models/graph"
)

const defaultSearchLimit = 50

type blocksResponse struct {
	NextPage *string             `json:"nextPage"`
	Blocks   []graphmodels.Block `json:"blocks"`
}

type rawTransactionsResponse struct {
	NextPage     *string                   `json:"nextPage"`
	Transactions []graphmodels.Transaction `json:"transactions"`
}

func (c *Controller) HandleBlock(w http.ResponseWriter, r *http.Request) {
	svc, ok := c.service(w, r)
	if !ok {
		return
	}
	height, err := parseHeightVar(r)
	if err != nil {
		c.writeFailure(w, r, err, "")
		return
	}

	block, err := svc.Block(r.Context(), height)
	if err != nil {
		c.writeFailure(w, r, err, "block not found")
		return
	}
	writeJSON(w, http.StatusOK, block)
}

func (c *Controller) HandleBlocks(w http.ResponseWriter, r *http.Request) {
	svc, ok := c.service(w, r)
	if !ok {
		return
	}
	q, err := parsePageQuery(r)
	if err != nil {
		c.writeFailure(w, r, err, "")
		return
	}

	page, err := svc.Blocks(r.Context(), q)
	if err != nil {
		c.writeFailure(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, blocksResponse{
		NextPage: nextPage(page.Next),
		Blocks:   orEmpty(page.Items),
	})
}

func (c *Controller) HandleBlockTransactions(w http.ResponseWriter, r *http.Request) {
	svc, ok := c.service(w, r)
	if !ok {
		return
	}
	height, err := parseHeightVar(r)
	if err != nil {
		c.writeFailure(w, r, err, "")
		return
	}

	txs, err := svc.BlockTransactions(r.Context(), height)
	if err != nil {
		c.writeFailure(w, r, err, "block not found")
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (c *Controller) HandleTransaction(w http.ResponseWriter, r *http.Request) {
	svc, ok := c.service(w, r)
	if !ok {
		return
	}
	txHash, err := graphmodels.ParseTxHash(mux.Vars(r)["txHash"])
	if err != nil {
		c.writeFailure(w, r, errInvalidTxHash, "")
		return
	}

	tx, err := svc.Transaction(r.Context(), txHash)
	if err != nil {
		c.writeFailure(w, r, err, "transaction not found")
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (c *Controller) HandleTransactions(w http.ResponseWriter, r *http.Request) {
	svc, ok := c.service(w, r)
	if !ok {
		return
	}
	q, err := parsePageQuery(r)
	if err != nil {
		c.writeFailure(w, r, err, "")
		return
	}

	page, err := svc.Transactions(r.Context(), q)
	if err != nil {
		c.writeFailure(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, rawTransactionsResponse{
		NextPage:     nextPage(page.Next),
		Transactions: orEmpty(page.Items),
	})
}

// HandleSearch lists addresses and transaction hashes starting with q.
func (c *Controller) HandleSearch(w http.ResponseWriter, r *http.Request) {
	svc, ok := c.service(w, r)
	if !ok {
		return
	}
	expression := strings.TrimSpace(r.URL.Query().Get("q"))
	if expression == "" {
		c.writeFailure(w, r, errMissingExpression, "")
		return
	}
	limit, err := parseLimitParam(r, defaultSearchLimit)
	if err != nil {
		c.writeFailure(w, r, err, "")
		return
	}

	res, err := svc.Search(r.Context(), expression, limit)
	if err != nil {
		c.writeFailure(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
