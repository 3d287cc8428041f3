package controller

import (
	"net/http"
	"strings"

	"github.com/monacohq/graphsense-REST/pkg/search"
	"github.com/monacohq/graphsense-REST/pkg/utils"
)

const (
	defaultSearchBreadth = 16
	defaultSearchDepth   = 3
)

type searchResponse struct {
	Cluster   uint64            `json:"cluster"`
	Direction string            `json:"direction"`
	Category  string            `json:"category,omitempty"`
	Addresses []string          `json:"addresses,omitempty"`
	Paths     []search.PathNode `json:"paths"`
}

// HandleClusterSearch walks the relations of a cluster looking for clusters
// tagged with category or owning one of the comma separated addresses.
func (c *Controller) HandleClusterSearch(w http.ResponseWriter, r *http.Request) {
	svc, ok := c.service(w, r)
	if !ok {
		return
	}
	id, err := parseClusterVar(r)
	if err != nil {
		c.writeFailure(w, r, err, "")
		return
	}
	dir, err := parseDirection(r)
	if err != nil {
		c.writeFailure(w, r, err, "")
		return
	}
	breadth, err := parseIntParam(r, "breadth", defaultSearchBreadth)
	if err != nil {
		c.writeFailure(w, r, err, "")
		return
	}
	depth, err := parseIntParam(r, "depth", defaultSearchDepth)
	if err != nil {
		c.writeFailure(w, r, err, "")
		return
	}

	qs := r.URL.Query()
	req := search.Request{
		Cluster:   id,
		Direction: dir,
		Category:  strings.TrimSpace(qs.Get("category")),
		Breadth:   breadth,
		Depth:     depth,
	}
	if err := c.App.Engine.Validate(req); err != nil {
		c.writeFailure(w, r, err, "")
		return
	}

	addresses := utils.SplitList(qs.Get("addresses"))
	req.Candidates, err = search.ResolveCandidates(r.Context(), svc, addresses)
	if err != nil {
		c.writeFailure(w, r, err, "address not found")
		return
	}

	paths, err := c.App.Engine.Search(r.Context(), svc, req)
	if err != nil {
		c.writeFailure(w, r, err, "cluster not found")
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Cluster:   id,
		Direction: string(dir),
		Category:  req.Category,
		Addresses: addresses,
		Paths:     paths,
	})
}
