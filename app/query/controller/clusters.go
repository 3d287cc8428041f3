package controller

import (
	"net/http"

	graphmodels "github.com/monacohq/graphsense-REST/pkg/db/models/graph"
)

type clusterAddressesResponse struct {
	NextPage  *string                      `json:"nextPage"`
	Addresses []graphmodels.ClusterAddress `json:"addresses"`
}

func (c *Controller) HandleCluster(w http.ResponseWriter, r *http.Request) {
	svc, ok := c.service(w, r)
	if !ok {
		return
	}
	id, err := parseClusterVar(r)
	if err != nil {
		c.writeFailure(w, r, err, "")
		return
	}

	cluster, err := svc.Cluster(r.Context(), id)
	if err != nil {
		c.writeFailure(w, r, err, "cluster not found")
		return
	}
	writeJSON(w, http.StatusOK, cluster)
}

func (c *Controller) HandleClusterWithTags(w http.ResponseWriter, r *http.Request) {
	svc, ok := c.service(w, r)
	if !ok {
		return
	}
	id, err := parseClusterVar(r)
	if err != nil {
		c.writeFailure(w, r, err, "")
		return
	}

	cluster, err := svc.ClusterWithTags(r.Context(), id)
	if err != nil {
		c.writeFailure(w, r, err, "cluster not found")
		return
	}
	writeJSON(w, http.StatusOK, cluster)
}

func (c *Controller) HandleClusterTags(w http.ResponseWriter, r *http.Request) {
	svc, ok := c.service(w, r)
	if !ok {
		return
	}
	id, err := parseClusterVar(r)
	if err != nil {
		c.writeFailure(w, r, err, "")
		return
	}

	tags, err := svc.ClusterTags(r.Context(), id)
	if err != nil {
		c.writeFailure(w, r, err, "cluster not found")
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(tags))
}

func (c *Controller) HandleClusterAddresses(w http.ResponseWriter, r *http.Request) {
	svc, ok := c.service(w, r)
	if !ok {
		return
	}
	id, err := parseClusterVar(r)
	if err != nil {
		c.writeFailure(w, r, err, "")
		return
	}
	q, err := parsePageQuery(r)
	if err != nil {
		c.writeFailure(w, r, err, "")
		return
	}

	page, err := svc.ClusterAddresses(r.Context(), id, q)
	if err != nil {
		c.writeFailure(w, r, err, "cluster not found")
		return
	}
	writeJSON(w, http.StatusOK, clusterAddressesResponse{
		NextPage:  nextPage(page.Next),
		Addresses: orEmpty(page.Items),
	})
}

func (c *Controller) HandleClusterNeighbors(w http.ResponseWriter, r *http.Request) {
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
	q, err := parsePageQuery(r)
	if err != nil {
		c.writeFailure(w, r, err, "")
		return
	}

	page, err := svc.ClusterRelations(r.Context(), id, dir, q)
	if err != nil {
		c.writeFailure(w, r, err, "cluster not found")
		return
	}
	writeJSON(w, http.StatusOK, neighborsResponse{
		NextPage:  nextPage(page.Next),
		Neighbors: orEmpty(page.Items),
	})
}
