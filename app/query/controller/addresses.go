package controller

import (
	"net/http"

	graphmodels "github.com/monacohq/graphsense-REST/pkg/db/models/graph"
)

type transactionsResponse struct {
	NextPage     *string                          `json:"nextPage"`
	Transactions []graphmodels.AddressTransaction `json:"transactions"`
}

type neighborsResponse struct {
	NextPage  *string                `json:"nextPage"`
	Neighbors []graphmodels.Relation `json:"neighbors"`
}

func (c *Controller) HandleAddress(w http.ResponseWriter, r *http.Request) {
	svc, ok := c.service(w, r)
	if !ok {
		return
	}
	address, err := parseAddressVar(r)
	if err != nil {
		c.writeFailure(w, r, err, "")
		return
	}

	addr, err := svc.Address(r.Context(), address)
	if err != nil {
		c.writeFailure(w, r, err, "address not found")
		return
	}
	writeJSON(w, http.StatusOK, addr)
}

func (c *Controller) HandleAddressWithTags(w http.ResponseWriter, r *http.Request) {
	svc, ok := c.service(w, r)
	if !ok {
		return
	}
	address, err := parseAddressVar(r)
	if err != nil {
		c.writeFailure(w, r, err, "")
		return
	}

	addr, err := svc.AddressWithTags(r.Context(), address)
	if err != nil {
		c.writeFailure(w, r, err, "address not found")
		return
	}
	writeJSON(w, http.StatusOK, addr)
}

func (c *Controller) HandleAddressTags(w http.ResponseWriter, r *http.Request) {
	svc, ok := c.service(w, r)
	if !ok {
		return
	}
	address, err := parseAddressVar(r)
	if err != nil {
		c.writeFailure(w, r, err, "")
		return
	}

	tags, err := svc.AddressTags(r.Context(), address)
	if err != nil {
		c.writeFailure(w, r, err, "address not found")
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(tags))
}

// HandleImplicitTags returns the tags of the cluster owning the address.
func (c *Controller) HandleImplicitTags(w http.ResponseWriter, r *http.Request) {
	svc, ok := c.service(w, r)
	if !ok {
		return
	}
	address, err := parseAddressVar(r)
	if err != nil {
		c.writeFailure(w, r, err, "")
		return
	}

	tags, err := svc.ImplicitTags(r.Context(), address)
	if err != nil {
		c.writeFailure(w, r, err, "address not found")
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(tags))
}

func (c *Controller) HandleAddressCluster(w http.ResponseWriter, r *http.Request) {
	c.handleAddressCluster(w, r, false)
}

func (c *Controller) HandleAddressClusterWithTags(w http.ResponseWriter, r *http.Request) {
	c.handleAddressCluster(w, r, true)
}

func (c *Controller) handleAddressCluster(w http.ResponseWriter, r *http.Request, withTags bool) {
	svc, ok := c.service(w, r)
	if !ok {
		return
	}
	address, err := parseAddressVar(r)
	if err != nil {
		c.writeFailure(w, r, err, "")
		return
	}

	var cluster *graphmodels.Cluster
	if withTags {
		cluster, err = svc.AddressClusterWithTags(r.Context(), address)
	} else {
		cluster, err = svc.AddressCluster(r.Context(), address)
	}
	if err != nil {
		c.writeFailure(w, r, err, "cluster not found for address "+address)
		return
	}
	writeJSON(w, http.StatusOK, cluster)
}

func (c *Controller) HandleAddressTransactions(w http.ResponseWriter, r *http.Request) {
	svc, ok := c.service(w, r)
	if !ok {
		return
	}
	address, err := parseAddressVar(r)
	if err != nil {
		c.writeFailure(w, r, err, "")
		return
	}
	q, err := parsePageQuery(r)
	if err != nil {
		c.writeFailure(w, r, err, "")
		return
	}

	page, err := svc.AddressTransactions(r.Context(), address, q)
	if err != nil {
		c.writeFailure(w, r, err, "address not found")
		return
	}
	writeJSON(w, http.StatusOK, transactionsResponse{
		NextPage:     nextPage(page.Next),
		Transactions: orEmpty(page.Items),
	})
}

func (c *Controller) HandleAddressNeighbors(w http.ResponseWriter, r *http.Request) {
	svc, ok := c.service(w, r)
	if !ok {
		return
	}
	address, err := parseAddressVar(r)
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

	page, err := svc.AddressRelations(r.Context(), address, dir, q)
	if err != nil {
		c.writeFailure(w, r, err, "address not found")
		return
	}
	writeJSON(w, http.StatusOK, neighborsResponse{
		NextPage:  nextPage(page.Next),
		Neighbors: orEmpty(page.Items),
	})
}
