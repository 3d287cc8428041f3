package controller

import (
	"net/http"
)

const defaultEgonetLimit = 50

// HandleAddressEgonet draws an address with its direct neighbors. Without a
// direction both are drawn.
func (c *Controller) HandleAddressEgonet(w http.ResponseWriter, r *http.Request) {
	svc, ok := c.service(w, r)
	if !ok {
		return
	}
	address, err := parseAddressVar(r)
	if err != nil {
		c.writeFailure(w, r, err, "")
		return
	}
	dirs, err := parseEgonetDirections(r)
	if err != nil {
		c.writeFailure(w, r, err, "")
		return
	}
	limit, err := parseLimitParam(r, defaultEgonetLimit)
	if err != nil {
		c.writeFailure(w, r, err, "")
		return
	}

	g, err := svc.AddressEgonet(r.Context(), address, dirs, limit)
	if err != nil {
		c.writeFailure(w, r, err, "address not found")
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (c *Controller) HandleClusterEgonet(w http.ResponseWriter, r *http.Request) {
	svc, ok := c.service(w, r)
	if !ok {
		return
	}
	id, err := parseClusterVar(r)
	if err != nil {
		c.writeFailure(w, r, err, "")
		return
	}
	dirs, err := parseEgonetDirections(r)
	if err != nil {
		c.writeFailure(w, r, err, "")
		return
	}
	limit, err := parseLimitParam(r, defaultEgonetLimit)
	if err != nil {
		c.writeFailure(w, r, err, "")
		return
	}

	g, err := svc.ClusterEgonet(r.Context(), id, dirs, limit)
	if err != nil {
		c.writeFailure(w, r, err, "cluster not found")
		return
	}
	writeJSON(w, http.StatusOK, g)
}
