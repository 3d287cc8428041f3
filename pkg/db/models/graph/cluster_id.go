package graph

import (
	"encoding/json"
	"strconv"
)

// ClusterID identifies a cluster. The zero value is the unresolved marker: the
// address has not been merged into any cluster yet.
type ClusterID struct {
	value    uint64
	resolved bool
}

// Unresolved is the marker for addresses without a cluster.
var Unresolved = ClusterID{}

// ResolvedCluster wraps a valid cluster identifier.
func ResolvedCluster(id uint64) ClusterID {
	return ClusterID{value: id, resolved: true}
}

// ParseClusterID converts a stored cluster column into a ClusterID. Anything that
// is not a plain run of decimal digits is unresolved; negative ids never exist.
func ParseClusterID(raw string) ClusterID {
	if raw == "" {
		return Unresolved
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] < '0' || raw[i] > '9' {
			return Unresolved
		}
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return Unresolved
	}
	return ResolvedCluster(id)
}

// Value returns the numeric id and whether it is resolved.
func (c ClusterID) Value() (uint64, bool) {
	return c.value, c.resolved
}

func (c ClusterID) IsResolved() bool {
	return c.resolved
}

func (c ClusterID) String() string {
	if !c.resolved {
		return "unresolved"
	}
	return strconv.FormatUint(c.value, 10)
}

// MarshalJSON renders resolved ids as numbers and the marker as null.
func (c ClusterID) MarshalJSON() ([]byte, error) {
	if !c.resolved {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatUint(c.value, 10)), nil
}

func (c *ClusterID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = Unresolved
		return nil
	}
	var id uint64
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	*c = ResolvedCluster(id)
	return nil
}
