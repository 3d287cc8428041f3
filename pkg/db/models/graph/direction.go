package graph

import (
	"fmt"
	"strings"
)

// Direction selects edges ending at an entity (Incoming) or starting at it (Outgoing).
type Direction string

const (
	Incoming Direction = "in"
	Outgoing Direction = "out"
)

// ParseDirection accepts "in"/"incoming" and "out"/"outgoing", case-insensitive.
func ParseDirection(raw string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "in", "incoming":
		return Incoming, nil
	case "out", "outgoing":
		return Outgoing, nil
	case "":
		return "", fmt.Errorf("direction value missing")
	default:
		return "", fmt.Errorf("invalid direction value %q - has to be either in or out", raw)
	}
}

func (d Direction) IsOutgoing() bool {
	return d == Outgoing
}
