package utils

import (
	"strings"
)

// SplitList splits a comma separated query value, trimming blanks and dropping
// duplicates while keeping the first-seen order.
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return Dedup(strings.Split(raw, ","))
}

func Dedup(in []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, e := range in {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}
