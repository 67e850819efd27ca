package auth

import (
	"slices"
	"strings"
)

const (
	ScopeRead  = "read"
	ScopeWrite = "write"
)

// ParseScopes splits an OAuth2 style space separated scope string,
// dropping blanks and duplicates.
func ParseScopes(s string) []string {
	return normalize(strings.Fields(s))
}

// Intersect returns the scopes present in both sets, in the order of requested.
func Intersect(requested, allowed []string) []string {
	out := make([]string, 0, len(requested))
	for _, s := range normalize(requested) {
		if slices.Contains(allowed, s) {
			out = append(out, s)
		}
	}
	return out
}

// Missing returns the members of required absent from granted.
// An empty result means required is a subset of granted.
func Missing(required, granted []string) []string {
	var out []string
	for _, s := range normalize(required) {
		if !slices.Contains(granted, s) {
			out = append(out, s)
		}
	}
	return out
}

func normalize(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || slices.Contains(out, s) {
			continue
		}
		out = append(out, s)
	}
	return out
}
