// Package utils provides small generic helpers shared across packages.
package utils

import "strings"

// Map applies f to every element of l and returns the results in order.
func Map[A any, B any](l []A, f func(A, uint64) B) []B {
	out := make([]B, 0, len(l))
	for i, a := range l {
		out = append(out, f(a, uint64(i)))
	}
	return out
}

// AreIdsEqual compares two principal or canister ids ignoring case and surrounding whitespace.
func AreIdsEqual(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
