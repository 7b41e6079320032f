// Package utils holds small helpers shared by configuration and clients.
package utils

import "strings"

// SplitList splits a comma separated value into trimmed, non-empty entries.
// Returns nil when nothing remains.
func SplitList(s string) []string {
	var result []string
	for _, v := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
