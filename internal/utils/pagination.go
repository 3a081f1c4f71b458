// Package utils provides small helpers shared across layers and independent
// of the notification domain.
package utils

import "strconv"

// AtoiDefault converts a string to an int, returning def when the string is
// empty or not a valid integer. The delivery-log listing uses it to read the
// page and page_size query parameters without per-parameter error handling;
// out-of-range values are clamped by the handler afterwards.
//
// Example:
//
//	page := utils.AtoiDefault(c.Query("page"), 1)
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
