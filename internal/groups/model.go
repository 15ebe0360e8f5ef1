package groups

import "errors"

// ErrNotFound is returned when a group does not exist.
var ErrNotFound = errors.New("group not found")

// Group holds per-group analysis configuration. Empty strings mean "not configured".
type Group struct {
	ID                string `json:"_id"`
	ScaleType         string `json:"scale_type,omitempty"`
	ColorizeRangeLow  string `json:"colorize_range_low,omitempty"`
	ColorizeRangeHigh string `json:"colorize_range_high,omitempty"`
}

// ColorizeRange returns the configured gradient endpoints; ok is false unless both are set.
func (g Group) ColorizeRange() (low, high string, ok bool) {
	if g.ColorizeRangeLow == "" || g.ColorizeRangeHigh == "" {
		return "", "", false
	}
	return g.ColorizeRangeLow, g.ColorizeRangeHigh, true
}
