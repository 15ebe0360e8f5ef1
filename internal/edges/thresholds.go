package edges

import "fmt"

// Sigma widens the auto thresholds around the median intensity.
const Sigma = 0.33

// Thresholds are the hysteresis bounds handed to Canny.
type Thresholds struct {
	Low  int
	High int
}

// Label renders the edge_detect_type tag for fixed thresholds.
func (t Thresholds) Label() string {
	return fmt.Sprintf("custom:%d-%d", t.Low, t.High)
}

// AutoThresholds derives bounds from the median intensity v.
func AutoThresholds(v float64) Thresholds {
	low := (1.0 - Sigma) * v
	if low < 0 {
		low = 0
	}
	high := (1.0 + Sigma) * v
	if high > 255 {
		high = 255
	}
	return Thresholds{Low: int(low), High: int(high)}
}

// Median returns the median of 8-bit samples. Even counts average the two
// middle values.
func Median(samples []byte) float64 {
	n := len(samples)
	if n == 0 {
		return 0
	}
	var hist [256]int
	for _, s := range samples {
		hist[s]++
	}
	lo := nth(&hist, (n-1)/2)
	if n%2 == 1 {
		return float64(lo)
	}
	hi := nth(&hist, n/2)
	return (float64(lo) + float64(hi)) / 2
}

// nth returns the k-th smallest value (zero based) recorded in hist.
func nth(hist *[256]int, k int) int {
	seen := 0
	for v, c := range hist {
		seen += c
		if seen > k {
			return v
		}
	}
	return 255
}
