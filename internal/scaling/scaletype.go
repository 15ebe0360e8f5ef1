package scaling

import (
	"strings"

	"gocv.io/x/gocv"

	"picture-analysis/internal/groups"
)

// DefaultScaleType applies when neither the caller nor the group picks one.
const DefaultScaleType = "colorize_bicubic"

// ResolveScaleType picks the caller override, then the group default, then DefaultScaleType.
func ResolveScaleType(override string, g groups.Group) string {
	if override != "" {
		return override
	}
	if g.ScaleType != "" {
		return g.ScaleType
	}
	return DefaultScaleType
}

// Interpolation maps scale type modifiers to a resampling method.
// antialias is a Lanczos filter and wins over bilinear when both appear.
func Interpolation(scaleType string) gocv.InterpolationFlags {
	switch {
	case strings.Contains(scaleType, "antialias"):
		return gocv.InterpolationLanczos4
	case strings.Contains(scaleType, "bilinear"):
		return gocv.InterpolationLinear
	default:
		return gocv.InterpolationCubic
	}
}

func wantsBlur(scaleType string) bool     { return strings.Contains(scaleType, "blur") }
func wantsColorize(scaleType string) bool { return strings.Contains(scaleType, "colorize") }
