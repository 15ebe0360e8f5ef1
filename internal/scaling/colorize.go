package scaling

import (
	"fmt"
	"strconv"
	"strings"

	"gocv.io/x/gocv"
)

// Default gradient endpoints when a group configures none.
const (
	DefaultColorLow  = "#000080"
	DefaultColorHigh = "#FFD700"
)

// RGB is an 8-bit colour.
type RGB struct {
	R, G, B uint8
}

// ParseColor reads #RRGGBB or #RGB.
func ParseColor(s string) (RGB, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return RGB{}, fmt.Errorf("%w: %q", ErrBadColor, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: %q", ErrBadColor, s)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// Gradient maps every gray level to the linear blend between low (0) and high (255).
func Gradient(low, high RGB) [256]RGB {
	var lut [256]RGB
	for i := 0; i < 256; i++ {
		lut[i] = RGB{
			R: blend(low.R, high.R, i),
			G: blend(low.G, high.G, i),
			B: blend(low.B, high.B, i),
		}
	}
	return lut
}

func blend(a, b uint8, i int) uint8 {
	num := i * (int(b) - int(a))
	q := num / 255
	if num%255 != 0 && num < 0 {
		q--
	}
	return uint8(int(a) + q)
}

// Colorize maps a single-channel 8-bit image through the low/high gradient and
// returns a 3-channel BGR image. The caller owns the result.
func Colorize(gray gocv.Mat, low, high string) (gocv.Mat, error) {
	lo, err := ParseColor(low)
	if err != nil {
		return gocv.NewMat(), err
	}
	hi, err := ParseColor(high)
	if err != nil {
		return gocv.NewMat(), err
	}
	if gray.Channels() != 1 {
		return gocv.NewMat(), ErrMultiChannel
	}

	lut := Gradient(lo, hi)
	src := gray.ToBytes()
	dst := make([]byte, 0, len(src)*3)
	for _, v := range src {
		c := lut[v]
		dst = append(dst, c.B, c.G, c.R)
	}
	view, err := gocv.NewMatFromBytes(gray.Rows(), gray.Cols(), gocv.MatTypeCV8UC3, dst)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("colorize: %w", err)
	}
	defer view.Close()
	return view.Clone(), nil
}
