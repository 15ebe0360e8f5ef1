package scaling

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// BlurPasses is how many times the ring kernel is applied.
const BlurPasses = 9

// ringKernel is a 5x5 box outline: border cells weigh 1, the interior 0, normalised by 16.
func ringKernel() gocv.Mat {
	k := gocv.NewMatWithSize(5, 5, gocv.MatTypeCV32F)
	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			var v float32
			if r == 0 || r == 4 || c == 0 || c == 4 {
				v = 1.0 / 16.0
			}
			k.SetFloatAt(r, c, v)
		}
	}
	return k
}

// Blur runs the ring kernel BlurPasses times in sequence. The caller owns the result.
func Blur(src gocv.Mat) (gocv.Mat, error) {
	kernel := ringKernel()
	defer kernel.Close()

	cur := src.Clone()
	for i := 0; i < BlurPasses; i++ {
		next := gocv.NewMat()
		if err := gocv.Filter2D(cur, &next, -1, kernel, image.Point{X: -1, Y: -1}, 0, gocv.BorderReflect101); err != nil {
			next.Close()
			cur.Close()
			return gocv.NewMat(), fmt.Errorf("blur pass %d: %w", i+1, err)
		}
		cur.Close()
		cur = next
	}
	return cur, nil
}
