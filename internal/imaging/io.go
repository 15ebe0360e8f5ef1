// Package imaging wraps the gocv calls shared by the analysis engines.
package imaging

import (
	"errors"
	"fmt"
	"os"

	"gocv.io/x/gocv"
)

// ErrUnreadable is returned when an image file cannot be decoded.
var ErrUnreadable = errors.New("unreadable image")

// ReadGray loads path and converts it to a single 8-bit channel.
func ReadGray(path string) (gocv.Mat, error) {
	color, err := read(path, gocv.IMReadColor)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer color.Close()

	gray := gocv.NewMat()
	if err := gocv.CvtColor(color, &gray, gocv.ColorBGRToGray); err != nil {
		gray.Close()
		return gocv.NewMat(), fmt.Errorf("grayscale %s: %w", path, err)
	}
	return gray, nil
}

// ReadUnchanged loads path keeping its channel layout and depth.
func ReadUnchanged(path string) (gocv.Mat, error) {
	return read(path, gocv.IMReadUnchanged)
}

func read(path string, flags gocv.IMReadFlag) (gocv.Mat, error) {
	if _, err := os.Stat(path); err != nil {
		return gocv.NewMat(), fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}
	mat := gocv.IMRead(path, flags)
	if mat.Empty() {
		mat.Close()
		return gocv.NewMat(), fmt.Errorf("%w: %s", ErrUnreadable, path)
	}
	return mat, nil
}

// Write encodes mat to path; the format follows the file extension.
func Write(path string, mat gocv.Mat) error {
	if mat.Empty() {
		return fmt.Errorf("write %s: empty image", path)
	}
	if ok := gocv.IMWrite(path, mat); !ok {
		return fmt.Errorf("write %s: encoder failed", path)
	}
	return nil
}
