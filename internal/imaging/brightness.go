package imaging

import "gocv.io/x/gocv"

// MeanPixelValue returns the mean grayscale intensity of the image at path.
func MeanPixelValue(path string) (float64, error) {
	gray, err := read(path, gocv.IMReadGrayScale)
	if err != nil {
		return 0, err
	}
	defer gray.Close()
	return gray.Mean().Val1, nil
}

// IsTooDark reports whether the mean intensity falls below threshold.
func IsTooDark(path string, threshold float64) (bool, error) {
	mean, err := MeanPixelValue(path)
	if err != nil {
		return false, err
	}
	return mean < threshold, nil
}

// Meter exposes the brightness helpers behind an interface-friendly value.
type Meter struct{}

// MeanPixelValue implements the brightness lookup used by the picture handler.
func (Meter) MeanPixelValue(path string) (float64, error) {
	return MeanPixelValue(path)
}
