package scaling

import "errors"

var (
	// ErrMultiChannel rejects sources that are not single-channel grayscale.
	ErrMultiChannel = errors.New("scale pipeline requires a single-channel image")
	// ErrUnsupportedDepth rejects sources that are not 8 bits per sample.
	ErrUnsupportedDepth = errors.New("scale pipeline requires 8-bit samples")
	ErrBadColor         = errors.New("invalid colour")
	ErrBadSize          = errors.New("invalid target size")
)
