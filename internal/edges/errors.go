package edges

import "errors"

var (
	ErrUnknownSelector = errors.New("unknown edge selector")
	ErrMissingOutputID = errors.New("missing output id")
)
