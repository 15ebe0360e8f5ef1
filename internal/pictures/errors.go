package pictures

import "errors"

var (
	ErrNotFound      = errors.New("picture not found")
	ErrAlreadyExists = errors.New("picture already exists")
	ErrInvalidInput  = errors.New("invalid picture")
)
