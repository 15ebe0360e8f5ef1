package pictures

import (
	"context"
	"fmt"
	"strings"
)

// Repo defines persistence operations for picture documents.
// Save is create-only: saving an existing id fails with ErrAlreadyExists.
type Repo interface {
	Get(ctx context.Context, id string) (Picture, error)
	Search(ctx context.Context, filter Filter) ([]Picture, error)
	Save(ctx context.Context, pic Picture) error
}

func validate(pic Picture) error {
	if strings.TrimSpace(pic.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	if pic.Type != TypePicture {
		return fmt.Errorf("%w: type must be %q", ErrInvalidInput, TypePicture)
	}
	if strings.TrimSpace(pic.Filename) == "" || strings.TrimSpace(pic.URI) == "" {
		return fmt.Errorf("%w: filename and uri are required", ErrInvalidInput)
	}
	return nil
}
