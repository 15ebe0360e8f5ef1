package pictures

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SourceImport tags pictures registered from outside the analysis engines.
const SourceImport = "import"

// BrightnessMeter measures the mean intensity of an image file.
type BrightnessMeter interface {
	MeanPixelValue(path string) (float64, error)
}

// Service wraps a Repo with registration and brightness lookups.
type Service struct {
	Repo  Repo
	Meter BrightnessMeter
	NewID func() string
	Now   func() time.Time
}

func NewService(repo Repo, meter BrightnessMeter) *Service {
	return &Service{Repo: repo, Meter: meter, NewID: uuid.NewString, Now: time.Now}
}

// RegisterInput describes an externally captured source picture.
type RegisterInput struct {
	ID       string `json:"id"`
	GroupID  string `json:"groupId"`
	SnapID   string `json:"snapId"`
	URI      string `json:"uri" binding:"required"`
	Filename string `json:"filename"`
}

// Register records a source picture so the engines can derive from it.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Picture, error) {
	uri := strings.TrimSpace(in.URI)
	if uri == "" {
		return Picture{}, fmt.Errorf("%w: uri is required", ErrInvalidInput)
	}
	pic := Picture{
		ID:       strings.TrimSpace(in.ID),
		Type:     TypePicture,
		Source:   SourceImport,
		GroupID:  in.GroupID,
		SnapID:   in.SnapID,
		Filename: strings.TrimSpace(in.Filename),
		URI:      uri,
		Created:  s.now().UTC(),
	}
	if pic.ID == "" {
		pic.ID = s.newID()
	}
	if pic.Filename == "" {
		pic.Filename = filepath.Base(uri)
	}
	if err := s.Repo.Save(ctx, pic); err != nil {
		return Picture{}, err
	}
	return pic, nil
}

// Brightness is the mean intensity of a stored picture.
type Brightness struct {
	PictureID string   `json:"pictureId"`
	Mean      float64  `json:"mean"`
	Threshold *float64 `json:"threshold,omitempty"`
	TooDark   *bool    `json:"tooDark,omitempty"`
}

// Brightness measures the picture's file; threshold is optional.
func (s *Service) Brightness(ctx context.Context, id string, threshold *float64) (Brightness, error) {
	pic, err := s.Repo.Get(ctx, id)
	if err != nil {
		return Brightness{}, err
	}
	if s.Meter == nil {
		return Brightness{}, fmt.Errorf("brightness meter not configured")
	}
	mean, err := s.Meter.MeanPixelValue(pic.URI)
	if err != nil {
		return Brightness{}, fmt.Errorf("measure %s: %w", pic.ID, err)
	}
	out := Brightness{PictureID: pic.ID, Mean: mean}
	if threshold != nil {
		dark := mean < *threshold
		out.Threshold = threshold
		out.TooDark = &dark
	}
	return out, nil
}

func (s *Service) newID() string {
	if s.NewID == nil {
		return uuid.NewString()
	}
	return s.NewID()
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
