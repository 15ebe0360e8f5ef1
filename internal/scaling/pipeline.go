// Package scaling resizes grayscale pictures and optionally blurs and colorizes them.
package scaling

import (
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"

	"picture-analysis/internal/groups"
	"picture-analysis/internal/imaging"
	"picture-analysis/internal/lineage"
	"picture-analysis/internal/pictures"
)

// Size is the target resolution every scaled picture is resampled to.
type Size struct {
	Width  int
	Height int
}

func (s Size) validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrBadSize, s.Width, s.Height)
	}
	return nil
}

// Namer resolves output file names and locations.
type Namer interface {
	BuildName(id string) (string, error)
	BuildPath(filename, snapID string) (string, error)
	StagePath(final string) string
}

// Pipeline runs resample, blur and colorize in that order.
type Pipeline struct {
	Size  Size
	Names Namer
}

func NewPipeline(size Size, names Namer) *Pipeline {
	return &Pipeline{Size: size, Names: names}
}

// Request is one scale job. ScaleType may be empty to fall back to the group default.
type Request struct {
	Source    pictures.Picture
	OutputID  string
	Group     groups.Group
	ScaleType string
}

// Run writes the scaled picture and describes it for the lineage document.
func (p *Pipeline) Run(req Request) (lineage.Output, error) {
	if err := p.Size.validate(); err != nil {
		return lineage.Output{}, err
	}
	scaleType := ResolveScaleType(req.ScaleType, req.Group)

	src, err := imaging.ReadUnchanged(req.Source.URI)
	if err != nil {
		return lineage.Output{}, err
	}
	defer src.Close()

	out, err := p.Transform(src, scaleType, req.Group)
	if err != nil {
		return lineage.Output{}, err
	}
	defer out.Close()

	filename, err := p.Names.BuildName(req.OutputID)
	if err != nil {
		return lineage.Output{}, err
	}
	path, err := p.Names.BuildPath(filename, req.Source.SnapID)
	if err != nil {
		return lineage.Output{}, err
	}
	staged := p.Names.StagePath(path)
	if err := imaging.Write(staged, out); err != nil {
		_ = os.Remove(staged)
		return lineage.Output{}, err
	}

	return lineage.Output{
		ID:           req.OutputID,
		Filename:     filename,
		URI:          path,
		Staged:       staged,
		AnalysisType: scaleType,
		GroupID:      req.Group.ID,
	}, nil
}

// Transform applies the scale type's stages to src without touching disk.
// The caller owns the result.
func (p *Pipeline) Transform(src gocv.Mat, scaleType string, g groups.Group) (gocv.Mat, error) {
	if src.Channels() != 1 {
		return gocv.NewMat(), fmt.Errorf("%w: got %d channels", ErrMultiChannel, src.Channels())
	}
	if src.Type() != gocv.MatTypeCV8U {
		return gocv.NewMat(), ErrUnsupportedDepth
	}

	cur := gocv.NewMat()
	target := image.Point{X: p.Size.Width, Y: p.Size.Height}
	if err := gocv.Resize(src, &cur, target, 0, 0, Interpolation(scaleType)); err != nil {
		cur.Close()
		return gocv.NewMat(), fmt.Errorf("resize to %dx%d: %w", p.Size.Width, p.Size.Height, err)
	}

	if wantsBlur(scaleType) {
		blurred, err := Blur(cur)
		cur.Close()
		if err != nil {
			return gocv.NewMat(), err
		}
		cur = blurred
	}

	if wantsColorize(scaleType) {
		low, high, ok := g.ColorizeRange()
		if !ok {
			low, high = DefaultColorLow, DefaultColorHigh
		}
		colored, err := Colorize(cur, low, high)
		cur.Close()
		if err != nil {
			return gocv.NewMat(), err
		}
		cur = colored
	}
	return cur, nil
}
