// Package edges extracts Canny edge maps with fixed or median-derived thresholds.
package edges

import (
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"

	"picture-analysis/internal/imaging"
	"picture-analysis/internal/lineage"
	"picture-analysis/internal/pictures"
)

// Namer resolves output file names and locations.
type Namer interface {
	BuildName(id string) (string, error)
	BuildPath(filename, snapID string) (string, error)
	StagePath(final string) string
}

// Engine writes one edge map per branch.
type Engine struct {
	Names Namer
}

func NewEngine(names Namer) *Engine {
	return &Engine{Names: names}
}

// Prepare loads path as grayscale and applies a 3x3 Gaussian blur with sigma
// derived from the kernel size. The caller owns the returned Mat.
func Prepare(path string) (gocv.Mat, error) {
	gray, err := imaging.ReadGray(path)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer gray.Close()

	blurred := gocv.NewMat()
	if err := gocv.GaussianBlur(gray, &blurred, image.Pt(3, 3), 0, 0, gocv.BorderDefault); err != nil {
		blurred.Close()
		return gocv.NewMat(), fmt.Errorf("blur %s: %w", path, err)
	}
	return blurred, nil
}

// Thresholds resolves the Canny bounds b uses on blurred.
func (b Branch) Thresholds(blurred gocv.Mat) (Thresholds, error) {
	if !b.Auto {
		return b.Fixed, nil
	}
	if blurred.Empty() {
		return Thresholds{}, fmt.Errorf("auto thresholds: empty image")
	}
	return AutoThresholds(Median(blurred.ToBytes())), nil
}

// Run extracts edges from blurred for one planned branch and writes the result
// next to the source's other snap files.
func (e *Engine) Run(blurred gocv.Mat, src pictures.Picture, p Planned) (lineage.Output, error) {
	if p.ID == "" {
		return lineage.Output{}, fmt.Errorf("%w: %s branch", ErrMissingOutputID, p.Branch.Name)
	}
	th, err := p.Branch.Thresholds(blurred)
	if err != nil {
		return lineage.Output{}, err
	}

	edges := gocv.NewMat()
	defer edges.Close()
	if err := gocv.Canny(blurred, &edges, float32(th.Low), float32(th.High)); err != nil {
		return lineage.Output{}, fmt.Errorf("canny %d-%d: %w", th.Low, th.High, err)
	}

	filename, err := e.Names.BuildName(p.ID)
	if err != nil {
		return lineage.Output{}, err
	}
	path, err := e.Names.BuildPath(filename, src.SnapID)
	if err != nil {
		return lineage.Output{}, err
	}
	staged := e.Names.StagePath(path)
	if err := imaging.Write(staged, edges); err != nil {
		_ = os.Remove(staged)
		return lineage.Output{}, err
	}

	return lineage.Output{
		ID:             p.ID,
		Filename:       filename,
		URI:            path,
		Staged:         staged,
		AnalysisType:   lineage.AnalysisEdgeDetect,
		EdgeDetectType: p.Branch.EdgeDetectType(),
	}, nil
}
