// Package distort warps pictures with Shepards interpolation through an external tool.
package distort

import (
	"context"
	"strings"

	"picture-analysis/internal/lineage"
	"picture-analysis/internal/pictures"
)

// Namer resolves output file names and locations.
type Namer interface {
	BuildName(id string) (string, error)
	BuildPath(filename, snapID string) (string, error)
	StagePath(final string) string
}

type Engine struct {
	Source ControlPointSource
	Warper Warper
	Names  Namer
}

func NewEngine(source ControlPointSource, warper Warper, names Namer) *Engine {
	return &Engine{Source: source, Warper: warper, Names: names}
}

// Run warps src into outID using the control points of setID.
func (e *Engine) Run(ctx context.Context, src pictures.Picture, outID, setID string) (lineage.Output, error) {
	spec, err := e.Source.ControlPoints(ctx, setID)
	if err != nil {
		return lineage.Output{}, err
	}
	if strings.TrimSpace(spec) == "" {
		return lineage.Output{}, ErrNoControlPoints
	}

	filename, err := e.Names.BuildName(outID)
	if err != nil {
		return lineage.Output{}, err
	}
	path, err := e.Names.BuildPath(filename, src.SnapID)
	if err != nil {
		return lineage.Output{}, err
	}
	staged := e.Names.StagePath(path)
	if err := e.Warper.Warp(ctx, src.URI, spec, staged); err != nil {
		return lineage.Output{}, err
	}

	return lineage.Output{
		ID:           outID,
		Filename:     filename,
		URI:          path,
		Staged:       staged,
		AnalysisType: lineage.AnalysisDistort,
	}, nil
}
