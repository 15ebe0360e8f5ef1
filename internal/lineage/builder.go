// Package lineage builds the picture document recorded for every derived image.
package lineage

import (
	"time"

	"picture-analysis/internal/pictures"
)

// Analysis types recorded on derived pictures.
const (
	AnalysisEdgeDetect = "edge detect"
	AnalysisDistort    = "distort"
)

// Output describes the file an engine produced.
type Output struct {
	ID             string
	Filename       string
	URI            string
	AnalysisType   string
	EdgeDetectType string
	// GroupID overrides the source group when set.
	GroupID string
	// Staged is where the file was written. It moves to URI once the
	// document is saved; empty means it is already there.
	Staged string
}

// Derive returns the document for out, derived from src. The snap id is always
// copied from src; the group id is too unless out names one.
func Derive(src pictures.Picture, out Output, created time.Time) pictures.Picture {
	sourceID := src.ID
	groupID := src.GroupID
	if out.GroupID != "" {
		groupID = out.GroupID
	}
	return pictures.Picture{
		ID:             out.ID,
		Type:           pictures.TypePicture,
		Source:         pictures.SourceAnalysis,
		SourceImageID:  &sourceID,
		AnalysisType:   out.AnalysisType,
		EdgeDetectType: out.EdgeDetectType,
		GroupID:        groupID,
		SnapID:         src.SnapID,
		Filename:       out.Filename,
		URI:            out.URI,
		Created:        created.UTC(),
	}
}
