package pictures

import "time"

const (
	// TypePicture tags every picture record.
	TypePicture = "picture"
	// SourceAnalysis tags records produced by the analysis engines.
	SourceAnalysis = "analysis"
)

// Picture is the lineage-tracked metadata record for a source or derived image.
type Picture struct {
	ID             string    `json:"_id"`
	Type           string    `json:"type"`
	Source         string    `json:"source"`
	SourceImageID  *string   `json:"source_image_id"`
	AnalysisType   string    `json:"analysis_type,omitempty"`
	EdgeDetectType string    `json:"edge_detect_type,omitempty"`
	GroupID        string    `json:"group_id"`
	SnapID         string    `json:"snap_id"`
	Filename       string    `json:"filename"`
	URI            string    `json:"uri"`
	Created        time.Time `json:"created"`
}

// IsDerived reports whether the picture records a source image.
func (p Picture) IsDerived() bool {
	return p.SourceImageID != nil && *p.SourceImageID != ""
}

// Filter narrows Search results; empty fields match everything.
type Filter struct {
	SourceImageID string
	GroupID       string
	SnapID        string
	AnalysisType  string
	Limit         int
}

func (f Filter) matches(p Picture) bool {
	if f.SourceImageID != "" && (p.SourceImageID == nil || *p.SourceImageID != f.SourceImageID) {
		return false
	}
	if f.GroupID != "" && p.GroupID != f.GroupID {
		return false
	}
	if f.SnapID != "" && p.SnapID != f.SnapID {
		return false
	}
	if f.AnalysisType != "" && p.AnalysisType != f.AnalysisType {
		return false
	}
	return true
}
