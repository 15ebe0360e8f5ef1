package tasks

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Task names used on the queue and in metrics.
const (
	TaskEdgeDetect   = "edge_detect"
	TaskScaleImage   = "scale_image"
	TaskDistortImage = "distort_image"
)

var validate = validator.New()

// EdgeDetectArgs selects the edge branches to run. Empty AutoID is generated
// per call; wide and tight only run when their id is given.
type EdgeDetectArgs struct {
	SourceImageID      string `json:"sourceImageId" validate:"required"`
	DetectionThreshold string `json:"detectionThreshold,omitempty" validate:"omitempty,oneof=all auto wide tight"`
	AutoID             string `json:"autoId,omitempty"`
	WideID             string `json:"wideId,omitempty"`
	TightID            string `json:"tightId,omitempty"`
}

// ScaleArgs describes a scale job. ScaleImage only matters for chained runs:
// an explicit false skips the step.
type ScaleArgs struct {
	SourceImageID string `json:"sourceImageId" validate:"required"`
	OutputID      string `json:"outputId,omitempty"`
	GroupID       string `json:"groupId,omitempty"`
	ScaleType     string `json:"scaleType,omitempty"`
	ScaleImage    *bool  `json:"scaleImage,omitempty"`
}

// Enabled reports whether a chained scale step should run.
func (a ScaleArgs) Enabled() bool {
	return a.ScaleImage == nil || *a.ScaleImage
}

type DistortArgs struct {
	SourceImageID   string `json:"sourceImageId" validate:"required"`
	OutputID        string `json:"outputId,omitempty"`
	DistortionSetID string `json:"distortionSetId,omitempty"`
}

func check(args any) error {
	if err := validate.Struct(args); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	return nil
}
