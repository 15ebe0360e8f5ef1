package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"picture-analysis/internal/pictures"
	"picture-analysis/internal/queue"
)

func TestDispatchUnknownTask(t *testing.T) {
	f := newFixture(t)
	err := f.orch.Dispatch(context.Background(), queue.Step{Task: "sharpen", Args: json.RawMessage(`{}`)}, false)
	if !errors.Is(err, ErrUnknownTask) {
		t.Fatalf("expected ErrUnknownTask, got %v", err)
	}
}

func TestDispatchContainsUnknownFields(t *testing.T) {
	f := newFixture(t)
	f.addGraySource(t, "a")
	step := queue.Step{Task: TaskScaleImage, Args: json.RawMessage(`{"sourceImageId":"a","outputId":"s-1","bogus":1}`)}
	if err := f.orch.Dispatch(context.Background(), step, false); err != nil {
		t.Fatalf("bad arguments should be contained, got %v", err)
	}
	if _, err := f.pics.Get(context.Background(), "s-1"); !errors.Is(err, pictures.ErrNotFound) {
		t.Fatalf("expected no document, got %v", err)
	}
	logs := f.logs.String()
	if strings.Count(logs, "task.scale_image.failed") != 1 || !strings.Contains(logs, "invalid_args") {
		t.Fatalf("expected one invalid_args failure, got %s", logs)
	}
}

func TestDispatchRunsEdgeDetect(t *testing.T) {
	f := newFixture(t)
	f.addGraySource(t, "src")

	step, err := NewStep(TaskEdgeDetect, EdgeDetectArgs{SourceImageID: "src", DetectionThreshold: "auto", AutoID: "e-1"})
	if err != nil {
		t.Fatalf("NewStep: %v", err)
	}
	if err := f.orch.Dispatch(context.Background(), step, true); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if _, err := f.pics.Get(context.Background(), "e-1"); err != nil {
		t.Fatalf("expected document: %v", err)
	}
}

func TestDispatchChainedScaleHonoursFlag(t *testing.T) {
	f := newFixture(t)
	f.addGraySource(t, "src")

	off := false
	step, _ := NewStep(TaskScaleImage, ScaleArgs{SourceImageID: "src", OutputID: "s-1", ScaleImage: &off})
	if err := f.orch.Dispatch(context.Background(), step, true); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if _, err := f.pics.Get(context.Background(), "s-1"); err == nil {
		t.Fatalf("disabled chained scale wrote a document")
	}

	// The flag only applies to chained runs.
	if err := f.orch.Dispatch(context.Background(), step, false); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if _, err := f.pics.Get(context.Background(), "s-1"); err != nil {
		t.Fatalf("standalone scale should run: %v", err)
	}
}
