// Package tasks exposes the standalone and chained entry points for every
// picture transformation and contains their failures.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"picture-analysis/internal/distort"
	"picture-analysis/internal/edges"
	"picture-analysis/internal/groups"
	"picture-analysis/internal/lineage"
	"picture-analysis/internal/pictures"
	"picture-analysis/internal/scaling"
	"picture-analysis/internal/shared/metrics"
	"picture-analysis/internal/shared/telemetry"
)

// Archiver copies a finished picture file somewhere durable.
type Archiver interface {
	Archive(ctx context.Context, pic pictures.Picture) error
}

// Orchestrator runs engines against stored pictures and records their output.
// Entry points never return errors; each failure is logged once.
type Orchestrator struct {
	Pictures  pictures.Repo
	Groups    groups.Repo
	Edges     *edges.Engine
	Scaler    *scaling.Pipeline
	Distorter *distort.Engine
	Archiver  Archiver
	NewID     func() string
	Now       func() time.Time
}

func New(pics pictures.Repo, grps groups.Repo, edge *edges.Engine, scaler *scaling.Pipeline, distorter *distort.Engine) *Orchestrator {
	return &Orchestrator{
		Pictures:  pics,
		Groups:    grps,
		Edges:     edge,
		Scaler:    scaler,
		Distorter: distorter,
		NewID:     uuid.NewString,
		Now:       time.Now,
	}
}

// EdgeDetect runs the selected edge branches for a source picture.
func (o *Orchestrator) EdgeDetect(ctx context.Context, args EdgeDetectArgs) {
	o.edgeDetect(ctx, args, false)
}

// EdgeDetectChained is EdgeDetect as a continuation; upstream is ignored.
func (o *Orchestrator) EdgeDetectChained(ctx context.Context, _ any, args EdgeDetectArgs) {
	o.edgeDetect(ctx, args, true)
}

// ScaleImage resamples, blurs and colorizes a source picture.
func (o *Orchestrator) ScaleImage(ctx context.Context, args ScaleArgs) {
	o.scale(ctx, args, false)
}

// ScaleImageChained is ScaleImage as a continuation. When enabled is false the
// step is skipped and still counts as done.
func (o *Orchestrator) ScaleImageChained(ctx context.Context, _ any, args ScaleArgs, enabled bool) {
	if !enabled {
		metrics.IncTaskSkipped(TaskScaleImage)
		telemetry.Info("task.scale_image.skipped", map[string]any{
			"source_image_id": args.SourceImageID,
			"output_id":       args.OutputID,
		})
		return
	}
	o.scale(ctx, args, true)
}

// DistortImage warps a source picture with the control points of a distortion set.
func (o *Orchestrator) DistortImage(ctx context.Context, args DistortArgs) {
	o.distort(ctx, args, false)
}

// DistortImageChained is DistortImage as a continuation. It never carries a
// distortion set id.
func (o *Orchestrator) DistortImageChained(ctx context.Context, _ any, args DistortArgs) {
	args.DistortionSetID = ""
	o.distort(ctx, args, true)
}

func (o *Orchestrator) edgeDetect(ctx context.Context, args EdgeDetectArgs, chained bool) {
	fields := map[string]any{
		"source_image_id":     args.SourceImageID,
		"detection_threshold": args.DetectionThreshold,
		"chained":             chained,
	}
	o.run(TaskEdgeDetect, fields, func() error {
		if err := check(args); err != nil {
			return err
		}
		if o.Edges == nil {
			return fmt.Errorf("%w: edges", ErrNotConfigured)
		}
		sel, err := edges.ParseSelector(args.DetectionThreshold)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidArgs, err)
		}
		src, err := o.source(ctx, args.SourceImageID)
		if err != nil {
			return err
		}

		ids := edges.IDs{Auto: args.AutoID, Wide: args.WideID, Tight: args.TightID}
		if ids.Auto == "" && sel.Includes(edges.SelectAuto) {
			ids.Auto = o.newID()
		}
		plan := edges.Plan(sel, ids)
		if len(plan) == 0 {
			telemetry.Info("task.edge_detect.nothing_selected", fields)
			return nil
		}

		blurred, err := edges.Prepare(src.URI)
		if err != nil {
			return err
		}
		defer blurred.Close()

		// Each branch has its own failure scope.
		for _, p := range plan {
			branchFields := copyFields(fields)
			branchFields["branch"] = string(p.Branch.Name)
			branchFields["output_id"] = p.ID
			err := contain(func() error {
				if err := o.claim(ctx, p.ID); err != nil {
					return err
				}
				out, err := o.Edges.Run(blurred, src, p)
				if err != nil {
					return err
				}
				return o.persist(ctx, src, out)
			})
			if err != nil {
				o.fail(TaskEdgeDetect, branchFields, err)
			}
		}
		return nil
	})
}

func (o *Orchestrator) scale(ctx context.Context, args ScaleArgs, chained bool) {
	if args.OutputID == "" {
		args.OutputID = o.newID()
	}
	fields := map[string]any{
		"source_image_id": args.SourceImageID,
		"output_id":       args.OutputID,
		"group_id":        args.GroupID,
		"scale_type":      args.ScaleType,
		"chained":         chained,
	}
	o.run(TaskScaleImage, fields, func() error {
		if err := check(args); err != nil {
			return err
		}
		if o.Scaler == nil {
			return fmt.Errorf("%w: scaler", ErrNotConfigured)
		}
		src, err := o.source(ctx, args.SourceImageID)
		if err != nil {
			return err
		}
		group, err := o.group(ctx, args.GroupID)
		if err != nil {
			return err
		}
		if err := o.claim(ctx, args.OutputID); err != nil {
			return err
		}
		out, err := o.Scaler.Run(scaling.Request{
			Source:    src,
			OutputID:  args.OutputID,
			Group:     group,
			ScaleType: args.ScaleType,
		})
		if err != nil {
			return err
		}
		return o.persist(ctx, src, out)
	})
}

func (o *Orchestrator) distort(ctx context.Context, args DistortArgs, chained bool) {
	if args.OutputID == "" {
		args.OutputID = o.newID()
	}
	fields := map[string]any{
		"source_image_id":   args.SourceImageID,
		"output_id":         args.OutputID,
		"distortion_set_id": args.DistortionSetID,
		"chained":           chained,
	}
	o.run(TaskDistortImage, fields, func() error {
		if err := check(args); err != nil {
			return err
		}
		if o.Distorter == nil {
			return fmt.Errorf("%w: distorter", ErrNotConfigured)
		}
		src, err := o.source(ctx, args.SourceImageID)
		if err != nil {
			return err
		}
		if err := o.claim(ctx, args.OutputID); err != nil {
			return err
		}
		out, err := o.Distorter.Run(ctx, src, args.OutputID, args.DistortionSetID)
		if err != nil {
			return err
		}
		return o.persist(ctx, src, out)
	})
}

// run is the task boundary: it times fn, recovers panics and logs a failure once.
func (o *Orchestrator) run(task string, fields map[string]any, fn func() error) {
	start := time.Now()
	metrics.IncTaskStarted(task)
	err := contain(fn)
	metrics.ObserveTaskDuration(task, time.Since(start))
	if err != nil {
		o.fail(task, fields, err)
		return
	}
	telemetry.Debug("task."+task+".completed", fields)
}

func contain(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn()
}

func (o *Orchestrator) fail(task string, fields map[string]any, err error) {
	kind := failureKind(err)
	metrics.IncTaskFailed(task, kind)
	out := copyFields(fields)
	out["error"] = err.Error()
	out["kind"] = kind
	telemetry.Error("task."+task+".failed", out)
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, ErrMissingSource):
		return "missing_source"
	case errors.Is(err, ErrMissingGroup):
		return "missing_group"
	case errors.Is(err, ErrInvalidArgs):
		return "invalid_args"
	case errors.Is(err, pictures.ErrAlreadyExists):
		return "duplicate_output"
	case errors.Is(err, distort.ErrWarpFailed):
		return "external_process"
	case errors.Is(err, ErrPanic):
		return "panic"
	default:
		return "transform"
	}
}

func (o *Orchestrator) source(ctx context.Context, id string) (pictures.Picture, error) {
	src, err := o.Pictures.Get(ctx, id)
	if errors.Is(err, pictures.ErrNotFound) {
		return pictures.Picture{}, fmt.Errorf("%w: %s", ErrMissingSource, id)
	}
	if err != nil {
		return pictures.Picture{}, fmt.Errorf("load source %s: %w", id, err)
	}
	return src, nil
}

// group loads the group configuration; an empty id means no configuration.
func (o *Orchestrator) group(ctx context.Context, id string) (groups.Group, error) {
	if id == "" || o.Groups == nil {
		return groups.Group{ID: id}, nil
	}
	g, err := o.Groups.Get(ctx, id)
	if errors.Is(err, groups.ErrNotFound) {
		return groups.Group{}, fmt.Errorf("%w: %s", ErrMissingGroup, id)
	}
	if err != nil {
		return groups.Group{}, fmt.Errorf("load group %s: %w", id, err)
	}
	return g, nil
}

// claim fails early when a document already uses id so no file is overwritten.
func (o *Orchestrator) claim(ctx context.Context, id string) error {
	_, err := o.Pictures.Get(ctx, id)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s", pictures.ErrAlreadyExists, id)
	case errors.Is(err, pictures.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("check output %s: %w", id, err)
	}
}

// persist saves the document before moving the staged file into place. A
// failed save leaves any existing file at out.URI untouched.
func (o *Orchestrator) persist(ctx context.Context, src pictures.Picture, out lineage.Output) error {
	doc := lineage.Derive(src, out, o.now())
	if err := o.Pictures.Save(ctx, doc); err != nil {
		discard(out)
		return fmt.Errorf("save picture %s: %w", doc.ID, err)
	}
	if err := commit(out); err != nil {
		return err
	}
	metrics.IncDocumentCreated(doc.AnalysisType)
	telemetry.Info("picture.created", map[string]any{
		"picture_id":       doc.ID,
		"source_image_id":  src.ID,
		"analysis_type":    doc.AnalysisType,
		"edge_detect_type": doc.EdgeDetectType,
	})
	if o.Archiver != nil {
		if err := o.Archiver.Archive(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

func commit(out lineage.Output) error {
	if out.Staged == "" || out.Staged == out.URI {
		return nil
	}
	if err := os.Rename(out.Staged, out.URI); err != nil {
		discard(out)
		return fmt.Errorf("commit %s: %w", out.URI, err)
	}
	return nil
}

func discard(out lineage.Output) {
	if out.Staged != "" && out.Staged != out.URI {
		_ = os.Remove(out.Staged)
	}
}

func (o *Orchestrator) newID() string {
	if o.NewID == nil {
		return uuid.NewString()
	}
	return o.NewID()
}

func (o *Orchestrator) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

func copyFields(in map[string]any) map[string]any {
	out := make(map[string]any, len(in)+2)
	for k, v := range in {
		out[k] = v
	}
	return out
}
