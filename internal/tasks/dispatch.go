package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"picture-analysis/internal/queue"
)

// Dispatch runs one queued step. Chained steps use the continuation entry
// points. Only an unknown task returns an error; bad arguments are a task
// failure like any other and the chain moves on.
func (o *Orchestrator) Dispatch(ctx context.Context, step queue.Step, chained bool) error {
	switch step.Task {
	case TaskEdgeDetect:
		var args EdgeDetectArgs
		if err := decodeArgs(step.Args, &args); err != nil {
			o.rejectArgs(step.Task, chained, err)
			return nil
		}
		if chained {
			o.EdgeDetectChained(ctx, nil, args)
		} else {
			o.EdgeDetect(ctx, args)
		}
	case TaskScaleImage:
		var args ScaleArgs
		if err := decodeArgs(step.Args, &args); err != nil {
			o.rejectArgs(step.Task, chained, err)
			return nil
		}
		if chained {
			o.ScaleImageChained(ctx, nil, args, args.Enabled())
		} else {
			o.ScaleImage(ctx, args)
		}
	case TaskDistortImage:
		var args DistortArgs
		if err := decodeArgs(step.Args, &args); err != nil {
			o.rejectArgs(step.Task, chained, err)
			return nil
		}
		if chained {
			o.DistortImageChained(ctx, nil, args)
		} else {
			o.DistortImage(ctx, args)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTask, step.Task)
	}
	return nil
}

// rejectArgs records an undecodable step through the task boundary so it is
// logged and counted once.
func (o *Orchestrator) rejectArgs(task string, chained bool, err error) {
	o.run(task, map[string]any{"chained": chained}, func() error { return err })
}

func decodeArgs(raw json.RawMessage, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	return nil
}

// NewStep encodes args for task.
func NewStep(task string, args any) (queue.Step, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return queue.Step{}, fmt.Errorf("encode %s args: %w", task, err)
	}
	return queue.Step{Task: task, Args: raw}, nil
}
