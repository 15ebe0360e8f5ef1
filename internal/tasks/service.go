package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"picture-analysis/internal/edges"
	"picture-analysis/internal/queue"
)

// Service turns task requests into queue messages. It fills generated output
// ids before enqueueing so callers learn them up front.
type Service struct {
	Queue queue.Client
	NewID func() string
	Now   func() time.Time
}

func NewService(q queue.Client) *Service {
	return &Service{Queue: q, NewID: uuid.NewString, Now: time.Now}
}

// Enqueued reports the queued task and the output ids each step will write.
type Enqueued struct {
	TaskID    string    `json:"taskId"`
	OutputIDs []StepIDs `json:"outputIds"`
}

// StepIDs lists the output ids of one step.
type StepIDs struct {
	Task string            `json:"task"`
	IDs  map[string]string `json:"ids"`
}

// RawStep is a chain step as received from callers.
type RawStep struct {
	Task string          `json:"task"`
	Args json.RawMessage `json:"args"`
}

// EnqueueChain validates and queues steps in order.
func (s *Service) EnqueueChain(ctx context.Context, requestID string, raw []RawStep) (Enqueued, error) {
	if len(raw) == 0 {
		return Enqueued{}, fmt.Errorf("%w: at least one step is required", ErrInvalidArgs)
	}
	steps := make([]queue.Step, 0, len(raw))
	ids := make([]StepIDs, 0, len(raw))
	for i, r := range raw {
		step, stepIDs, err := s.prepare(r)
		if err != nil {
			return Enqueued{}, fmt.Errorf("step %d: %w", i, err)
		}
		steps = append(steps, step)
		ids = append(ids, stepIDs)
	}

	msg := queue.Message{
		TaskID:     s.newID(),
		RequestID:  requestID,
		EnqueuedAt: s.now().UTC().Format(time.RFC3339),
		Version:    queue.MessageVersion,
		Steps:      steps,
	}
	if err := msg.Validate(); err != nil {
		return Enqueued{}, fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	if s.Queue == nil {
		return Enqueued{}, errors.New("queue not configured")
	}
	if err := s.Queue.Send(ctx, msg); err != nil {
		return Enqueued{}, err
	}
	return Enqueued{TaskID: msg.TaskID, OutputIDs: ids}, nil
}

// Enqueue queues a single task.
func (s *Service) Enqueue(ctx context.Context, requestID, task string, args any) (Enqueued, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return Enqueued{}, fmt.Errorf("encode %s args: %w", task, err)
	}
	return s.EnqueueChain(ctx, requestID, []RawStep{{Task: task, Args: raw}})
}

func (s *Service) prepare(r RawStep) (queue.Step, StepIDs, error) {
	switch r.Task {
	case TaskEdgeDetect:
		var args EdgeDetectArgs
		if err := decodeArgs(r.Args, &args); err != nil {
			return queue.Step{}, StepIDs{}, err
		}
		if err := check(args); err != nil {
			return queue.Step{}, StepIDs{}, err
		}
		sel, err := edges.ParseSelector(args.DetectionThreshold)
		if err != nil {
			return queue.Step{}, StepIDs{}, fmt.Errorf("%w: %v", ErrInvalidArgs, err)
		}
		if args.AutoID == "" && sel.Includes(edges.SelectAuto) {
			args.AutoID = s.newID()
		}
		ids := map[string]string{}
		for _, p := range edges.Plan(sel, edges.IDs{Auto: args.AutoID, Wide: args.WideID, Tight: args.TightID}) {
			ids[string(p.Branch.Name)] = p.ID
		}
		step, err := NewStep(r.Task, args)
		return step, StepIDs{Task: r.Task, IDs: ids}, err
	case TaskScaleImage:
		var args ScaleArgs
		if err := decodeArgs(r.Args, &args); err != nil {
			return queue.Step{}, StepIDs{}, err
		}
		if err := check(args); err != nil {
			return queue.Step{}, StepIDs{}, err
		}
		if args.OutputID == "" {
			args.OutputID = s.newID()
		}
		step, err := NewStep(r.Task, args)
		return step, StepIDs{Task: r.Task, IDs: map[string]string{"output": args.OutputID}}, err
	case TaskDistortImage:
		var args DistortArgs
		if err := decodeArgs(r.Args, &args); err != nil {
			return queue.Step{}, StepIDs{}, err
		}
		if err := check(args); err != nil {
			return queue.Step{}, StepIDs{}, err
		}
		if args.OutputID == "" {
			args.OutputID = s.newID()
		}
		step, err := NewStep(r.Task, args)
		return step, StepIDs{Task: r.Task, IDs: map[string]string{"output": args.OutputID}}, err
	}
	return queue.Step{}, StepIDs{}, fmt.Errorf("%w: %q", ErrUnknownTask, r.Task)
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
