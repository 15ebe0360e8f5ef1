package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"picture-analysis/internal/queue"
	"picture-analysis/internal/shared/telemetry"
	"picture-analysis/internal/tasks"
)

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{BodyLen: 0, BodySHA: ""}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode or validation failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

func (e ErrDecode) Unwrap() error { return e.Err }

// ErrUnknownTask indicates a step naming a task no engine handles.
type ErrUnknownTask struct {
	TaskID string
	Task   string
}

func (e ErrUnknownTask) Error() string { return "unknown task " + e.Task }

// ErrProcess indicates the step could not be dispatched or its successor
// could not be enqueued.
type ErrProcess struct {
	TaskID    string
	RequestID string
	Err       error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process task"
	}
	return "process task: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// Dispatcher runs one step; *tasks.Orchestrator implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, step queue.Step, chained bool) error
}

// Processor executes the head step of a message and queues the rest.
type Processor struct {
	Dispatcher Dispatcher
	// Queue receives the remaining steps. When nil they run inline, in order.
	Queue queue.Client
}

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if err := msg.Validate(); err != nil {
		return msg, meta, ErrDecode{Meta: meta, Err: err}
	}
	return msg, meta, nil
}

// HandleMessage parses and processes a raw payload.
func (p *Processor) HandleMessage(ctx context.Context, body string) error {
	msg, _, err := ParseMessage(body)
	if err != nil {
		return err
	}
	return p.Process(ctx, msg)
}

// Process runs msg.Steps[0] and forwards the remaining steps.
func (p *Processor) Process(ctx context.Context, msg queue.Message) error {
	if p == nil || p.Dispatcher == nil {
		return errors.New("task dispatcher not configured")
	}
	for {
		if len(msg.Steps) == 0 {
			return ErrDecode{Err: errors.New("message has no steps")}
		}
		step := msg.Steps[0]
		fields := map[string]any{
			"task_id":    msg.TaskID,
			"request_id": msg.RequestID,
			"task":       step.Task,
			"chained":    msg.Chained,
			"remaining":  len(msg.Steps) - 1,
		}
		telemetry.Info("worker.step.started", fields)

		if err := p.Dispatcher.Dispatch(ctx, step, msg.Chained); err != nil {
			if errors.Is(err, tasks.ErrUnknownTask) {
				return ErrUnknownTask{TaskID: msg.TaskID, Task: step.Task}
			}
			return ErrProcess{TaskID: msg.TaskID, RequestID: msg.RequestID, Err: err}
		}

		next, ok := msg.Next()
		if !ok {
			return nil
		}
		if p.Queue == nil {
			msg = next
			continue
		}
		if err := p.Queue.Send(ctx, next); err != nil {
			return ErrProcess{TaskID: msg.TaskID, RequestID: msg.RequestID, Err: err}
		}
		telemetry.Info("worker.step.forwarded", fields)
		return nil
	}
}
