package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"picture-analysis/internal/bootstrap"
	"picture-analysis/internal/pictures"
	"picture-analysis/internal/queue"
	"picture-analysis/internal/tasks"
	"picture-analysis/internal/workerproc"
)

const (
	statusCreated  = "created"
	statusMissing  = "not created"
	statusEnqueued = "enqueued"
)

type stepResult struct {
	Task   string            `json:"task"`
	IDs    map[string]string `json:"ids"`
	Status map[string]string `json:"status"`
}

type runResult struct {
	TaskID string       `json:"taskId"`
	Mode   string       `json:"mode"`
	Steps  []stepResult `json:"steps"`
}

// inlineQueue runs messages as soon as they are sent.
type inlineQueue struct {
	proc *workerproc.Processor
}

func (q inlineQueue) Send(ctx context.Context, msg queue.Message) error {
	return q.proc.Process(ctx, msg)
}

func newEdgeDetectCommand(opts *Options) *cobra.Command {
	var (
		args    tasks.EdgeDetectArgs
		enqueue bool
	)
	cmd := &cobra.Command{
		Use:   "edge-detect <source-image-id>",
		Short: "Detect edges on a source picture",
		Example: `  # Auto thresholds only
  analysisctl edge-detect pic-1 --threshold auto

  # All three branches with explicit ids
  analysisctl edge-detect pic-1 --auto-id a1 --wide-id w1 --tight-id t1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, pos []string) error {
			args.SourceImageID = pos[0]
			return opts.runSteps(cmd.Context(), enqueue, step(tasks.TaskEdgeDetect, args))
		},
	}
	cmd.Flags().StringVar(&args.DetectionThreshold, "threshold", "all", "branch selector: all, auto, wide or tight")
	cmd.Flags().StringVar(&args.AutoID, "auto-id", "", "output id for the auto branch (generated when empty)")
	cmd.Flags().StringVar(&args.WideID, "wide-id", "", "output id for the wide branch")
	cmd.Flags().StringVar(&args.TightID, "tight-id", "", "output id for the tight branch")
	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "send to the queue instead of running in-process")
	return cmd
}

func newScaleCommand(opts *Options) *cobra.Command {
	var (
		args    tasks.ScaleArgs
		enqueue bool
	)
	cmd := &cobra.Command{
		Use:   "scale <source-image-id>",
		Short: "Scale, blur and colorize a grayscale picture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, pos []string) error {
			args.SourceImageID = pos[0]
			return opts.runSteps(cmd.Context(), enqueue, step(tasks.TaskScaleImage, args))
		},
	}
	cmd.Flags().StringVar(&args.OutputID, "output-id", "", "id of the derived picture (generated when empty)")
	cmd.Flags().StringVar(&args.GroupID, "group", "", "group whose defaults apply")
	cmd.Flags().StringVar(&args.ScaleType, "scale-type", "", "override the group scale type, e.g. colorize_bicubic")
	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "send to the queue instead of running in-process")
	return cmd
}

func newDistortCommand(opts *Options) *cobra.Command {
	var (
		args    tasks.DistortArgs
		enqueue bool
	)
	cmd := &cobra.Command{
		Use:   "distort <source-image-id>",
		Short: "Apply a Shepards distortion with the external warp tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, pos []string) error {
			args.SourceImageID = pos[0]
			return opts.runSteps(cmd.Context(), enqueue, step(tasks.TaskDistortImage, args))
		},
	}
	cmd.Flags().StringVar(&args.OutputID, "output-id", "", "id of the derived picture (generated when empty)")
	cmd.Flags().StringVar(&args.DistortionSetID, "set", "", "distortion set holding the control points")
	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "send to the queue instead of running in-process")
	return cmd
}

func newChainCommand(opts *Options) *cobra.Command {
	var (
		file    string
		enqueue bool
	)
	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Run a JSON list of steps in order",
		Long: `Reads a JSON array of {"task": ..., "args": {...}} objects and runs them
as one chain. Each step after the first runs in chained mode.`,
		Example: `  echo '[{"task":"distort_image","args":{"sourceImageId":"pic-1"}},
         {"task":"scale_image","args":{"sourceImageId":"pic-1","scaleImage":false}}]' \
    | analysisctl chain --file -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			var steps []tasks.RawStep
			if err := json.Unmarshal(raw, &steps); err != nil {
				return fmt.Errorf("parse steps: %w", err)
			}
			return opts.runSteps(cmd.Context(), enqueue, steps...)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "steps file, - for stdin")
	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "send to the queue instead of running in-process")
	return cmd
}

func readInput(stdin io.Reader, file string) ([]byte, error) {
	if file == "" || file == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(file)
}

func step(task string, args any) tasks.RawStep {
	raw, _ := json.Marshal(args)
	return tasks.RawStep{Task: task, Args: raw}
}

func (o *Options) runSteps(ctx context.Context, enqueue bool, steps ...tasks.RawStep) error {
	app, err := o.App()
	if err != nil {
		return err
	}

	client, mode, err := o.queueFor(app, enqueue)
	if err != nil {
		return err
	}
	out, err := newTaskService(client).EnqueueChain(ctx, "", steps)
	if err != nil {
		return err
	}
	return o.printRun(summarize(ctx, app, out, mode))
}

// queueFor picks the configured queue for --enqueue and an inline runner otherwise.
func (o *Options) queueFor(app *bootstrap.App, enqueue bool) (queue.Client, string, error) {
	if !enqueue {
		return inlineQueue{proc: &workerproc.Processor{Dispatcher: app.Orchestrator}}, "inline", nil
	}
	if app.MemoryQueue != nil {
		return nil, "", errors.New("--enqueue needs PA_SQS_QUEUE_URL")
	}
	return app.Queue, "enqueued", nil
}

func newTaskService(client queue.Client) *tasks.Service {
	return tasks.NewService(client)
}

func summarize(ctx context.Context, app *bootstrap.App, out tasks.Enqueued, mode string) runResult {
	res := runResult{TaskID: out.TaskID, Mode: mode}
	for _, s := range out.OutputIDs {
		status := make(map[string]string, len(s.IDs))
		for name, id := range s.IDs {
			switch {
			case mode == "enqueued":
				status[name] = statusEnqueued
			case exists(ctx, app.Pictures, id):
				status[name] = statusCreated
			default:
				status[name] = statusMissing
			}
		}
		res.Steps = append(res.Steps, stepResult{Task: s.Task, IDs: s.IDs, Status: status})
	}
	return res
}

func exists(ctx context.Context, repo pictures.Repo, id string) bool {
	if id == "" {
		return false
	}
	_, err := repo.Get(ctx, id)
	return err == nil
}
