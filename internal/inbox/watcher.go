// Package inbox registers image files dropped into a directory and optionally
// queues a task chain for each one.
package inbox

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"picture-analysis/internal/imaging"
	"picture-analysis/internal/pictures"
	"picture-analysis/internal/shared/telemetry"
	"picture-analysis/internal/shared/util"
	"picture-analysis/internal/tasks"
)

// DefaultSettle is how long a file must stay quiet before it is ingested.
const DefaultSettle = 500 * time.Millisecond

type Registrar interface {
	Register(ctx context.Context, in pictures.RegisterInput) (pictures.Picture, error)
}

type Enqueuer interface {
	EnqueueChain(ctx context.Context, requestID string, raw []tasks.RawStep) (tasks.Enqueued, error)
}

// Watcher ingests files created in Dir.
type Watcher struct {
	Dir      string
	GroupID  string
	SnapID   string
	Steps    []string
	Settle   time.Duration
	Pictures Registrar
	Tasks    Enqueuer

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// Run watches Dir until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("create inbox %s: %w", w.Dir, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(w.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.Dir, err)
	}

	settle := w.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}
	ready := make(chan string, 16)
	w.mu.Lock()
	w.pending = make(map[string]*time.Timer)
	w.mu.Unlock()
	defer w.stopTimers()

	telemetry.Info("inbox.watching", map[string]any{"dir": w.Dir, "steps": w.Steps})
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 || !imaging.SupportedFile(event.Name) {
				continue
			}
			w.schedule(ctx, event.Name, settle, ready)
		case path := <-ready:
			if _, err := w.Ingest(ctx, path); err != nil {
				telemetry.Error("inbox.ingest_failed", map[string]any{"path": path, "error": err.Error()})
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			telemetry.Warn("inbox.watch_error", map[string]any{"error": err.Error()})
		}
	}
}

// schedule restarts the settle timer for path.
func (w *Watcher) schedule(ctx context.Context, path string, settle time.Duration, ready chan<- string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		select {
		case ready <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

// idFor names a dropped file's picture after the file without its extension.
// An empty result lets the registrar generate one.
func idFor(path string) string {
	name, err := util.SanitizeFileName(filepath.Base(path))
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Ingest registers path and queues the configured chain for it.
func (w *Watcher) Ingest(ctx context.Context, path string) (pictures.Picture, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return pictures.Picture{}, err
	}
	pic, err := w.Pictures.Register(ctx, pictures.RegisterInput{
		ID:       idFor(abs),
		GroupID:  w.GroupID,
		SnapID:   w.SnapID,
		URI:      abs,
		Filename: filepath.Base(abs),
	})
	if err != nil {
		return pictures.Picture{}, fmt.Errorf("register %s: %w", abs, err)
	}
	fields := map[string]any{"picture_id": pic.ID, "path": abs}

	if len(w.Steps) == 0 || w.Tasks == nil {
		telemetry.Info("inbox.registered", fields)
		return pic, nil
	}
	steps, err := ChainFor(w.Steps, pic.ID, w.GroupID)
	if err != nil {
		return pic, err
	}
	out, err := w.Tasks.EnqueueChain(ctx, "inbox:"+pic.ID, steps)
	if err != nil {
		return pic, fmt.Errorf("enqueue chain for %s: %w", pic.ID, err)
	}
	fields["task_id"] = out.TaskID
	telemetry.Info("inbox.registered", fields)
	return pic, nil
}

// ChainFor builds one step per task name, each reading from pictureID.
func ChainFor(names []string, pictureID, groupID string) ([]tasks.RawStep, error) {
	steps := make([]tasks.RawStep, 0, len(names))
	for _, name := range names {
		var args any
		switch name {
		case tasks.TaskEdgeDetect:
			args = tasks.EdgeDetectArgs{SourceImageID: pictureID}
		case tasks.TaskScaleImage:
			args = tasks.ScaleArgs{SourceImageID: pictureID, GroupID: groupID}
		case tasks.TaskDistortImage:
			args = tasks.DistortArgs{SourceImageID: pictureID}
		default:
			return nil, fmt.Errorf("%w: %q", tasks.ErrUnknownTask, name)
		}
		raw, err := json.Marshal(args)
		if err != nil {
			return nil, err
		}
		steps = append(steps, tasks.RawStep{Task: name, Args: raw})
	}
	return steps, nil
}
