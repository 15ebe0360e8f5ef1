package distort

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Warper applies a Shepards distortion from inPath to outPath.
type Warper interface {
	Warp(ctx context.Context, inPath, controlPoints, outPath string) error
}

// MagickWarper runs an ImageMagick compatible command with an argument vector.
type MagickWarper struct {
	Command string
	Timeout time.Duration
}

func NewMagickWarper(command string, timeout time.Duration) *MagickWarper {
	if command == "" {
		command = "convert"
	}
	return &MagickWarper{Command: command, Timeout: timeout}
}

// Args returns the argument vector passed to Command.
func (w *MagickWarper) Args(inPath, controlPoints, outPath string) []string {
	return []string{inPath, "-distort", "Shepards", controlPoints, outPath}
}

// Warp runs Command and checks it left a non-empty file at outPath. On failure
// nothing is left at outPath.
func (w *MagickWarper) Warp(ctx context.Context, inPath, controlPoints, outPath string) (err error) {
	defer func() {
		if err != nil {
			_ = os.Remove(outPath)
		}
	}()
	if w.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, w.Command, w.Args(inPath, controlPoints, outPath)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if runErr := cmd.Run(); runErr != nil {
		msg := strings.TrimSpace(stderr.String())
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %s: %v", ErrWarpFailed, w.Command, ctx.Err())
		}
		return fmt.Errorf("%w: %s: %v: %s", ErrWarpFailed, w.Command, runErr, msg)
	}

	info, statErr := os.Stat(outPath)
	if statErr != nil {
		return fmt.Errorf("%w: no output at %s: %v", ErrWarpFailed, outPath, statErr)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: empty output at %s", ErrWarpFailed, outPath)
	}
	return nil
}
