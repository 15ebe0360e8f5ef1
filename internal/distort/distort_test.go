package distort

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"picture-analysis/internal/distortions"
	"picture-analysis/internal/naming"
	"picture-analysis/internal/pictures"
	"picture-analysis/internal/shared/telemetry"
)

type fakeWarper struct {
	calls int
	spec  string
	err   error
}

func (f *fakeWarper) Warp(_ context.Context, in, spec, out string) error {
	f.calls++
	f.spec = spec
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(out, []byte("warped"), 0o644)
}

func seededPairs() *distortions.MemoryRepo {
	return distortions.NewMemoryRepo(
		distortions.Pair{ID: "b", DistortionSetID: "set-1", Position: 2, StartX: 5, StartY: 6, EndX: 7, EndY: 8},
		distortions.Pair{ID: "a", DistortionSetID: "set-1", Position: 1, StartX: 1, StartY: 2, EndX: 3, EndY: 4},
		distortions.Pair{ID: "c", DistortionSetID: "set-2", Position: 1},
	)
}

func TestSetSourceFormatsPairsInOrder(t *testing.T) {
	got, err := SetSource{Pairs: seededPairs()}.ControlPoints(context.Background(), "set-1")
	if err != nil {
		t.Fatalf("ControlPoints: %v", err)
	}
	if got != "1,2,3,4 5,6,7,8" {
		t.Fatalf("unexpected spec %q", got)
	}
}

func TestFixedSourceOverridesAndWarns(t *testing.T) {
	var buf bytes.Buffer
	telemetry.SetOutput(&buf)
	t.Cleanup(func() { telemetry.SetOutput(os.Stdout) })

	src := FixedSource{Pairs: seededPairs(), Literal: "300,110 350,140  600,310 650,340"}
	got, err := src.ControlPoints(context.Background(), "set-1")
	if err != nil {
		t.Fatalf("ControlPoints: %v", err)
	}
	if got != src.Literal {
		t.Fatalf("expected literal, got %q", got)
	}
	if !strings.Contains(buf.String(), "distort.control_points.overridden") || !strings.Contains(buf.String(), `"fetched_pairs":2`) {
		t.Fatalf("expected override warning, got %q", buf.String())
	}
}

func TestNewSource(t *testing.T) {
	if s, err := NewSource(SourceSet, "", seededPairs()); err != nil {
		t.Fatalf("set: %v", err)
	} else if _, ok := s.(SetSource); !ok {
		t.Fatalf("expected SetSource, got %T", s)
	}
	if _, err := NewSource("random", "", nil); !errors.Is(err, ErrUnknownSource) {
		t.Fatalf("expected ErrUnknownSource, got %v", err)
	}
}

func TestEngineRejectsEmptyControlPoints(t *testing.T) {
	w := &fakeWarper{}
	eng := NewEngine(SetSource{Pairs: seededPairs()}, w, naming.New(t.TempDir(), ".png"))

	_, err := eng.Run(context.Background(), pictures.Picture{ID: "src"}, "out-1", "missing-set")
	if !errors.Is(err, ErrNoControlPoints) {
		t.Fatalf("expected ErrNoControlPoints, got %v", err)
	}
	if w.calls != 0 {
		t.Fatalf("warper should not run, ran %d times", w.calls)
	}
}

func TestEngineWritesOutput(t *testing.T) {
	dir := t.TempDir()
	w := &fakeWarper{}
	eng := NewEngine(SetSource{Pairs: seededPairs()}, w, naming.New(dir, ".png"))

	out, err := eng.Run(context.Background(), pictures.Picture{ID: "src", URI: "/in.png", SnapID: "snap"}, "out-1", "set-1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.AnalysisType != "distort" || out.URI != filepath.Join(dir, "snap", "out-1.png") {
		t.Fatalf("unexpected output %+v", out)
	}
	if raw, err := os.ReadFile(out.Staged); err != nil || string(raw) != "warped" {
		t.Fatalf("warp output not at staged path %q: %v", out.Staged, err)
	}
	if w.spec != "1,2,3,4 5,6,7,8" {
		t.Fatalf("unexpected spec %q", w.spec)
	}
}

func TestEnginePropagatesWarpFailure(t *testing.T) {
	w := &fakeWarper{err: ErrWarpFailed}
	eng := NewEngine(FixedSource{Literal: "1,1 2,2"}, w, naming.New(t.TempDir(), ".png"))
	if _, err := eng.Run(context.Background(), pictures.Picture{ID: "src"}, "out", ""); !errors.Is(err, ErrWarpFailed) {
		t.Fatalf("expected ErrWarpFailed, got %v", err)
	}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not available")
	}
	path := filepath.Join(t.TempDir(), "warp.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestMagickWarperPassesArgumentVector(t *testing.T) {
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args.txt")
	script := writeScript(t, `printf '%s\n' "$@" > "`+argsFile+`"; echo ok > "$5"`)

	w := NewMagickWarper(script, 10*time.Second)
	in := filepath.Join(dir, "in; rm -rf x.png")
	out := filepath.Join(dir, "out.png")
	if err := w.Warp(context.Background(), in, "300,110 350,140", out); err != nil {
		t.Fatalf("Warp: %v", err)
	}

	raw, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("read args: %v", err)
	}
	got := strings.Split(strings.TrimSpace(string(raw)), "\n")
	want := []string{in, "-distort", "Shepards", "300,110 350,140", out}
	if len(got) != len(want) {
		t.Fatalf("got args %q want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("arg %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestMagickWarperNonZeroExit(t *testing.T) {
	script := writeScript(t, `echo partial > "$5"; echo "bad geometry" >&2; exit 3`)
	w := NewMagickWarper(script, 0)
	out := filepath.Join(t.TempDir(), "out.png")
	err := w.Warp(context.Background(), "in.png", "1,1 2,2", out)
	if !errors.Is(err, ErrWarpFailed) {
		t.Fatalf("expected ErrWarpFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "bad geometry") {
		t.Fatalf("stderr not reported: %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("partial output left behind: %v", err)
	}
}

func TestMagickWarperEmptyOutput(t *testing.T) {
	script := writeScript(t, `: > "$5"`)
	w := NewMagickWarper(script, 0)
	out := filepath.Join(t.TempDir(), "out.png")
	if err := w.Warp(context.Background(), "in.png", "1,1 2,2", out); !errors.Is(err, ErrWarpFailed) {
		t.Fatalf("expected ErrWarpFailed, got %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("empty output left behind: %v", err)
	}
}

func TestMagickWarperTimeoutRemovesOutput(t *testing.T) {
	script := writeScript(t, `echo partial > "$5"; exec sleep 5`)
	w := NewMagickWarper(script, 100*time.Millisecond)
	out := filepath.Join(t.TempDir(), "out.png")
	if err := w.Warp(context.Background(), "in.png", "1,1 2,2", out); !errors.Is(err, ErrWarpFailed) {
		t.Fatalf("expected ErrWarpFailed, got %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("partial output left behind: %v", err)
	}
}

func TestMagickWarperMissingOutput(t *testing.T) {
	script := writeScript(t, `exit 0`)
	w := NewMagickWarper(script, 0)
	err := w.Warp(context.Background(), "in.png", "1,1 2,2", filepath.Join(t.TempDir(), "out.png"))
	if !errors.Is(err, ErrWarpFailed) {
		t.Fatalf("expected ErrWarpFailed, got %v", err)
	}
}
