package bootstrap

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"net/http/httptest"
	"testing"

	"picture-analysis/internal/pictures"
	"picture-analysis/internal/shared/config"
)

func TestBuildDevUsesMemoryBackends(t *testing.T) {
	cfg := config.Config{
		Env:                "dev",
		PictureDir:         t.TempDir(),
		PictureExt:         ".png",
		StillWidth:         64,
		StillHeight:        48,
		ControlPointSource: "fixed",
		FixedControlPoints: config.DefaultFixedControlPoints,
		TaskRatePerSecond:  1,
		TaskBurst:          1,
	}
	app, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if app.DB != nil {
		t.Fatalf("expected no database")
	}
	if _, ok := app.Pictures.(*pictures.MemoryRepo); !ok {
		t.Fatalf("expected memory picture repo, got %T", app.Pictures)
	}
	if app.MemoryQueue == nil || app.Queue == nil {
		t.Fatalf("expected in-process queue")
	}
	if app.Store != nil || app.Orchestrator.Archiver != nil {
		t.Fatalf("archiving should be off without OBJECT_STORE")
	}

	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("health returned %d", resp.Code)
	}
}

func TestBuildLocalStoreEnablesArchive(t *testing.T) {
	cfg := config.Config{
		Env:             "dev",
		PictureDir:      t.TempDir(),
		ObjectStoreType: "local",
		LocalStoreDir:   t.TempDir(),
		StillWidth:      64,
		StillHeight:     48,
	}
	app, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if app.Orchestrator.Archiver == nil {
		t.Fatalf("expected archiver with local store")
	}
}

func TestBuildRejectsUnknownControlPointSource(t *testing.T) {
	_, err := Build(config.Config{Env: "dev", ControlPointSource: "random"})
	if err == nil {
		t.Fatalf("expected error for unknown control point source")
	}
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	if _, err := Build(config.Config{Env: "production"}); err == nil {
		t.Fatalf("expected error without DATABASE_URL in production")
	}
}

func TestBuildAppliesSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	doc := "groups:\n  - id: g1\n    scaleType: bicubic\ndistortionSets:\n  - id: s1\n    pairs: [\"1,2,3,4\"]\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	app, err := Build(config.Config{Env: "dev", PictureDir: t.TempDir(), SeedFile: path})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	g, err := app.Groups.Get(context.Background(), "g1")
	if err != nil || g.ScaleType != "bicubic" {
		t.Fatalf("seeded group missing: %+v %v", g, err)
	}
	pairs, err := app.Distortions.ListBySet(context.Background(), "s1")
	if err != nil || len(pairs) != 1 {
		t.Fatalf("seeded pairs missing: %+v %v", pairs, err)
	}
}

func TestBuildInboxValidatesSteps(t *testing.T) {
	cfg := config.Config{Env: "dev", PictureDir: t.TempDir(), InboxDir: t.TempDir(), InboxSteps: []string{"edge_detect"}}
	app, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if app.Inbox == nil || app.Inbox.Dir != cfg.InboxDir {
		t.Fatalf("expected inbox watcher, got %+v", app.Inbox)
	}

	cfg.InboxSteps = []string{"sharpen"}
	if _, err := Build(cfg); err == nil {
		t.Fatalf("expected unknown inbox step to fail")
	}
}
