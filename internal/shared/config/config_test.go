package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("STILL_IMAGE_WIDTH", "")
	t.Setenv("DISTORT_CONTROL_POINT_SOURCE", "")
	t.Setenv("OBJECT_STORE", "")

	cfg := Load()
	if cfg.Env != "dev" {
		t.Fatalf("expected dev env, got %s", cfg.Env)
	}
	if cfg.StillWidth != 640 || cfg.StillHeight != 480 {
		t.Fatalf("unexpected size %dx%d", cfg.StillWidth, cfg.StillHeight)
	}
	if cfg.ControlPointSource != "fixed" {
		t.Fatalf("expected fixed control points, got %s", cfg.ControlPointSource)
	}
	if cfg.ObjectStoreType != "" {
		t.Fatalf("expected archive disabled, got %q", cfg.ObjectStoreType)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STILL_IMAGE_WIDTH", "320")
	t.Setenv("STILL_IMAGE_HEIGHT", "bogus")
	t.Setenv("PICTURE_EXT", "JPG")
	t.Setenv("WARP_TIMEOUT", "15s")
	t.Setenv("DISTORT_CONTROL_POINT_SOURCE", "SET")

	cfg := Load()
	if cfg.StillWidth != 320 {
		t.Fatalf("expected width 320, got %d", cfg.StillWidth)
	}
	if cfg.StillHeight != 480 {
		t.Fatalf("expected fallback height 480, got %d", cfg.StillHeight)
	}
	if cfg.PictureExt != ".jpg" {
		t.Fatalf("expected .jpg, got %s", cfg.PictureExt)
	}
	if cfg.WarpTimeout != 15*time.Second {
		t.Fatalf("expected 15s, got %s", cfg.WarpTimeout)
	}
	if cfg.ControlPointSource != "set" {
		t.Fatalf("expected set, got %s", cfg.ControlPointSource)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" http://a.test , ,http://b.test")
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Fatalf("unexpected list %q", got)
	}
}

func TestTaskRateLimitFromEnv(t *testing.T) {
	t.Setenv("PA_TASK_RATE_PER_SECOND", "0.5")
	t.Setenv("PA_TASK_BURST", "3")
	cfg := Load()
	if cfg.TaskRatePerSecond != 0.5 || cfg.TaskBurst != 3 {
		t.Fatalf("unexpected rate limit %v/%d", cfg.TaskRatePerSecond, cfg.TaskBurst)
	}

	t.Setenv("PA_TASK_RATE_PER_SECOND", "fast")
	if got := Load().TaskRatePerSecond; got != 5 {
		t.Fatalf("invalid rate should fall back, got %v", got)
	}
}

func TestParseEnvLine(t *testing.T) {
	cases := []struct {
		line, key, val string
		ok             bool
	}{
		{"PORT=9090", "PORT", "9090", true},
		{"export WARP_COMMAND=magick", "WARP_COMMAND", "magick", true},
		{`PICTURE_DIR="/srv/pictures dir"`, "PICTURE_DIR", "/srv/pictures dir", true},
		{"LOG_LEVEL=debug # noisy", "LOG_LEVEL", "debug", true},
		{"# comment", "", "", false},
		{"NOEQUALS", "", "", false},
	}
	for _, tc := range cases {
		key, val, ok := parseEnvLine(tc.line)
		if ok != tc.ok || key != tc.key || val != tc.val {
			t.Fatalf("%q: got (%q, %q, %v)", tc.line, key, val, ok)
		}
	}
}

func TestInboxSettingsFromEnv(t *testing.T) {
	t.Setenv("PA_INBOX_DIR", "/srv/inbox")
	t.Setenv("PA_INBOX_STEPS", "edge_detect, scale_image")
	t.Setenv("PA_SEED_FILE", "seed.yaml")
	cfg := Load()
	if cfg.InboxDir != "/srv/inbox" || len(cfg.InboxSteps) != 2 || cfg.InboxSteps[1] != "scale_image" || cfg.SeedFile != "seed.yaml" {
		t.Fatalf("unexpected inbox settings %+v", cfg)
	}
}
