package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"picture-analysis/internal/shared/config"
	"picture-analysis/internal/shared/metrics"
)

type pingHandler struct{}

func (pingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
}

func TestRouterMountsHandlersAndHealth(t *testing.T) {
	r := NewRouter(RouterDeps{
		Config:   config.Config{TaskRatePerSecond: 1, TaskBurst: 1},
		Handlers: []RouteRegistrar{pingHandler{}},
	})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"memory"`) {
		t.Fatalf("unexpected health response %d %s", resp.Code, resp.Body.String())
	}
	if resp.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
	if resp.Code != http.StatusOK || resp.Body.String() != "pong" {
		t.Fatalf("handler not mounted: %d %q", resp.Code, resp.Body.String())
	}
}

func TestRouterExposesMetrics(t *testing.T) {
	metrics.IncTaskStarted("edge_detect")
	r := NewRouter(RouterDeps{})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "picture_tasks_started_total") {
		t.Fatalf("metrics output missing task counter")
	}
}

func TestAddr(t *testing.T) {
	cases := map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000"}
	for in, want := range cases {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}
