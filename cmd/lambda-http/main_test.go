package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-gonic/gin"
)

func TestLazyProxyReportsBootstrapFailure(t *testing.T) {
	calls := 0
	p := &lazyProxy{build: func() (*gin.Engine, error) {
		calls++
		return nil, errors.New("no database")
	}}

	for i := 0; i < 2; i++ {
		resp, err := p.handle(context.Background(), events.APIGatewayV2HTTPRequest{})
		if err == nil || resp.StatusCode != http.StatusInternalServerError || !strings.Contains(resp.Body, "bootstrap failed") {
			t.Fatalf("unexpected response %+v err=%v", resp, err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected one build attempt, got %d", calls)
	}
}

func TestLazyProxyServesRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	p := &lazyProxy{build: func() (*gin.Engine, error) {
		r := gin.New()
		r.GET("/api/v1/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
		return r, nil
	}}

	req := events.APIGatewayV2HTTPRequest{
		RawPath: "/api/v1/health",
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{Method: http.MethodGet, Path: "/api/v1/health"},
		},
	}
	resp, err := p.handle(context.Background(), req)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if resp.StatusCode != http.StatusOK || !strings.Contains(resp.Body, `"ok":true`) {
		t.Fatalf("unexpected response %+v", resp)
	}
}
