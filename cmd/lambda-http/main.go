package main

// Build the Lambda handler binary (gocv needs cgo and an OpenCV runtime in the image):
//   GOOS=linux GOARCH=arm64 CGO_ENABLED=1 go build -tags lambda.norpc -o bootstrap ./cmd/lambda-http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	"picture-analysis/internal/bootstrap"
	"picture-analysis/internal/shared/config"
	"picture-analysis/internal/shared/telemetry"
)

type proxyFunc func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error)

// lazyProxy builds the router on the first request and reuses it while the
// execution environment stays warm.
type lazyProxy struct {
	once  sync.Once
	build func() (*gin.Engine, error)
	proxy proxyFunc
	err   error
}

func (p *lazyProxy) handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	p.once.Do(func() {
		router, err := p.build()
		if err != nil {
			p.err = err
			return
		}
		p.proxy = ginadapter.NewV2(router).ProxyWithContext
	})
	if p.err != nil {
		telemetry.Error("lambda.http.bootstrap_failed", map[string]any{"error": p.err.Error()})
		return errorResponse(http.StatusInternalServerError, "bootstrap failed"), p.err
	}
	return p.proxy(ctx, req)
}

func errorResponse(status int, msg string) events.APIGatewayV2HTTPResponse {
	body, _ := json.Marshal(map[string]map[string]string{"error": {"code": "internal", "message": msg}})
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Body:       string(body),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

func buildRouter() (*gin.Engine, error) {
	app, err := bootstrap.Build(config.Load())
	if err != nil {
		return nil, err
	}
	return app.Router, nil
}

func main() {
	p := &lazyProxy{build: buildRouter}
	lambda.Start(p.handle)
}
