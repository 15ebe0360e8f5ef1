package main

// Build the Lambda handler binary (gocv needs cgo and an OpenCV runtime in the image):
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=1 go build -tags lambda.norpc -o bootstrap ./cmd/lambda-worker

import (
	"context"
	"errors"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"picture-analysis/internal/bootstrap"
	"picture-analysis/internal/shared/config"
	"picture-analysis/internal/shared/metrics"
	"picture-analysis/internal/shared/telemetry"
	"picture-analysis/internal/workerproc"
)

var (
	initOnce sync.Once
	initErr  error
	app      *bootstrap.App
)

func initApp() {
	cfg := config.Load()
	built, err := bootstrap.Build(cfg)
	if err != nil {
		initErr = err
		return
	}
	app = built
}

type messageHandler interface {
	HandleMessage(ctx context.Context, body string) error
}

func handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		telemetry.Error("lambda.worker.bootstrap_failed", map[string]any{"error": initErr.Error()})
		failures := make([]events.SQSBatchItemFailure, 0, len(event.Records))
		for _, record := range event.Records {
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
		return events.SQSEventResponse{BatchItemFailures: failures}, initErr
	}
	return processBatch(ctx, app.Processor, event), nil
}

// processBatch reports only retryable failures. Malformed bodies and unknown
// tasks are dropped so they do not cycle through the queue.
func processBatch(ctx context.Context, proc messageHandler, event events.SQSEvent) events.SQSEventResponse {
	failures := make([]events.SQSBatchItemFailure, 0)
	for _, record := range event.Records {
		metrics.IncQueueMessage("received")
		err := proc.HandleMessage(ctx, record.Body)
		if err == nil {
			metrics.IncQueueMessage("completed")
			continue
		}

		fields := map[string]any{"sqs_message_id": record.MessageId, "error": err.Error()}
		var (
			empty   workerproc.ErrEmptyBody
			decode  workerproc.ErrDecode
			unknown workerproc.ErrUnknownTask
		)
		if errors.As(err, &empty) || errors.As(err, &decode) || errors.As(err, &unknown) {
			telemetry.Error("lambda.worker.dropped", fields)
			metrics.IncQueueMessage("deleted_unrecoverable")
			continue
		}
		telemetry.Error("lambda.worker.failed", fields)
		metrics.IncQueueMessage("failed")
		failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
	}
	return events.SQSEventResponse{BatchItemFailures: failures}
}

func main() {
	lambda.Start(handler)
}
