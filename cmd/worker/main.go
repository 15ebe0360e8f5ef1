package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"picture-analysis/internal/bootstrap"
	"picture-analysis/internal/shared/config"
	"picture-analysis/internal/shared/metrics"
	"picture-analysis/internal/shared/telemetry"
	"picture-analysis/internal/workerproc"
)

const defaultShutdownTimeoutSec = 30

func main() {
	cfg := config.Load()

	if cfg.SQSQueueURL == "" {
		log.Fatal("PA_SQS_QUEUE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTimeout := time.Duration(envInt("PA_SHUTDOWN_TIMEOUT_SECONDS", defaultShutdownTimeoutSec)) * time.Second

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}
	var sqsClient sqsAPI = sqs.NewFromConfig(awsCfg)

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}

	concurrency := max(1, cfg.WorkerConcurrency)
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	telemetry.Info("worker.started", map[string]any{
		"queue":       cfg.SQSQueueURL,
		"concurrency": concurrency,
		"visibility":  cfg.SQSVisibilitySecond,
	})

pollLoop:
	for {
		select {
		case <-ctx.Done():
			break pollLoop
		default:
		}

		resp, err := sqsClient.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(cfg.SQSQueueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
			VisibilityTimeout:   int32(cfg.SQSVisibilitySecond),
			MessageSystemAttributeNames: []sqstypes.MessageSystemAttributeName{
				sqstypes.MessageSystemAttributeNameApproximateReceiveCount,
			},
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				break pollLoop
			}
			telemetry.Warn("worker.receive_failed", map[string]any{"error": err.Error()})
			continue
		}

		for _, msg := range resp.Messages {
			select {
			case <-ctx.Done():
				break pollLoop
			case sem <- struct{}{}:
			}
			metrics.IncQueueMessage("received")
			wg.Add(1)
			go func(m sqstypes.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				handleMessage(ctx, sqsClient, cfg.SQSQueueURL, app.Processor, m)
			}(msg)
		}
	}

	telemetry.Info("worker.shutdown", map[string]any{"timeout": shutdownTimeout.String()})
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(shutdownTimeout):
		telemetry.Warn("worker.shutdown_timeout", map[string]any{"timeout": shutdownTimeout.String()})
	}
}

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

type messageHandler interface {
	HandleMessage(ctx context.Context, body string) error
}

// handleMessage deletes the message on success and on failures a retry
// cannot fix. Other failures are left for redelivery.
func handleMessage(ctx context.Context, client sqsAPI, queueURL string, proc messageHandler, msg sqstypes.Message) {
	body := aws.ToString(msg.Body)
	decoded, meta, err := workerproc.ParseMessage(body)
	if err != nil {
		fields := baseFields(msg, "", "")
		fields["body_len"] = meta.BodyLen
		if meta.BodySHA != "" {
			fields["body_sha256"] = meta.BodySHA
		}
		fields["error"] = err.Error()
		var empty workerproc.ErrEmptyBody
		if errors.As(err, &empty) {
			telemetry.Error("worker.task.empty_body", fields)
		} else {
			telemetry.Error("worker.task.decode_failed", fields)
		}
		if deleteMessage(ctx, client, queueURL, msg, "", "") {
			metrics.IncQueueMessage("deleted_unrecoverable")
		}
		return
	}

	telemetry.Info("worker.task.received", baseFields(msg, decoded.TaskID, decoded.RequestID))

	if err := proc.HandleMessage(ctx, body); err != nil {
		fields := baseFields(msg, decoded.TaskID, decoded.RequestID)
		fields["error"] = err.Error()

		var unknown workerproc.ErrUnknownTask
		if errors.As(err, &unknown) {
			fields["task"] = unknown.Task
			telemetry.Error("worker.task.unknown", fields)
			if deleteMessage(ctx, client, queueURL, msg, decoded.TaskID, decoded.RequestID) {
				metrics.IncQueueMessage("deleted_unrecoverable")
			}
			return
		}

		telemetry.Error("worker.task.failed", fields)
		metrics.IncQueueMessage("failed")
		return
	}

	if deleteMessage(ctx, client, queueURL, msg, decoded.TaskID, decoded.RequestID) {
		telemetry.Info("worker.task.completed", baseFields(msg, decoded.TaskID, decoded.RequestID))
		metrics.IncQueueMessage("completed")
	}
}

func deleteMessage(ctx context.Context, client sqsAPI, queueURL string, msg sqstypes.Message, taskID, requestID string) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		fields := baseFields(msg, taskID, requestID)
		fields["error"] = "missing receipt handle"
		telemetry.Error("worker.task.delete_failed", fields)
		return false
	}
	if _, err := client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		fields := baseFields(msg, taskID, requestID)
		fields["error"] = err.Error()
		telemetry.Error("worker.task.delete_failed", fields)
		return false
	}
	return true
}

func baseFields(msg sqstypes.Message, taskID, requestID string) map[string]any {
	fields := map[string]any{
		"task_id":        taskID,
		"sqs_message_id": aws.ToString(msg.MessageId),
		"receive_count":  receiveCount(msg),
	}
	if strings.TrimSpace(requestID) != "" {
		fields["request_id"] = requestID
	}
	return fields
}

func receiveCount(msg sqstypes.Message) int {
	if msg.Attributes == nil {
		return 0
	}
	raw := msg.Attributes[string(sqstypes.MessageSystemAttributeNameApproximateReceiveCount)]
	if raw == "" {
		return 0
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return parsed
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}
