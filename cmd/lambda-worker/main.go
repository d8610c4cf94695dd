package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker

import (
	"context"
	"log"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"incident-backend/internal/bootstrap"
	"incident-backend/internal/shared/config"
	"incident-backend/internal/shared/telemetry"
	"incident-backend/internal/workerproc"
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

func handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		log.Printf("bootstrap error: %v", initErr)
		failures := make([]events.SQSBatchItemFailure, 0, len(event.Records))
		for _, record := range event.Records {
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
		return events.SQSEventResponse{BatchItemFailures: failures}, initErr
	}
	return handleRecords(ctx, app.Store, event.Records), nil
}

// handleRecords reports only retryable failures; unrecoverable messages are
// logged and dropped so they do not loop.
func handleRecords(ctx context.Context, store workerproc.Deleter, records []events.SQSMessage) events.SQSEventResponse {
	failures := make([]events.SQSBatchItemFailure, 0)
	for _, record := range records {
		err := workerproc.HandleMessage(ctx, store, record.Body)
		if err == nil {
			continue
		}
		fields := map[string]any{
			"sqs_message_id": record.MessageId,
			"error":          err.Error(),
		}
		if workerproc.IsUnrecoverable(err) {
			telemetry.Error("worker.blob.dropped", fields)
			continue
		}
		telemetry.Warn("worker.blob.retry", fields)
		failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
	}
	return events.SQSEventResponse{BatchItemFailures: failures}
}

func main() {
	lambda.Start(handler)
}
