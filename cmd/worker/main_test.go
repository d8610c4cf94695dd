package main

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"incident-backend/internal/queue"
)

type fakeSQS struct {
	deleted []string
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	return &sqs.ReceiveMessageOutput{}, nil
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

type fakeStore struct {
	err     error
	deleted []string
}

func (f *fakeStore) Delete(ctx context.Context, url string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, url)
	return nil
}

func blobMessage(t *testing.T, id, receipt string) sqstypes.Message {
	t.Helper()
	body, err := queue.EncodeMessage(queue.Message{
		Kind:      queue.KindBlobDelete,
		MediaURL:  "https://blobs.test/picture/a.jpg",
		RequestID: "req-1",
		Version:   queue.MessageVersion,
	})
	if err != nil {
		t.Fatalf("EncodeMessage: %v", err)
	}
	return sqstypes.Message{
		MessageId:     aws.String(id),
		ReceiptHandle: aws.String(receipt),
		Body:          aws.String(string(body)),
		Attributes:    map[string]string{"ApproximateReceiveCount": "1"},
	}
}

func TestWorkerDeletesMessageOnSuccess(t *testing.T) {
	client := &fakeSQS{}
	store := &fakeStore{}

	handleMessage(context.Background(), client, "queue", store, blobMessage(t, "m1", "r1"))

	if len(store.deleted) != 1 {
		t.Fatalf("expected blob delete, got %d", len(store.deleted))
	}
	if len(client.deleted) != 1 || client.deleted[0] != "r1" {
		t.Fatalf("expected message delete, got %v", client.deleted)
	}
}

func TestWorkerDoesNotDeleteOnFailure(t *testing.T) {
	client := &fakeSQS{}
	store := &fakeStore{err: errors.New("boom")}

	handleMessage(context.Background(), client, "queue", store, blobMessage(t, "m2", "r2"))

	if len(client.deleted) != 0 {
		t.Fatalf("expected no delete, got %d", len(client.deleted))
	}
}

func TestWorkerDeletesOnInvalidJSON(t *testing.T) {
	client := &fakeSQS{}
	store := &fakeStore{}
	msg := sqstypes.Message{
		MessageId:     aws.String("m3"),
		ReceiptHandle: aws.String("r3"),
		Body:          aws.String("{bad-json"),
	}

	handleMessage(context.Background(), client, "queue", store, msg)

	if len(client.deleted) != 1 {
		t.Fatalf("expected delete, got %d", len(client.deleted))
	}
	if len(store.deleted) != 0 {
		t.Fatalf("expected no blob delete, got %d", len(store.deleted))
	}
}

func TestReceiveCount(t *testing.T) {
	if n := receiveCount(sqstypes.Message{Attributes: map[string]string{"ApproximateReceiveCount": "3"}}); n != 3 {
		t.Fatalf("expected 3, got %d", n)
	}
	if n := receiveCount(sqstypes.Message{}); n != 0 {
		t.Fatalf("expected 0, got %d", n)
	}
}
