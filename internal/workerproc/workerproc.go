// Package workerproc handles blob cleanup messages for both the long-polling
// worker and the Lambda SQS handler.
package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"incident-backend/internal/queue"
	"incident-backend/internal/shared/metrics"
	"incident-backend/internal/shared/storage/object"
	"incident-backend/internal/shared/telemetry"
)

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

// ErrInvalidMessage indicates a well-formed payload the worker cannot act on:
// an unknown kind, a newer version or a missing media URL.
type ErrInvalidMessage struct {
	Meta      MessageMeta
	RequestID string
	Reason    string
}

func (e ErrInvalidMessage) Error() string { return "invalid message: " + e.Reason }

// ErrProcess indicates the blob delete failed and the message should be retried.
type ErrProcess struct {
	MediaURL  string
	RequestID string
	Err       error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "delete blob"
	}
	return "delete blob: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// Deleter removes a stored blob by URL. object.ObjectStore satisfies it.
type Deleter interface {
	Delete(ctx context.Context, url string) error
}

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	switch {
	case msg.Kind != queue.KindBlobDelete:
		return msg, meta, ErrInvalidMessage{Meta: meta, RequestID: msg.RequestID, Reason: fmt.Sprintf("unknown kind %q", msg.Kind)}
	case msg.Version > queue.MessageVersion:
		return msg, meta, ErrInvalidMessage{Meta: meta, RequestID: msg.RequestID, Reason: fmt.Sprintf("unsupported version %d", msg.Version)}
	case strings.TrimSpace(msg.MediaURL) == "" || msg.MediaURL == "null":
		return msg, meta, ErrInvalidMessage{Meta: meta, RequestID: msg.RequestID, Reason: "missing media url"}
	}
	return msg, meta, nil
}

// IsUnrecoverable reports whether retrying the message can never succeed.
func IsUnrecoverable(err error) bool {
	var (
		empty   ErrEmptyBody
		decode  ErrDecode
		invalid ErrInvalidMessage
	)
	return errors.As(err, &empty) || errors.As(err, &decode) || errors.As(err, &invalid)
}

type parsedMessageKey struct{}

// WithParsedMessage stores a decoded message in the context for reuse.
func WithParsedMessage(ctx context.Context, msg queue.Message) context.Context {
	return context.WithValue(ctx, parsedMessageKey{}, msg)
}

func parsedMessageFromContext(ctx context.Context) (queue.Message, bool) {
	if ctx == nil {
		return queue.Message{}, false
	}
	msg, ok := ctx.Value(parsedMessageKey{}).(queue.Message)
	return msg, ok
}

// HandleMessage parses, validates and deletes the referenced blob. A blob
// that is already gone counts as success.
func HandleMessage(ctx context.Context, store Deleter, body string) error {
	if store == nil {
		return errors.New("object store not configured")
	}

	msg, ok := parsedMessageFromContext(ctx)
	if !ok {
		var err error
		msg, _, err = ParseMessage(body)
		if err != nil {
			metrics.WorkerMessagesTotal.WithLabelValues("invalid").Inc()
			return err
		}
	}

	ctx = telemetry.WithRequestID(ctx, msg.RequestID)
	if err := store.Delete(ctx, msg.MediaURL); err != nil {
		if errors.Is(err, object.ErrNotFound) {
			metrics.WorkerMessagesTotal.WithLabelValues("already_gone").Inc()
			return nil
		}
		metrics.WorkerMessagesTotal.WithLabelValues("failed").Inc()
		return ErrProcess{MediaURL: msg.MediaURL, RequestID: msg.RequestID, Err: err}
	}
	metrics.WorkerMessagesTotal.WithLabelValues("deleted").Inc()
	return nil
}
