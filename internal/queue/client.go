package queue

import (
	"context"
	"sync"
)

// Client sends messages to a queue backend.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// MemoryClient records messages in process. Used in dev and tests.
type MemoryClient struct {
	mu   sync.Mutex
	sent []Message
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{}
}

func (c *MemoryClient) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.sent = append(c.sent, msg)
	c.mu.Unlock()
	return nil
}

// Sent returns a copy of the messages sent so far.
func (c *MemoryClient) Sent() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.sent...)
}

var _ Client = (*MemoryClient)(nil)
