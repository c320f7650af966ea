package greeting

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
)

// DefaultName is greeted when the caller supplies no name.
const DefaultName = "World"

// ErrGreetingFailed is returned by ErrorMethod on every call.
var ErrGreetingFailed = errors.New("greeting failed")

// Message is a greeting with its process-wide identifier.
type Message struct {
	ID      int64
	Content string
}

// Service defines the greeting operations. Every successful call consumes
// exactly one identifier from the shared counter; failed or cancelled calls
// consume none.
type Service interface {
	Normal(ctx context.Context, name string) (Message, error)
	LongMethod(ctx context.Context, name string) (Message, error)
	ErrorMethod(ctx context.Context, name string) (Message, error)
	NestedMethod(ctx context.Context, name string) (Message, error)
	NestedMethodTimed(ctx context.Context, name string) (Message, error)
}

// Counter hands out strictly increasing identifiers starting at 1.
type Counter struct {
	n atomic.Int64
}

// Next increments the counter and returns the new value.
func (c *Counter) Next() int64 {
	return c.n.Add(1)
}

// Current returns the last identifier handed out, or 0.
func (c *Counter) Current() int64 {
	return c.n.Load()
}

// Content formats the greeting text for name.
func Content(name string) string {
	if name == "" {
		name = DefaultName
	}
	return fmt.Sprintf("Hello, %s!", name)
}

func newMessage(c *Counter, name string) Message {
	return Message{ID: c.Next(), Content: Content(name)}
}
