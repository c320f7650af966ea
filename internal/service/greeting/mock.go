package greeting

import (
	"context"
	"sync"
)

// MockGreetingService implements Service for handler tests. It never sleeps.
type MockGreetingService struct {
	counter Counter

	mu    sync.Mutex
	err   error
	calls []string
}

// NewMockGreetingService creates a mock whose ErrorMethod returns ErrGreetingFailed.
func NewMockGreetingService() *MockGreetingService {
	return &MockGreetingService{}
}

// FailWith makes every operation return err; nil restores normal behavior.
func (m *MockGreetingService) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns the operation names invoked so far, in order.
func (m *MockGreetingService) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockGreetingService) record(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, op)
	return m.err
}

func (m *MockGreetingService) greet(op, name string) (Message, error) {
	if err := m.record(op); err != nil {
		return Message{}, err
	}
	return newMessage(&m.counter, name), nil
}

func (m *MockGreetingService) Normal(_ context.Context, name string) (Message, error) {
	return m.greet(MethodNormal, name)
}

func (m *MockGreetingService) LongMethod(_ context.Context, name string) (Message, error) {
	return m.greet(MethodLongMethod, name)
}

func (m *MockGreetingService) ErrorMethod(_ context.Context, _ string) (Message, error) {
	if err := m.record(MethodErrorMethod); err != nil {
		return Message{}, err
	}
	return Message{}, ErrGreetingFailed
}

func (m *MockGreetingService) NestedMethod(_ context.Context, name string) (Message, error) {
	return m.greet(MethodNestedMethod, name)
}

func (m *MockGreetingService) NestedMethodTimed(_ context.Context, name string) (Message, error) {
	return m.greet("nested_method_timed", name)
}
