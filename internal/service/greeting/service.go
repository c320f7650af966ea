package greeting

import (
	"context"
	"fmt"
	"time"

	"github.com/niatpaceya/greeting-metrics/internal/platform/metrics"
)

// Tracked method and timer names as they appear in the metric labels.
const (
	MethodNormal       = "normal"
	MethodLongMethod   = "long_method"
	MethodErrorMethod  = "error_method"
	MethodNestedMethod = "nested_method"
	TimerResponses     = "responses"
)

// DefaultDelay is the simulated latency of the slow operations.
const DefaultDelay = 2 * time.Second

// MeteredService implements Service with simulated latency and records
// every operation on a metrics registry.
type MeteredService struct {
	counter *Counter
	delay   time.Duration

	normal    *metrics.Method
	long      *metrics.Method
	failing   *metrics.Method
	nested    *metrics.Method
	responses *metrics.Timer
}

// NewMeteredService registers the greeting instruments on reg. A negative
// delay is treated as zero.
func NewMeteredService(reg *metrics.Registry, delay time.Duration) (*MeteredService, error) {
	responses, err := reg.Timer(TimerResponses, "Time spent in the explicitly timed nested greeting helper.")
	if err != nil {
		return nil, fmt.Errorf("greeting service: %w", err)
	}
	if delay < 0 {
		delay = 0
	}
	return &MeteredService{
		counter:   &Counter{},
		delay:     delay,
		normal:    reg.Method(MethodNormal),
		long:      reg.Method(MethodLongMethod),
		failing:   reg.Method(MethodErrorMethod),
		nested:    reg.Method(MethodNestedMethod),
		responses: responses,
	}, nil
}

// Counter exposes the identifier source.
func (s *MeteredService) Counter() *Counter {
	return s.counter
}

func (s *MeteredService) Normal(_ context.Context, name string) (Message, error) {
	var msg Message
	err := s.normal.Track(func() error {
		msg = newMessage(s.counter, name)
		return nil
	})
	return msg, err
}

func (s *MeteredService) LongMethod(ctx context.Context, name string) (Message, error) {
	var msg Message
	err := s.long.Track(func() error {
		if err := s.wait(ctx); err != nil {
			return err
		}
		msg = newMessage(s.counter, name)
		return nil
	})
	if err != nil {
		return Message{}, err
	}
	return msg, nil
}

func (s *MeteredService) ErrorMethod(ctx context.Context, _ string) (Message, error) {
	err := s.failing.Track(func() error {
		if err := s.wait(ctx); err != nil {
			return err
		}
		return ErrGreetingFailed
	})
	return Message{}, err
}

// NestedMethod spends its delay in a helper that is tracked on its own; the
// outer call is not instrumented.
func (s *MeteredService) NestedMethod(ctx context.Context, name string) (Message, error) {
	if err := s.nestedWait(ctx); err != nil {
		return Message{}, err
	}
	return newMessage(s.counter, name), nil
}

// NestedMethodTimed wraps an uninstrumented helper in the responses timer.
// The span is closed whether or not the helper succeeds.
func (s *MeteredService) NestedMethodTimed(ctx context.Context, name string) (Message, error) {
	err := func() error {
		span := s.responses.Time()
		defer span.ObserveDuration()
		return s.wait(ctx)
	}()
	if err != nil {
		return Message{}, err
	}
	return newMessage(s.counter, name), nil
}

func (s *MeteredService) nestedWait(ctx context.Context) error {
	return s.nested.Track(func() error {
		return s.wait(ctx)
	})
}

// wait sleeps for the configured delay unless ctx ends first.
func (s *MeteredService) wait(ctx context.Context) error {
	if s.delay == 0 {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("greeting interrupted: %w", err)
		}
		return nil
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("greeting interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
