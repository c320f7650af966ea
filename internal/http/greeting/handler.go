package greeting

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	applog "github.com/niatpaceya/greeting-metrics/internal/platform/logging"
	greetingsvc "github.com/niatpaceya/greeting-metrics/internal/service/greeting"
)

type operation func(ctx context.Context, name string) (greetingsvc.Message, error)

// Register registers the greeting endpoints.
func Register(api huma.API, svc greetingsvc.Service) {
	register(api, huma.Operation{
		OperationID: "greeting-normal",
		Path:        "/greeting/normal",
		Summary:     "Greet immediately",
	}, svc.Normal)

	register(api, huma.Operation{
		OperationID: "greeting-long-method",
		Path:        "/greeting/long-method",
		Summary:     "Greet after a simulated delay",
	}, svc.LongMethod)

	register(api, huma.Operation{
		OperationID: "greeting-error-method",
		Path:        "/greeting/error-method",
		Summary:     "Fail after a simulated delay",
		Description: "Always responds with 500 Internal Server Error once the delay has elapsed.",
	}, svc.ErrorMethod)

	register(api, huma.Operation{
		OperationID: "greeting-nested-method",
		Path:        "/greeting/nested-method",
		Summary:     "Greet after a delay spent in an instrumented helper",
	}, svc.NestedMethod)

	register(api, huma.Operation{
		OperationID: "greeting-nested-method2",
		Path:        "/greeting/nested-method2",
		Summary:     "Greet after a delay measured by an explicit timer",
	}, svc.NestedMethodTimed)
}

func register(api huma.API, op huma.Operation, fn operation) {
	op.Method = http.MethodGet
	op.Tags = []string{"Greeting"}
	if op.Description == "" {
		op.Description = "Returns a greeting carrying the next process-wide identifier."
	}
	opID := op.OperationID

	huma.Register(api, op, func(ctx context.Context, input *GreetingInput) (*GreetingOutput, error) {
		ctx = applog.WithFields(ctx, zap.String("operation", opID))
		msg, err := fn(ctx, input.Name)
		if err != nil {
			return nil, mapServiceError(ctx, err)
		}
		applog.LogDebug(ctx, "greeting served", zap.Int64("id", msg.ID))
		return &GreetingOutput{Body: toHTTPMessage(msg)}, nil
	})
}

func mapServiceError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		applog.LogWarn(ctx, "greeting interrupted", zap.Error(err))
		return huma.Error503ServiceUnavailable("request cancelled")
	default:
		applog.LogError(ctx, "greeting failed", err)
		return huma.Error500InternalServerError("internal server error")
	}
}

func toHTTPMessage(m greetingsvc.Message) Message {
	return Message{ID: m.ID, Content: m.Content}
}
