package logging

import (
	"regexp"

	"go.uber.org/zap"
)

const traceparentHeader = "traceparent"

// W3C Trace Context: {version}-{trace-id}-{parent-id}-{trace-flags}
var traceHeaderRe = regexp.MustCompile(`^([0-9a-f]{2})-([0-9a-f]{32})-([0-9a-f]{16})-([0-9a-f]{2})$`)

// traceContext is the parsed form of a traceparent header.
type traceContext struct {
	TraceID string
	SpanID  string
	Sampled bool
}

// parseTraceparent returns false for malformed headers and for the all-zero
// trace and parent ids, which the W3C format declares invalid.
func parseTraceparent(header string) (traceContext, bool) {
	matches := traceHeaderRe.FindStringSubmatch(header)
	if len(matches) != 5 {
		return traceContext{}, false
	}
	if matches[1] == "ff" {
		return traceContext{}, false
	}
	if matches[2] == "00000000000000000000000000000000" || matches[3] == "0000000000000000" {
		return traceContext{}, false
	}
	return traceContext{
		TraceID: matches[2],
		SpanID:  matches[3],
		Sampled: matches[4] == "01",
	}, true
}

func loggerWithTrace(base *zap.Logger, header, requestID string) *zap.Logger {
	if base == nil {
		base = zap.NewNop()
	}
	fields := traceFields(header)
	if requestID != "" {
		fields = append(fields, zap.String("requestId", requestID))
	}
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

func traceFields(header string) []zap.Field {
	tc, ok := parseTraceparent(header)
	if !ok {
		return nil
	}
	return []zap.Field{
		zap.String("traceId", tc.TraceID),
		zap.String("spanId", tc.SpanID),
		zap.Bool("traceSampled", tc.Sampled),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
