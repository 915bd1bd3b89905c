package tracing

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Redis span attributes
const (
	RedisCommandKey = attribute.Key("redis.command")
	RedisKeyKey     = attribute.Key("redis.key")
)

// HTTP span attributes
const (
	HTTPMethodKey    = attribute.Key("http.method")
	HTTPURLKey       = attribute.Key("http.url")
	HTTPStatusKey    = attribute.Key("http.status_code")
	HTTPRouteKey     = attribute.Key("http.route")
	HTTPClientIPKey  = attribute.Key("http.client_ip")
	HTTPUserAgentKey = attribute.Key("http.user_agent")
	HTTPRequestIDKey = attribute.Key("http.request_id")
)

// Matching engine span attributes
const (
	CustomerIDKey        = attribute.Key("customer.id")
	VehicleIDKey         = attribute.Key("vehicle.id")
	TickIDKey            = attribute.Key("tick.id")
	AssignmentCostKey    = attribute.Key("assignment.cost")
	CandidateCountKey    = attribute.Key("candidate.count")
	DistanceKey          = attribute.Key("distance.meters")
	DurationKey          = attribute.Key("duration.seconds")
	LocationLatitudeKey  = attribute.Key("location.latitude")
	LocationLongitudeKey = attribute.Key("location.longitude")
)

// TraceRedisCommand wraps a Redis command with tracing
func TraceRedisCommand(ctx context.Context, tracerName, command, key string, fn func() error) error {
	ctx, span := StartSpan(ctx, tracerName, fmt.Sprintf("redis.%s", command),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "redis"),
		RedisCommandKey.String(command),
		RedisKeyKey.String(key),
	)

	err := fn()
	if err != nil && err != redis.Nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	return err
}

// TraceHTTPClient wraps an HTTP client call with tracing
func TraceHTTPClient(ctx context.Context, tracerName, method, url string, fn func() (int, error)) (int, error) {
	ctx, span := StartSpan(ctx, tracerName, fmt.Sprintf("HTTP %s", method),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	span.SetAttributes(
		HTTPMethodKey.String(method),
		HTTPURLKey.String(url),
	)

	statusCode, err := fn()

	span.SetAttributes(HTTPStatusKey.Int(statusCode))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else if statusCode >= 400 {
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", statusCode))
	} else {
		span.SetStatus(codes.Ok, "")
	}

	return statusCode, err
}

// TraceBusinessLogic wraps business logic with tracing
func TraceBusinessLogic(ctx context.Context, tracerName, operation string, attrs []attribute.KeyValue, fn func(context.Context) error) error {
	ctx, span := StartSpan(ctx, tracerName, operation,
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()

	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)

	span.SetAttributes(
		attribute.Int64("duration_ms", duration.Milliseconds()),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	return err
}

// TraceExternalAPI wraps external API calls with tracing, used for the
// shortest-path oracle and any other upstream the matcher depends on.
func TraceExternalAPI(ctx context.Context, tracerName, serviceName, operation string, fn func(context.Context) error) error {
	ctx, span := StartSpan(ctx, tracerName, fmt.Sprintf("%s.%s", serviceName, operation),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	span.SetAttributes(
		attribute.String("external.service", serviceName),
		attribute.String("external.operation", operation),
	)

	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	return err
}

// AssignmentAttributes builds span attributes for a customer-vehicle
// assignment produced during a matching tick.
func AssignmentAttributes(customerID, vehicleID string, cost float64) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if customerID != "" {
		attrs = append(attrs, CustomerIDKey.String(customerID))
	}
	if vehicleID != "" {
		attrs = append(attrs, VehicleIDKey.String(vehicleID))
	}
	if cost > 0 {
		attrs = append(attrs, AssignmentCostKey.Float64(cost))
	}
	return attrs
}

// TickAttributes builds span attributes for a single batch-matching tick.
func TickAttributes(tickID string, candidateCount int) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 2)
	if tickID != "" {
		attrs = append(attrs, TickIDKey.String(tickID))
	}
	attrs = append(attrs, CandidateCountKey.Int(candidateCount))
	return attrs
}

// LocationAttributes builds span attributes for a vehicle or customer location.
func LocationAttributes(latitude, longitude float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		LocationLatitudeKey.Float64(latitude),
		LocationLongitudeKey.Float64(longitude),
	}
}
