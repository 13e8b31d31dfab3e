package backburner

import (
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

// config collects everything New accepts via Option, plus the zero-value
// fallbacks each field gets when the caller doesn't set it.
type config struct {
	defaultQueue string

	onBegin func(current, previous *DeferredActionQueues)
	onEnd   func(justEnded, next *DeferredActionQueues)

	onError       func(error)
	onErrorTarget any
	onErrorMethod any

	platform Platform
	logger   *slog.Logger
	tracer   trace.Tracer
	meter    metric.Meter
	idGen    func() uuid.UUID
	debug    bool
}

// Option configures a Backburner at construction time. See New.
type Option func(*config)

// WithDefaultQueue sets the queue that absorbs expired Later fires.
// Defaults to queueNames[0].
func WithDefaultQueue(name string) Option {
	return func(c *config) { c.defaultQueue = name }
}

// WithOnBegin registers a hook invoked after every begin (explicit or
// implicit via autorun) with (current, previous).
func WithOnBegin(fn func(current, previous *DeferredActionQueues)) Option {
	return func(c *config) { c.onBegin = fn }
}

// WithOnEnd registers a hook invoked after every non-paused end with
// (justEnded, nextCurrent).
func WithOnEnd(fn func(justEnded, next *DeferredActionQueues)) Option {
	return func(c *config) { c.onEnd = fn }
}

// WithOnError diverts errors raised by scheduled work to fn instead of
// letting them propagate to the host. See WithOnErrorTarget for the
// dynamic-lookup alternative.
func WithOnError(fn func(error)) Option {
	return func(c *config) { c.onError = fn }
}

// WithOnErrorTarget resolves an error handler dynamically on target by
// method name at each invocation, instead of capturing a fixed function.
// The target and method name are fixed once New returns; there is no way
// to swap them on a live Backburner.
func WithOnErrorTarget(target any, method string) Option {
	return func(c *config) {
		c.onErrorTarget = target
		c.onErrorMethod = method
	}
}

// WithPlatform overrides the host timer adapter. Any Platform method left
// as a nil field in a partial implementation is the caller's
// responsibility; there is no field-by-field fallback.
func WithPlatform(p Platform) Option {
	return func(c *config) { c.platform = p }
}

// WithLogger sets the structured logger used for debug-level lifecycle
// tracing and warn-level misuse diagnostics. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithTracer enables OpenTelemetry spans around instance flushes and
// Run/Join calls. Defaults to a no-op tracer.
func WithTracer(t trace.Tracer) Option {
	return func(c *config) { c.tracer = t }
}

// WithMeter enables OpenTelemetry metric instruments (flush counters,
// flush duration histogram, timer fire/cancel counters, queue depth).
// Defaults to a no-op meter.
func WithMeter(m metric.Meter) Option {
	return func(c *config) { c.meter = m }
}

// WithDebug sets the initial value of the DEBUG flag (still mutable at
// runtime via Backburner.DEBUG).
func WithDebug(b bool) Option {
	return func(c *config) { c.debug = b }
}

// WithIDGenerator overrides correlation ID generation, for tests wanting
// deterministic IDs. Defaults to uuid.New.
func WithIDGenerator(fn func() uuid.UUID) Option {
	return func(c *config) { c.idGen = fn }
}

func defaultConfig(queueNames []string) config {
	dq := ""
	if len(queueNames) > 0 {
		dq = queueNames[0]
	}
	return config{
		defaultQueue: dq,
		platform:     newDefaultPlatform(),
		logger:       slog.Default(),
		tracer:       nooptrace.NewTracerProvider().Tracer("backburner"),
		meter:        noopmetric.NewMeterProvider().Meter("backburner"),
		idGen:        uuid.New,
	}
}
