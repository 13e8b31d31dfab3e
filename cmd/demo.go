package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/nextlevelbuilder/backburner/internal/audit"
	"github.com/nextlevelbuilder/backburner/internal/audit/pgaudit"
	"github.com/nextlevelbuilder/backburner/internal/audit/redisaudit"
	"github.com/nextlevelbuilder/backburner/internal/audit/sqliteaudit"
	"github.com/nextlevelbuilder/backburner/internal/backburner"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a short scheduling demo against a live Backburner",
	RunE:  runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

type greeter struct{ name string }

func (g *greeter) Greet(who string) {
	slog.Info("greeting", "greeter", g.name, "who", who)
}

func runDemo(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	opts := []backburner.Option{
		backburner.WithDebug(appCfg.IsDebug()),
		backburner.WithOnError(func(err error) {
			slog.Error("demo: work item failed", "error", err)
		}),
	}

	tracer, shutdownTracer, err := setupTracing(ctx)
	if err != nil {
		slog.Warn("demo: tracing disabled", "error", err)
	} else if tracer != nil {
		opts = append(opts, backburner.WithTracer(tracer))
		defer shutdownTracer()
	}

	sink, closeSink, err := setupAuditSink()
	if err != nil {
		slog.Warn("demo: audit sink disabled", "error", err)
	}
	if closeSink != nil {
		defer closeSink()
	}

	queues := appCfg.Queues
	if len(queues) == 0 {
		queues = []string{"default"}
	}
	bb := backburner.New(queues, opts...)

	var unsubscribe func()
	if sink != nil {
		unsubscribe, err = audit.Subscribe(bb, sink)
		if err != nil {
			slog.Warn("demo: could not subscribe audit sink", "error", err)
		}
	}
	if unsubscribe != nil {
		defer unsubscribe()
	}

	g := &greeter{name: "demo"}

	if err := bb.Run(g, "Greet", "immediate"); err != nil {
		return fmt.Errorf("run: %w", err)
	}

	if _, err := bb.Schedule(queues[0], g, "Greet", "scheduled"); err != nil {
		return fmt.Errorf("schedule: %w", err)
	}
	if _, err := bb.ScheduleOnce(queues[0], g, "Greet", "scheduled-once-a"); err != nil {
		return fmt.Errorf("schedule once: %w", err)
	}
	if _, err := bb.ScheduleOnce(queues[0], g, "Greet", "scheduled-once-b"); err != nil {
		return fmt.Errorf("schedule once: %w", err)
	}

	if _, err := bb.Later(g, "Greet", "later", 50*time.Millisecond); err != nil {
		return fmt.Errorf("later: %w", err)
	}
	if _, err := bb.Debounce(g, "Greet", "debounced", 40*time.Millisecond); err != nil {
		return fmt.Errorf("debounce: %w", err)
	}
	if _, err := bb.Throttle(g, "Greet", "throttled", 40*time.Millisecond); err != nil {
		return fmt.Errorf("throttle: %w", err)
	}
	if _, err := bb.ScheduleCron(queues[0], "*/1 * * * *", "", g, "Greet", "cron-tick"); err != nil {
		slog.Warn("demo: cron scheduling failed", "error", err)
	}

	deadline := time.After(200 * time.Millisecond)
	for bb.HasTimers() {
		select {
		case <-deadline:
			bb.CancelTimers()
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}

	slog.Info("demo: finished")
	return nil
}

func setupTracing(ctx context.Context) (trace.Tracer, func(), error) {
	if appCfg.OTLP.Endpoint == "" {
		return nil, nil, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(appCfg.OTLP.Endpoint))
	if err != nil {
		return nil, nil, fmt.Errorf("otlp exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			slog.Warn("demo: tracer shutdown failed", "error", err)
		}
	}
	return tp.Tracer("backburner-demo"), shutdown, nil
}

// setupAuditSink wires a durable backend (Postgres if a DSN is
// configured, SQLite otherwise) and, if a Redis address is configured,
// fans the same events out to it for live dashboards too.
func setupAuditSink() (audit.Sink, func(), error) {
	var sinks audit.MultiSink
	var closers []func() error

	if appCfg.Postgres.DSN != "" {
		if err := pgaudit.Migrate(appCfg.Postgres.DSN); err != nil {
			return nil, nil, fmt.Errorf("migrate postgres audit schema: %w", err)
		}
		s, err := pgaudit.Open(appCfg.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, s)
		closers = append(closers, s.Close)
	} else {
		s, err := sqliteaudit.Open("backburner-audit.db")
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, s)
		closers = append(closers, s.Close)
	}

	if appCfg.Redis.Addr != "" {
		channel := appCfg.Redis.Channel
		if channel == "" {
			channel = "backburner.events"
		}
		s := redisaudit.Open(appCfg.Redis.Addr, channel)
		sinks = append(sinks, s)
		closers = append(closers, s.Close)
	}

	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				slog.Warn("demo: audit sink close failed", "error", err)
			}
		}
	}
	return sinks, closeAll, nil
}
