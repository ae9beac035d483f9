// Package app wires the runtime together: logger, network definition loader,
// kernel registry, local devices, and the execution engine. It owns the
// lifecycle of one invocation from loading a definition to printing results.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/vk/tensorgridgo/internal/config"
	"github.com/vk/tensorgridgo/internal/ctxlog"
	"github.com/vk/tensorgridgo/internal/device"
	"github.com/vk/tensorgridgo/internal/device/local"
	"github.com/vk/tensorgridgo/internal/execctx"
	"github.com/vk/tensorgridgo/internal/executor"
	"github.com/vk/tensorgridgo/internal/graph"
	"github.com/vk/tensorgridgo/internal/kernels"
	"github.com/vk/tensorgridgo/internal/registry"
	"github.com/vk/tensorgridgo/internal/tensor"
	"github.com/vk/tensorgridgo/internal/trace"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	kernels *registry.Registry
	loader  config.Loader
}

// newLogger builds the runtime's logger from the app configuration. Level
// names follow slog's convention; anything unrecognized falls back to info.
// Every record is tagged with the network so interleaved runs of several
// definitions stay attributable.
func newLogger(cfg *Config, outW io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(outW, opts)
	} else {
		handler = slog.NewTextHandler(outW, opts)
	}

	return slog.New(handler).With("network", cfg.NetworkPath)
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and kernel registry.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader) *App {
	logger := newLogger(cfg, outW)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if err := kernels.RegisterCore(reg); err != nil {
		// Re-registering a core kernel is a wiring bug, not a user error.
		panic(err)
	}
	logger.Debug("Core kernels registered.", "kernels", reg.Names())

	return &App{
		outW:    outW,
		logger:  logger,
		kernels: reg,
		loader:  loader,
	}
}

// Kernels returns the application's kernel registry. This is primarily for
// tests that register their own kernels.
func (a *App) Kernels() *registry.Registry {
	return a.kernels
}

// runResult carries the terminal callback's payload out of the closure.
type runResult struct {
	err error
	ctx *execctx.Context
}

// Run loads the network definition, executes it once across the configured
// local devices, prints the requested outputs, and shuts everything down.
func (a *App) Run(ctx context.Context, cfg *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	model, err := a.loader.Load(ctx, cfg.NetworkPath)
	if err != nil {
		return fmt.Errorf("failed to load network definition: %w", err)
	}

	root, err := graph.Build(ctx, model)
	if err != nil {
		return fmt.Errorf("failed to build execution graph: %w", err)
	}

	// Devices look functions up by name, so bind every function name to the
	// kernel its definition selects. A function whose kernel is not
	// registered stays unbound and fails on the device.
	functions := registry.New()
	for _, fn := range model.Functions {
		if k, ok := a.kernels.Lookup(fn.Kernel); ok {
			if err := functions.Register(fn.Name, k); err != nil {
				return fmt.Errorf("failed to bind function kernels: %w", err)
			}
		}
	}

	managers := make(map[graph.DeviceID]device.Manager, cfg.Devices)
	locals := make([]*local.Manager, 0, cfg.Devices)
	for i := 0; i < cfg.Devices; i++ {
		m := local.New(fmt.Sprintf("cpu:%d", i), functions)
		managers[graph.DeviceID(i)] = m
		locals = append(locals, m)
	}
	a.logger.Debug("Local devices started.", "count", cfg.Devices)

	exec := executor.New(managers, cfg.Workers)

	ec, err := buildResultContext(model, cfg.TraceLevel)
	if err != nil {
		return err
	}

	done := make(chan runResult, 1)
	exec.Run(ctx, root, ec, 1, func(runID uint64, err error, resCtx *execctx.Context) {
		done <- runResult{err: err, ctx: resCtx}
	})
	result := <-done

	exec.Shutdown(ctx)
	for _, m := range locals {
		m.Close()
	}

	if result.err != nil {
		return fmt.Errorf("execution failed: %w", result.err)
	}

	a.printOutputs(result.ctx)
	if tc := result.ctx.TraceContext(); tc.Enabled() {
		a.logger.Info("Trace events recorded.", "count", len(tc.Events()))
	}
	return nil
}

// buildResultContext prepares the caller-side execution context: feeds are
// bound as inputs, and a slot is allocated for every placeholder symbol of
// every sink function so their outputs are kept.
func buildResultContext(model *config.Model, traceLevel string) (*execctx.Context, error) {
	ec := execctx.New()

	switch traceLevel {
	case "none":
	case "runtime":
		ec.SetTraceContext(trace.NewContext(trace.LevelRuntime, 0))
	case "debug":
		ec.SetTraceContext(trace.NewContext(trace.LevelDebug, 0))
	default:
		return nil, fmt.Errorf("invalid trace level %q", traceLevel)
	}

	bindings := ec.Bindings()
	for _, fn := range model.Functions {
		for name, t := range fn.Feeds {
			bindings.Allocate(execctx.NewPlaceholder(name, t.Type(), false))
			bindings.Bind(name, t)
		}
	}

	consumed := make(map[string]bool)
	for _, fn := range model.Functions {
		for _, dep := range fn.DependsOn {
			consumed[dep] = true
		}
	}
	for _, fn := range model.Functions {
		if consumed[fn.Name] {
			continue
		}
		// fn is a sink; request all of its placeholder outputs.
		for name, def := range fn.Symbols {
			if def.Category != config.CategoryPlaceholder {
				continue
			}
			typ := tensor.NewType(tensor.Float32, def.Dims...)
			bindings.Allocate(execctx.NewPlaceholder(name, typ, false))
		}
	}

	return ec, nil
}

// printOutputs writes the bound result tensors to the output writer, sorted
// by name for stable output.
func (a *App) printOutputs(ec *execctx.Context) {
	bindings := ec.Bindings()
	names := bindings.Names()
	sort.Strings(names)
	for _, name := range names {
		if t := bindings.Tensor(name); t != nil {
			fmt.Fprintf(a.outW, "%s = %s\n", name, t)
		}
	}
}
