// Copyright 2025 NobelLM Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command nobellm-query is the CLI for the NobelLM Query Service.
//
// Usage:
//
//	nobellm-query serve --config config.yaml
//	nobellm-query validate --config config.yaml
//	nobellm-query version
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/nobellm-ai/nobellm-query/internal/apiserver"
	"github.com/nobellm-ai/nobellm-query/internal/config"
	"github.com/nobellm-ai/nobellm-query/internal/config/provider"
	"github.com/nobellm-ai/nobellm-query/internal/logging"
	"github.com/nobellm-ai/nobellm-query/internal/observability"
	"github.com/nobellm-ai/nobellm-query/internal/orchestrator"
	"github.com/nobellm-ai/nobellm-query/internal/ratelimit"
	"github.com/nobellm-ai/nobellm-query/internal/vectorstore"
)

// CLI defines the command-line interface.
type CLI struct {
	Serve    ServeCmd    `cmd:"" help:"Start the Query API server."`
	Validate ValidateCmd `cmd:"" help:"Validate a configuration file."`
	Version  VersionCmd  `cmd:"" help:"Show version information."`

	Config    string `short:"c" help:"Path to config file." type:"path" default:"config.yaml"`
	LogLevel  string `help:"Log level (debug, info, warn, error)."`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple, verbose)."`
}

// VersionCmd prints build version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("nobellm-query version %s\n", version)
	return nil
}

// ValidateCmd loads and validates a configuration file without starting
// the server.
type ValidateCmd struct{}

func (c *ValidateCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli.Config)
	if err != nil {
		return err
	}

	services, err := orchestrator.Build(cfg)
	if err != nil {
		return fmt.Errorf("config %s failed connectivity validation: %w", cli.Config, err)
	}
	defer services.Close()

	backend, _ := vectorstore.Active()
	fmt.Printf("config %s is valid (model=%s dimension=%d, vector_store=%s)\n", cli.Config, cfg.Model.ID, cfg.Model.Dimension, backend)
	return nil
}

// ServeCmd starts the Query API server.
type ServeCmd struct {
	Port int `help:"Override the configured listen port."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli.Config)
	if err != nil {
		return err
	}

	level := cli.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	format := cli.LogFormat
	if format == "" {
		format = cfg.Logging.Format
	}

	output := os.Stderr
	if cli.LogFile != "" {
		file, cleanup, err := logging.OpenLogFile(cli.LogFile)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer cleanup()
		output = file
	}
	logging.Init(logging.ParseLevel(level), output, format)

	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down")
		cancel()
	}()

	registry, err := orchestrator.Build(cfg)
	if err != nil {
		return fmt.Errorf("build service registry: %w", err)
	}
	defer func() {
		if err := registry.Close(); err != nil {
			slog.Error("error closing service registry", "error", err)
		}
	}()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Observability.Tracing)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			slog.Error("error shutting down tracer provider", "error", err)
		}
	}()

	orch := orchestrator.New(registry)

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.RequestsPerSecond > 0 {
		limiter = ratelimit.New(ratelimit.Config{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		})
	}

	var metrics *observability.Metrics
	if cfg.Observability.Metrics.Enabled {
		metrics = registry.Metrics
	}

	srv := apiserver.New(cfg.Server, orch, metrics, cfg.Observability.Metrics.Path, limiter)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
		if err := srv.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	fileProvider, err := provider.NewFileProvider(path)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", path, err)
	}
	loader := config.NewLoader(fileProvider)
	cfg, err := loader.Load(context.Background())
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("nobellm-query"),
		kong.Description("Retrieval-augmented question answering over Nobel Literature laureate speeches."),
		kong.UsageOnError(),
	)
	if err := ctx.Run(&cli); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
