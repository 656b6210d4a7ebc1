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

package apiserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nobellm-ai/nobellm-query/internal/config"
	"github.com/nobellm-ai/nobellm-query/internal/observability"
	"github.com/nobellm-ai/nobellm-query/internal/orchestrator"
	"github.com/nobellm-ai/nobellm-query/internal/ratelimit"
)

// Server wraps an http.Server around the Orchestrator, wiring chi
// routing, metrics/tracing middleware, rate limiting, and a Prometheus
// handler alongside the Query API.
type Server struct {
	httpServer   *http.Server
	orchestrator *orchestrator.Orchestrator
	cfg          config.ServerConfig
}

// New builds a Server. metrics may be nil, in which case HTTP metrics
// are not recorded but the server otherwise functions normally.
func New(cfg config.ServerConfig, orch *orchestrator.Orchestrator, metrics *observability.Metrics, metricsPath string, limiter *ratelimit.Limiter) *Server {
	s := &Server{orchestrator: orch, cfg: cfg}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(metricsMiddleware(metrics))

	r.Get("/healthz", s.handleHealthz)
	if metrics != nil {
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		r.Handle(metricsPath, metrics.Handler())
	}

	r.Group(func(q chi.Router) {
		if limiter != nil {
			q.Use(ratelimit.Middleware(limiter, nil))
		}
		q.Post("/query", s.handleQuery)
	})

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// ListenAndServe blocks serving HTTP until the server is shut down.
// ErrServerClosed is swallowed, matching the standard graceful-shutdown
// pattern.
func (s *Server) ListenAndServe() error {
	slog.Info("query API listening", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and closes the listener, bounded
// by the configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
