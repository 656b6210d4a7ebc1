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

package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/nobellm-ai/nobellm-query/internal/config/provider"
)

// Loader loads and optionally watches configuration from a Provider.
type Loader struct {
	provider provider.Provider
	onChange func(*Config)
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithOnChange registers a callback invoked with the freshly reloaded
// config whenever the underlying source changes.
func WithOnChange(fn func(*Config)) LoaderOption {
	return func(l *Loader) { l.onChange = fn }
}

// NewLoader builds a Loader over the given provider.
func NewLoader(p provider.Provider, opts ...LoaderOption) *Loader {
	l := &Loader{provider: p}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads, parses, expands, decodes, defaults, and validates the
// configuration document in one pass.
func (l *Loader) Load(ctx context.Context) (*Config, error) {
	data, err := l.provider.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	rawMap, err := parseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	expanded := expandEnvVars(rawMap)

	cfg := &Config{}
	if err := decodeConfig(expanded, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Watch blocks, reloading and invoking onChange whenever the provider
// signals a change, until ctx is canceled.
func (l *Loader) Watch(ctx context.Context) error {
	changes, err := l.provider.Watch(ctx)
	if err != nil {
		return fmt.Errorf("start watching: %w", err)
	}
	if changes == nil {
		slog.Info("config watching not supported by provider", "type", l.provider.Type())
		<-ctx.Done()
		return ctx.Err()
	}

	slog.Info("watching for config changes", "type", l.provider.Type())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			cfg, err := l.Load(ctx)
			if err != nil {
				slog.Error("failed to reload config", "error", err)
				continue
			}
			slog.Info("configuration reloaded")
			if l.onChange != nil {
				l.onChange(cfg)
			}
		}
	}
}

// Close releases the underlying provider.
func (l *Loader) Close() error { return l.provider.Close() }

func parseBytes(data []byte) (map[string]any, error) {
	var result map[string]any
	if err := yaml.Unmarshal(data, &result); err == nil {
		return result, nil
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("not valid YAML or JSON: %w", err)
	}
	return result, nil
}

func decodeConfig(input map[string]any, output *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           output,
		TagName:          "yaml",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}
	return decoder.Decode(input)
}
