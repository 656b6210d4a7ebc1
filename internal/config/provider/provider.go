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

// Package provider abstracts configuration sources (file, consul,
// zookeeper) behind one interface so the loader never cares where the
// bytes came from.
package provider

import (
	"context"
	"fmt"
)

// Type identifies a config source.
type Type string

const (
	TypeFile      Type = "file"
	TypeConsul    Type = "consul"
	TypeZookeeper Type = "zookeeper"
)

// ParseType converts a string to a Type, defaulting to file.
func ParseType(s string) (Type, error) {
	switch s {
	case "file", "":
		return TypeFile, nil
	case "consul":
		return TypeConsul, nil
	case "zookeeper", "zk":
		return TypeZookeeper, nil
	default:
		return "", fmt.Errorf("unknown config provider type: %s", s)
	}
}

// Provider abstracts a config source. Implementations must be safe for
// concurrent use.
type Provider interface {
	// Type returns the provider kind, for logging.
	Type() Type

	// Load reads the raw config document.
	Load(ctx context.Context) ([]byte, error)

	// Watch signals on the returned channel whenever the source changes.
	// Returns a nil channel if the provider doesn't support watching.
	// Canceling ctx stops the watch.
	Watch(ctx context.Context) (<-chan struct{}, error)

	// Close releases resources held by the provider.
	Close() error
}

// Config configures provider construction.
type Config struct {
	Type      Type
	Path      string
	Endpoints []string
}

// New builds a Provider from a Config.
func New(cfg Config) (Provider, error) {
	switch cfg.Type {
	case TypeFile, "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("config path is required for file provider")
		}
		return NewFileProvider(cfg.Path)
	case TypeConsul:
		if cfg.Path == "" {
			return nil, fmt.Errorf("config key is required for consul provider")
		}
		return NewConsulProvider(cfg.Endpoints, cfg.Path)
	case TypeZookeeper:
		if cfg.Path == "" {
			return nil, fmt.Errorf("config path is required for zookeeper provider")
		}
		return NewZookeeperProvider(cfg.Endpoints, cfg.Path)
	default:
		return nil, fmt.Errorf("unknown config provider type: %s", cfg.Type)
	}
}
