package provider

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	consulapi "github.com/hashicorp/consul/api"
)

// ConsulProvider loads a config document from a Consul KV key and
// watches it with a blocking query keyed on the KV entry's ModifyIndex.
type ConsulProvider struct {
	client *consulapi.Client
	key    string

	lastIndex uint64
}

// NewConsulProvider connects to the first reachable endpoint and
// targets the given KV key.
func NewConsulProvider(endpoints []string, key string) (*ConsulProvider, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("consul endpoints are required")
	}

	cfg := consulapi.DefaultConfig()
	cfg.Address = endpoints[0]

	client, err := consulapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create consul client: %w", err)
	}

	return &ConsulProvider{client: client, key: key}, nil
}

func (p *ConsulProvider) Type() Type { return TypeConsul }

func (p *ConsulProvider) Load(ctx context.Context) ([]byte, error) {
	pair, _, err := p.client.KV().Get(p.key, (&consulapi.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("read consul key %s: %w", p.key, err)
	}
	if pair == nil {
		return nil, fmt.Errorf("consul key %s not found", p.key)
	}
	p.lastIndex = pair.ModifyIndex
	return pair.Value, nil
}

// Watch issues a long-polling blocking query against the KV entry's
// ModifyIndex, emitting a change signal whenever it advances.
func (p *ConsulProvider) Watch(ctx context.Context) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			opts := (&consulapi.QueryOptions{WaitIndex: p.lastIndex, WaitTime: 5 * time.Minute}).WithContext(ctx)
			pair, meta, err := p.client.KV().Get(p.key, opts)
			if err != nil {
				slog.Error("consul watch failed", "key", p.key, "error", err)
				time.Sleep(time.Second)
				continue
			}
			if pair == nil {
				continue
			}
			if meta.LastIndex > p.lastIndex {
				p.lastIndex = meta.LastIndex
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()

	return ch, nil
}

func (p *ConsulProvider) Close() error { return nil }

var _ Provider = (*ConsulProvider)(nil)
