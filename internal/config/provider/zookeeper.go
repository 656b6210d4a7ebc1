package provider

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-zookeeper/zk"
)

// ZookeeperProvider loads a config document from a ZooKeeper znode and
// watches it for changes.
type ZookeeperProvider struct {
	conn *zk.Conn
	path string
}

// NewZookeeperProvider connects to the ensemble and targets path.
func NewZookeeperProvider(endpoints []string, path string) (*ZookeeperProvider, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("zookeeper endpoints are required")
	}
	if path == "" {
		return nil, fmt.Errorf("zookeeper path is required")
	}

	conn, _, err := zk.Connect(endpoints, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("connect to zookeeper: %w", err)
	}

	return &ZookeeperProvider{conn: conn, path: path}, nil
}

func (p *ZookeeperProvider) Type() Type { return TypeZookeeper }

func (p *ZookeeperProvider) Load(ctx context.Context) ([]byte, error) {
	data, _, err := p.conn.Get(p.path)
	if err != nil {
		return nil, fmt.Errorf("read zookeeper path %s: %w", p.path, err)
	}
	return data, nil
}

// Watch re-arms a GetW watch after every event it delivers, translating
// data-changed events into the generic change signal.
func (p *ZookeeperProvider) Watch(ctx context.Context) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)

	go func() {
		defer close(ch)
		for {
			_, _, eventCh, err := p.conn.GetW(p.path)
			if err != nil {
				slog.Error("zookeeper watch failed", "path", p.path, "error", err)
				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Second):
					continue
				}
			}

			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				switch event.Type {
				case zk.EventNodeDataChanged:
					select {
					case ch <- struct{}{}:
					default:
					}
				case zk.EventNodeDeleted, zk.EventNotWatching:
					slog.Warn("zookeeper watch ended", "path", p.path, "type", event.Type)
					return
				}
			}
		}
	}()

	return ch, nil
}

func (p *ZookeeperProvider) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}

var _ Provider = (*ZookeeperProvider)(nil)
