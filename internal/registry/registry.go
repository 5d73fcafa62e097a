// internal/registry/registry.go
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"webpool/internal/config"

	clientv3 "go.etcd.io/etcd/client/v3"
)

const (
	// NodePrefix is the etcd prefix under which server nodes register.
	NodePrefix = "/webpool/nodes/"
)

// ErrNoEndpoints is returned by Connect when no etcd endpoint is configured.
var ErrNoEndpoints = errors.New("no etcd endpoints configured")

// LeaseKV is the part of the etcd client a Registry uses.
// *clientv3.Client satisfies it.
type LeaseKV interface {
	Grant(ctx context.Context, ttl int64) (*clientv3.LeaseGrantResponse, error)
	Put(ctx context.Context, key, val string, opts ...clientv3.OpOption) (*clientv3.PutResponse, error)
	KeepAlive(ctx context.Context, id clientv3.LeaseID) (<-chan *clientv3.LeaseKeepAliveResponse, error)
	Revoke(ctx context.Context, id clientv3.LeaseID) (*clientv3.LeaseRevokeResponse, error)
}

// Connect dials the etcd cluster named by cfg.EtcdEndpoints.
func Connect(cfg *config.Config) (*clientv3.Client, error) {
	if !cfg.RegistrationEnabled() {
		return nil, ErrNoEndpoints
	}
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.EtcdEndpoints,
		DialTimeout: cfg.EtcdTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to dial etcd %v: %w", cfg.EtcdEndpoints, err)
	}
	return cli, nil
}

// Registry advertises this node's listen address in etcd under a lease,
// so the entry disappears when the node stops refreshing it.
type Registry struct {
	client  LeaseKV
	logger  *slog.Logger
	leaseID clientv3.LeaseID
	key     string
	value   string
	cancel  context.CancelFunc
}

// NewRegistry creates a new node registry.
func NewRegistry(client LeaseKV, logger *slog.Logger) *Registry {
	return &Registry{
		client: client,
		logger: logger.With("component", "registry"),
	}
}

// Key returns the etcd key for nodeID.
func Key(nodeID string) string {
	return NodePrefix + nodeID
}

// Register writes nodeID -> addr with a lease of ttl seconds and keeps
// the lease alive until Deregister.
func (r *Registry) Register(ctx context.Context, nodeID, addr string, ttl int64) error {
	r.key = Key(nodeID)
	r.value = addr

	leaseResp, err := r.client.Grant(ctx, ttl)
	if err != nil {
		return fmt.Errorf("failed to grant lease: %w", err)
	}
	r.leaseID = leaseResp.ID

	if _, err := r.client.Put(ctx, r.key, r.value, clientv3.WithLease(r.leaseID)); err != nil {
		return fmt.Errorf("failed to put node registration key: %w", err)
	}

	kaCtx, cancel := context.WithCancel(context.Background())
	keepAliveCh, err := r.client.KeepAlive(kaCtx, r.leaseID)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to start keep-alive: %w", err)
	}
	r.cancel = cancel

	go func() {
		for {
			ka, ok := <-keepAliveCh
			if !ok {
				r.logger.Warn("keep-alive channel closed, node registration may have expired")
				return
			}
			r.logger.Debug("lease keep-alive refreshed", "lease_id", ka.ID, "ttl", ka.TTL)
		}
	}()

	r.logger.Info("node registered", "key", r.key, "value", r.value)
	return nil
}

// Deregister stops the keep-alive and revokes the lease, which deletes the key.
func (r *Registry) Deregister(ctx context.Context) error {
	r.logger.Info("deregistering node", "key", r.key)
	if r.cancel != nil {
		r.cancel()
	}
	if _, err := r.client.Revoke(ctx, r.leaseID); err != nil {
		return fmt.Errorf("failed to revoke lease: %w", err)
	}
	return nil
}
