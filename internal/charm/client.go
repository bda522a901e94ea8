// ABOUTME: Charm KV client wrapper for cloud backup of library snapshots
// ABOUTME: Snapshots are stored as YAML under a latest key plus a dated history key
package charm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"

	"github.com/harper/marginalia/internal/storage/sqlite"
	"github.com/harper/marginalia/internal/util"
)

// Key layout
const (
	SnapshotPrefix    = "snapshot:"
	LatestSnapshotKey = SnapshotPrefix + "latest"
)

// ErrNoSnapshot is returned by PullSnapshot when nothing has been pushed
var ErrNoSnapshot = errors.New("no snapshot stored")

// Config holds charm client configuration
type Config struct {
	Host       string
	DBName     string
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultConfig returns default configuration for charm client
func DefaultConfig() *Config {
	host := os.Getenv("CHARM_HOST")
	if host == "" {
		host = "cloud.charm.sh"
	}
	return &Config{
		Host:       host,
		DBName:     "marginalia",
		MaxRetries: 2,
		RetryDelay: time.Second,
	}
}

// store is the subset of kv.KV the client needs
type store interface {
	Set(key, value []byte) error
	Get(key []byte) ([]byte, error)
	Delete(key []byte) error
	Keys() ([][]byte, error)
	Sync() error
	Close() error
}

// Client wraps charm KV for snapshot backup
type Client struct {
	kv     store
	config *Config
	now    func() time.Time
	mu     sync.Mutex
}

// NewClient opens the charm KV database named in cfg
func NewClient(cfg *Config) (*Client, error) {
	// charm reads the host from the environment when opening KV
	if err := os.Setenv("CHARM_HOST", cfg.Host); err != nil {
		return nil, fmt.Errorf("failed to set CHARM_HOST: %w", err)
	}

	db, err := kv.OpenWithDefaults(cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv: %w", err)
	}
	return newClient(db, cfg), nil
}

func newClient(db store, cfg *Config) *Client {
	return &Client{kv: db, config: cfg, now: time.Now}
}

// Close closes the KV database
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.kv != nil {
		err := c.kv.Close()
		c.kv = nil
		return err
	}
	return nil
}

// ID returns the charm user ID
func (c *Client) ID() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.ID()
}

// Sync exchanges pending changes with the charm server, retrying on failure
func (c *Client) Sync(ctx context.Context) error {
	return util.Retry(ctx, c.config.MaxRetries, c.config.RetryDelay, func(context.Context) error {
		return c.kv.Sync()
	})
}

// PushSnapshot stores snap as the latest snapshot and as a dated history
// entry, then syncs. It returns the history key.
func (c *Client) PushSnapshot(ctx context.Context, snap *sqlite.Snapshot) (string, error) {
	var buf bytes.Buffer
	if err := sqlite.WriteYAML(&buf, snap); err != nil {
		return "", err
	}

	c.mu.Lock()
	historyKey := SnapshotPrefix + c.now().UTC().Format("20060102T150405Z")
	for _, key := range []string{LatestSnapshotKey, historyKey} {
		if err := c.kv.Set([]byte(key), buf.Bytes()); err != nil {
			c.mu.Unlock()
			return "", fmt.Errorf("failed to set key %s: %w", key, err)
		}
	}
	c.mu.Unlock()

	if err := c.Sync(ctx); err != nil {
		return historyKey, fmt.Errorf("snapshot stored locally but sync failed: %w", err)
	}
	return historyKey, nil
}

// PullSnapshot syncs and returns the snapshot stored under key, or the
// latest one when key is empty
func (c *Client) PullSnapshot(ctx context.Context, key string) (*sqlite.Snapshot, error) {
	if err := c.Sync(ctx); err != nil {
		return nil, err
	}
	if key == "" {
		key = LatestSnapshotKey
	}
	if !strings.HasPrefix(key, SnapshotPrefix) {
		key = SnapshotPrefix + key
	}

	c.mu.Lock()
	data, err := c.kv.Get([]byte(key))
	c.mu.Unlock()
	if err != nil || len(data) == 0 {
		return nil, fmt.Errorf("%w under %s", ErrNoSnapshot, key)
	}
	return sqlite.ReadYAML(bytes.NewReader(data))
}

// ListSnapshots returns the dated history keys, newest first
func (c *Client) ListSnapshots() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys, err := c.kv.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	var result []string
	for _, key := range keys {
		k := string(key)
		if strings.HasPrefix(k, SnapshotPrefix) && k != LatestSnapshotKey {
			result = append(result, k)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(result)))
	return result, nil
}

// PruneSnapshots deletes all but the newest keep history entries
func (c *Client) PruneSnapshots(keep int) (int, error) {
	keys, err := c.ListSnapshots()
	if err != nil {
		return 0, err
	}
	if keep < 0 || len(keys) <= keep {
		return 0, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for _, key := range keys[keep:] {
		if err := c.kv.Delete([]byte(key)); err != nil {
			return removed, fmt.Errorf("failed to delete key %s: %w", key, err)
		}
		removed++
	}
	return removed, nil
}
