// Package cache provides caching infrastructure with PostgreSQL LISTEN/NOTIFY support.
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"ledger/internal/domain/catalogs/accounts"
	"ledger/pkg/logger"
)

// TagRegistryChannel is notified by triggers on account_tag_definitions and
// account_tags with the changed tag as payload.
const TagRegistryChannel = "tag_registry_changed"

// DefinitionSource loads tag definitions from storage.
type DefinitionSource interface {
	accounts.TagRegistry
	ListDefinitions(ctx context.Context) ([]accounts.TagDefinition, error)
}

// TagRegistryCache keeps the tag registry in memory and drops entries when
// PostgreSQL reports a change, so reads never wait for a TTL.
type TagRegistryCache struct {
	pool   *pgxpool.Pool
	source DefinitionSource

	mu   sync.RWMutex
	defs map[string]accounts.TagDefinition

	hits   int64
	misses int64

	// Lifecycle
	lifecycleMu sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

var _ accounts.TagRegistry = (*TagRegistryCache)(nil)

// NewTagRegistryCache creates a cache over source. pool is used for LISTEN
// and may be nil when notifications are not wanted.
func NewTagRegistryCache(pool *pgxpool.Pool, source DefinitionSource) *TagRegistryCache {
	return &TagRegistryCache{
		pool:   pool,
		source: source,
		defs:   make(map[string]accounts.TagDefinition),
	}
}

// Start loads every definition and begins listening for changes.
func (c *TagRegistryCache) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c.lifecycleMu.Lock()
	if c.started {
		c.lifecycleMu.Unlock()
		return nil
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.started = true
	c.lifecycleMu.Unlock()

	if err := c.loadAll(c.ctx); err != nil {
		c.Stop()
		return fmt.Errorf("load tag registry: %w", err)
	}

	if c.pool != nil {
		c.wg.Add(1)
		go c.listenLoop()
	}
	logger.Info(c.ctx, "tag registry cache started")
	return nil
}

// Stop ends the listener and waits for it to exit.
func (c *TagRegistryCache) Stop() {
	c.lifecycleMu.Lock()
	if !c.started {
		c.lifecycleMu.Unlock()
		return
	}
	cancel := c.cancel
	c.started = false
	c.cancel = nil
	c.lifecycleMu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	logger.Info(context.Background(), "tag registry cache stopped")
}

// Definition returns the cached definition of tag, loading it on a miss.
func (c *TagRegistryCache) Definition(ctx context.Context, tag string) (*accounts.TagDefinition, error) {
	c.mu.Lock()
	def, ok := c.defs[tag]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()
	if ok {
		return &def, nil
	}

	loaded, err := c.source.Definition(ctx, tag)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.defs[tag] = *loaded
	c.mu.Unlock()
	return loaded, nil
}

// Invalidate drops tag from the cache, or everything when tag is empty.
func (c *TagRegistryCache) Invalidate(tag string) {
	tag = strings.TrimSpace(tag)
	c.mu.Lock()
	defer c.mu.Unlock()
	if tag == "" {
		c.defs = make(map[string]accounts.TagDefinition)
		return
	}
	delete(c.defs, tag)
}

func (c *TagRegistryCache) loadAll(ctx context.Context) error {
	defs, err := c.source.ListDefinitions(ctx)
	if err != nil {
		return err
	}
	m := make(map[string]accounts.TagDefinition, len(defs))
	for _, d := range defs {
		m[d.Tag] = d
	}
	c.mu.Lock()
	c.defs = m
	c.mu.Unlock()

	logger.Info(ctx, "loaded tag registry", "tags", len(m))
	return nil
}

func (c *TagRegistryCache) listenLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		conn, err := c.pool.Acquire(c.ctx)
		if err != nil {
			logger.Error(c.ctx, "failed to acquire connection for LISTEN", "error", err)
			time.Sleep(time.Second)
			continue
		}

		if _, err = conn.Exec(c.ctx, "LISTEN "+TagRegistryChannel); err != nil {
			logger.Error(c.ctx, "failed to LISTEN", "error", err)
			conn.Release()
			time.Sleep(time.Second)
			continue
		}
		logger.Info(c.ctx, "listening for tag registry notifications")

		// Changes missed while reconnecting are unknown; start clean.
		c.Invalidate("")
		c.waitForNotifications(conn)
		conn.Release()
	}
}

func (c *TagRegistryCache) waitForNotifications(conn *pgxpool.Conn) {
	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		ctx, cancel := context.WithTimeout(c.ctx, 30*time.Second)
		n, err := conn.Conn().WaitForNotification(ctx)
		cancel()

		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			if ctx.Err() != nil {
				continue
			}
			logger.Warn(c.ctx, "LISTEN connection lost", "error", err)
			return
		}

		logger.Debug(c.ctx, "tag registry changed", "tag", n.Payload)
		c.Invalidate(n.Payload)
	}
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Tags   int
	Hits   int64
	Misses int64
}

// GetStats returns current cache statistics.
func (c *TagRegistryCache) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{Tags: len(c.defs), Hits: c.hits, Misses: c.misses}
}
