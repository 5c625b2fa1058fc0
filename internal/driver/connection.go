package driver

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/nyrkio/qry/internal/pipeline"
)

// Connection wraps a Driver with a per-connection cache of relation
// metadata (spec.md §4 Supplemented Features item 2): get_relation_metadata
// for a given table is only ever asked of the underlying Driver once,
// until the next Execute, which conservatively invalidates the whole
// cache since an arbitrary statement may have altered any table's schema.
type Connection struct {
	// ID is a unique identity for this Connection, minted in New. No log
	// line includes it; cmd/qry tags its slog lines with a per-file run ID.
	ID uuid.UUID

	driver Driver

	mu    sync.Mutex
	cache map[string]pipeline.QueryMetadata
}

// New wraps driver in a Connection with an empty metadata cache.
func New(d Driver) *Connection {
	return &Connection{ID: uuid.New(), driver: d, cache: make(map[string]pipeline.QueryMetadata)}
}

func (c *Connection) GetRelationMetadata(ctx context.Context, table string) (pipeline.QueryMetadata, error) {
	c.mu.Lock()
	if meta, ok := c.cache[table]; ok {
		c.mu.Unlock()
		return meta, nil
	}
	c.mu.Unlock()

	meta, err := c.driver.GetRelationMetadata(ctx, table)
	if err != nil {
		return pipeline.QueryMetadata{}, err
	}

	c.mu.Lock()
	c.cache[table] = meta
	c.mu.Unlock()
	return meta, nil
}

func (c *Connection) Execute(ctx context.Context, sql string) error {
	if err := c.driver.Execute(ctx, sql); err != nil {
		return err
	}
	c.mu.Lock()
	c.cache = make(map[string]pipeline.QueryMetadata)
	c.mu.Unlock()
	return nil
}

func (c *Connection) Collect(ctx context.Context, sql string, meta pipeline.QueryMetadata) (DataFrame, error) {
	return c.driver.Collect(ctx, sql, meta)
}
