package database

import (
	"database/sql"
	"sync"

	"arkiv/internal/config"
)

// Connector is a lazily-initialized database handle owned by the
// composition root. The first Get opens the connection; concurrent callers
// block on the mutex until that attempt finishes, so only one connect is
// ever in flight. A failed attempt leaves the handle unset and the next
// Get retries.
type Connector struct {
	cfg config.DatabaseConfig

	mu sync.Mutex
	db *sql.DB
}

// NewConnector creates a Connector without opening a connection.
func NewConnector(cfg config.DatabaseConfig) *Connector {
	return &Connector{cfg: cfg}
}

// Get returns the shared handle, opening it on first use.
func (c *Connector) Get() (*sql.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return c.db, nil
	}

	db, err := NewPostgres(c.cfg)
	if err != nil {
		return nil, err
	}
	c.db = db
	return c.db, nil
}

// Close closes the handle if it was ever opened.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}
