// Package mpostgres manages the primary/replica Postgres connection pool
// and schema migrations, grounded on the teacher's common/mpostgres.
package mpostgres

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/bxcodec/dbresolver/v2"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" //nolint:blank-imports // migrate driver registration
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/source/file" //nolint:blank-imports // migrate source registration
	_ "github.com/jackc/pgx/v5/stdlib"                   //nolint:blank-imports // database/sql driver registration

	"github.com/fnyamweya/caricash-nova-sub001/pkg/mlog"
)

// Connection holds the primary and replica DSNs and the resolved
// dbresolver handle, lazily connected on first GetDB call.
type Connection struct {
	PrimaryDBName      string
	PrimaryDSN         string
	ReplicaDSN         []string
	MigrationsPath     string
	Logger             mlog.Logger
	Component          string
	ConnMaxOpenLimit   int
	ConnMaxIdleLimit   int

	mu        sync.Mutex
	connected bool
	db        dbresolver.DB
}

// Connect opens the primary and replica pools, runs migrations against the
// primary, and wires health-check-friendly pool limits.
func (c *Connection) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	primary, err := sql.Open("pgx", c.PrimaryDSN)
	if err != nil {
		return fmt.Errorf("mpostgres: open primary: %w", err)
	}

	primaryDBs := []*sql.DB{primary}

	replicaDBs := make([]*sql.DB, 0, len(c.ReplicaDSN))

	for _, dsn := range c.ReplicaDSN {
		replica, openErr := sql.Open("pgx", dsn)
		if openErr != nil {
			return fmt.Errorf("mpostgres: open replica: %w", openErr)
		}

		replicaDBs = append(replicaDBs, replica)
	}

	opts := []dbresolver.OptionFunc{
		dbresolver.WithPrimaryDBs(primaryDBs...),
		dbresolver.WithReplicaDBs(replicaDBs...),
	}

	if len(replicaDBs) > 0 {
		opts = append(opts, dbresolver.WithLoadBalancer(dbresolver.RandomLB))
	}

	resolver := dbresolver.New(opts...)

	if c.ConnMaxOpenLimit > 0 {
		resolver.SetMaxOpenConns(c.ConnMaxOpenLimit)
	}

	if c.ConnMaxIdleLimit > 0 {
		resolver.SetMaxIdleConns(c.ConnMaxIdleLimit)
	}

	if c.MigrationsPath != "" {
		if err := c.runMigrations(); err != nil {
			return err
		}
	}

	c.db = resolver
	c.connected = true

	if c.Logger != nil {
		c.Logger.Infof("mpostgres: connected to %s (%d replicas)", c.PrimaryDBName, len(c.ReplicaDSN))
	}

	return nil
}

func (c *Connection) runMigrations() error {
	m, err := migrate.New(c.MigrationsPath, c.PrimaryDSN)
	if err != nil {
		return fmt.Errorf("mpostgres: migrate new: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("mpostgres: migrate up: %w", err)
	}

	return nil
}

// GetDB connects lazily on first use and returns the resolver handle.
func (c *Connection) GetDB() (dbresolver.DB, error) {
	c.mu.Lock()
	connected := c.connected
	c.mu.Unlock()

	if !connected {
		if err := c.Connect(); err != nil {
			return nil, err
		}
	}

	return c.db, nil
}
