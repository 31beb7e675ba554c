// Package test runs a disposable postgres container for store tests.
package test

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/pkg/errors"

	_ "github.com/jackc/pgx/v4/stdlib" //nolint:revive

	"github.com/code-payments/nft-minter/pkg/retry"
	"github.com/code-payments/nft-minter/pkg/retry/backoff"
)

const (
	repository = "postgres"
	tag        = "13-alpine"

	// Docker kills the container after this long, even if the test binary
	// never calls the close function.
	containerAutoKill = 120 * time.Second

	startupTimeout = 30 * time.Second

	port     = 5432
	user     = "localtest"
	password = "localpassword"
	dbname   = "testdb"
)

// Database is a running test container along with the schema it was
// started with.
type Database struct {
	DB *sql.DB

	schema   Schema
	resource *dockertest.Resource
	pool     *dockertest.Pool
}

// Schema holds the statements that create and drop the tables under test.
type Schema struct {
	Create string
	Drop   string
}

// StartPostgresDB starts a postgres container and applies schema.Create.
func StartPostgresDB(pool *dockertest.Pool, schema Schema) (*Database, error) {
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: repository,
		Tag:        tag,
		Env: []string{
			"POSTGRES_USER=" + user,
			"POSTGRES_PASSWORD=" + password,
			"POSTGRES_DB=" + dbname,
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to start postgres container")
	}

	// Expire never returns an error.
	_ = resource.Expire(uint(containerAutoKill.Seconds()))

	d := &Database{
		schema:   schema,
		resource: resource,
		pool:     pool,
	}

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s/%s?sslmode=disable",
		user, password, resource.GetHostPort(fmt.Sprintf("%d/tcp", port)), dbname,
	)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	_, err = retry.Retry(
		ctx,
		func() error {
			db, err := sql.Open("pgx", dsn)
			if err != nil {
				return err
			}
			if err := db.PingContext(ctx); err != nil {
				db.Close()
				return err
			}
			d.DB = db
			return nil
		},
		retry.Backoff(backoff.Constant(500*time.Millisecond), 500*time.Millisecond),
	)
	if err != nil {
		d.Close()
		return nil, errors.Wrap(err, "timed out waiting for postgres container")
	}

	if _, err := d.DB.Exec(schema.Create); err != nil {
		d.Close()
		return nil, errors.Wrap(err, "failed to create schema")
	}

	return d, nil
}

// Reset drops and recreates the schema.
func (d *Database) Reset() error {
	if _, err := d.DB.Exec(d.schema.Drop); err != nil {
		return errors.Wrap(err, "failed to drop schema")
	}
	if _, err := d.DB.Exec(d.schema.Create); err != nil {
		return errors.Wrap(err, "failed to create schema")
	}
	return nil
}

// Close releases the connection pool and removes the container.
func (d *Database) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
	_ = d.pool.Purge(d.resource)
}
