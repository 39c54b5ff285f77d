// Package database provides the SurrealDB access layer used by the match
// archive.
//
// The engine itself keeps its state in memory (see internal/store). This
// package only carries what the archive needs: a connection, plain queries
// and atomic batches.
//
// # Error Handling
//
// Standard errors are defined for common failure cases:
//   - ErrConnection: Database connection issues
//   - ErrQuery: Query execution failures
//
// Use errors.Is() to check error types:
//
//	if errors.Is(err, database.ErrConnection) {
//	    // archive is unreachable
//	}
//
// # Usage Example
//
//	db := database.NewSurrealDB(cfg)
//	if err := db.Connect(ctx); err != nil { ... }
//	defer db.Close()
//
//	err := database.NewBatch().
//	    Add("CREATE ladder_snapshot CONTENT $row", map[string]any{"row": row}).
//	    Execute(ctx, db)
package database

import (
	"context"
	"errors"
)

// Standard errors for database operations.
// Use errors.Is() to check these error types in calling code.
var (
	// ErrConnection indicates a failure to connect to or communicate with the database.
	ErrConnection = errors.New("database connection error")

	// ErrQuery indicates a query execution failure (syntax error, invalid reference, etc.).
	ErrQuery = errors.New("query error")
)

// Database defines the interface for database operations
type Database interface {
	Connect(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error

	// Query executes a query and returns one result set per statement
	Query(ctx context.Context, query string, vars map[string]any) ([]any, error)

	// Execute runs a query without returning results (for mutations)
	Execute(ctx context.Context, query string, vars map[string]any) error
}

// Config holds database configuration
type Config struct {
	Host      string
	Port      string
	User      string
	Password  string
	Namespace string
	Database  string
}
