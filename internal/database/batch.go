package database

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var paramPattern = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)

// Batch collects statements and runs them as one SurrealDB transaction.
// Each statement's parameters are renamed to s<index>_<name> so statements
// can reuse parameter names without clobbering each other.
type Batch struct {
	statements []string
	vars       map[string]any
}

// NewBatch creates an empty batch
func NewBatch() *Batch {
	return &Batch{vars: make(map[string]any)}
}

// Add appends a statement. Parameters not present in vars are left as-is.
func (b *Batch) Add(query string, vars map[string]any) *Batch {
	prefix := fmt.Sprintf("s%d_", len(b.statements))

	rewritten := paramPattern.ReplaceAllStringFunc(query, func(m string) string {
		name := m[1:]
		if _, ok := vars[name]; !ok {
			return m
		}
		return "$" + prefix + name
	})
	for k, v := range vars {
		b.vars[prefix+k] = v
	}

	b.statements = append(b.statements, strings.TrimRight(strings.TrimSpace(rewritten), ";"))
	return b
}

// Len returns the number of statements in the batch
func (b *Batch) Len() int {
	return len(b.statements)
}

// Build returns the transaction text and its merged parameters
func (b *Batch) Build() (string, map[string]any) {
	var sb strings.Builder
	sb.WriteString("BEGIN TRANSACTION;\n")
	for _, stmt := range b.statements {
		sb.WriteString(stmt)
		sb.WriteString(";\n")
	}
	sb.WriteString("COMMIT TRANSACTION;")
	return sb.String(), b.vars
}

// Execute runs the batch. An empty batch is a no-op.
func (b *Batch) Execute(ctx context.Context, db Database) error {
	if len(b.statements) == 0 {
		return nil
	}
	query, vars := b.Build()
	if err := db.Execute(ctx, query, vars); err != nil {
		return fmt.Errorf("batch of %d statements: %w", len(b.statements), err)
	}
	return nil
}
