// Package archive exports completed matches and ladder snapshots to
// SurrealDB. The in-memory engine stays authoritative; a failed export is
// logged by the caller and never rolls anything back.
package archive

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/microarena/api/internal/clock"
	"github.com/microarena/api/internal/database"
	"github.com/microarena/api/internal/model"
)

const (
	matchTable    = "completed_match"
	snapshotTable = "ladder_snapshot"
)

// Sink receives engine output worth keeping after a restart.
type Sink interface {
	ArchiveMatch(ctx context.Context, record *model.CompletedMatchRecord) error
	ArchiveLadder(ctx context.Context, entries []model.LadderEntry) error
}

// Noop discards everything. Used when the archive is disabled.
type Noop struct{}

func (Noop) ArchiveMatch(context.Context, *model.CompletedMatchRecord) error {
	return nil
}

func (Noop) ArchiveLadder(context.Context, []model.LadderEntry) error {
	return nil
}

// SurrealSink writes to the completed_match and ladder_snapshot tables.
type SurrealSink struct {
	db    database.Database
	clock clock.Clock
}

// NewSurrealSink creates a sink over an already connected database.
func NewSurrealSink(db database.Database, clk clock.Clock) *SurrealSink {
	return &SurrealSink{db: db, clock: clk}
}

// ArchiveMatch upserts the record keyed by its source and match id, so a
// repeated export of the same completion overwrites rather than duplicates.
func (s *SurrealSink) ArchiveMatch(ctx context.Context, record *model.CompletedMatchRecord) error {
	if record == nil {
		return nil
	}
	content, err := toContent(record)
	if err != nil {
		return err
	}
	content["archived_at"] = s.clock.NowMillis()

	query := "UPSERT type::thing($table, $id) CONTENT $content"
	vars := map[string]any{
		"table":   matchTable,
		"id":      matchKey(record),
		"content": content,
	}
	if err := s.db.Execute(ctx, query, vars); err != nil {
		return fmt.Errorf("archive match %s: %w", record.MatchID, err)
	}
	return nil
}

// ArchiveLadder stores every entry under one snapshot id in a single
// transaction. An empty ladder writes nothing.
func (s *SurrealSink) ArchiveLadder(ctx context.Context, entries []model.LadderEntry) error {
	if len(entries) == 0 {
		return nil
	}

	snapshotID := uuid.NewString()
	takenAt := s.clock.NowMillis()

	batch := database.NewBatch()
	for _, e := range entries {
		row, err := toContent(e)
		if err != nil {
			return err
		}
		row["snapshot_id"] = snapshotID
		row["taken_at"] = takenAt
		batch.Add("CREATE type::table($table) CONTENT $row", map[string]any{
			"table": snapshotTable,
			"row":   row,
		})
	}

	if err := batch.Execute(ctx, s.db); err != nil {
		return fmt.Errorf("archive ladder snapshot: %w", err)
	}
	return nil
}

func matchKey(r *model.CompletedMatchRecord) string {
	return string(r.Source) + "_" + r.MatchID
}

// toContent flattens v through its json tags so stored field names match the
// HTTP representation.
func toContent(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode archive content: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("encode archive content: %w", err)
	}
	return out, nil
}
