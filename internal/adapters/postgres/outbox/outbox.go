// Package outbox implements the transactional outbox table: Insert writes
// an event row in the caller's transaction; Unpublished/MarkPublished
// back C7's separate drain loop.
package outbox

import (
	"context"
	"database/sql"
	"fmt"

	sqrl "github.com/Masterminds/squirrel"

	"github.com/fnyamweya/caricash-nova-sub001/pkg/dbtx"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mmodel"
)

// Repository is the Postgres-backed OutboxRepository and C7 drain source.
type Repository struct {
	DB dbtx.DB
}

func (r *Repository) exec(ctx context.Context) dbtx.Executor {
	return dbtx.GetExecutor(ctx, r.DB)
}

// Insert writes event in the caller's (already-open) transaction, so it
// commits atomically with the state change that caused it.
func (r *Repository) Insert(ctx context.Context, event mmodel.Event) error {
	query, args, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Insert("outbox_event").
		Columns("id", "name", "entity_type", "entity_id", "correlation_id", "causation_id", "actor_type",
			"actor_id", "schema_version", "payload_json", "created_at").
		Values(event.ID, event.Name, event.EntityType, event.EntityID, event.CorrelationID, event.CausationID,
			event.ActorType, event.ActorID, event.SchemaVersion, event.PayloadJSON, event.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("outbox: build insert: %w", err)
	}

	if _, err := r.exec(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("outbox: insert: %w", err)
	}

	return nil
}

// Unpublished returns up to limit events with no published_at timestamp,
// oldest first, for the publisher's drain loop.
func (r *Repository) Unpublished(ctx context.Context, limit int) ([]mmodel.Event, error) {
	query, args, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("id", "name", "entity_type", "entity_id", "correlation_id", "causation_id", "actor_type",
			"actor_id", "schema_version", "payload_json", "created_at", "published_at").
		From("outbox_event").
		Where(sqrl.Eq{"published_at": nil}).
		OrderBy("created_at ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("outbox: build unpublished query: %w", err)
	}

	rows, err := r.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("outbox: query unpublished: %w", err)
	}
	defer rows.Close()

	var events []mmodel.Event

	for rows.Next() {
		var e mmodel.Event

		if err := rows.Scan(&e.ID, &e.Name, &e.EntityType, &e.EntityID, &e.CorrelationID, &e.CausationID,
			&e.ActorType, &e.ActorID, &e.SchemaVersion, &e.PayloadJSON, &e.CreatedAt, &e.PublishedAt); err != nil {
			return nil, fmt.Errorf("outbox: scan event: %w", err)
		}

		events = append(events, e)
	}

	return events, rows.Err()
}

// MarkPublished stamps published_at on the given event ids after a
// successful broker publish.
func (r *Repository) MarkPublished(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query, queryArgs, err := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Update("outbox_event").
		Set("published_at", sqrl.Expr("now()")).
		Where(sqrl.Eq{"id": args}).
		ToSql()
	if err != nil {
		return fmt.Errorf("outbox: build mark published: %w", err)
	}

	if _, err := r.exec(ctx).ExecContext(ctx, query, queryArgs...); err != nil {
		return fmt.Errorf("outbox: mark published: %w", err)
	}

	return nil
}
