package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore persists audit events in PostgreSQL. The table is
// append-only; events are never updated or deleted.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed audit store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_events
			(id, occurred_at, request_id, actor, account_id, action,
			 issuer_rfc, document_id, outcome, error_count, warning_count, score, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.Timestamp,
		event.RequestID,
		event.Actor,
		event.AccountID,
		event.Action,
		event.IssuerRFC,
		event.DocumentID,
		event.Outcome,
		event.ErrorCount,
		event.WarningCount,
		event.Score,
		event.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByActor(ctx context.Context, actor string) ([]Event, error) {
	query := `
		SELECT id, occurred_at, request_id, actor, account_id, action,
		       issuer_rfc, document_id, outcome, error_count, warning_count, score, duration_ms
		FROM audit_events
		WHERE actor = $1
		ORDER BY occurred_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, actor)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(
			&e.ID, &e.Timestamp, &e.RequestID, &e.Actor, &e.AccountID, &e.Action,
			&e.IssuerRFC, &e.DocumentID, &e.Outcome, &e.ErrorCount, &e.WarningCount, &e.Score, &e.DurationMS,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
