package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"cartaporte/internal/artifact/models"
)

// PostgresStore persists artifacts in PostgreSQL. A unique constraint on
// (document_id, artifact_type, version_major, version_minor) backs the
// version manager's recompute-and-retry concurrency strategy.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed artifact store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, artifact *models.Artifact) error {
	metadata, err := encodeMetadata(artifact.Metadata)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert artifact: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Serialize writers across instances; the unique constraint below stays
	// as the backstop for anyone not holding the lock.
	if _, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1))`, artifact.DocumentID); err != nil {
		return fmt.Errorf("lock document: %w", err)
	}

	query := `
		INSERT INTO artifact_versions
			(id, document_id, artifact_type, version_major, version_minor,
			 content, metadata, generated_at, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = tx.ExecContext(ctx, query,
		artifact.ID,
		artifact.DocumentID,
		string(artifact.Type),
		artifact.Version.Major,
		artifact.Version.Minor,
		artifact.Content,
		metadata,
		artifact.GeneratedAt,
		artifact.Active,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrVersionExists
		}
		return fmt.Errorf("insert artifact: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert artifact: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByDocument(ctx context.Context, documentID string) ([]*models.Artifact, error) {
	query := `
		SELECT id, document_id, artifact_type, version_major, version_minor,
		       content, metadata, generated_at, active
		FROM artifact_versions
		WHERE document_id = $1
	`
	rows, err := s.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []*models.Artifact
	for rows.Next() {
		artifact, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, artifact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artifacts: %w", err)
	}
	return artifacts, nil
}

func (s *PostgresStore) FindVersion(ctx context.Context, documentID string, t models.Type, v models.Version) (*models.Artifact, error) {
	query := `
		SELECT id, document_id, artifact_type, version_major, version_minor,
		       content, metadata, generated_at, active
		FROM artifact_versions
		WHERE document_id = $1 AND artifact_type = $2
		  AND version_major = $3 AND version_minor = $4
	`
	row := s.db.QueryRowContext(ctx, query, documentID, string(t), v.Major, v.Minor)
	artifact, err := scanArtifact(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return artifact, nil
}

func (s *PostgresStore) Archive(ctx context.Context, documentID string, t models.Type, v models.Version) error {
	query := `
		UPDATE artifact_versions
		SET active = false
		WHERE document_id = $1 AND artifact_type = $2
		  AND version_major = $3 AND version_minor = $4
	`
	result, err := s.db.ExecContext(ctx, query, documentID, string(t), v.Major, v.Minor)
	if err != nil {
		return fmt.Errorf("archive artifact: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("archive artifact: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArtifact(row rowScanner) (*models.Artifact, error) {
	var (
		artifact models.Artifact
		typ      string
		metadata []byte
	)
	if err := row.Scan(
		&artifact.ID,
		&artifact.DocumentID,
		&typ,
		&artifact.Version.Major,
		&artifact.Version.Minor,
		&artifact.Content,
		&metadata,
		&artifact.GeneratedAt,
		&artifact.Active,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan artifact: %w", err)
	}
	artifact.Type = models.Type(typ)
	decoded, err := decodeMetadata(metadata)
	if err != nil {
		return nil, err
	}
	artifact.Metadata = decoded
	return &artifact, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
