package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"famtree/internal/history/models"
	personmodels "famtree/internal/person/models"
	id "famtree/pkg/domain"
	"famtree/pkg/platform/sentinel"
	txcontext "famtree/pkg/platform/tx"
)

const pqUniqueViolation = "23505"

// PostgresStore writes entries to change_log. Ordering comes from the seq
// column so entries sharing a timestamp still list in append order.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, e models.Entry) error {
	snapshot, err := nullableJSON(e.Snapshot, e.Snapshot == nil)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	changes, err := nullableJSON(e.Changes, len(e.Changes) == 0)
	if err != nil {
		return fmt.Errorf("marshal changes: %w", err)
	}
	related, err := nullableJSON(e.RelatedEntities, len(e.RelatedEntities) == 0)
	if err != nil {
		return fmt.Errorf("marshal related entities: %w", err)
	}
	query := `
		INSERT INTO change_log (
			id, owner_kind, owner_id, user_id, entity_id, entity_type, action,
			created_at, snapshot, changes, related_entities
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(e.ID), string(e.Owner.Kind), e.Owner.ID, uuid.UUID(e.UserID),
		uuid.UUID(e.EntityID), e.EntityType, string(e.Action), e.Timestamp,
		snapshot, changes, related,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert change log entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, owner id.OwnerRef, filter models.Filter) ([]models.Entry, error) {
	query := `
		SELECT id, owner_kind, owner_id, user_id, entity_id, entity_type, action,
		       created_at, snapshot, changes, related_entities
		FROM change_log
		WHERE owner_kind = $1 AND owner_id = $2
		  AND ($3 = '' OR entity_type = $3)
		  AND (COALESCE(cardinality($4::text[]), 0) = 0 OR action = ANY($4::text[]))
		ORDER BY seq DESC
		LIMIT $5
	`
	limit := filter.Limit
	if limit <= 0 {
		limit = models.MaxLimit
	}
	rows, err := s.execer(ctx).QueryContext(ctx, query,
		string(owner.Kind), owner.ID, filter.EntityType, pq.Array(filter.ActionStrings()), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list change log: %w", err)
	}
	defer rows.Close()

	var out []models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate change log: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, owner id.OwnerRef, logID id.LogID) (*models.Entry, error) {
	query := `
		SELECT id, owner_kind, owner_id, user_id, entity_id, entity_type, action,
		       created_at, snapshot, changes, related_entities
		FROM change_log
		WHERE owner_kind = $1 AND owner_id = $2 AND id = $3
	`
	e, err := scanEntry(s.execer(ctx).QueryRowContext(ctx, query, string(owner.Kind), owner.ID, uuid.UUID(logID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*models.Entry, error) {
	var (
		e                          models.Entry
		logID, ownerID             uuid.UUID
		userID, entityID           uuid.UUID
		ownerKind, action          string
		snapshot, changes, related []byte
	)
	if err := row.Scan(
		&logID, &ownerKind, &ownerID, &userID, &entityID, &e.EntityType, &action,
		&e.Timestamp, &snapshot, &changes, &related,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan change log entry: %w", err)
	}
	e.ID = id.LogID(logID)
	e.Owner = id.OwnerRef{Kind: id.OwnerKind(ownerKind), ID: ownerID}
	e.UserID = id.UserID(userID)
	e.EntityID = id.PersonID(entityID)
	e.Action = models.Action(action)
	e.Timestamp = e.Timestamp.UTC()

	if len(snapshot) > 0 {
		e.Snapshot = &personmodels.Person{}
		if err := json.Unmarshal(snapshot, e.Snapshot); err != nil {
			return nil, fmt.Errorf("unmarshal snapshot: %w", err)
		}
	}
	if len(changes) > 0 {
		if err := json.Unmarshal(changes, &e.Changes); err != nil {
			return nil, fmt.Errorf("unmarshal changes: %w", err)
		}
	}
	if len(related) > 0 {
		if err := json.Unmarshal(related, &e.RelatedEntities); err != nil {
			return nil, fmt.Errorf("unmarshal related entities: %w", err)
		}
	}
	return &e, nil
}

// nullableJSON encodes v, or returns an untyped nil so the column is
// stored as NULL.
func nullableJSON(v any, empty bool) (any, error) {
	if empty {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return raw, nil
}
