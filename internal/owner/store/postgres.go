package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"famtree/internal/owner/models"
	personmodels "famtree/internal/person/models"
	id "famtree/pkg/domain"
	"famtree/pkg/platform/sentinel"
	txcontext "famtree/pkg/platform/tx"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// PostgresStore keeps owners in the owners table and each collection as one
// JSONB document in person_collections.
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

func (s *PostgresStore) CreateOwner(ctx context.Context, o *models.Owner) error {
	members, err := json.Marshal(o.Members)
	if err != nil {
		return fmt.Errorf("marshal members: %w", err)
	}
	query := `
		INSERT INTO owners (kind, id, name, owner_user_id, members, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		string(o.Ref.Kind), o.Ref.ID, o.Name, uuid.UUID(o.OwnerUserID), members, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if isPQCode(err, pqUniqueViolation) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert owner: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetOwner(ctx context.Context, ref id.OwnerRef) (*models.Owner, error) {
	query := `
		SELECT kind, id, name, owner_user_id, members, created_at, updated_at
		FROM owners
		WHERE kind = $1 AND id = $2
	`
	o, err := scanOwner(s.execer(ctx).QueryRowContext(ctx, query, string(ref.Kind), ref.ID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find owner: %w", err)
	}
	return o, nil
}

func (s *PostgresStore) UpdateOwner(ctx context.Context, o *models.Owner) error {
	members, err := json.Marshal(o.Members)
	if err != nil {
		return fmt.Errorf("marshal members: %w", err)
	}
	query := `
		UPDATE owners SET name = $3, members = $4, updated_at = $5
		WHERE kind = $1 AND id = $2
	`
	res, err := s.execer(ctx).ExecContext(ctx, query, string(o.Ref.Kind), o.Ref.ID, o.Name, members, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update owner: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update owner rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListTreesForUser(ctx context.Context, userID id.UserID) ([]*models.Owner, error) {
	filter, err := json.Marshal([]map[string]string{{"userId": userID.String()}})
	if err != nil {
		return nil, fmt.Errorf("marshal member filter: %w", err)
	}
	query := `
		SELECT kind, id, name, owner_user_id, members, created_at, updated_at
		FROM owners
		WHERE kind = $1 AND members @> $2::jsonb
		ORDER BY created_at
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, string(id.OwnerKindTree), filter)
	if err != nil {
		return nil, fmt.Errorf("list trees: %w", err)
	}
	defer rows.Close()

	var out []*models.Owner
	for rows.Next() {
		o, err := scanOwner(rows)
		if err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate owners: %w", err)
	}
	return out, nil
}

// LoadCollection returns an empty collection for a registered owner that has
// never saved one.
func (s *PostgresStore) LoadCollection(ctx context.Context, ref id.OwnerRef) (*personmodels.Collection, error) {
	query := `
		SELECT c.document
		FROM owners o
		LEFT JOIN person_collections c ON c.owner_kind = o.kind AND c.owner_id = o.id
		WHERE o.kind = $1 AND o.id = $2
	`
	var doc []byte
	err := s.execer(ctx).QueryRowContext(ctx, query, string(ref.Kind), ref.ID).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load collection: %w", err)
	}
	if doc == nil {
		return personmodels.NewCollection(ref), nil
	}
	c, err := personmodels.UnmarshalDocument(ref, doc)
	if err != nil {
		return nil, fmt.Errorf("decode collection: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) SaveCollection(ctx context.Context, c *personmodels.Collection) error {
	doc, err := c.MarshalDocument()
	if err != nil {
		return fmt.Errorf("encode collection: %w", err)
	}
	query := `
		INSERT INTO person_collections (owner_kind, owner_id, document, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner_kind, owner_id)
		DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at
	`
	_, err = s.execer(ctx).ExecContext(ctx, query, string(c.Owner.Kind), c.Owner.ID, doc, c.UpdatedAt)
	if err != nil {
		if isPQCode(err, pqForeignKeyViolation) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("save collection: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOwner(row rowScanner) (*models.Owner, error) {
	var (
		kind        string
		ownerID     uuid.UUID
		ownerUserID uuid.UUID
		members     []byte
		o           models.Owner
	)
	if err := row.Scan(&kind, &ownerID, &o.Name, &ownerUserID, &members, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.Ref = id.OwnerRef{Kind: id.OwnerKind(kind), ID: ownerID}
	o.OwnerUserID = id.UserID(ownerUserID)
	if err := json.Unmarshal(members, &o.Members); err != nil {
		return nil, fmt.Errorf("decode members: %w", err)
	}
	return &o, nil
}

func isPQCode(err error, code string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == code
}
