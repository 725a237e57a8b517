package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"arkiv/internal/model"
	"arkiv/internal/repository"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint
// violations, raised when two uploads race on the same content hash.
const pgUniqueViolation = "23505"

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = "hash, filename, storage_key, size, access, document_type_id, created_at, uploaded_at, expires_at"

func scanDocument(row interface{ Scan(...any) error }) (*model.Document, error) {
	var d model.Document
	var access string
	if err := row.Scan(
		&d.Hash,
		&d.Filename,
		&d.StorageKey,
		&d.Size,
		&access,
		&d.DocumentTypeID,
		&d.CreatedAt,
		&d.UploadedAt,
		&d.ExpiresAt,
	); err != nil {
		return nil, err
	}
	d.Access = model.AccessLevel(access)
	return &d, nil
}

// Insert stores a new document row and returns the stored record.
// A unique violation on the hash key maps to repository.ErrDuplicateHash.
func (r *DocumentPostgres) Insert(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (hash, filename, storage_key, size, access, document_type_id, created_at, uploaded_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.Hash,
		doc.Filename,
		doc.StorageKey,
		doc.Size,
		string(doc.Access),
		doc.DocumentTypeID,
		doc.CreatedAt,
		doc.UploadedAt,
		doc.ExpiresAt,
	)
	out, err := scanDocument(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, repository.ErrDuplicateHash
		}
		return nil, err
	}
	return out, nil
}

// FindByHash fetches a single document by its content hash.
func (r *DocumentPostgres) FindByHash(ctx context.Context, hash string) (*model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE hash = $1`
	return scanDocument(r.db.QueryRowContext(ctx, q, hash))
}

// List returns documents using LIMIT/OFFSET pagination and a total count.
// Visibility filters translate into WHERE clauses shared by both queries.
func (r *DocumentPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	var conds []string
	if !pq.IncludePrivate {
		conds = append(conds, "access = 'public'")
	}
	if !pq.IncludeExpired {
		conds = append(conds, "expires_at >= CURRENT_DATE")
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents"+where).Scan(&total); err != nil {
		return nil, err
	}

	qList := `SELECT ` + documentColumns + ` FROM documents` + where + `
		ORDER BY uploaded_at DESC, hash DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{
		Items: items,
		Total: total,
	}, nil
}

// UpdateByHash patches the admin-editable columns; nil patch fields keep the
// current value via COALESCE. Returns the updated row.
func (r *DocumentPostgres) UpdateByHash(ctx context.Context, hash string, patch repository.DocumentPatch) (*model.Document, error) {
	const q = `
		UPDATE documents
		SET filename   = COALESCE($2, filename),
		    access     = COALESCE($3, access),
		    created_at = COALESCE($4, created_at),
		    expires_at = COALESCE($5, expires_at)
		WHERE hash = $1
		RETURNING ` + documentColumns

	var access *string
	if patch.Access != nil {
		s := string(*patch.Access)
		access = &s
	}

	row := r.db.QueryRowContext(ctx, q, hash, patch.Filename, access, patch.CreatedAt, patch.ExpiresAt)
	return scanDocument(row)
}

// DeleteByHash removes a document by hash. It does not return an error if the
// row does not exist.
func (r *DocumentPostgres) DeleteByHash(ctx context.Context, hash string) error {
	const q = `DELETE FROM documents WHERE hash = $1`
	res, err := r.db.ExecContext(ctx, q, hash)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}
