package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"arkiv/internal/model"
	"arkiv/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

var documentRows = []string{"hash", "filename", "storage_key", "size", "access", "document_type_id", "created_at", "uploaded_at", "expires_at"}

func sampleDocument() *model.Document {
	now := time.Now().UTC()
	return &model.Document{
		Hash:           "aaaabbbbccccddddaaaabbbbccccddddaaaabbbbccccddddaaaabbbbccccdddd",
		Filename:       "contrato.pdf",
		StorageKey:     "aaaabbbbccccddddaaaabbbbccccddddaaaabbbbccccddddaaaabbbbccccdddd.pdf",
		Size:           123,
		Access:         model.AccessPublic,
		DocumentTypeID: 1,
		CreatedAt:      now,
		UploadedAt:     now,
		ExpiresAt:      now.AddDate(1, 0, 0),
	}
}

func rowsFor(doc *model.Document) *sqlmock.Rows {
	return sqlmock.NewRows(documentRows).
		AddRow(doc.Hash, doc.Filename, doc.StorageKey, doc.Size, string(doc.Access), doc.DocumentTypeID, doc.CreatedAt, doc.UploadedAt, doc.ExpiresAt)
}

func TestDocumentPostgres_Insert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		doc := sampleDocument()

		mock.ExpectQuery("INSERT INTO documents").
			WithArgs(doc.Hash, doc.Filename, doc.StorageKey, doc.Size, string(doc.Access), doc.DocumentTypeID, doc.CreatedAt, doc.UploadedAt, doc.ExpiresAt).
			WillReturnRows(rowsFor(doc))

		result, err := repo.Insert(ctx, doc)

		assert.NoError(t, err)
		assert.NotNil(t, result)
		assert.Equal(t, doc.Hash, result.Hash)
		assert.Equal(t, model.AccessPublic, result.Access)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate hash maps to sentinel", func(t *testing.T) {
		doc := sampleDocument()

		mock.ExpectQuery("INSERT INTO documents").
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "documents_pkey"})

		result, err := repo.Insert(ctx, doc)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, repository.ErrDuplicateHash)
	})

	t.Run("other database errors pass through", func(t *testing.T) {
		doc := sampleDocument()

		mock.ExpectQuery("INSERT INTO documents").
			WillReturnError(errors.New("connection reset"))

		_, err := repo.Insert(ctx, doc)

		assert.Error(t, err)
		assert.NotErrorIs(t, err, repository.ErrDuplicateHash)
	})
}

func TestDocumentPostgres_FindByHash(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		doc := sampleDocument()

		mock.ExpectQuery("SELECT (.+) FROM documents WHERE hash = ?").
			WithArgs(doc.Hash).
			WillReturnRows(rowsFor(doc))

		got, err := repo.FindByHash(ctx, doc.Hash)

		assert.NoError(t, err)
		assert.NotNil(t, got)
		assert.Equal(t, doc.StorageKey, got.StorageKey)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE hash = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		got, err := repo.FindByHash(ctx, "missing")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, got)
	})
}

func TestDocumentPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("public only filters private and expired", func(t *testing.T) {
		doc := sampleDocument()

		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents WHERE access = 'public' AND expires_at >= CURRENT_DATE").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		mock.ExpectQuery("SELECT (.+) FROM documents WHERE access = 'public' AND expires_at >= CURRENT_DATE ORDER BY").
			WithArgs(10, 0).
			WillReturnRows(rowsFor(doc))

		res, err := repo.List(ctx, repository.PageQuery{Limit: 10, Offset: 0})

		assert.NoError(t, err)
		assert.Equal(t, 1, res.Total)
		assert.Len(t, res.Items, 1)
	})

	t.Run("all tier sees everything", func(t *testing.T) {
		doc := sampleDocument()

		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

		mock.ExpectQuery("SELECT (.+) FROM documents ORDER BY").
			WithArgs(10, 0).
			WillReturnRows(rowsFor(doc))

		res, err := repo.List(ctx, repository.PageQuery{Limit: 10, Offset: 0, IncludePrivate: true, IncludeExpired: true})

		assert.NoError(t, err)
		assert.Equal(t, 2, res.Total)
		assert.Len(t, res.Items, 1)
	})
}

func TestDocumentPostgres_UpdateByHash(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("patches filename only", func(t *testing.T) {
		doc := sampleDocument()
		newName := "renomeado.pdf"
		doc.Filename = newName

		mock.ExpectQuery("UPDATE documents").
			WithArgs(doc.Hash, newName, nil, nil, nil).
			WillReturnRows(rowsFor(doc))

		got, err := repo.UpdateByHash(ctx, doc.Hash, repository.DocumentPatch{Filename: &newName})

		assert.NoError(t, err)
		assert.Equal(t, newName, got.Filename)
	})

	t.Run("unknown hash", func(t *testing.T) {
		mock.ExpectQuery("UPDATE documents").
			WillReturnError(sql.ErrNoRows)

		got, err := repo.UpdateByHash(ctx, "missing", repository.DocumentPatch{})

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, got)
	})
}

func TestDocumentPostgres_DeleteByHash(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM documents WHERE hash = ?").
		WithArgs("test-hash").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.DeleteByHash(ctx, "test-hash")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
