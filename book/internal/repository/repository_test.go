package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Astemirdum/book-service/book/internal/model"
	"github.com/Astemirdum/book-service/book/internal/repository"
	"github.com/Astemirdum/book-service/pkg/errs"
	"github.com/Astemirdum/book-service/pkg/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type call struct {
	sql  string
	args []any
}

// fakeDB records statements and answers with canned results.
type fakeDB struct {
	mu      sync.Mutex
	calls   []call
	tag     pgconn.CommandTag
	execErr error
	rowErr  error
	count   int64
	// rows, when set, is what Query answers with.
	rows [][]any
}

func (f *fakeDB) record(sql string, args []any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{sql: sql, args: args})
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.record(sql, args)
	return f.tag, f.execErr
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.record(sql, args)
	if f.rows != nil {
		return newFakeRows(bookFields, f.rows), nil
	}
	return nil, &pgconn.PgError{Code: "08006", Message: "connection failure"}
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.record(sql, args)
	return fakeRow{n: f.count, err: f.rowErr}
}

type fakeRow struct {
	n   int64
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*int64) = r.n
	return nil
}

func requireKind(t *testing.T, err error, kind errs.Kind) {
	t.Helper()
	var appErr *errs.AppError
	require.True(t, errors.As(err, &appErr), "expected *errs.AppError, got %T", err)
	require.Equal(t, kind, appErr.Kind)
}

func TestRepository_Create(t *testing.T) {
	t.Parallel()
	db := &fakeDB{tag: pgconn.NewCommandTag("INSERT 0 1")}
	repo := repository.NewRepository(db, zap.NewNop())
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	err := repo.Create(context.Background(), model.Book{ID: "id-1", Title: "foo", Author: "bar", CreatedAt: created})
	require.NoError(t, err)
	require.Len(t, db.calls, 1)
	require.Equal(t, "INSERT INTO book (id,title,author,created_at) VALUES ($1,$2,$3,$4)", db.calls[0].sql)
	require.Equal(t, []any{"id-1", "foo", "bar", created}, db.calls[0].args)
}

func TestRepository_CreateStoreError(t *testing.T) {
	t.Parallel()
	db := &fakeDB{execErr: &pgconn.PgError{Code: "23505", Message: "duplicate key"}}
	repo := repository.NewRepository(db, zap.NewNop())

	err := repo.Create(context.Background(), model.Book{ID: "id-1"})
	requireKind(t, err, errs.KindInternal)
	require.Equal(t, "Database Error", errs.From(err).Message)
}

func TestRepository_Update(t *testing.T) {
	t.Parallel()
	db := &fakeDB{tag: pgconn.NewCommandTag("UPDATE 0")}
	repo := repository.NewRepository(db, zap.NewNop())

	require.NoError(t, repo.Update(context.Background(), "missing", model.BookCreation{Title: "t", Author: "a"}))
	require.Len(t, db.calls, 1)
	require.Equal(t, "UPDATE book SET title = $1, author = $2, updated_at = $3 WHERE id = $4", db.calls[0].sql)
	args := db.calls[0].args
	require.Equal(t, "t", args[0])
	require.Equal(t, "a", args[1])
	updatedAt, ok := args[2].(time.Time)
	require.True(t, ok)
	require.Equal(t, time.UTC, updatedAt.Location())
	require.WithinDuration(t, time.Now(), updatedAt, time.Minute)
	require.Equal(t, "missing", args[3])
}

func TestRepository_Delete(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		tag  string
		want int64
	}{
		{name: "deleted", tag: "DELETE 1", want: 1},
		{name: "absent", tag: "DELETE 0", want: 0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			db := &fakeDB{tag: pgconn.NewCommandTag(tt.tag)}
			repo := repository.NewRepository(db, zap.NewNop())
			n, err := repo.Delete(context.Background(), "id-1")
			require.NoError(t, err)
			require.Equal(t, tt.want, n)
			require.Equal(t, "DELETE FROM book WHERE id = $1", db.calls[0].sql)
		})
	}
}

func TestRepository_GetAllStoreError(t *testing.T) {
	t.Parallel()
	db := &fakeDB{count: 3}
	repo := repository.NewRepository(db, zap.NewNop())
	spec, err := pagination.Parse(pagination.Params{SortBy: "title", SortDirection: "desc"}, repository.BookSorting.Columns, pagination.Limits{})
	require.NoError(t, err)

	_, err = repo.GetAll(context.Background(), spec)
	requireKind(t, err, errs.KindInternal)

	var sqls []string
	for _, c := range db.calls {
		sqls = append(sqls, c.sql)
	}
	require.ElementsMatch(t, []string{
		"SELECT COUNT(id) FROM book",
		"SELECT id, title, author, created_at, updated_at FROM book ORDER BY title DESC, id DESC LIMIT $1 OFFSET $2",
	}, sqls)
}

func TestRepository_GetByIDStoreError(t *testing.T) {
	t.Parallel()
	repo := repository.NewRepository(&fakeDB{}, zap.NewNop())
	_, found, err := repo.GetByID(context.Background(), "id-1")
	require.False(t, found)
	requireKind(t, err, errs.KindInternal)
}
