package repository

import (
	"context"
	"time"

	"github.com/Astemirdum/book-service/book/internal/model"
	"github.com/Astemirdum/book-service/pkg/errs"
	"github.com/Astemirdum/book-service/pkg/pagination"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Repository interface {
	Create(ctx context.Context, book model.Book) error
	GetAll(ctx context.Context, spec pagination.Spec) (model.ListBooks, error)
	GetByID(ctx context.Context, id string) (model.Book, bool, error)
	Update(ctx context.Context, id string, patch model.BookCreation) error
	Delete(ctx context.Context, id string) (int64, error)
}

// DB is the subset of *pgxpool.Pool the repository uses.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type repository struct {
	db  DB
	log *zap.Logger
	now func() time.Time
}

func NewRepository(db DB, log *zap.Logger) *repository {
	return &repository{
		db:  db,
		log: log.Named("repo"),
		now: Now,
	}
}

// Now is the store clock: UTC, truncated to the microsecond precision of
// timestamptz so values read back compare equal to values written.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

const bookTableName = `book`

var bookColumns = []string{"id", "title", "author", "created_at", "updated_at"}

// BookSorting is the allow-list of columns clients may sort books by.
var BookSorting = pagination.Sorting{
	Columns:    bookColumns,
	Default:    "created_at",
	Tiebreaker: "id",
}

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func (r *repository) Create(ctx context.Context, book model.Book) error {
	query, args, err := qb.Insert(bookTableName).
		Columns("id", "title", "author", "created_at").
		Values(book.ID, book.Title, book.Author, book.CreatedAt).
		ToSql()
	if err != nil {
		return errs.Internal("", errors.Wrap(err, "build insert book"))
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return errs.Database("insert book", err)
	}
	return nil
}

// GetAll runs the count and the page select as two independent round-trips.
// Under concurrent writes Total may not match Data exactly.
func (r *repository) GetAll(ctx context.Context, spec pagination.Spec) (model.ListBooks, error) {
	frag, err := pagination.Build(spec, BookSorting)
	if err != nil {
		return model.ListBooks{}, err
	}
	query, args, err := frag.Apply(qb.Select(bookColumns...).From(bookTableName)).ToSql()
	if err != nil {
		return model.ListBooks{}, errs.Internal("", errors.Wrap(err, "build select books"))
	}
	r.log.Debug("GetAll", zap.String("query", query), zap.Any("args", args))

	var (
		total int64
		books []model.Book
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = r.count(gCtx)
		return err
	})
	g.Go(func() error {
		rows, err := r.db.Query(gCtx, query, args...)
		if err != nil {
			return errs.Database("select books", err)
		}
		defer rows.Close()
		books, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Book])
		if err != nil {
			return errs.Database("collect books", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.ListBooks{}, err
	}
	if books == nil {
		books = []model.Book{}
	}
	return model.ListBooks{Data: books, Total: total}, nil
}

func (r *repository) count(ctx context.Context) (int64, error) {
	query, args, err := qb.Select("COUNT(id)").From(bookTableName).ToSql()
	if err != nil {
		return 0, errs.Internal("", errors.Wrap(err, "build count books"))
	}
	var n int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, errs.Database("count books", err)
	}
	return n, nil
}

// GetByID reports absence through the bool, not through an error.
func (r *repository) GetByID(ctx context.Context, id string) (model.Book, bool, error) {
	query, args, err := qb.Select(bookColumns...).
		From(bookTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return model.Book{}, false, errs.Internal("", errors.Wrap(err, "build select book"))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.Book{}, false, errs.Database("select book", err)
	}
	defer rows.Close()

	book, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Book])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Book{}, false, nil
		}
		return model.Book{}, false, errs.Database("collect book", err)
	}
	return book, true, nil
}

// Update does not check that the book exists; zero affected rows is not an error.
func (r *repository) Update(ctx context.Context, id string, patch model.BookCreation) error {
	query, args, err := qb.Update(bookTableName).
		Set("title", patch.Title).
		Set("author", patch.Author).
		Set("updated_at", r.now()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return errs.Internal("", errors.Wrap(err, "build update book"))
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return errs.Database("update book", err)
	}
	r.log.Debug("Update", zap.String("id", id), zap.Int64("rows", tag.RowsAffected()))
	return nil
}

func (r *repository) Delete(ctx context.Context, id string) (int64, error) {
	query, args, err := qb.Delete(bookTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return 0, errs.Internal("", errors.Wrap(err, "build delete book"))
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, errs.Database("delete book", err)
	}
	return tag.RowsAffected(), nil
}
