// Package testutil holds in-memory doubles for the book store.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Astemirdum/book-service/book/internal/model"
	"github.com/Astemirdum/book-service/book/internal/repository"
	"github.com/Astemirdum/book-service/pkg/errs"
	"github.com/Astemirdum/book-service/pkg/pagination"
	"github.com/pkg/errors"
)

var _ repository.Repository = (*MemoryRepository)(nil)

// MemoryRepository mirrors the Postgres repository's observable behavior,
// including ordering and best-effort totals, without a database.
type MemoryRepository struct {
	mu    sync.RWMutex
	books map[string]model.Book
	now   func() time.Time
	// Err, when set, is returned by every operation as a store failure.
	Err error
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		books: make(map[string]model.Book),
		now:   repository.Now,
	}
}

func (m *MemoryRepository) fail(op string) error {
	if m.Err == nil {
		return nil
	}
	return errs.Database(op, m.Err)
}

func (m *MemoryRepository) Create(_ context.Context, book model.Book) error {
	if err := m.fail("insert book"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[book.ID]; ok {
		return errs.Database("insert book", errors.New("duplicate key value violates unique constraint"))
	}
	m.books[book.ID] = book
	return nil
}

func (m *MemoryRepository) GetAll(_ context.Context, spec pagination.Spec) (model.ListBooks, error) {
	if err := m.fail("select books"); err != nil {
		return model.ListBooks{}, err
	}
	frag, err := pagination.Build(spec, repository.BookSorting)
	if err != nil {
		return model.ListBooks{}, err
	}

	m.mu.RLock()
	books := make([]model.Book, 0, len(m.books))
	for _, b := range m.books {
		books = append(books, b)
	}
	m.mu.RUnlock()

	sort.SliceStable(books, func(i, j int) bool {
		for _, clause := range frag.OrderBy {
			fields := strings.Fields(clause)
			c := compare(books[i], books[j], fields[0])
			if c == 0 {
				continue
			}
			if fields[1] == string(pagination.Desc) {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	total := int64(len(books))
	start := min(spec.Offset(), total)
	end := min(start+spec.Limit(), total)
	return model.ListBooks{Data: books[start:end], Total: total}, nil
}

func (m *MemoryRepository) GetByID(_ context.Context, id string) (model.Book, bool, error) {
	if err := m.fail("select book"); err != nil {
		return model.Book{}, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.books[id]
	return b, ok, nil
}

func (m *MemoryRepository) Update(_ context.Context, id string, patch model.BookCreation) error {
	if err := m.fail("update book"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return nil
	}
	now := m.now()
	b.Title, b.Author, b.UpdatedAt = patch.Title, patch.Author, &now
	m.books[id] = b
	return nil
}

func (m *MemoryRepository) Delete(_ context.Context, id string) (int64, error) {
	if err := m.fail("delete book"); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[id]; !ok {
		return 0, nil
	}
	delete(m.books, id)
	return 1, nil
}

func compare(a, b model.Book, column string) int {
	switch column {
	case "id":
		return strings.Compare(a.ID, b.ID)
	case "title":
		return strings.Compare(a.Title, b.Title)
	case "author":
		return strings.Compare(a.Author, b.Author)
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "updated_at":
		return compareNullable(a.UpdatedAt, b.UpdatedAt)
	}
	return 0
}

// compareNullable orders NULL last, as Postgres does for ascending sorts.
func compareNullable(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Compare(*b)
}
