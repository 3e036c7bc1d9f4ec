package service

import (
	"context"
	"time"

	"github.com/Astemirdum/book-service/book/internal/model"
	bookRepo "github.com/Astemirdum/book-service/book/internal/repository"
	"github.com/Astemirdum/book-service/pkg/kafka"
	md "github.com/Astemirdum/book-service/pkg/middleware"
	"github.com/Astemirdum/book-service/pkg/pagination"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EventPublisher interface {
	Publish(ctx context.Context, event kafka.BookEvent) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, kafka.BookEvent) error { return nil }

type Service struct {
	log    *zap.Logger
	repo   bookRepo.Repository
	events EventPublisher
	limits pagination.Limits
	now    func() time.Time
	newID  func() string
}

type Option func(*Service)

func WithEventPublisher(p EventPublisher) Option {
	return func(s *Service) {
		if p != nil {
			s.events = p
		}
	}
}

func WithPaginationLimits(l pagination.Limits) Option {
	return func(s *Service) { s.limits = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func NewService(repo bookRepo.Repository, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		log:    log.Named("service"),
		repo:   repo,
		events: noopPublisher{},
		now:    bookRepo.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateBook assigns the id and creation time before the store write, so
// the returned book is exactly what was persisted.
func (s *Service) CreateBook(ctx context.Context, req model.BookCreation) (model.Book, error) {
	ctx = storeContext(ctx)
	book := model.Book{
		ID:        s.newID(),
		Title:     req.Title,
		Author:    req.Author,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, book); err != nil {
		return model.Book{}, err
	}
	s.publish(ctx, kafka.BookCreated, book.ID)
	return book, nil
}

func (s *Service) ListBooks(ctx context.Context, params pagination.Params) (model.ListBooks, error) {
	spec, err := pagination.Parse(params, bookRepo.BookSorting.Columns, s.limits)
	if err != nil {
		return model.ListBooks{}, err
	}
	return s.repo.GetAll(storeContext(ctx), spec)
}

func (s *Service) GetBook(ctx context.Context, id string) (model.Book, bool, error) {
	return s.repo.GetByID(storeContext(ctx), id)
}

// UpdateBook overwrites title and author and reads the book back. found is
// false when no book has the id; the update itself is then a no-op.
func (s *Service) UpdateBook(ctx context.Context, id string, req model.BookCreation) (model.Book, bool, error) {
	ctx = storeContext(ctx)
	if err := s.repo.Update(ctx, id, req); err != nil {
		return model.Book{}, false, err
	}
	book, found, err := s.repo.GetByID(ctx, id)
	if err != nil || !found {
		return model.Book{}, found, err
	}
	s.publish(ctx, kafka.BookUpdated, id)
	return book, true, nil
}

// DeleteBook returns the number of deleted rows.
func (s *Service) DeleteBook(ctx context.Context, id string) (int64, error) {
	ctx = storeContext(ctx)
	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.publish(ctx, kafka.BookDeleted, id)
	}
	return n, nil
}

// storeContext keeps the request values (request id) but not the
// cancellation: a store call that has started runs to completion even if
// the client goes away, and its result is discarded by the caller.
func storeContext(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

// publish is best-effort: the store write already happened, so a failed
// event never changes the caller's outcome.
func (s *Service) publish(ctx context.Context, typ kafka.EventType, id string) {
	event := kafka.BookEvent{
		Type:      typ,
		BookID:    id,
		RequestID: md.RequestIDFromContext(ctx),
		Timestamp: s.now(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn("publish book event",
			zap.String("type", string(typ)),
			zap.String("book_id", id),
			zap.Error(err))
	}
}
