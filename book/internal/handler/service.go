package handler

import (
	"context"

	"github.com/Astemirdum/book-service/book/internal/model"
	"github.com/Astemirdum/book-service/book/internal/service"
	"github.com/Astemirdum/book-service/pkg/pagination"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type BookService interface {
	CreateBook(ctx context.Context, req model.BookCreation) (model.Book, error)
	ListBooks(ctx context.Context, params pagination.Params) (model.ListBooks, error)
	GetBook(ctx context.Context, id string) (model.Book, bool, error)
	UpdateBook(ctx context.Context, id string, req model.BookCreation) (model.Book, bool, error)
	DeleteBook(ctx context.Context, id string) (int64, error)
}

var _ BookService = (*service.Service)(nil)
