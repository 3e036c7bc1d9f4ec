package handler

import (
	"fmt"
	"net/http"

	"github.com/Astemirdum/book-service/book/internal/model"
	"github.com/Astemirdum/book-service/pkg/errs"
	"github.com/Astemirdum/book-service/pkg/pagination"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const msgBookNotFound = "book could not be found"

// CreateBook godoc
// @Summary      Create a book
// @Tags         book
// @Accept       json
// @Produce      json
// @Param        book body model.BookCreation true "book"
// @Success      200 {object} model.Book
// @Failure      400 {object} errs.Body
// @Failure      422 {object} errs.Body
// @Failure      500 {object} errs.Body
// @Router       /api/v1/book [post]
func (h *Handler) CreateBook(c echo.Context) error {
	req, err := bindBook(c)
	if err != nil {
		return err
	}
	book, err := h.bookSvc.CreateBook(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, book)
}

// GetBooks godoc
// @Summary      List books
// @Tags         book
// @Produce      json
// @Param        p              query int    false "page, starting at 1"
// @Param        limit          query int    false "page size"
// @Param        sort_by        query string false "sort column" Enums(id, title, author, created_at, updated_at)
// @Param        sort_direction query string false "sort direction" Enums(asc, desc)
// @Success      200 {object} model.ListBooks
// @Failure      400 {object} errs.Body
// @Failure      500 {object} errs.Body
// @Router       /api/v1/book [get]
func (h *Handler) GetBooks(c echo.Context) error {
	params := pagination.ParamsFromQuery(c.QueryParams())
	books, err := h.bookSvc.ListBooks(c.Request().Context(), params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, books)
}

// GetBook godoc
// @Summary      Get a book
// @Tags         book
// @Produce      json
// @Param        id path string true "book id (uuid)"
// @Success      200 {object} model.Book
// @Failure      400 {object} errs.Body
// @Failure      404 {object} errs.Body
// @Failure      500 {object} errs.Body
// @Router       /api/v1/book/{id} [get]
func (h *Handler) GetBook(c echo.Context) error {
	id, err := bookID(c)
	if err != nil {
		return err
	}
	book, found, err := h.bookSvc.GetBook(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if !found {
		return errs.NotFound(msgBookNotFound)
	}
	return c.JSON(http.StatusOK, book)
}

// UpdateBook godoc
// @Summary      Replace title and author of a book
// @Tags         book
// @Accept       json
// @Produce      json
// @Param        id   path string            true "book id (uuid)"
// @Param        book body model.BookCreation true "book"
// @Success      200 {object} model.Book
// @Failure      400 {object} errs.Body
// @Failure      404 {object} errs.Body
// @Failure      422 {object} errs.Body
// @Failure      500 {object} errs.Body
// @Router       /api/v1/book/{id} [put]
func (h *Handler) UpdateBook(c echo.Context) error {
	id, err := bookID(c)
	if err != nil {
		return err
	}
	req, err := bindBook(c)
	if err != nil {
		return err
	}
	book, found, err := h.bookSvc.UpdateBook(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	if !found {
		return errs.NotFound(msgBookNotFound)
	}
	return c.JSON(http.StatusOK, book)
}

// DeleteBook godoc
// @Summary      Delete a book
// @Description  Anything other than exactly one deleted row is reported as 500.
// @Tags         book
// @Param        id path string true "book id (uuid)"
// @Success      204
// @Failure      400 {object} errs.Body
// @Failure      500 {object} errs.Body
// @Router       /api/v1/book/{id} [delete]
func (h *Handler) DeleteBook(c echo.Context) error {
	id, err := bookID(c)
	if err != nil {
		return err
	}
	n, err := h.bookSvc.DeleteBook(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if n != 1 {
		return errs.Internal("no book or book already deleted",
			errors.Errorf("delete book %s: %d rows affected", id, n))
	}
	return c.NoContent(http.StatusNoContent)
}

func bookID(c echo.Context) (string, error) {
	raw := c.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", errs.BadRequest(fmt.Sprintf("invalid book id %q: expected a UUID", raw))
	}
	return id.String(), nil
}

func bindBook(c echo.Context) (model.BookCreation, error) {
	var req model.BookCreation
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return model.BookCreation{}, err
	}
	if err := c.Validate(req); err != nil {
		return model.BookCreation{}, err
	}
	return req, nil
}
