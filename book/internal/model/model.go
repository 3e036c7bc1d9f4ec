package model

import "time"

type Book struct {
	ID        string     `json:"id" db:"id"`
	Title     string     `json:"title" db:"title"`
	Author    string     `json:"author" db:"author"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at" db:"updated_at"`
}

// BookCreation is the client payload for both create and update.
type BookCreation struct {
	Title  string `json:"title" validate:"required,max=255"`
	Author string `json:"author" validate:"required,max=255"`
}

// ListBooks is one page of books; Total counts every stored book
// regardless of the page bounds.
type ListBooks struct {
	Data  []Book `json:"data"`
	Total int64  `json:"total"`
}
