// internal/catalog/implementation.go
package catalog

import (
	"context"
	"fmt"
	"strings"
)

// service implements the Service interface over a fixed, in-memory shelf.
// The shelf never changes after construction, so reads need no locking.
type service struct {
	books  []Book
	byCode map[string]int
}

// NewService creates a catalog holding books in the given order.
func NewService(books ...Book) (Service, error) {
	s := &service{
		books:  make([]Book, 0, len(books)),
		byCode: make(map[string]int, len(books)),
	}
	for _, b := range books {
		if b.Code == "" {
			return nil, fmt.Errorf("book %q has no code", b.Title)
		}
		if _, exists := s.byCode[b.Code]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCode, b.Code)
		}
		s.byCode[b.Code] = len(s.books)
		s.books = append(s.books, b)
	}
	return s, nil
}

// FindByCode returns a copy of the book with the given code.
func (s *service) FindByCode(ctx context.Context, code string) (*Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	idx, ok := s.byCode[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBookNotFound, code)
	}
	book := s.books[idx]
	return &book, nil
}

// ListAll returns every book in shelf order.
func (s *service) ListAll(ctx context.Context) ([]Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Book, len(s.books))
	copy(out, s.books)
	return out, nil
}

// Search matches the query against titles and authors, ignoring case.
func (s *service) Search(ctx context.Context, query string) ([]Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, ErrEmptyQuery
	}

	var out []Book
	for _, b := range s.books {
		if strings.Contains(strings.ToLower(b.Title), query) ||
			strings.Contains(strings.ToLower(b.Author), query) {
			out = append(out, b)
		}
	}
	return out, nil
}
