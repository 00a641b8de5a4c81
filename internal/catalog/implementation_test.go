package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeeded(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(SeedBooks()...)
	require.NoError(t, err)
	return svc
}

func TestFindByCode(t *testing.T) {
	svc := newSeeded(t)

	book, err := svc.FindByCode(context.Background(), "LIB001")
	require.NoError(t, err)
	assert.Equal(t, "Satanás", book.Title)
	assert.Equal(t, "Mario Mendoza", book.Author)

	_, err = svc.FindByCode(context.Background(), "LIB999")
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestFindByCodeReturnsCopy(t *testing.T) {
	svc := newSeeded(t)

	book, err := svc.FindByCode(context.Background(), "LIB002")
	require.NoError(t, err)
	book.Title = "changed"

	again, err := svc.FindByCode(context.Background(), "LIB002")
	require.NoError(t, err)
	assert.Equal(t, "Cosas que piensas...", again.Title)
}

func TestListAllKeepsShelfOrder(t *testing.T) {
	svc := newSeeded(t)

	books, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 10)
	assert.Equal(t, "LIB001", books[0].Code)
	assert.Equal(t, "LIB010", books[9].Code)

	books[0].Code = "mutated"
	fresh, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "LIB001", fresh[0].Code)
}

func TestSearch(t *testing.T) {
	svc := newSeeded(t)

	books, err := svc.Search(context.Background(), "  mendoza ")
	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.Equal(t, []string{"LIB001", "LIB007", "LIB010"}, []string{books[0].Code, books[1].Code, books[2].Code})

	books, err = svc.Search(context.Background(), "CÚPULA")
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "LIB009", books[0].Code)

	_, err = svc.Search(context.Background(), " ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestNewServiceRejectsDuplicates(t *testing.T) {
	_, err := NewService(Book{Code: "A"}, Book{Code: "A"})
	assert.ErrorIs(t, err, ErrDuplicateCode)

	_, err = NewService(Book{Title: "nameless"})
	assert.Error(t, err)
}
