// internal/catalog/domain.go
package catalog

import "errors"

var (
	ErrBookNotFound  = errors.New("book not found")
	ErrDuplicateCode = errors.New("duplicate book code")
	ErrEmptyQuery    = errors.New("missing search query")
)

// Book is one title on the shelf. Code is the immutable shelf identifier.
type Book struct {
	Code   string `json:"code"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

// SeedBooks returns the opening inventory of the desk in shelf order.
func SeedBooks() []Book {
	return []Book{
		{Code: "LIB001", Title: "Satanás", Author: "Mario Mendoza"},
		{Code: "LIB002", Title: "Cosas que piensas...", Author: "Amalia Andrade"},
		{Code: "LIB003", Title: "Los siete maridos de Evelyn Hugo", Author: "Taylor Jenkins Reid"},
		{Code: "LIB004", Title: "Blue sisters", Author: "Coco Mellors"},
		{Code: "LIB005", Title: "Cadáver exquisito", Author: "Agustina Bazterrica"},
		{Code: "LIB006", Title: "Lo que la nieve susurra...", Author: "María Martinez"},
		{Code: "LIB007", Title: "Lady masacre", Author: "Mario Mendoza"},
		{Code: "LIB008", Title: "Amarilla", Author: "R. F. Kuang"},
		{Code: "LIB009", Title: "La cúpula", Author: "Stephen King"},
		{Code: "LIB010", Title: "Relato de un asesino", Author: "Mario Mendoza"},
	}
}
