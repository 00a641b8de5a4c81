// internal/catalog/service.go
package catalog

import "context"

// Service defines the read-only interface of the catalog.
type Service interface {
	FindByCode(ctx context.Context, code string) (*Book, error)
	ListAll(ctx context.Context) ([]Book, error)
	Search(ctx context.Context, query string) ([]Book, error)
}
