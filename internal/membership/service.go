// internal/membership/service.go
package membership

import "context"

// Service defines the interface for the membership service.
type Service interface {
	Register(ctx context.Context, reg Registration) (*Member, error)
	Authenticate(ctx context.Context, username, password string) (*Member, error)
	GetMember(ctx context.Context, identityNumber string) (*Member, error)
}
