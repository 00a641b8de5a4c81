// internal/circulation/service.go
package circulation

import (
	"context"
	"time"

	"lendingdesk/internal/eventstore"
	"lendingdesk/internal/membership"
)

// Service defines the interface of the lending engine. Every date-sensitive
// operation takes the current day explicitly.
type Service interface {
	RefreshVetoStatus(ctx context.Context, memberID string, today time.Time) error
	Borrow(ctx context.Context, memberID, bookCode string, today time.Time) (*Loan, error)
	GiveBack(ctx context.Context, memberID string, today time.Time) (*ReturnOutcome, error)
	DescribeStatus(ctx context.Context, memberID string, today time.Time) (*StatusSnapshot, error)
	Inventory(ctx context.Context, requesterID string) ([]Holding, error)
	History(ctx context.Context, memberID string) ([]eventstore.Event, error)
}

// MemberDirectory resolves already-identified members.
type MemberDirectory interface {
	GetMember(ctx context.Context, identityNumber string) (*membership.Member, error)
}
