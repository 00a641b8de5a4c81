package circulation

import (
	"time"

	"github.com/google/uuid"
)

const (
	BookLentEventType     = "BookLent"
	BookReturnedEventType = "BookReturned"
	VetoImposedEventType  = "VetoImposed"
	VetoLiftedEventType   = "VetoLifted"

	accountAggregateType = "account"
)

// DomainEvent is a fact produced by a decision and appended to the journal.
type DomainEvent interface {
	EventType() string
}

// BookLentEvent is published when a borrow succeeds.
type BookLentEvent struct {
	LoanID    uuid.UUID `json:"loan_id"`
	MemberID  string    `json:"member_id"`
	BookCode  string    `json:"book_code"`
	StartDate time.Time `json:"start_date"`
	DueDate   time.Time `json:"due_date"`
}

func (BookLentEvent) EventType() string { return BookLentEventType }

// BookReturnedEvent is published when a book is given back.
type BookReturnedEvent struct {
	LoanID     uuid.UUID `json:"loan_id"`
	MemberID   string    `json:"member_id"`
	BookCode   string    `json:"book_code"`
	ReturnDate time.Time `json:"return_date"`
	Late       bool      `json:"late"`
}

func (BookReturnedEvent) EventType() string { return BookReturnedEventType }

// VetoImposedEvent is published alongside a late return.
type VetoImposedEvent struct {
	MemberID string    `json:"member_id"`
	Until    time.Time `json:"until"`
}

func (VetoImposedEvent) EventType() string { return VetoImposedEventType }

// VetoLiftedEvent is published when an expired veto is cleared.
type VetoLiftedEvent struct {
	MemberID string    `json:"member_id"`
	On       time.Time `json:"on"`
}

func (VetoLiftedEvent) EventType() string { return VetoLiftedEventType }

// accountAggregateID derives a stable journal stream ID from a member ID.
func accountAggregateID(memberID string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("lendingdesk/account/"+memberID))
}
