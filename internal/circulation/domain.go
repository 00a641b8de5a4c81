// internal/circulation/domain.go
package circulation

import (
	"time"

	"github.com/google/uuid"

	"lendingdesk/internal/catalog"
)

const (
	// LoanPeriodDays is the number of days between the start and due date of a loan.
	LoanPeriodDays = 7
	// VetoPeriodDays is how long a late return suspends borrowing, counted from the return day.
	VetoPeriodDays = 3

	// DateLayout renders calendar days in messages.
	DateLayout = "2006-01-02"
)

// Day truncates t to its calendar date at midnight UTC. All circulation dates
// are compared at day granularity.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Loan is the single in-progress borrowing a member may hold.
type Loan struct {
	ID         uuid.UUID `json:"id"`
	BookCode   string    `json:"book_code"`
	BorrowerID string    `json:"borrower_id"`
	StartDate  time.Time `json:"start_date"`
	DueDate    time.Time `json:"due_date"`
}

// Account is a member's lending state. A member has an active loan iff
// ActiveLoan is set, and is vetoed iff VetoEndDate is set.
type Account struct {
	MemberID         string     `json:"member_id"`
	LoanHistoryCount int        `json:"loan_history_count"`
	ActiveLoan       *Loan      `json:"active_loan,omitempty"`
	VetoEndDate      *time.Time `json:"veto_end_date,omitempty"`
	// Version is the number of journaled events for this account.
	Version int `json:"version"`
}

func (a Account) HasActiveLoan() bool { return a.ActiveLoan != nil }

func (a Account) Vetoed() bool { return a.VetoEndDate != nil }

// clone returns a deep copy so decisions never alias the stored account.
func (a Account) clone() Account {
	out := a
	if a.ActiveLoan != nil {
		loan := *a.ActiveLoan
		out.ActiveLoan = &loan
	}
	if a.VetoEndDate != nil {
		until := *a.VetoEndDate
		out.VetoEndDate = &until
	}
	return out
}

// ReturnOutcome reports how a give-back was classified.
type ReturnOutcome struct {
	Loan       Loan       `json:"loan"`
	ReturnDate time.Time  `json:"return_date"`
	Late       bool       `json:"late"`
	VetoUntil  *time.Time `json:"veto_until,omitempty"`
}

func (o ReturnOutcome) OnTime() bool { return !o.Late }

// StatusSnapshot is the read-only view of a member's standing.
type StatusSnapshot struct {
	MemberID         string     `json:"member_id"`
	Vetoed           bool       `json:"vetoed"`
	VetoUntil        *time.Time `json:"veto_until,omitempty"`
	HasActiveLoan    bool       `json:"has_active_loan"`
	BookCode         string     `json:"book_code,omitempty"`
	BookTitle        string     `json:"book_title,omitempty"`
	DueDate          *time.Time `json:"due_date,omitempty"`
	LoanHistoryCount int        `json:"loan_history_count"`
}

const (
	StatusAvailable = "Available"
	StatusOnLoan    = "On loan"
)

// Holding is one inventory row: a catalog book plus its derived loan status.
type Holding struct {
	catalog.Book
	OnLoan          bool   `json:"on_loan"`
	Status          string `json:"status"`
	HeldByRequester bool   `json:"held_by_requester"`
}
