package circulation

import (
	"time"

	"github.com/google/uuid"

	"lendingdesk/internal/catalog"
)

// Action is a request made against one member's account.
type Action interface {
	actionName() string
}

// RefreshVeto clears the member's veto once its end date has passed.
type RefreshVeto struct{}

// Borrow lends BookCode to the member. LoanID names the loan if one is created.
type Borrow struct {
	BookCode string
	LoanID   uuid.UUID
}

// GiveBack returns the member's active loan.
type GiveBack struct{}

func (RefreshVeto) actionName() string { return "refresh_veto" }
func (Borrow) actionName() string      { return "borrow" }
func (GiveBack) actionName() string    { return "give_back" }

// State is everything a decision needs to know, resolved beforehand by the caller.
type State struct {
	Account Account
	// Book is the book the action concerns: the requested book for Borrow, the
	// loaned book for GiveBack. Nil when the code does not resolve.
	Book *catalog.Book
	// BookHolder is the member currently holding Book, empty when it is on the shelf.
	BookHolder string
}

// Decision is the outcome of applying an action to a state.
type Decision struct {
	// Account is the next account state. On a rule violation it still carries
	// the effect of the implicit veto refresh, and nothing else.
	Account Account
	Loan    *Loan
	Return  *ReturnOutcome
	Events  []DomainEvent
	Err     error
}

// Changed reports whether the decision produced anything to persist.
func (d Decision) Changed() bool { return len(d.Events) > 0 }

// Decide applies action to state on the calendar day of today. It is pure: the
// input state is never modified and no clock or storage is consulted.
//
// Borrow checks, in order: veto refresh, active veto, existing loan, unknown
// book, book already lent. GiveBack fails without an active loan, reports a
// ledger fault when the loaned book is unknown, and otherwise clears the loan,
// imposing a veto when today is strictly after the due date.
func Decide(state State, action Action, today time.Time) Decision {
	today = Day(today)
	account := state.Account.clone()

	switch a := action.(type) {
	case RefreshVeto:
		next, events := refreshVeto(account, today)
		return Decision{Account: next, Events: events}

	case Borrow:
		return decideBorrow(account, state, a, today)

	case GiveBack:
		return decideGiveBack(account, state, today)

	default:
		return Decision{Account: account, Err: errUnknownAction}
	}
}

func refreshVeto(account Account, today time.Time) (Account, []DomainEvent) {
	if account.VetoEndDate == nil || !today.After(*account.VetoEndDate) {
		return account, nil
	}
	account.VetoEndDate = nil
	return account, []DomainEvent{VetoLiftedEvent{MemberID: account.MemberID, On: today}}
}

func decideBorrow(account Account, state State, cmd Borrow, today time.Time) Decision {
	account, events := refreshVeto(account, today)
	rejected := func(err error) Decision {
		return Decision{Account: account, Events: events, Err: err}
	}

	if account.VetoEndDate != nil {
		return rejected(&VetoActiveError{Until: *account.VetoEndDate})
	}
	if account.ActiveLoan != nil {
		return rejected(ErrAlreadyHasLoan)
	}
	if state.Book == nil || state.Book.Code != cmd.BookCode {
		return rejected(ErrBookNotFound)
	}
	if state.BookHolder != "" {
		return rejected(ErrBookUnavailable)
	}

	loan := Loan{
		ID:         cmd.LoanID,
		BookCode:   cmd.BookCode,
		BorrowerID: account.MemberID,
		StartDate:  today,
		DueDate:    today.AddDate(0, 0, LoanPeriodDays),
	}
	account.ActiveLoan = &loan
	account.LoanHistoryCount++

	events = append(events, BookLentEvent{
		LoanID:    loan.ID,
		MemberID:  account.MemberID,
		BookCode:  loan.BookCode,
		StartDate: loan.StartDate,
		DueDate:   loan.DueDate,
	})

	out := loan
	return Decision{Account: account, Loan: &out, Events: events}
}

func decideGiveBack(account Account, state State, today time.Time) Decision {
	if account.ActiveLoan == nil {
		return Decision{Account: account, Err: ErrNoActiveLoan}
	}
	loan := *account.ActiveLoan
	if state.Book == nil || state.Book.Code != loan.BookCode {
		return Decision{Account: account, Err: ErrLedgerCorrupted}
	}

	outcome := ReturnOutcome{
		Loan:       loan,
		ReturnDate: today,
		Late:       today.After(loan.DueDate),
	}
	events := []DomainEvent{BookReturnedEvent{
		LoanID:     loan.ID,
		MemberID:   account.MemberID,
		BookCode:   loan.BookCode,
		ReturnDate: today,
		Late:       outcome.Late,
	}}

	if outcome.Late {
		until := today.AddDate(0, 0, VetoPeriodDays)
		vetoUntil := until
		account.VetoEndDate = &until
		outcome.VetoUntil = &vetoUntil
		events = append(events, VetoImposedEvent{MemberID: account.MemberID, Until: until})
	}
	account.ActiveLoan = nil

	return Decision{Account: account, Return: &outcome, Events: events}
}
