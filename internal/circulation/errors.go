package circulation

import (
	"errors"
	"fmt"
	"time"

	"lendingdesk/internal/catalog"
	"lendingdesk/internal/membership"
)

// Rule violations. They are expected outcomes of member requests and never
// change any state.
var (
	ErrVetoActive      = errors.New("member is vetoed")
	ErrAlreadyHasLoan  = errors.New("member already has a book on loan")
	ErrBookNotFound    = catalog.ErrBookNotFound
	ErrBookUnavailable = errors.New("book is already on loan")
	ErrNoActiveLoan    = errors.New("member has no book on loan")
)

var ErrMemberNotFound = membership.ErrMemberNotFound

// ErrLedgerCorrupted marks an account whose active loan points at a book the
// catalog does not know. It is a fault, not a member mistake.
var ErrLedgerCorrupted = errors.New("loan ledger references an unknown book")

var errUnknownAction = errors.New("unknown circulation action")

// VetoActiveError carries the last vetoed day. It matches ErrVetoActive.
type VetoActiveError struct {
	Until time.Time
}

func (e *VetoActiveError) Error() string {
	return fmt.Sprintf("%s until %s", ErrVetoActive.Error(), e.Until.Format(DateLayout))
}

func (e *VetoActiveError) Is(target error) bool {
	return target == ErrVetoActive
}

// IsRuleViolation reports whether err is one of the member-facing rule violations.
func IsRuleViolation(err error) bool {
	return errors.Is(err, ErrVetoActive) ||
		errors.Is(err, ErrAlreadyHasLoan) ||
		errors.Is(err, ErrBookNotFound) ||
		errors.Is(err, ErrBookUnavailable) ||
		errors.Is(err, ErrNoActiveLoan)
}
