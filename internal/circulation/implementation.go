// internal/circulation/implementation.go
package circulation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"lendingdesk/internal/catalog"
	"lendingdesk/internal/eventstore"
	"lendingdesk/internal/logger"
)

// service implements the Service interface. Account and book mutations are
// serialized per member and per book; locks are always taken member first.
type service struct {
	catalog catalog.Service
	members MemberDirectory
	journal eventstore.Journal
	logger  *zap.Logger
	tracer  trace.Tracer

	loansCounter       metric.Int64Counter
	lateReturnsCounter metric.Int64Counter

	locks *keyedMutex

	mu       sync.RWMutex
	accounts map[string]*Account
	// holders maps a book code to the member holding it. It is maintained
	// together with the accounts so availability is derived from loans only.
	holders map[string]string
}

// NewService creates a new lending engine. A nil journal keeps events in memory.
func NewService(cat catalog.Service, members MemberDirectory, journal eventstore.Journal, zl *zap.Logger) Service {
	if zl == nil {
		zl = zap.NewNop()
	}
	if journal == nil {
		journal = eventstore.NewMemoryStore()
	}

	meter := otel.Meter("lendingdesk/circulation")
	loans, err := meter.Int64Counter("circulation.loans",
		metric.WithDescription("Books lent to members"))
	if err != nil {
		loans = noop.Int64Counter{}
	}
	lateReturns, err := meter.Int64Counter("circulation.returns.late",
		metric.WithDescription("Books returned after their due date"))
	if err != nil {
		lateReturns = noop.Int64Counter{}
	}

	return &service{
		catalog:            cat,
		members:            members,
		journal:            journal,
		logger:             zl,
		tracer:             otel.Tracer("lendingdesk/circulation"),
		loansCounter:       loans,
		lateReturnsCounter: lateReturns,
		locks:              newKeyedMutex(),
		accounts:           make(map[string]*Account),
		holders:            make(map[string]string),
	}
}

// RefreshVetoStatus clears the member's veto if it ended before today.
func (s *service) RefreshVetoStatus(ctx context.Context, memberID string, today time.Time) error {
	ctx, span := s.startSpan(ctx, "circulation.refresh_veto", memberID)
	defer span.End()

	unlock := s.locks.Lock(memberKey(memberID))
	defer unlock()

	account, err := s.loadAccount(ctx, memberID)
	if err != nil {
		return s.fail(span, err)
	}

	decision := Decide(State{Account: account}, RefreshVeto{}, today)
	if err := s.commit(ctx, account, decision); err != nil {
		return s.fail(span, err)
	}
	if decision.Changed() {
		s.log(ctx).Info("veto lifted", zap.String("member_id", memberID))
	}
	return nil
}

// Borrow lends bookCode to the member for LoanPeriodDays days starting today.
func (s *service) Borrow(ctx context.Context, memberID, bookCode string, today time.Time) (*Loan, error) {
	ctx, span := s.startSpan(ctx, "circulation.borrow", memberID,
		attribute.String("book.code", bookCode))
	defer span.End()

	unlockMember := s.locks.Lock(memberKey(memberID))
	defer unlockMember()

	account, err := s.loadAccount(ctx, memberID)
	if err != nil {
		return nil, s.fail(span, err)
	}

	unlockBook := s.locks.Lock(bookKey(bookCode))
	defer unlockBook()

	book, err := s.lookupBook(ctx, bookCode)
	if err != nil {
		return nil, s.fail(span, err)
	}

	state := State{
		Account:    account,
		Book:       book,
		BookHolder: s.holderOf(bookCode),
	}
	decision := Decide(state, Borrow{BookCode: bookCode, LoanID: uuid.New()}, today)

	// A rejected borrow still keeps the effect of the implicit veto refresh.
	if err := s.commit(ctx, account, decision); err != nil {
		return nil, s.fail(span, err)
	}
	if decision.Err != nil {
		s.log(ctx).Info("borrow rejected",
			zap.String("member_id", memberID),
			zap.String("book_code", bookCode),
			zap.String("reason", decision.Err.Error()),
		)
		return nil, s.fail(span, decision.Err)
	}

	loan := decision.Loan
	s.loansCounter.Add(ctx, 1)
	span.SetAttributes(
		attribute.String("loan.id", loan.ID.String()),
		attribute.String("loan.due_date", loan.DueDate.Format(DateLayout)),
	)
	s.log(ctx).Info("book lent",
		zap.String("member_id", memberID),
		zap.String("book_code", bookCode),
		zap.String("loan_id", loan.ID.String()),
		zap.String("due_date", loan.DueDate.Format(DateLayout)),
	)
	return loan, nil
}

// GiveBack returns the member's active loan, imposing a veto when it is late.
func (s *service) GiveBack(ctx context.Context, memberID string, today time.Time) (*ReturnOutcome, error) {
	ctx, span := s.startSpan(ctx, "circulation.give_back", memberID)
	defer span.End()

	unlockMember := s.locks.Lock(memberKey(memberID))
	defer unlockMember()

	account, err := s.loadAccount(ctx, memberID)
	if err != nil {
		return nil, s.fail(span, err)
	}

	state := State{Account: account}
	if loan := account.ActiveLoan; loan != nil {
		span.SetAttributes(attribute.String("book.code", loan.BookCode))

		unlockBook := s.locks.Lock(bookKey(loan.BookCode))
		defer unlockBook()

		if state.Book, err = s.lookupBook(ctx, loan.BookCode); err != nil {
			return nil, s.fail(span, err)
		}
	}

	decision := Decide(state, GiveBack{}, today)
	if errors.Is(decision.Err, ErrLedgerCorrupted) {
		return nil, s.fault(ctx, span, memberID, account.ActiveLoan.BookCode)
	}
	if decision.Err != nil {
		return nil, s.fail(span, decision.Err)
	}
	if err := s.commit(ctx, account, decision); err != nil {
		return nil, s.fail(span, err)
	}

	outcome := decision.Return
	span.SetAttributes(attribute.Bool("return.late", outcome.Late))
	fields := []zap.Field{
		zap.String("member_id", memberID),
		zap.String("book_code", outcome.Loan.BookCode),
		zap.Bool("late", outcome.Late),
	}
	if outcome.Late {
		s.lateReturnsCounter.Add(ctx, 1)
		fields = append(fields, zap.String("veto_until", outcome.VetoUntil.Format(DateLayout)))
	}
	s.log(ctx).Info("book returned", fields...)
	return outcome, nil
}

// DescribeStatus refreshes the member's veto and reports their standing.
func (s *service) DescribeStatus(ctx context.Context, memberID string, today time.Time) (*StatusSnapshot, error) {
	ctx, span := s.startSpan(ctx, "circulation.describe_status", memberID)
	defer span.End()

	unlock := s.locks.Lock(memberKey(memberID))
	defer unlock()

	account, err := s.loadAccount(ctx, memberID)
	if err != nil {
		return nil, s.fail(span, err)
	}

	decision := Decide(State{Account: account}, RefreshVeto{}, today)
	if err := s.commit(ctx, account, decision); err != nil {
		return nil, s.fail(span, err)
	}
	current := decision.Account

	snapshot := &StatusSnapshot{
		MemberID:         memberID,
		Vetoed:           current.Vetoed(),
		HasActiveLoan:    current.HasActiveLoan(),
		LoanHistoryCount: current.LoanHistoryCount,
	}
	if current.VetoEndDate != nil {
		until := *current.VetoEndDate
		snapshot.VetoUntil = &until
	}
	if loan := current.ActiveLoan; loan != nil {
		book, err := s.lookupBook(ctx, loan.BookCode)
		if err != nil {
			return nil, s.fail(span, err)
		}
		if book == nil {
			return nil, s.fault(ctx, span, memberID, loan.BookCode)
		}
		due := loan.DueDate
		snapshot.BookCode = loan.BookCode
		snapshot.BookTitle = book.Title
		snapshot.DueDate = &due
	}
	return snapshot, nil
}

// Inventory lists the catalog with each book's loan status. requesterID may be
// empty; when set, the requester's own book is flagged.
func (s *service) Inventory(ctx context.Context, requesterID string) ([]Holding, error) {
	ctx, span := s.startSpan(ctx, "circulation.inventory", requesterID)
	defer span.End()

	books, err := s.catalog.ListAll(ctx)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("list catalog: %w", err))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	holdings := make([]Holding, 0, len(books))
	for _, book := range books {
		holder, onLoan := s.holders[book.Code]
		status := StatusAvailable
		if onLoan {
			status = StatusOnLoan
		}
		holdings = append(holdings, Holding{
			Book:            book,
			OnLoan:          onLoan,
			Status:          status,
			HeldByRequester: onLoan && requesterID != "" && holder == requesterID,
		})
	}
	return holdings, nil
}

// History returns the journaled events of the member's account, oldest first.
func (s *service) History(ctx context.Context, memberID string) ([]eventstore.Event, error) {
	ctx, span := s.startSpan(ctx, "circulation.history", memberID)
	defer span.End()

	if _, err := s.members.GetMember(ctx, memberID); err != nil {
		return nil, s.fail(span, err)
	}

	events, err := s.journal.LoadEvents(ctx, accountAggregateID(memberID), 1, 0)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("load history for member %s: %w", memberID, err))
	}
	if events == nil {
		events = []eventstore.Event{}
	}
	return events, nil
}

// loadAccount returns a copy of the member's account, opening it on first use.
// The caller must hold the member lock.
func (s *service) loadAccount(ctx context.Context, memberID string) (Account, error) {
	s.mu.RLock()
	account, ok := s.accounts[memberID]
	s.mu.RUnlock()
	if ok {
		return account.clone(), nil
	}

	if _, err := s.members.GetMember(ctx, memberID); err != nil {
		return Account{}, err
	}

	// The journal may outlive the process; continue its stream instead of
	// colliding with old versions.
	version, err := s.journal.GetCurrentVersion(ctx, accountAggregateID(memberID))
	if err != nil {
		return Account{}, fmt.Errorf("open account for member %s: %w", memberID, err)
	}

	opened := Account{MemberID: memberID, Version: version}
	s.mu.Lock()
	s.accounts[memberID] = &opened
	s.mu.Unlock()
	return opened.clone(), nil
}

// lookupBook resolves a code through the catalog, returning nil for unknown codes.
func (s *service) lookupBook(ctx context.Context, code string) (*catalog.Book, error) {
	book, err := s.catalog.FindByCode(ctx, code)
	if errors.Is(err, catalog.ErrBookNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find book %s: %w", code, err)
	}
	return book, nil
}

func (s *service) holderOf(code string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.holders[code]
}

// commit journals the decision's events and then swaps in the next account.
// Nothing is applied when the journal rejects the append.
func (s *service) commit(ctx context.Context, prev Account, decision Decision) error {
	if !decision.Changed() {
		return nil
	}

	events := make([]eventstore.Event, 0, len(decision.Events))
	for _, domainEvent := range decision.Events {
		event, err := eventstore.NewEvent(domainEvent.EventType(), domainEvent)
		if err != nil {
			return fmt.Errorf("encode %s event: %w", domainEvent.EventType(), err)
		}
		event.Metadata = map[string]string{"member_id": prev.MemberID}
		events = append(events, event)
	}

	if err := s.journal.AppendEvents(ctx, accountAggregateID(prev.MemberID), accountAggregateType, prev.Version, events); err != nil {
		return fmt.Errorf("journal %d events for member %s: %w", len(events), prev.MemberID, err)
	}

	next := decision.Account.clone()
	next.Version = prev.Version + len(events)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts[next.MemberID] = &next
	if prev.ActiveLoan != nil && (next.ActiveLoan == nil || next.ActiveLoan.BookCode != prev.ActiveLoan.BookCode) {
		delete(s.holders, prev.ActiveLoan.BookCode)
	}
	if next.ActiveLoan != nil {
		s.holders[next.ActiveLoan.BookCode] = next.MemberID
	}
	return nil
}

func (s *service) startSpan(ctx context.Context, name, memberID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("member.id", memberID))
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// fail annotates the span and passes err through. Rule violations are normal
// outcomes and do not mark the span as failed.
func (s *service) fail(span trace.Span, err error) error {
	if IsRuleViolation(err) || errors.Is(err, ErrMemberNotFound) {
		span.SetAttributes(attribute.String("rule.violation", err.Error()))
		return err
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// fault reports a corrupted ledger. DPanic panics in development builds.
func (s *service) fault(ctx context.Context, span trace.Span, memberID, bookCode string) error {
	err := fmt.Errorf("member %s holds %s: %w", memberID, bookCode, ErrLedgerCorrupted)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.log(ctx).DPanic("loan ledger corrupted",
		zap.String("member_id", memberID),
		zap.String("book_code", bookCode),
	)
	return err
}

func (s *service) log(ctx context.Context) *zap.Logger {
	return logger.WithRequestID(ctx, s.logger)
}

func memberKey(id string) string  { return "member:" + id }
func bookKey(code string) string { return "book:" + code }
