// internal/membership/implementation.go
package membership

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"lendingdesk/internal/eventstore"
)

// Options tune the membership service.
type Options struct {
	// RatePerMinute and Burst bound Register and Authenticate calls.
	RatePerMinute int
	Burst         int
	Now           func() time.Time

	// Journal receives a MemberRegistered event per new member. Nil keeps
	// the events in memory.
	Journal eventstore.Journal
}

// service implements the Service interface with an in-process registry.
type service struct {
	mu          sync.RWMutex
	members     map[string]*Member
	usernames   map[string]string
	credentials map[string]*Credential

	journal     eventstore.Journal
	rateLimiter *rate.Limiter
	now         func() time.Time
	logger      *zap.Logger
}

// NewService creates a new membership service instance.
func NewService(opts Options, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.RatePerMinute <= 0 {
		opts.RatePerMinute = 5
	}
	if opts.Burst <= 0 {
		opts.Burst = opts.RatePerMinute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Journal == nil {
		opts.Journal = eventstore.NewMemoryStore()
	}
	return &service{
		members:     make(map[string]*Member),
		usernames:   make(map[string]string),
		credentials: make(map[string]*Credential),
		journal:     opts.Journal,
		rateLimiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RatePerMinute)), opts.Burst),
		now:         opts.Now,
		logger:      logger,
	}
}

// Seed registers members without consuming the rate limit. A member already
// journaled by an earlier run is loaded without a second event.
func Seed(ctx context.Context, svc Service, regs ...Registration) error {
	s, ok := svc.(*service)
	if !ok {
		for _, reg := range regs {
			if _, err := svc.Register(ctx, reg); err != nil {
				return err
			}
		}
		return nil
	}
	for _, reg := range regs {
		if _, err := s.register(ctx, reg, true); err != nil {
			return fmt.Errorf("seed member %s: %w", reg.IdentityNumber, err)
		}
	}
	return nil
}

// Register creates a new member.
func (s *service) Register(ctx context.Context, reg Registration) (*Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.rateLimiter.Allow() {
		return nil, ErrRateLimited
	}
	member, err := s.register(ctx, reg, false)
	if err != nil {
		return nil, err
	}
	s.logger.Info("member registered",
		zap.String("member_id", member.IdentityNumber),
		zap.String("username", member.Username),
	)
	return member, nil
}

func (s *service) register(ctx context.Context, reg Registration, seeding bool) (*Member, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.IdentityNumber = strings.TrimSpace(reg.IdentityNumber)
	if reg.Username == "" || reg.IdentityNumber == "" {
		return nil, fmt.Errorf("%w: username and identity number are required", ErrInvalidMember)
	}
	if reg.Age < 0 {
		return nil, fmt.Errorf("%w: age must not be negative", ErrInvalidMember)
	}

	passwordHash, salt, err := hashPassword(reg.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	member := &Member{
		IdentityNumber: reg.IdentityNumber,
		FullName:       reg.FullName,
		BirthDate:      reg.BirthDate,
		Age:            reg.Age,
		Gender:         reg.Gender,
		Email:          reg.Email,
		Username:       reg.Username,
		CreatedAt:      s.now().UTC(),
	}
	key := strings.ToLower(reg.Username)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.members[member.IdentityNumber]; exists {
		return nil, fmt.Errorf("%w: identity number %s", ErrMemberExists, member.IdentityNumber)
	}
	if _, exists := s.usernames[key]; exists {
		return nil, fmt.Errorf("%w: username %s", ErrMemberExists, member.Username)
	}

	if err := s.journalRegistration(ctx, member); err != nil {
		if !seeding || !errors.Is(err, eventstore.ErrConcurrencyConflict) {
			return nil, err
		}
	}

	s.members[member.IdentityNumber] = member
	s.usernames[key] = member.IdentityNumber
	s.credentials[member.IdentityNumber] = &Credential{
		IdentityNumber: member.IdentityNumber,
		PasswordHash:   passwordHash,
		Salt:           salt,
	}

	out := *member
	return &out, nil
}

func (s *service) journalRegistration(ctx context.Context, member *Member) error {
	event, err := eventstore.NewEvent(MemberRegisteredEventType, MemberRegisteredEvent{
		IdentityNumber: member.IdentityNumber,
		Username:       member.Username,
		FullName:       member.FullName,
		Email:          member.Email,
		RegisteredAt:   member.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	err = s.journal.AppendEvents(ctx, memberAggregateID(member.IdentityNumber), memberAggregateType, 0, []eventstore.Event{event})
	if errors.Is(err, eventstore.ErrConcurrencyConflict) {
		return fmt.Errorf("%w: identity number %s: %w", ErrMemberExists, member.IdentityNumber, err)
	}
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// Authenticate verifies a member's credentials and returns the member if successful.
// Usernames match case-insensitively; passwords must match exactly.
func (s *service) Authenticate(ctx context.Context, username, password string) (*Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.rateLimiter.Allow() {
		return nil, ErrRateLimited
	}

	s.mu.RLock()
	id, ok := s.usernames[strings.ToLower(strings.TrimSpace(username))]
	var (
		member     Member
		credential Credential
	)
	if ok {
		member = *s.members[id]
		credential = *s.credentials[id]
	}
	s.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidCredentials
	}

	valid, err := verifyPassword(password, credential.Salt, credential.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	if !valid {
		s.logger.Info("login rejected", zap.String("member_id", id))
		return nil, ErrInvalidCredentials
	}

	return &member, nil
}

// GetMember retrieves a member by identity number.
func (s *service) GetMember(ctx context.Context, identityNumber string) (*Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	member, ok := s.members[identityNumber]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMemberNotFound, identityNumber)
	}
	out := *member
	return &out, nil
}
