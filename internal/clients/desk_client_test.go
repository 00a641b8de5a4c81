package clients

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lendingdesk/internal/catalog"
	"lendingdesk/internal/circulation"
	"lendingdesk/internal/membership"
	"lendingdesk/internal/router"
)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func newTestDesk(t *testing.T, clock *testClock) *httptest.Server {
	t.Helper()
	return startDesk(t, clock, nil)
}

// startDesk runs a desk behind an httptest server. When directory is set, the
// lending engine resolves members through it instead of the desk's own registry.
func startDesk(t *testing.T, clock *testClock, directory func(local membership.Service) circulation.MemberDirectory, regs ...membership.Registration) *httptest.Server {
	t.Helper()
	ctx := context.Background()

	books, err := catalog.NewService(catalog.SeedBooks()...)
	require.NoError(t, err)
	members := membership.NewService(membership.Options{RatePerMinute: 600, Burst: 100}, nil)
	require.NoError(t, membership.Seed(ctx, members, append([]membership.Registration{membership.DemoRegistration()}, regs...)...))

	var lookup circulation.MemberDirectory = members
	if directory != nil {
		lookup = directory(members)
	}
	lending := circulation.NewService(books, lookup, nil, nil)

	srv := httptest.NewServer(router.New(router.Handlers{
		Catalog:     catalog.NewHandler(books),
		Circulation: circulation.NewHandler(lending, clock.Now),
		Membership:  membership.NewHandler(members),
	}, router.Options{}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDeskRoundTrip(t *testing.T) {
	clock := &testClock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	srv := newTestDesk(t, clock)
	ctx := context.Background()

	client := NewDeskClient(srv.URL, srv.Client())

	_, err := client.Login(ctx, "admin", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	member, err := client.Login(ctx, "admin", "admin")
	require.NoError(t, err)
	assert.Equal(t, "0000", member.IdentityNumber)
	assert.Equal(t, "0000", client.MemberID())

	books, err := client.Books(ctx)
	require.NoError(t, err)
	assert.Len(t, books, 10)

	found, err := client.Search(ctx, "mario mendoza")
	require.NoError(t, err)
	assert.Len(t, found, 3)

	loan, err := client.Borrow(ctx, "LIB001")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), loan.DueDate.UTC())

	holdings, err := client.Inventory(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, holdings)
	assert.Equal(t, "LIB001", holdings[0].Code)
	assert.True(t, holdings[0].HeldByRequester)
	assert.Equal(t, circulation.StatusOnLoan, holdings[0].Status)

	clock.now = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	outcome, err := client.GiveBack(ctx)
	require.NoError(t, err)
	assert.True(t, outcome.Late)
	require.NotNil(t, outcome.VetoUntil)
	assert.Equal(t, time.Date(2024, 1, 13, 0, 0, 0, 0, time.UTC), outcome.VetoUntil.UTC())

	_, err = client.Borrow(ctx, "LIB002")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "member is vetoed until 2024-01-13", apiErr.Message)

	clock.now = time.Date(2024, 1, 14, 9, 0, 0, 0, time.UTC)
	status, err := client.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.Vetoed)
	assert.Equal(t, 1, status.LoanHistoryCount)

	history, err := client.History(ctx)
	require.NoError(t, err)
	var types []string
	for _, e := range history {
		types = append(types, e.EventType)
	}
	assert.Equal(t, []string{
		circulation.BookLentEventType,
		circulation.BookReturnedEventType,
		circulation.VetoImposedEventType,
		circulation.VetoLiftedEventType,
	}, types)
}

func TestAnonymousClientNeedsLogin(t *testing.T) {
	srv := newTestDesk(t, &testClock{now: time.Now()})
	client := NewDeskClient(srv.URL, srv.Client())

	_, err := client.Status(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestMembershipClientAsDirectory(t *testing.T) {
	srv := newTestDesk(t, &testClock{now: time.Now()})
	ctx := context.Background()

	var directory circulation.MemberDirectory = NewMembershipClient(srv.URL, srv.Client())

	member, err := directory.GetMember(ctx, "0000")
	require.NoError(t, err)
	assert.Equal(t, "admin", member.Username)

	_, err = directory.GetMember(ctx, "missing")
	assert.True(t, errors.Is(err, membership.ErrMemberNotFound))
}

func TestRemoteDirectoryKeepsLocalMembers(t *testing.T) {
	clock := &testClock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	ctx := context.Background()

	remote := startDesk(t, clock, nil, membership.Registration{IdentityNumber: "77", Username: "remota", Password: "pw"})
	desk := startDesk(t, clock, func(local membership.Service) circulation.MemberDirectory {
		return NewFallbackDirectory(local, NewMembershipClient(remote.URL, remote.Client()))
	})

	client := NewDeskClient(desk.URL, desk.Client())
	_, err := client.Register(ctx, membership.Registration{IdentityNumber: "55", Username: "ana", Password: "pw"})
	require.NoError(t, err)

	member, err := client.Login(ctx, "ana", "pw")
	require.NoError(t, err)
	assert.Equal(t, "55", member.IdentityNumber)

	loan, err := client.Borrow(ctx, "LIB001")
	require.NoError(t, err)
	assert.Equal(t, "55", loan.BorrowerID)

	status, err := client.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.HasActiveLoan)

	// Known only to the remote desk.
	visitor := NewDeskClient(desk.URL, desk.Client())
	visitor.memberID = "77"
	loan, err = visitor.Borrow(ctx, "LIB002")
	require.NoError(t, err)
	assert.Equal(t, "77", loan.BorrowerID)

	stranger := NewDeskClient(desk.URL, desk.Client())
	stranger.memberID = "404"
	_, err = stranger.Borrow(ctx, "LIB003")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}
