// internal/clients/desk_client.go
package clients

import (
	"context"
	"net/http"
	"net/url"

	"lendingdesk/internal/catalog"
	"lendingdesk/internal/circulation"
	"lendingdesk/internal/eventstore"
	"lendingdesk/internal/membership"
)

// DeskClient talks to the lending desk API on behalf of one member.
type DeskClient struct {
	base
	memberID string
}

func NewDeskClient(baseURL string, httpClient *http.Client) *DeskClient {
	return &DeskClient{base: newBase(baseURL, httpClient)}
}

// Register signs up a new member on the desk.
func (c *DeskClient) Register(ctx context.Context, reg membership.Registration) (*membership.Member, error) {
	var member membership.Member
	if err := c.do(ctx, http.MethodPost, "/api/v1/members", nil, reg, &member); err != nil {
		return nil, err
	}
	return &member, nil
}

// Login authenticates and remembers the member for later calls.
func (c *DeskClient) Login(ctx context.Context, username, password string) (*membership.Member, error) {
	req := struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{Username: username, Password: password}

	var member membership.Member
	if err := c.do(ctx, http.MethodPost, "/api/v1/login", nil, req, &member); err != nil {
		return nil, err
	}
	c.memberID = member.IdentityNumber
	return &member, nil
}

// MemberID is the identity number of the logged-in member, empty before Login.
func (c *DeskClient) MemberID() string { return c.memberID }

func (c *DeskClient) Books(ctx context.Context) ([]catalog.Book, error) {
	var books []catalog.Book
	if err := c.do(ctx, http.MethodGet, "/api/v1/books", nil, nil, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (c *DeskClient) Search(ctx context.Context, query string) ([]catalog.Book, error) {
	var books []catalog.Book
	path := "/api/v1/books/search?q=" + url.QueryEscape(query)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (c *DeskClient) Inventory(ctx context.Context) ([]circulation.Holding, error) {
	var holdings []circulation.Holding
	if err := c.do(ctx, http.MethodGet, "/api/v1/inventory", c.header(), nil, &holdings); err != nil {
		return nil, err
	}
	return holdings, nil
}

func (c *DeskClient) Borrow(ctx context.Context, bookCode string) (*circulation.Loan, error) {
	req := struct {
		BookCode string `json:"book_code"`
	}{BookCode: bookCode}

	var loan circulation.Loan
	if err := c.do(ctx, http.MethodPost, "/api/v1/loans", c.header(), req, &loan); err != nil {
		return nil, err
	}
	return &loan, nil
}

func (c *DeskClient) GiveBack(ctx context.Context) (*circulation.ReturnOutcome, error) {
	var outcome circulation.ReturnOutcome
	if err := c.do(ctx, http.MethodPost, "/api/v1/loans/return", c.header(), nil, &outcome); err != nil {
		return nil, err
	}
	return &outcome, nil
}

func (c *DeskClient) Status(ctx context.Context) (*circulation.StatusSnapshot, error) {
	var snapshot circulation.StatusSnapshot
	if err := c.do(ctx, http.MethodGet, "/api/v1/status", c.header(), nil, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (c *DeskClient) History(ctx context.Context) ([]eventstore.Event, error) {
	var events []eventstore.Event
	if err := c.do(ctx, http.MethodGet, "/api/v1/history", c.header(), nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *DeskClient) header() http.Header {
	h := http.Header{}
	if c.memberID != "" {
		h.Set(circulation.MemberIDHeader, c.memberID)
	}
	return h
}
