// internal/clients/membership_client.go
package clients

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"lendingdesk/internal/circulation"
	"lendingdesk/internal/membership"
)

// MembershipClient resolves members through a remote desk. It satisfies
// circulation.MemberDirectory.
type MembershipClient struct {
	base
}

func NewMembershipClient(baseURL string, httpClient *http.Client) *MembershipClient {
	return &MembershipClient{base: newBase(baseURL, httpClient)}
}

func (c *MembershipClient) GetMember(ctx context.Context, identityNumber string) (*membership.Member, error) {
	var member membership.Member
	err := c.do(ctx, http.MethodGet, "/api/v1/members/"+url.PathEscape(identityNumber), nil, nil, &member)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", membership.ErrMemberNotFound, identityNumber)
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// FallbackDirectory answers from the desk's own members first and asks the
// remote desk only for identity numbers it does not know.
type FallbackDirectory struct {
	local  circulation.MemberDirectory
	remote circulation.MemberDirectory
}

func NewFallbackDirectory(local, remote circulation.MemberDirectory) *FallbackDirectory {
	return &FallbackDirectory{local: local, remote: remote}
}

func (d *FallbackDirectory) GetMember(ctx context.Context, identityNumber string) (*membership.Member, error) {
	member, err := d.local.GetMember(ctx, identityNumber)
	if err == nil || !errors.Is(err, membership.ErrMemberNotFound) {
		return member, err
	}
	return d.remote.GetMember(ctx, identityNumber)
}
