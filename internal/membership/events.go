package membership

import (
	"time"

	"github.com/google/uuid"
)

const (
	MemberRegisteredEventType = "MemberRegistered"

	memberAggregateType = "member"
)

// MemberRegisteredEvent opens a member's journal stream. Credentials stay out of it.
type MemberRegisteredEvent struct {
	IdentityNumber string    `json:"identity_number"`
	Username       string    `json:"username"`
	FullName       string    `json:"full_name"`
	Email          string    `json:"email"`
	RegisteredAt   time.Time `json:"registered_at"`
}

func memberAggregateID(identityNumber string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("lendingdesk/member/"+identityNumber))
}
