// internal/circulation/handler.go
package circulation

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"lendingdesk/internal/transport"
)

// MemberIDHeader carries the identity number returned by login.
const MemberIDHeader = "X-Member-ID"

type Handler struct {
	service Service
	now     func() time.Time
}

// NewHandler wires the lending endpoints. now defaults to time.Now.
func NewHandler(service Service, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{service: service, now: now}
}

func (h *Handler) HandleInventory(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.service.Inventory(r.Context(), memberID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	transport.WriteSuccess(w, http.StatusOK, holdings)
}

func (h *Handler) HandleBorrow(w http.ResponseWriter, r *http.Request) {
	member, ok := requireMember(w, r)
	if !ok {
		return
	}

	var req struct {
		BookCode string `json:"book_code"`
	}
	if err := transport.DecodeJSON(r, &req); err != nil || strings.TrimSpace(req.BookCode) == "" {
		transport.WriteError(w, http.StatusBadRequest, transport.CodeInvalid, "invalid payload")
		return
	}

	loan, err := h.service.Borrow(r.Context(), member, strings.TrimSpace(req.BookCode), h.now())
	if err != nil {
		writeError(w, err)
		return
	}
	transport.WriteSuccess(w, http.StatusCreated, loan)
}

func (h *Handler) HandleGiveBack(w http.ResponseWriter, r *http.Request) {
	member, ok := requireMember(w, r)
	if !ok {
		return
	}

	outcome, err := h.service.GiveBack(r.Context(), member, h.now())
	if err != nil {
		writeError(w, err)
		return
	}
	transport.WriteSuccess(w, http.StatusOK, outcome)
}

func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	member, ok := requireMember(w, r)
	if !ok {
		return
	}

	snapshot, err := h.service.DescribeStatus(r.Context(), member, h.now())
	if err != nil {
		writeError(w, err)
		return
	}
	transport.WriteSuccess(w, http.StatusOK, snapshot)
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	member, ok := requireMember(w, r)
	if !ok {
		return
	}

	events, err := h.service.History(r.Context(), member)
	if err != nil {
		writeError(w, err)
		return
	}
	transport.WriteSuccess(w, http.StatusOK, events)
}

func memberID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(MemberIDHeader))
}

func requireMember(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := memberID(r)
	if id == "" {
		transport.WriteError(w, http.StatusUnauthorized, transport.CodeUnauthorized, "missing "+MemberIDHeader+" header")
		return "", false
	}
	return id, true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrVetoActive):
		transport.WriteError(w, http.StatusForbidden, transport.CodeForbidden, err.Error())
	case errors.Is(err, ErrAlreadyHasLoan),
		errors.Is(err, ErrBookUnavailable),
		errors.Is(err, ErrNoActiveLoan):
		transport.WriteError(w, http.StatusConflict, transport.CodeConflict, err.Error())
	case errors.Is(err, ErrBookNotFound), errors.Is(err, ErrMemberNotFound):
		transport.WriteError(w, http.StatusNotFound, transport.CodeNotFound, err.Error())
	default:
		transport.WriteError(w, http.StatusInternalServerError, transport.CodeInternal, err.Error())
	}
}
