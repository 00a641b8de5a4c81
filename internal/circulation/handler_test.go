package circulation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTestRouter(t *testing.T, c *clock) http.Handler {
	t.Helper()
	h := NewHandler(newTestService(t, nil), c.Now)
	r := chi.NewRouter()
	r.Get("/inventory", h.HandleInventory)
	r.Post("/loans", h.HandleBorrow)
	r.Post("/loans/return", h.HandleGiveBack)
	r.Get("/status", h.HandleStatus)
	r.Get("/history", h.HandleHistory)
	return r
}

func send(h http.Handler, method, target, member, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if member != "" {
		req.Header.Set(MemberIDHeader, member)
	}
	h.ServeHTTP(rec, req)
	return rec
}

func TestLendingHandlers(t *testing.T) {
	c := &clock{now: time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)}
	h := newTestRouter(t, c)

	rec := send(h, http.MethodPost, "/loans", "", `{"book_code":"LIB001"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = send(h, http.MethodPost, "/loans", "42", `{"book":"LIB001"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = send(h, http.MethodPost, "/loans", "42", `{"book_code":"LIB999"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = send(h, http.MethodPost, "/loans", "nobody", `{"book_code":"LIB001"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = send(h, http.MethodPost, "/loans", "42", `{"book_code":"LIB001"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"due_date":"2024-01-08T00:00:00Z"`)

	rec = send(h, http.MethodPost, "/loans", "7", `{"book_code":"LIB001"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = send(h, http.MethodPost, "/loans", "42", `{"book_code":"LIB002"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = send(h, http.MethodGet, "/inventory", "42", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"LIB001","title":"Satanás","author":"Mario Mendoza","on_loan":true,"status":"On loan","held_by_requester":true`)

	rec = send(h, http.MethodGet, "/inventory", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"held_by_requester":true`)

	c.now = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	rec = send(h, http.MethodPost, "/loans/return", "42", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"late":true`)
	assert.Contains(t, rec.Body.String(), `"veto_until":"2024-01-13T00:00:00Z"`)

	rec = send(h, http.MethodPost, "/loans/return", "42", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = send(h, http.MethodPost, "/loans", "42", `{"book_code":"LIB002"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "member is vetoed until 2024-01-13")

	rec = send(h, http.MethodGet, "/status", "42", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"vetoed":true`)
	assert.Contains(t, rec.Body.String(), `"loan_history_count":1`)

	rec = send(h, http.MethodGet, "/status", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = send(h, http.MethodGet, "/history", "42", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"event_type":"BookLent"`)
	assert.Contains(t, rec.Body.String(), `"event_type":"VetoImposed"`)
}

func TestLedgerFaultIsInternalError(t *testing.T) {
	books := newLosingCatalog(t)
	c := &clock{now: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}
	h := NewHandler(NewService(books, directory{"42": true}, nil, nil), c.Now)
	r := chi.NewRouter()
	r.Post("/loans", h.HandleBorrow)
	r.Post("/loans/return", h.HandleGiveBack)
	r.Get("/status", h.HandleStatus)

	rec := send(r, http.MethodPost, "/loans", "42", `{"book_code":"LIB001"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	books.setLost("LIB001", true)

	rec = send(r, http.MethodPost, "/loans/return", "42", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"INTERNAL"`)
	assert.Contains(t, rec.Body.String(), "loan ledger references an unknown book")

	rec = send(r, http.MethodGet, "/status", "42", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"INTERNAL"`)
}
