package membership

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	h := NewHandler(newTestService(t))
	r := chi.NewRouter()
	r.Post("/members", h.HandleRegister)
	r.Get("/members/{id}", h.HandleGet)
	r.Post("/login", h.HandleLogin)
	return r
}

func send(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlers(t *testing.T) {
	h := newTestRouter(t)

	rec := send(h, http.MethodPost, "/login", `{"username":"admin","password":"admin"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"identity_number":"0000"`)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = send(h, http.MethodPost, "/login", `{"username":"admin","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = send(h, http.MethodPost, "/members", `{"identity_number":"7","username":"luz","password":"p","age":30}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = send(h, http.MethodPost, "/members", `{"identity_number":"7","username":"luz2","password":"p"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = send(h, http.MethodPost, "/members", `{"identity_number":"8","username":"x","age":"thirty"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = send(h, http.MethodGet, "/members/7", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = send(h, http.MethodGet, "/members/404", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
