// internal/membership/handler.go
package membership

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lendingdesk/internal/transport"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req Registration
	if err := transport.DecodeJSON(r, &req); err != nil {
		transport.WriteError(w, http.StatusBadRequest, transport.CodeInvalid, "invalid payload")
		return
	}

	member, err := h.service.Register(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	transport.WriteSuccess(w, http.StatusCreated, member)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	member, err := h.service.GetMember(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	transport.WriteSuccess(w, http.StatusOK, member)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := transport.DecodeJSON(r, &req); err != nil {
		transport.WriteError(w, http.StatusBadRequest, transport.CodeInvalid, "invalid payload")
		return
	}

	member, err := h.service.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	// The identity number is what later requests send as X-Member-ID.
	transport.WriteSuccess(w, http.StatusOK, member)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidMember):
		transport.WriteError(w, http.StatusBadRequest, transport.CodeInvalid, err.Error())
	case errors.Is(err, ErrMemberExists):
		transport.WriteError(w, http.StatusConflict, transport.CodeConflict, err.Error())
	case errors.Is(err, ErrMemberNotFound):
		transport.WriteError(w, http.StatusNotFound, transport.CodeNotFound, err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		transport.WriteError(w, http.StatusUnauthorized, transport.CodeUnauthorized, err.Error())
	case errors.Is(err, ErrRateLimited):
		transport.WriteError(w, http.StatusTooManyRequests, transport.CodeRateLimited, err.Error())
	default:
		transport.WriteError(w, http.StatusInternalServerError, transport.CodeInternal, err.Error())
	}
}
