// internal/catalog/handler.go
package catalog

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

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	transport.WriteSuccess(w, http.StatusOK, books)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	book, err := h.service.FindByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, err)
		return
	}
	transport.WriteSuccess(w, http.StatusOK, book)
}

func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	if books == nil {
		books = []Book{}
	}
	transport.WriteSuccess(w, http.StatusOK, books)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBookNotFound):
		transport.WriteError(w, http.StatusNotFound, transport.CodeNotFound, err.Error())
	case errors.Is(err, ErrEmptyQuery):
		transport.WriteError(w, http.StatusBadRequest, transport.CodeInvalid, err.Error())
	default:
		transport.WriteError(w, http.StatusInternalServerError, transport.CodeInternal, err.Error())
	}
}
