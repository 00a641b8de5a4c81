package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"lendingdesk/internal/catalog"
	"lendingdesk/internal/circulation"
	"lendingdesk/internal/logger"
	"lendingdesk/internal/membership"
	"lendingdesk/internal/transport"
)

type Handlers struct {
	Catalog     *catalog.Handler
	Circulation *circulation.Handler
	Membership  *membership.Handler
}

// Options tunes the middleware stack. A zero RequestTimeout disables the
// per-request deadline.
type Options struct {
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

func New(handlers Handlers, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestContext)
	r.Use(accessLog(opts.Logger))
	r.Use(middleware.Recoverer)
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		transport.WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/books", handlers.Catalog.HandleList)
		r.Get("/books/search", handlers.Catalog.HandleSearch)
		r.Get("/books/{code}", handlers.Catalog.HandleGet)

		r.Post("/members", handlers.Membership.HandleRegister)
		r.Get("/members/{id}", handlers.Membership.HandleGet)
		r.Post("/login", handlers.Membership.HandleLogin)

		r.Get("/inventory", handlers.Circulation.HandleInventory)
		r.Post("/loans", handlers.Circulation.HandleBorrow)
		r.Post("/loans/return", handlers.Circulation.HandleGiveBack)
		r.Get("/status", handlers.Circulation.HandleStatus)
		r.Get("/history", handlers.Circulation.HandleHistory)
	})

	return r
}

// requestContext copies chi's request ID into the key the logger package reads.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			r = r.WithContext(logger.ContextWithRequestID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

func accessLog(base *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			logger.WithRequestID(r.Context(), base).Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
