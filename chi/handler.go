// Package chi exposes the question answering pipeline over HTTP using the
// go-chi router.
package chi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/catalogqa"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// MaxQuestionSize caps the request body of a question.
const MaxQuestionSize = 8 << 10

// RequestIDHeader carries the id assigned to each request.
const RequestIDHeader = "X-Request-Id"

// Handler serves questions, the link index, and a health probe.
type Handler struct {
	router   chi.Router
	answerer catalogqa.Answerer
	indexer  catalogqa.LinkIndexer
	logger   *slog.Logger
}

// NewHandler creates a Handler. A nil logger discards request logs.
func NewHandler(answerer catalogqa.Answerer, indexer catalogqa.LinkIndexer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &Handler{
		router:   chi.NewRouter(),
		answerer: answerer,
		indexer:  indexer,
		logger:   logger,
	}

	h.router.Use(h.logRequests)
	h.router.Get("/health", h.handleHealth)
	h.router.Get("/links", h.handleLinks)
	h.router.Post("/send-question", h.handleQuestion)

	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set(RequestIDHeader, id)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func(begin time.Time) {
			h.logger.Info("http request",
				"id", id,
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(begin),
			)
		}(time.Now())

		next.ServeHTTP(ww, r)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (h *Handler) handleLinks(w http.ResponseWriter, r *http.Request) {
	index, err := h.indexer.BuildIndex(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(index.Links()); err != nil {
		h.logger.Error("encode links", "err", err)
	}
}

func (h *Handler) handleQuestion(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxQuestionSize)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeError(w, r, catalogqa.Errorf(catalogqa.EINVALID, "question exceeds %d bytes", maxErr.Limit))
			return
		}
		h.writeError(w, r, catalogqa.Errorf(catalogqa.EINVALID, "reading question: %v", err))
		return
	}

	question := strings.TrimSpace(string(body))
	if question == "" {
		h.writeError(w, r, catalogqa.Errorf(catalogqa.EINVALID, "question required"))
		return
	}

	answer, err := h.answerer.Answer(r.Context(), question)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, answer.Text)
}

// writeError writes the error message as plain text. Internal details are
// logged, never returned.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := catalogqa.ErrorCode(err)
	if code == catalogqa.EINTERNAL {
		h.logger.Error("request failed", "path", r.URL.Path, "err", err)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(StatusCode(code))
	io.WriteString(w, catalogqa.ErrorMessage(err))
}

// StatusCode maps an error code to an HTTP status.
func StatusCode(code string) int {
	switch code {
	case catalogqa.EINVALID:
		return http.StatusBadRequest
	case catalogqa.ENOTFOUND:
		return http.StatusNotFound
	case catalogqa.ETIMEOUT:
		return http.StatusGatewayTimeout
	case catalogqa.ESOURCE, catalogqa.EGENERATE:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
