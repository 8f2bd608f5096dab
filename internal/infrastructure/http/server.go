// Package http serves the PrivateGPT web UI and its JSON/SSE API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/0xcro3dile/privategpt-go/internal/domain/entities"
	"github.com/0xcro3dile/privategpt-go/internal/domain/ports"
	"github.com/0xcro3dile/privategpt-go/internal/domain/usecases"
	"github.com/0xcro3dile/privategpt-go/internal/logger"
)

const (
	MaxUploadSize     = 64 << 20 // 64MB
	ReadHeaderTimeout = 5 * time.Second
	ShutdownTimeout   = 5 * time.Second
)

// Server is the HTTP server for one PrivateGPT session.
type Server struct {
	session *usecases.Session
	addr    string
	router  *chi.Mux
}

// NewServer creates a server bound to addr that drives session.
func NewServer(session *usecases.Session, addr string) *Server {
	s := &Server{session: session, addr: addr}
	s.router = s.setupRouter()
	return s
}

// Handler returns the root handler, for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRouter() *chi.Mux {
	router := chi.NewRouter()
	router.Use(
		chiMiddleware.RequestID,
		chiMiddleware.RealIP,
		loggingMiddleware,
		chiMiddleware.Recoverer,
		chiMiddleware.CleanPath,
	)

	router.Get("/", s.handleIndex)

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/session", s.handleSession)
		r.Get("/messages", s.handleMessages)
		r.Get("/ask/stream", s.handleAskStream)
		r.With(chiMiddleware.RequestSize(MaxUploadSize)).Post("/upload", s.handleUpload)
	})

	return router
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: ReadHeaderTimeout,
	}

	logger.GetLogger().WithField("addr", s.addr).Info("PrivateGPT server starting")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.GetLogger().WithError(err).Warn("server shutdown")
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type documentResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Fingerprint string `json:"fingerprint"`
}

type sessionResponse struct {
	ID         string            `json:"id"`
	State      string            `json:"state"`
	Document   *documentResponse `json:"document,omitempty"`
	Extensions []string          `json:"extensions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toDocumentResponse(doc *entities.Document) *documentResponse {
	if doc == nil {
		return nil
	}
	return &documentResponse{ID: doc.ID, Name: doc.Name, Fingerprint: doc.Fingerprint}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	renderJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	renderJSON(w, http.StatusOK, sessionResponse{
		ID:         s.session.ID(),
		State:      s.session.State().String(),
		Document:   toDocumentResponse(s.session.Document()),
		Extensions: s.session.SupportedExtensions(),
	})
}

func (s *Server) handleMessages(w http.ResponseWriter, _ *http.Request) {
	messages := s.session.Transcript()
	if messages == nil {
		messages = []entities.Message{}
	}
	renderJSON(w, http.StatusOK, messages)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		renderError(w, fmt.Errorf("reading upload: %w", err), http.StatusBadRequest)
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		renderError(w, fmt.Errorf("missing file field: %w", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		renderError(w, fmt.Errorf("reading upload: %w", err), http.StatusBadRequest)
		return
	}

	doc, err := s.session.Upload(r.Context(), entities.Upload{Name: header.Filename, Data: data})
	if err != nil {
		handleSessionError(w, err)
		return
	}

	renderJSON(w, http.StatusOK, toDocumentResponse(doc))
}

// handleAskStream answers ?q= over SSE. Errors raised before the first
// token are plain HTTP errors; later ones arrive as an error event.
func (s *Server) handleAskStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		renderError(w, errors.New("streaming not supported"), http.StatusInternalServerError)
		return
	}

	stream := &sseStream{w: w, flusher: flusher}
	_, err := s.session.Ask(r.Context(), r.URL.Query().Get("q"), stream.send)
	if err != nil && !stream.opened() {
		handleSessionError(w, err)
	}
}

// sseStream writes tokens as `data: {json}` events, sending headers on the
// first one.
type sseStream struct {
	w       http.ResponseWriter
	flusher http.Flusher

	mu   sync.Mutex
	open bool
}

func (st *sseStream) send(tok ports.StreamToken) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if !st.open {
		h := st.w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		st.w.WriteHeader(http.StatusOK)
		st.open = true
	}

	switch {
	case tok.Error != nil:
		sendSSE(st.w, st.flusher, map[string]any{"error": tok.Error.Error(), "done": true})
	case tok.Done:
		sendSSE(st.w, st.flusher, map[string]any{"done": true})
	default:
		sendSSE(st.w, st.flusher, map[string]any{"content": tok.Content})
	}
}

func (st *sseStream) opened() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.open
}

func sendSSE(w io.Writer, flusher http.Flusher, data map[string]any) {
	jsonData, _ := json.Marshal(data)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()
}

func handleSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entities.ErrUnsupportedFileType):
		renderError(w, err, http.StatusUnsupportedMediaType)
	case errors.Is(err, entities.ErrEmptyDocument),
		errors.Is(err, entities.ErrInvalidName),
		errors.Is(err, entities.ErrEmptyQuestion):
		renderError(w, err, http.StatusBadRequest)
	case errors.Is(err, entities.ErrNoDocument):
		renderError(w, err, http.StatusConflict)
	case errors.Is(err, context.Canceled):
		// client went away; nothing to render
	default:
		renderError(w, err, http.StatusInternalServerError)
	}
}

func renderError(w http.ResponseWriter, err error, status int) {
	if status >= http.StatusInternalServerError {
		logger.GetLogger().WithError(err).Error("request failed")
	} else {
		logger.GetLogger().WithError(err).Debug("request rejected")
	}
	renderJSON(w, status, errorResponse{Error: err.Error()})
}

func renderJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.GetLogger().WithError(err).Warn("encoding response")
	}
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logger.GetLogger().WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"request_id": chiMiddleware.GetReqID(r.Context()),
				"status":     resp.Status(),
				"bytes":      resp.BytesWritten(),
				"duration":   time.Since(start),
			}).Info("HTTP request served")
		}()

		next.ServeHTTP(resp, r)
	})
}

type indexData struct {
	Accept string
}

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := indexData{Accept: strings.Join(s.session.SupportedExtensions(), ",")}
	if err := indexTemplate.Execute(w, data); err != nil {
		logger.GetLogger().WithError(err).Error("rendering index")
	}
}
