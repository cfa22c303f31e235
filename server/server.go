// Copyright 2025 Lamplight AI
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/lamplight-ai/paperchat"
	"github.com/lamplight-ai/paperchat/chat"
	"github.com/lamplight-ai/paperchat/extract"
	"github.com/lamplight-ai/paperchat/ingestion"
)

const (
	defaultReadTimeout     = 30 * time.Second
	defaultWriteTimeout    = 5 * time.Minute // ingestion of large PDFs is slow
	defaultShutdownTimeout = 10 * time.Second
)

// Server serves the document QA API over one library.
type Server struct {
	library     *paperchat.Library
	pipeline    *ingestion.Pipeline
	session     *chat.Session
	router      *mux.Router
	httpSrv     *http.Server
	uploadLimit int64
	logger      *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithUploadLimit caps the accepted upload body size in bytes.
// Default is extract.MaxFileSize.
func WithUploadLimit(limit int64) Option {
	return func(s *Server) {
		if limit > 0 {
			s.uploadLimit = limit
		}
	}
}

// New creates a server over the library, listening on addr once Start is
// called.
func New(library *paperchat.Library, addr string, opts ...Option) (*Server, error) {
	if library == nil {
		return nil, errors.New("library required")
	}

	pipeline, err := library.NewIngestionPipeline()
	if err != nil {
		return nil, err
	}

	session, err := library.NewSession()
	if err != nil {
		pipeline.Release()
		return nil, err
	}

	s := &Server{
		library:     library,
		pipeline:    pipeline,
		session:     session,
		router:      mux.NewRouter(),
		uploadLimit: extract.MaxFileSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "http_server")

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})
	s.router.Use(s.logRequests)
	s.router.Use(c.Handler)
	s.registerRoutes()

	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	}

	return s, nil
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.httpSrv.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down")
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.pipeline.Release()
	return nil
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/documents", s.handleUpload).Methods(http.MethodPost)
	s.router.HandleFunc("/documents", s.handleListDocuments).Methods(http.MethodGet)
	s.router.HandleFunc("/documents/{id}", s.handleDeleteDocument).Methods(http.MethodDelete)
	s.router.HandleFunc("/ask", s.handleAsk).Methods(http.MethodPost)
	s.router.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	s.router.HandleFunc("/history", s.handleClearHistory).Methods(http.MethodDelete)
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
}

// logRequests is a minimal structured access log.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(started))
	})
}
