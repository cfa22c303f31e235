package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/lamplight-ai/paperchat/core"
	"github.com/lamplight-ai/paperchat/extract"
	"github.com/lamplight-ai/paperchat/ingestion"
	"github.com/lamplight-ai/paperchat/search"
	"github.com/lamplight-ai/paperchat/storage"
)

type documentResponse struct {
	Id           uint64    `json:"id"`
	Name         string    `json:"name"`
	SizeBytes    int64     `json:"size_bytes"`
	Pages        int       `json:"pages"`
	Chunks       int       `json:"chunks"`
	InsertedAt   time.Time `json:"inserted_at"`
	Deduplicated bool      `json:"deduplicated,omitempty"`
}

type askRequest struct {
	Question string `json:"question"`
}

type sourceResponse struct {
	DocumentId uint64  `json:"document_id"`
	Seq        int     `json:"seq"`
	Text       string  `json:"text"`
	Score      float32 `json:"score"`
}

type askResponse struct {
	Answer  string           `json:"answer"`
	Sources []sourceResponse `json:"sources"`
}

type historyEntry struct {
	Role     string    `json:"role"`
	Contents string    `json:"contents"`
	SentAt   time.Time `json:"sent_at"`
}

func documentToResponse(doc *core.Document, deduplicated bool) documentResponse {
	return documentResponse{
		Id:           uint64(doc.Id),
		Name:         doc.Name,
		SizeBytes:    doc.SizeBytes,
		Pages:        doc.PageCount,
		Chunks:       doc.ChunkCount,
		InsertedAt:   doc.InsertedAt,
		Deduplicated: deduplicated,
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.uploadLimit)

	file, header, err := r.FormFile("file")
	if err != nil {
		// MaxBytesReader trips inside FormFile while it parses the body.
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "file exceeds upload limit")
			return
		}
		s.writeError(w, http.StatusBadRequest, "multipart field \"file\" required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	result, err := s.pipeline.Ingest(r.Context(), header.Filename, data, nil)
	if err != nil {
		s.writeIngestError(w, err)
		return
	}

	status := http.StatusCreated
	if result.Deduplicated {
		status = http.StatusOK
	}
	s.writeJSON(w, status, documentToResponse(result.Document, result.Deduplicated))
}

func (s *Server) writeIngestError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, extract.ErrFileTooLarge):
		s.writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, extract.ErrUnsupportedFormat),
		errors.Is(err, extract.ErrInvalidPDF),
		errors.Is(err, extract.ErrEmptyExtraction),
		errors.Is(err, ingestion.ErrNoChunks):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("ingest failed", "err", err)
		s.writeError(w, http.StatusInternalServerError, "ingestion failed")
	}
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.library.DocumentRepository().ListDocuments(r.Context())
	if err != nil {
		s.logger.Error("failed to list documents", "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}

	out := make([]documentResponse, len(docs))
	for i, doc := range docs {
		out[i] = documentToResponse(doc, false)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	deleted, err := s.library.DeleteDocument(r.Context(), core.ID(id))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "document not found")
			return
		}
		s.logger.Error("failed to delete document", "document_id", id, "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to delete document")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"deleted_chunks": deleted})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	answer, err := s.session.Ask(r.Context(), req.Question)
	if err != nil {
		if errors.Is(err, search.ErrEmptyQuery) {
			s.writeError(w, http.StatusBadRequest, "question must not be empty")
			return
		}
		s.logger.Error("failed to answer question", "err", err)
		s.writeError(w, http.StatusBadGateway, "failed to generate answer")
		return
	}

	sources := make([]sourceResponse, len(answer.Sources))
	for i, source := range answer.Sources {
		sources[i] = sourceResponse{
			DocumentId: uint64(source.Chunk.DocumentId),
			Seq:        source.Chunk.Seq,
			Text:       source.Chunk.Contents,
			Score:      source.Score,
		}
	}
	s.writeJSON(w, http.StatusOK, askResponse{Answer: answer.Text, Sources: sources})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	history := s.session.History()

	out := make([]historyEntry, len(history))
	for i, msg := range history {
		role := "user"
		if msg.Role == core.RoleAssistant {
			role = "assistant"
		}
		out[i] = historyEntry{Role: role, Contents: msg.Contents, SentAt: msg.SentAt}
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	s.session.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
