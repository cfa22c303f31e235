package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lamplight-ai/paperchat"
	"github.com/lamplight-ai/paperchat/ai/mock"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	library, err := paperchat.Open(context.Background(), "",
		paperchat.WithInMemory(),
		paperchat.WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	t.Cleanup(func() { library.Close() })

	srv, err := New(library, "127.0.0.1:0")
	require.NoError(t, err)
	return srv
}

func multipartUpload(t *testing.T, field, filename string, contents []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(contents)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/documents", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func uploadDocument(t *testing.T, srv *Server, filename string, contents []byte) documentResponse {
	t.Helper()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, multipartUpload(t, "file", filename, contents))
	require.Equal(t, http.StatusCreated, rec.Code, "upload response: %s", rec.Body.String())

	var doc documentResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&doc))
	return doc
}

func TestUploadDocument(t *testing.T) {
	srv := newTestServer(t)

	text := strings.Repeat("uploaded through the http api. ", 30)
	doc := uploadDocument(t, srv, "upload.txt", []byte(text))

	assert.NotZero(t, doc.Id)
	assert.Equal(t, "upload.txt", doc.Name)
	assert.NotZero(t, doc.Chunks)
	assert.False(t, doc.Deduplicated)
}

func TestUploadDuplicate(t *testing.T) {
	srv := newTestServer(t)

	data := []byte(strings.Repeat("identical upload payload. ", 20))
	first := uploadDocument(t, srv, "a.txt", data)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, multipartUpload(t, "file", "b.txt", data))
	require.Equal(t, http.StatusOK, rec.Code)

	var second documentResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&second))
	assert.True(t, second.Deduplicated)
	assert.Equal(t, first.Id, second.Id)
}

func TestUploadMissingField(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, multipartUpload(t, "wrong", "x.txt", []byte("data")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadUnsupportedFormat(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, multipartUpload(t, "file", "image.png", []byte("not text")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadTooLarge(t *testing.T) {
	library, err := paperchat.Open(context.Background(), "",
		paperchat.WithInMemory(),
		paperchat.WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	t.Cleanup(func() { library.Close() })

	srv, err := New(library, "127.0.0.1:0", WithUploadLimit(64))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, multipartUpload(t, "file", "big.txt", bytes.Repeat([]byte("x"), 1024)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestListDocuments(t *testing.T) {
	srv := newTestServer(t)

	uploadDocument(t, srv, "one.txt", []byte("first document body"))
	uploadDocument(t, srv, "two.txt", []byte("second document body"))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var docs []documentResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&docs))
	require.Len(t, docs, 2)
	assert.Equal(t, "one.txt", docs[0].Name)
	assert.Equal(t, "two.txt", docs[1].Name)
}

func TestDeleteDocument(t *testing.T) {
	srv := newTestServer(t)

	doc := uploadDocument(t, srv, "gone.txt", []byte(strings.Repeat("soon deleted. ", 10)))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/documents/%d", doc.Id), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	// Second delete is a 404.
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/documents/%d", doc.Id), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteDocumentBadID(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/documents/not-a-number", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAskAndHistory(t *testing.T) {
	srv := newTestServer(t)

	uploadDocument(t, srv, "kb.txt", []byte(strings.Repeat("knowledge base content. ", 20)))

	body := bytes.NewBufferString(`{"question": "what is in the knowledge base"}`)
	req := httptest.NewRequest(http.MethodPost, "/ask", body)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var answer askResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&answer))
	assert.NotEmpty(t, answer.Answer)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var history []historyEntry
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&history))
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "assistant", history[1].Role)
}

func TestAskEmptyQuestion(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/ask", bytes.NewBufferString(`{"question": "  "}`))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAskInvalidJSON(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/ask", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClearHistory(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/ask", bytes.NewBufferString(`{"question": "hello there"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/history", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var history []historyEntry
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&history))
	assert.Empty(t, history)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
