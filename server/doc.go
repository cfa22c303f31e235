// Package server exposes the document store over HTTP.
//
// The API covers document upload and management, question answering, and
// conversation history:
//
//	POST   /documents       multipart upload, field "file"
//	GET    /documents       list stored documents
//	DELETE /documents/{id}  remove a document and its chunks
//	POST   /ask             answer a question with retrieved context
//	GET    /history         conversation so far
//	DELETE /history         clear the conversation
//	GET    /healthz         liveness probe
//
// Responses are JSON. Errors carry an "error" field and an appropriate
// status code.
package server
