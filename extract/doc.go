// Package extract turns uploaded files into plain text for chunking.
//
// PDF files are processed page by page in parallel batches, preserving page
// order in the output. A page whose text cannot be decoded contributes empty
// text rather than failing the whole document. Plain text files pass through
// with a UTF-8 validity check.
//
// Extractors enforce a maximum input size and reject files from which no
// text at all can be recovered, since such documents cannot be indexed.
package extract
