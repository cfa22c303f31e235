package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/lamplight-ai/paperchat/core"
)

// Key prefixes for different data types
const (
	chunkPrefix    = "chunk"
	chunkDocPrefix = "chunkd"
	chunkIDSeq     = "chunkseq"
	docPrefix      = "docrec"
	docHashPrefix  = "dochash"
)

// makeChunkKey generates a key for a chunk by ID.
func makeChunkKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", chunkPrefix, id))
}

// makeChunkDocKey generates a composite key for the document->chunk index.
// Format: prefix:documentID:seq
func makeChunkDocKey(documentId core.ID, seq int) []byte {
	prefix := chunkDocPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for documentID + 8 bytes for seq
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentId))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(seq))
	return buf
}

// makePartialChunkDocKey generates a partial key for per-document chunk scans.
// Format: prefix:documentID
func makePartialChunkDocKey(documentId core.ID) []byte {
	prefix := chunkDocPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentId))
	return buf
}

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", docPrefix, id))
}

// makeDocumentHashKey generates a key for the content-hash index.
func makeDocumentHashKey(hash core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", docHashPrefix, hash))
}
