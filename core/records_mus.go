package core

import (
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the domain types stored in BadgerDB.
// Timestamps are serialized as Unix microseconds, vectors as raw float32s.
var (
	IDMUS       = idMUS{}
	DocumentMUS = documentMUS{}
	ChunkMUS    = chunkMUS{}

	timeMUS   = timeMicroMUS{}
	vectorMUS = ord.NewSliceSer[float32](raw.Float32)
	metaMUS   = ord.NewMapSer[string, string](ord.String, ord.String)
)

type idMUS struct{}

var _ mus.Serializer[ID] = idMUS{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

func (idMUS) Skip(bs []byte) (int, error) {
	return varint.Uint64.Skip(bs)
}

// timeMicroMUS serializes time.Time as Unix microseconds.
// The zero time is stored as the sentinel 0 and restored as the zero time.
type timeMicroMUS struct{}

var _ mus.Serializer[time.Time] = timeMicroMUS{}

func (timeMicroMUS) Marshal(t time.Time, bs []byte) int {
	var micros int64
	if !t.IsZero() {
		micros = t.UnixMicro()
	}
	return varint.Int64.Marshal(micros, bs)
}

func (timeMicroMUS) Unmarshal(bs []byte) (time.Time, int, error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	if micros == 0 {
		return time.Time{}, n, nil
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

func (timeMicroMUS) Size(t time.Time) int {
	var micros int64
	if !t.IsZero() {
		micros = t.UnixMicro()
	}
	return varint.Int64.Size(micros)
}

func (timeMicroMUS) Skip(bs []byte) (int, error) {
	return varint.Int64.Skip(bs)
}

type documentMUS struct{}

var _ mus.Serializer[Document] = documentMUS{}

func (documentMUS) Marshal(doc Document, bs []byte) (n int) {
	n = IDMUS.Marshal(doc.Id, bs)
	n += ord.String.Marshal(doc.Name, bs[n:])
	n += IDMUS.Marshal(doc.ContentHash, bs[n:])
	n += varint.Int64.Marshal(doc.SizeBytes, bs[n:])
	n += varint.Int.Marshal(doc.PageCount, bs[n:])
	n += varint.Int.Marshal(doc.ChunkCount, bs[n:])
	n += timeMUS.Marshal(doc.InsertedAt, bs[n:])
	n += timeMUS.Marshal(doc.UpdatedAt, bs[n:])
	n += metaMUS.Marshal(doc.Metadata, bs[n:])
	return n
}

func (documentMUS) Unmarshal(bs []byte) (doc Document, n int, err error) {
	var n1 int
	if doc.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if doc.Name, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return doc, n + n1, err
	}
	n += n1
	if doc.ContentHash, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return doc, n + n1, err
	}
	n += n1
	if doc.SizeBytes, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return doc, n + n1, err
	}
	n += n1
	if doc.PageCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return doc, n + n1, err
	}
	n += n1
	if doc.ChunkCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return doc, n + n1, err
	}
	n += n1
	if doc.InsertedAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return doc, n + n1, err
	}
	n += n1
	if doc.UpdatedAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return doc, n + n1, err
	}
	n += n1
	if doc.Metadata, n1, err = metaMUS.Unmarshal(bs[n:]); err != nil {
		return doc, n + n1, err
	}
	// Nil metadata marshals as an empty map; restore it as nil so the
	// round-trip is lossless.
	if len(doc.Metadata) == 0 {
		doc.Metadata = nil
	}
	return doc, n + n1, err
}

func (documentMUS) Size(doc Document) (size int) {
	size = IDMUS.Size(doc.Id)
	size += ord.String.Size(doc.Name)
	size += IDMUS.Size(doc.ContentHash)
	size += varint.Int64.Size(doc.SizeBytes)
	size += varint.Int.Size(doc.PageCount)
	size += varint.Int.Size(doc.ChunkCount)
	size += timeMUS.Size(doc.InsertedAt)
	size += timeMUS.Size(doc.UpdatedAt)
	size += metaMUS.Size(doc.Metadata)
	return size
}

func (s documentMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

type chunkMUS struct{}

var _ mus.Serializer[Chunk] = chunkMUS{}

func (chunkMUS) Marshal(chunk Chunk, bs []byte) (n int) {
	n = IDMUS.Marshal(chunk.Id, bs)
	n += IDMUS.Marshal(chunk.DocumentId, bs[n:])
	n += varint.Int.Marshal(chunk.Seq, bs[n:])
	n += ord.String.Marshal(chunk.Contents, bs[n:])
	n += varint.Int.Marshal(chunk.TokenCount, bs[n:])
	n += vectorMUS.Marshal(chunk.Vector, bs[n:])
	n += timeMUS.Marshal(chunk.InsertedAt, bs[n:])
	n += timeMUS.Marshal(chunk.UpdatedAt, bs[n:])
	return n
}

func (chunkMUS) Unmarshal(bs []byte) (chunk Chunk, n int, err error) {
	var n1 int
	if chunk.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if chunk.DocumentId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return chunk, n + n1, err
	}
	n += n1
	if chunk.Seq, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return chunk, n + n1, err
	}
	n += n1
	if chunk.Contents, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return chunk, n + n1, err
	}
	n += n1
	if chunk.TokenCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return chunk, n + n1, err
	}
	n += n1
	if chunk.Vector, n1, err = vectorMUS.Unmarshal(bs[n:]); err != nil {
		return chunk, n + n1, err
	}
	n += n1
	if chunk.InsertedAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return chunk, n + n1, err
	}
	n += n1
	chunk.UpdatedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	return chunk, n + n1, err
}

func (chunkMUS) Size(chunk Chunk) (size int) {
	size = IDMUS.Size(chunk.Id)
	size += IDMUS.Size(chunk.DocumentId)
	size += varint.Int.Size(chunk.Seq)
	size += ord.String.Size(chunk.Contents)
	size += varint.Int.Size(chunk.TokenCount)
	size += vectorMUS.Size(chunk.Vector)
	size += timeMUS.Size(chunk.InsertedAt)
	size += timeMUS.Size(chunk.UpdatedAt)
	return size
}

func (s chunkMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}
