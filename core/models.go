package core

import (
	"encoding/binary"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// DocumentID derives the corpus ID of a document from its filename and text.
func DocumentID(filename, text string) ID {
	return IDFromContent(filename + "\x00" + text)
}

// RawDocument is a document as it arrives from text extraction, before
// dating and embedding.
type RawDocument struct {
	Filename string
	Text     string
}

// Document is a corpus entry. Documents are created once during corpus
// build and never mutated afterwards.
type Document struct {
	Id       ID
	Filename string
	Text     string
	Date     CalendarDate // UnknownDate when the text carried no date
	Vector   []float32    // Embedding, corpus-wide dimension
}

// Hit is a raw nearest-neighbor result.
type Hit struct {
	DocumentId ID
	Distance   float32 // Squared Euclidean distance to the query vector
}

// Candidate is a document considered for answering a single query.
type Candidate struct {
	Document *Document
	Distance float32
	Date     CalendarDate
}
