package badger

import (
	"encoding/binary"

	"github.com/poiesic/circulars/core"
)

// Key prefixes for different data types
const (
	textPrefix   = "txt"
	vectorPrefix = "vec"
)

// makeTextKey generates a key for extracted text.
// Format: prefix:mode:contentID
func makeTextKey(mode string, contentID core.ID) []byte {
	return makeScopedKey(textPrefix, mode, contentID)
}

// makeVectorKey generates a key for a cached embedding.
// Format: prefix:model:contentID
func makeVectorKey(model string, contentID core.ID) []byte {
	return makeScopedKey(vectorPrefix, model, contentID)
}

func makeScopedKey(prefix, scope string, id core.ID) []byte {
	head := prefix + ":" + scope + ":"
	buf := make([]byte, len(head)+8)
	offset := copy(buf, head)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}
