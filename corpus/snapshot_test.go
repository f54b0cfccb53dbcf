package corpus

import (
	"sync"
	"testing"
	"time"

	"github.com/poiesic/circulars/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doc(name string, vec ...float32) *core.Document {
	return &core.Document{
		Id:       core.DocumentID(name, name),
		Filename: name,
		Text:     name,
		Vector:   vec,
	}
}

func TestNewSnapshot(t *testing.T) {
	snap, err := NewSnapshot([]*core.Document{doc("a", 0, 1), doc("b", 1, 0)}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Dimension)

	_, err = NewSnapshot(nil, time.Time{})
	assert.ErrorIs(t, err, core.ErrEmptyCorpus)

	_, err = NewSnapshot([]*core.Document{doc("a", 0, 1), doc("b", 1)}, time.Time{})
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)

	dup := doc("a", 1, 1)
	_, err = NewSnapshot([]*core.Document{doc("a", 0, 1), dup}, time.Time{})
	assert.ErrorIs(t, err, core.ErrDuplicateDocument)
}

func TestStore_DocumentsIsACopy(t *testing.T) {
	snap, err := NewSnapshot([]*core.Document{doc("a", 0, 1)}, time.Time{})
	require.NoError(t, err)

	docs := snap.Store.Documents()
	docs[0] = nil

	assert.NotNil(t, snap.Store.Documents()[0])
	_, ok := snap.Store.Get(core.ID(12345))
	assert.False(t, ok)
}

func TestHolder(t *testing.T) {
	first, err := NewSnapshot([]*core.Document{doc("a", 0, 1)}, time.Time{})
	require.NoError(t, err)
	second, err := NewSnapshot([]*core.Document{doc("b", 1, 0)}, time.Time{})
	require.NoError(t, err)

	var empty Holder
	assert.Nil(t, empty.Load())

	h := NewHolder(first)
	assert.Same(t, first, h.Load())

	captured := h.Load()
	old, err := h.Swap(second)
	require.NoError(t, err)
	assert.Same(t, first, old)
	assert.Same(t, second, h.Load())
	assert.Same(t, first, captured, "readers keep the snapshot they captured")

	_, err = h.Swap(nil)
	assert.ErrorIs(t, err, ErrNilSnapshot)
	assert.Same(t, second, h.Load())
}

func TestHolder_ConcurrentSwapAndLoad(t *testing.T) {
	snaps := make([]*Snapshot, 4)
	for i := range snaps {
		s, err := NewSnapshot([]*core.Document{doc(string(rune('a'+i)), float32(i), 1)}, time.Time{})
		require.NoError(t, err)
		snaps[i] = s
	}
	h := NewHolder(snaps[0])

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, _ = h.Swap(snaps[i%len(snaps)])
		}(i)
		go func() {
			defer wg.Done()
			s := h.Load()
			assert.NotNil(t, s)
			assert.Equal(t, 1, s.Store.Len())
		}()
	}
	wg.Wait()
}
