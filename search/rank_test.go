package search

import (
	"math/rand"
	"testing"
	"time"

	"github.com/poiesic/circulars/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rankFixture() (map[core.ID]*core.Document, Lookup) {
	docs := map[core.ID]*core.Document{
		1: {Id: 1, Filename: "jan.pdf", Date: core.NewCalendarDate(2023, time.January, 10)},
		2: {Id: 2, Filename: "jun.pdf", Date: core.NewCalendarDate(2023, time.June, 1)},
		3: {Id: 3, Filename: "undated.pdf"},
		4: {Id: 4, Filename: "jan-copy.pdf", Date: core.NewCalendarDate(2023, time.January, 10)},
	}
	return docs, func(id core.ID) (*core.Document, bool) {
		d, ok := docs[id]
		return d, ok
	}
}

func filenames(cands []core.Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Document.Filename
	}
	return out
}

func TestRank_OrdersByDateDescending(t *testing.T) {
	_, lookup := rankFixture()
	hits := []core.Hit{
		{DocumentId: 3, Distance: 0.1},
		{DocumentId: 1, Distance: 0.2},
		{DocumentId: 2, Distance: 0.3},
		{DocumentId: 4, Distance: 0.4},
	}

	cands, err := Rank(hits, lookup, nil)
	require.NoError(t, err)

	// 1 and 4 share a date and keep their similarity order; undated sorts last
	assert.Equal(t, []string{"jun.pdf", "jan.pdf", "jan-copy.pdf", "undated.pdf"}, filenames(cands))
	assert.Equal(t, float32(0.3), cands[0].Distance)
	assert.Equal(t, "2023-06-01", cands[0].Date.String())
}

func TestRank_StableForEqualDates(t *testing.T) {
	_, lookup := rankFixture()

	cands, err := Rank([]core.Hit{{DocumentId: 4}, {DocumentId: 1}}, lookup, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"jan-copy.pdf", "jan.pdf"}, filenames(cands))
}

func TestRank_ExactDateFilter(t *testing.T) {
	_, lookup := rankFixture()
	hits := []core.Hit{{DocumentId: 1}, {DocumentId: 2}, {DocumentId: 3}, {DocumentId: 4}}

	jan := core.NewCalendarDate(2023, time.January, 10)
	cands, err := Rank(hits, lookup, &jan)
	require.NoError(t, err)
	assert.Equal(t, []string{"jan.pdf", "jan-copy.pdf"}, filenames(cands))

	// a day off is not close enough
	nextDay := core.NewCalendarDate(2023, time.January, 11)
	cands, err = Rank(hits, lookup, &nextDay)
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestRank_UnknownDocument(t *testing.T) {
	_, lookup := rankFixture()

	_, err := Rank([]core.Hit{{DocumentId: 1}, {DocumentId: 99}}, lookup, nil)
	assert.ErrorIs(t, err, ErrUnknownDocument)
}

func TestRank_Empty(t *testing.T) {
	_, lookup := rankFixture()

	cands, err := Rank(nil, lookup, nil)
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestRank_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	base := core.NewCalendarDate(2020, time.January, 1).Time()

	for round := 0; round < 50; round++ {
		docs := make(map[core.ID]*core.Document)
		hits := make([]core.Hit, 0, 8)
		for i := 0; i < 8; i++ {
			id := core.ID(i + 1)
			date := core.UnknownDate
			if rng.Intn(4) > 0 {
				date = core.DateOf(base.AddDate(0, 0, rng.Intn(5)))
			}
			docs[id] = &core.Document{Id: id, Date: date}
			hits = append(hits, core.Hit{DocumentId: id, Distance: float32(i)})
		}
		lookup := func(id core.ID) (*core.Document, bool) {
			d, ok := docs[id]
			return d, ok
		}

		cands, err := Rank(hits, lookup, nil)
		require.NoError(t, err)
		require.Len(t, cands, len(hits))
		for i := 1; i < len(cands); i++ {
			prev, cur := cands[i-1], cands[i]
			require.GreaterOrEqual(t, prev.Date.Compare(cur.Date), 0, "dates must be non-increasing")
			if prev.Date.Equal(cur.Date) {
				require.Less(t, prev.Distance, cur.Distance, "equal dates keep hit order")
			}
		}

		filter := core.DateOf(base.AddDate(0, 0, rng.Intn(5)))
		filtered, err := Rank(hits, lookup, &filter)
		require.NoError(t, err)
		for _, c := range filtered {
			require.True(t, c.Date.Equal(filter))
		}
	}
}
