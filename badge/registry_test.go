package badge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func ids(titles []*Title) []string {
	out := make([]string, 0, len(titles))
	for _, t := range titles {
		out = append(out, t.ID)
	}
	return out
}

func TestUpsert_PreservesIdentity(t *testing.T) {
	r := NewRegistry()
	first := r.Upsert("10", "Alpha", Known(3), 1.5)
	again := r.Upsert("10", "Alpha", Known(2), 2.5)

	assert.Same(t, first, again)
	assert.Equal(t, 1, r.Len())
	assert.True(t, first.Remaining.Is(2))
	assert.Equal(t, 2.5, first.HoursPlayed)
}

func TestUpsert_NewTitleNotInIdle(t *testing.T) {
	r := NewRegistry()
	ti := r.Upsert("20", "Beta", Known(1), 0)
	assert.False(t, ti.InIdle)
	assert.Same(t, ti, r.Find("20"))
	assert.Nil(t, r.Find("missing"))
}

func TestSortBy(t *testing.T) {
	r := NewRegistry()
	r.Upsert("1", "a", Known(2), 0)
	r.Upsert("2", "b", Known(5), 0)
	r.Upsert("3", "c", Known(1), 0)

	r.SortBy(SortDefault)
	assert.Equal(t, []string{"1", "2", "3"}, ids(r.Titles()))

	r.SortBy(SortMostCards)
	assert.Equal(t, []string{"2", "1", "3"}, ids(r.Titles()))

	r.SortBy(SortLeastCards)
	assert.Equal(t, []string{"3", "1", "2"}, ids(r.Titles()))
}

func TestSortBy_MostThenLeastIsReversed(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		drops := rapid.SliceOfNDistinct(rapid.IntRange(0, 500), 1, 40, rapid.ID[int]).Draw(t, "drops")
		r := NewRegistry()
		for i, d := range drops {
			r.Upsert(string(rune('a'+i%26))+string(rune('0'+i/26)), "", Known(d), 0)
		}

		r.SortBy(SortMostCards)
		most := ids(r.Titles())
		r.SortBy(SortLeastCards)
		least := ids(r.Titles())

		for i := range most {
			if most[i] != least[len(least)-1-i] {
				t.Fatalf("order not reversed: %v vs %v", most, least)
			}
		}
	})
}

func TestRemoveAndClear(t *testing.T) {
	r := NewRegistry()
	r.Upsert("1", "a", Known(2), 0)
	r.Upsert("2", "b", Known(5), 0)
	r.Upsert("3", "c", Known(1), 0)

	n := r.Remove(func(ti *Title) bool { return ti.ID == "2" })
	require.Equal(t, 1, n)
	assert.Equal(t, []string{"1", "3"}, ids(r.Titles()))
	assert.Nil(t, r.Find("2"))

	r.Clear()
	assert.Equal(t, 0, r.Len())
	assert.Nil(t, r.Find("1"))
}

func TestTitlesReturnsCopy(t *testing.T) {
	r := NewRegistry()
	r.Upsert("1", "a", Known(2), 0)
	list := r.Titles()
	list[0] = nil
	assert.NotNil(t, r.Titles()[0])
}
