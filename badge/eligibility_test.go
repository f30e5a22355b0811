package badge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanIdle(t *testing.T) {
	tests := []struct {
		name   string
		title  Title
		filter Filter
		want   bool
	}{
		{"drops remaining", Title{ID: "1", Remaining: Known(2)}, Filter{}, true},
		{"no drops", Title{ID: "1", Remaining: Known(0)}, Filter{}, false},
		{"unknown drops", Title{ID: "1", Remaining: Unknown()}, Filter{}, true},
		{"unplayed with played-only", Title{ID: "1", Remaining: Known(2)}, Filter{IdleOnlyPlayed: true}, false},
		{"played with played-only", Title{ID: "1", Remaining: Known(2), HoursPlayed: 0.1}, Filter{IdleOnlyPlayed: true}, true},
		{"unknown but unplayed with played-only", Title{ID: "1", Remaining: Unknown()}, Filter{IdleOnlyPlayed: true}, false},
		{"blacklisted", Title{ID: "1", Remaining: Known(2)}, Filter{Blacklist: []string{"1"}}, false},
		{"whitelist mode, listed", Title{ID: "1", Remaining: Unknown()}, Filter{WhitelistMode: true, Whitelist: []string{"1"}}, true},
		{"whitelist mode, not listed", Title{ID: "2", Remaining: Known(3)}, Filter{WhitelistMode: true, Whitelist: []string{"1"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title := tt.title
			assert.Equal(t, tt.want, CanIdle(&title, tt.filter))
		})
	}
	assert.False(t, CanIdle(nil, Filter{}))
}

func TestAggregates(t *testing.T) {
	r := NewRegistry()
	r.Upsert("10", "a", Known(2), 5)
	r.Upsert("20", "b", Known(1), 0)
	r.Upsert("30", "c", Known(0), 3)
	r.Upsert("40", "d", Unknown(), 0)

	f := Filter{}
	assert.Equal(t, 3, r.EligibleCount(f))
	assert.Equal(t, 3, r.TotalRemainingDrops(f))
	assert.Equal(t, []string{"10", "20", "40"}, ids(r.Eligible(f)))

	played := Filter{IdleOnlyPlayed: true}
	assert.Equal(t, 1, r.EligibleCount(played))
	assert.Equal(t, 2, r.TotalRemainingDrops(played))

	// Aggregates follow registry mutations immediately.
	r.Upsert("10", "a", Known(0), 5)
	assert.Equal(t, 0, r.EligibleCount(played))
}

func TestDropCount(t *testing.T) {
	assert.True(t, Known(0).Is(0))
	assert.False(t, Known(0).CanDrop())
	assert.True(t, Known(-3).Is(0))
	assert.True(t, Unknown().CanDrop())
	assert.False(t, Unknown().Is(0))
	assert.Equal(t, 0, Unknown().Value())
	assert.Equal(t, "unknown", Unknown().String())
	assert.Equal(t, "4", Known(4).String())
	var zero DropCount
	assert.True(t, zero.Is(0))
}
