package badge

// Filter holds the settings that decide which titles may be idled.
type Filter struct {
	IdleOnlyPlayed bool
	WhitelistMode  bool
	Blacklist      []string
	Whitelist      []string
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// CanIdle reports whether t can still drop cards and should be considered.
func CanIdle(t *Title, f Filter) bool {
	if t == nil {
		return false
	}
	if contains(f.Blacklist, t.ID) {
		return false
	}
	if f.WhitelistMode && !contains(f.Whitelist, t.ID) {
		return false
	}
	if !t.Remaining.CanDrop() {
		return false
	}
	return !f.IdleOnlyPlayed || t.HoursPlayed > 0
}

// Eligible returns the idle-able titles in registry order.
func (r *Registry) Eligible(f Filter) []*Title {
	var out []*Title
	for _, t := range r.titles {
		if CanIdle(t, f) {
			out = append(out, t)
		}
	}
	return out
}

// EligibleCount counts the idle-able titles.
func (r *Registry) EligibleCount(f Filter) int {
	n := 0
	for _, t := range r.titles {
		if CanIdle(t, f) {
			n++
		}
	}
	return n
}

// TotalRemainingDrops sums the known drop counts of idle-able titles.
func (r *Registry) TotalRemainingDrops(f Filter) int {
	total := 0
	for _, t := range r.titles {
		if CanIdle(t, f) {
			total += t.Remaining.Value()
		}
	}
	return total
}
