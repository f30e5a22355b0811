package badge

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrRetriesExhausted is returned by page loaders after the transport gave up
// on repeated empty responses. Callers treat it as a dead session.
var ErrRetriesExhausted = errors.New("badge page retries exhausted")

// DropCount is the number of card drops a title still awards.
// The zero value is Known(0).
type DropCount struct {
	n       int
	unknown bool
}

// Known returns a drop count of n.
func Known(n int) DropCount {
	if n < 0 {
		n = 0
	}
	return DropCount{n: n}
}

// Unknown returns a drop count that could not be scraped, as for whitelist entries.
func Unknown() DropCount { return DropCount{unknown: true} }

// IsUnknown reports whether the count is unknown.
func (d DropCount) IsUnknown() bool { return d.unknown }

// Value returns the known count, or 0 when unknown.
func (d DropCount) Value() int {
	if d.unknown {
		return 0
	}
	return d.n
}

// CanDrop reports whether the title may still award drops.
func (d DropCount) CanDrop() bool { return d.unknown || d.n != 0 }

// Is reports whether the count is known and equal to n.
func (d DropCount) Is(n int) bool { return !d.unknown && d.n == n }

func (d DropCount) String() string {
	if d.unknown {
		return "unknown"
	}
	return strconv.Itoa(d.n)
}

// Title is one game with collectible card drops.
type Title struct {
	ID          string
	Name        string
	HoursPlayed float64
	Remaining   DropCount
	InIdle      bool
}

func (t *Title) String() string {
	return fmt.Sprintf("%s (%s)", t.Name, t.ID)
}

// Entry is one row scraped from a badge page.
type Entry struct {
	ID          string
	Name        string
	Remaining   DropCount
	HoursPlayed float64
}
