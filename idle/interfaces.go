package idle

import (
	"context"
	"time"

	"github.com/habedi/cardidle/badge"
)

// Loader reads the profile's badge pages.
type Loader interface {
	IsLoggedIn(ctx context.Context) (bool, error)
	RefreshLoginToken(ctx context.Context) error
	LoadTitles(ctx context.Context) ([]badge.Entry, error)
}

// DropChecker asks the authoritative source how many drops a title has left.
type DropChecker interface {
	CheckDrops(ctx context.Context, id string) (badge.DropCount, error)
}

// Supervisor starts and stops the per-title helper processes.
type Supervisor interface {
	Start(t badge.Title) error
	Stop(id string) error
	IsRunning(id string) bool
	StopAll()
	SweepOrphans() (int, error)
}

// Gate reports whether idling may start. Reset drops the session so the user must sign in again.
type Gate interface {
	SessionValid() bool
	ClientReady() bool
	HasProfile() bool
	Reset() error
}

// SettingsSource hands out fresh settings snapshots.
// ConsumeShutdownOnDone returns the one-shot shutdown flag and clears it.
type SettingsSource interface {
	Snapshot() Settings
	ConsumeShutdownOnDone() (bool, error)
}

// Host performs side effects on the machine running the idler.
type Host interface {
	RequestShutdown(delay time.Duration, message string) error
}

// StatsRecorder persists idling statistics.
type StatsRecorder interface {
	AddMinutesIdled(n int) error
	AddCardsIdled(n int) error
}

// Settings is an immutable snapshot of the user's idling preferences.
type Settings struct {
	OnlyOneGameIdle bool
	OneThenMany     bool
	FastMode        bool
	WhitelistMode   bool
	IdleOnlyPlayed  bool
	Sort            string
	Blacklist       []string
	Whitelist       []string
}

// Filter returns the eligibility filter for the snapshot.
func (s Settings) Filter() badge.Filter {
	return badge.Filter{
		IdleOnlyPlayed: s.IdleOnlyPlayed,
		WhitelistMode:  s.WhitelistMode,
		Blacklist:      s.Blacklist,
		Whitelist:      s.Whitelist,
	}
}
