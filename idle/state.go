package idle

import (
	"errors"
	"time"

	"github.com/habedi/cardidle/badge"
)

// ErrNotReady is returned when an action needs a signed-in session and a running client.
var ErrNotReady = errors.New("session or client not ready")

const (
	MaxCountdownSeconds         = 900
	SoloSeconds                 = 900
	LastDropSeconds             = 300
	SimultaneousSeconds         = 360
	FastModeSimultaneousSeconds = 300
	PingSeconds                 = 5
	MaxSimultaneous             = 30
	PlaytimeThresholdHours      = 2.0
	MaxLoadFailures             = 10
	ReloadDelaySeconds          = 10
	ReadyPollSeconds            = 5
	MinNextTitleWait            = 3
	MaxNextTitleWait            = 9
	ShutdownDelay               = 300 * time.Second
	ShutdownMessage             = "cardidle finished idling and is about to shut down this computer."
	secondsPerMinute            = 60
)

// State is the orchestrator's current phase.
type State int

const (
	StateNotStarted State = iota
	StateSoloActive
	StateSimultaneousActive
	StateFastModeRoundRobin
	StateWaitingForNextTitle
	StatePaused
	StateComplete
	StateReloadBackoff
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not started"
	case StateSoloActive:
		return "solo"
	case StateSimultaneousActive:
		return "simultaneous"
	case StateFastModeRoundRobin:
		return "fast mode round robin"
	case StateWaitingForNextTitle:
		return "waiting for next title"
	case StatePaused:
		return "paused"
	case StateComplete:
		return "complete"
	case StateReloadBackoff:
		return "reload backoff"
	default:
		return "unknown"
	}
}

// idling reports whether helper processes may be running in this state.
func (s State) idling() bool {
	return s == StateSoloActive || s == StateSimultaneousActive || s == StateFastModeRoundRobin
}

// Event is an input to the state machine.
type Event int

const (
	// EventTick is the one-second clock tick.
	EventTick Event = iota
	// EventStart forces a start decision.
	EventStart
	EventPause
	EventResume
	EventSkip
	// EventStop halts all helpers and parks the orchestrator until resumed.
	EventStop
)

func (e Event) String() string {
	switch e {
	case EventTick:
		return "tick"
	case EventStart:
		return "start"
	case EventPause:
		return "pause"
	case EventResume:
		return "resume"
	case EventSkip:
		return "skip"
	case EventStop:
		return "stop"
	default:
		return "unknown"
	}
}

// User-facing phase texts.
const (
	PhaseWaiting       = "Waiting for a signed-in session and a running client"
	PhaseReadingPage   = "Reading badge page, please wait"
	PhaseSorting       = "Sorting results"
	PhaseIdling        = "Currently in-game"
	PhaseCheckingDrops = "Checking card drops"
	PhaseLoadingNext   = "Loading next game"
	PhasePaused        = "Idling paused"
	PhaseComplete      = "Idling complete"
	PhaseReloadRetry   = "Badge page didn't load, retrying in %d seconds"
	PhaseSignedOut     = "Session reset, please sign in again"
)

// Status is a snapshot of the orchestrator for observers.
type Status struct {
	State            State
	Phase            string
	Countdown        int
	CountdownEnabled bool
	Current          *badge.Title
	Idling           []badge.Title
	EligibleCount    int
	RemainingDrops   int
	LoadFailures     int
}
