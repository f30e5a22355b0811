package idle

import (
	"context"
	"sync"
	"time"

	"github.com/habedi/cardidle/badge"
)

type fakeLoader struct {
	mu        sync.Mutex
	entries   []badge.Entry
	err       error
	loggedIn  bool
	loads     int
	refreshes int
}

func (f *fakeLoader) IsLoggedIn(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loggedIn, nil
}

func (f *fakeLoader) RefreshLoginToken(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return nil
}

func (f *fakeLoader) LoadTitles(context.Context) ([]badge.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.err != nil {
		return nil, f.err
	}
	return append([]badge.Entry(nil), f.entries...), nil
}

func (f *fakeLoader) set(entries ...badge.Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = entries
}

type fakeChecker struct {
	results map[string][]badge.DropCount
	calls   []string
}

func (f *fakeChecker) CheckDrops(_ context.Context, id string) (badge.DropCount, error) {
	f.calls = append(f.calls, id)
	queue := f.results[id]
	if len(queue) == 0 {
		return badge.Known(0), nil
	}
	f.results[id] = queue[1:]
	return queue[0], nil
}

type fakeSupervisor struct {
	mu       sync.Mutex
	running  map[string]bool
	started  []string
	stopAlls int
	sweeps   int
}

func newFakeSupervisor() *fakeSupervisor {
	return &fakeSupervisor{running: map[string]bool{}}
}

func (f *fakeSupervisor) Start(t badge.Title) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running[t.ID] {
		f.started = append(f.started, t.ID)
	}
	f.running[t.ID] = true
	return nil
}

func (f *fakeSupervisor) Stop(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.running, id)
	return nil
}

func (f *fakeSupervisor) IsRunning(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running[id]
}

func (f *fakeSupervisor) StopAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = map[string]bool{}
	f.stopAlls++
}

func (f *fakeSupervisor) SweepOrphans() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sweeps++
	return 0, nil
}

func (f *fakeSupervisor) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.running)
}

type fakeGate struct {
	session bool
	client  bool
	profile bool
	resets  int
}

func (f *fakeGate) SessionValid() bool { return f.session }
func (f *fakeGate) ClientReady() bool  { return f.client }
func (f *fakeGate) HasProfile() bool   { return f.profile }

func (f *fakeGate) Reset() error {
	f.resets++
	f.session = false
	f.profile = false
	return nil
}

type fakeSettings struct {
	settings Settings
	shutdown bool
}

func (f *fakeSettings) Snapshot() Settings { return f.settings }

func (f *fakeSettings) ConsumeShutdownOnDone() (bool, error) {
	v := f.shutdown
	f.shutdown = false
	return v, nil
}

type fakeHost struct {
	requests []time.Duration
	message  string
}

func (f *fakeHost) RequestShutdown(delay time.Duration, message string) error {
	f.requests = append(f.requests, delay)
	f.message = message
	return nil
}

type fakeStats struct {
	minutes int
	cards   int
}

func (f *fakeStats) AddMinutesIdled(n int) error {
	f.minutes += n
	return nil
}

func (f *fakeStats) AddCardsIdled(n int) error {
	f.cards += n
	return nil
}

type harness struct {
	o         *Orchestrator
	loader    *fakeLoader
	checker   *fakeChecker
	sup       *fakeSupervisor
	gate      *fakeGate
	settings  *fakeSettings
	host      *fakeHost
	stats     *fakeStats
	completed int
}

func newHarness(s Settings, entries ...badge.Entry) *harness {
	h := &harness{
		loader:   &fakeLoader{entries: entries, loggedIn: true},
		checker:  &fakeChecker{results: map[string][]badge.DropCount{}},
		sup:      newFakeSupervisor(),
		gate:     &fakeGate{session: true, client: true, profile: true},
		settings: &fakeSettings{settings: s},
		host:     &fakeHost{},
		stats:    &fakeStats{},
	}
	h.o = New(Dependencies{
		Loader:     h.loader,
		Checker:    h.checker,
		Supervisor: h.sup,
		Gate:       h.gate,
		Settings:   h.settings,
		Host:       h.host,
		Stats:      h.stats,
		OnComplete: func() { h.completed++ },
		Rand:       func(min, _ int) int { return min },
	})
	return h
}

func (h *harness) ticks(n int) {
	for i := 0; i < n; i++ {
		h.o.Handle(context.Background(), EventTick)
	}
}

func entry(id string, drops int, hours float64) badge.Entry {
	return badge.Entry{ID: id, Name: "Title " + id, Remaining: badge.Known(drops), HoursPlayed: hours}
}
