package idle

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/habedi/cardidle/badge"
	"github.com/rs/zerolog/log"
)

// Dependencies are the collaborators the orchestrator drives.
// Stats, Observer and OnComplete are optional.
type Dependencies struct {
	Loader     Loader
	Checker    DropChecker
	Supervisor Supervisor
	Gate       Gate
	Settings   SettingsSource
	Host       Host
	Stats      StatsRecorder
	Observer   func(Status)
	OnComplete func()
	// Rand returns a value in [min, max]. Defaults to math/rand.
	Rand func(min, max int) int
}

// roundRobin tracks a fast mode pass that idles each title alone for a short ping.
type roundRobin struct {
	queue    []string
	pos      int
	stepLeft int
	pinging  *badge.Title
}

// Orchestrator is the idling state machine. All methods must be called from one goroutine;
// Run provides that goroutine and Post is the only method safe to call from elsewhere.
type Orchestrator struct {
	deps      Dependencies
	registry  *badge.Registry
	state     State
	current   *badge.Title
	countdown Countdown
	rr        *roundRobin
	phase     string

	loadFailures int
	reloadLeft   int
	waitLeft     int
	readyLeft    int
	idleSeconds  int

	events chan Event
}

// New creates an orchestrator in the NotStarted state.
func New(deps Dependencies) *Orchestrator {
	if deps.Rand == nil {
		deps.Rand = func(min, max int) int { return min + rand.Intn(max-min+1) }
	}
	return &Orchestrator{
		deps:     deps,
		registry: badge.NewRegistry(),
		state:    StateNotStarted,
		phase:    PhaseWaiting,
		events:   make(chan Event, 16),
	}
}

// Registry exposes the title registry. Only the control goroutine may touch it.
func (o *Orchestrator) Registry() *badge.Registry { return o.registry }

// State returns the current state.
func (o *Orchestrator) State() State { return o.state }

// Current returns the title idled alone, or nil.
func (o *Orchestrator) Current() *badge.Title { return o.current }

// Countdown returns the seconds until the next drop check.
func (o *Orchestrator) Countdown() int { return o.countdown.Remaining() }

// Handle feeds one event into the state machine.
func (o *Orchestrator) Handle(ctx context.Context, ev Event) {
	switch ev {
	case EventTick:
		o.tick(ctx)
	case EventStart:
		o.start(ctx)
	case EventPause:
		o.pause()
	case EventResume:
		o.resume(ctx)
	case EventSkip:
		o.skip(ctx)
	case EventStop:
		o.stop()
	default:
		log.Warn().Int("event", int(ev)).Msg("Ignoring unknown idle event")
	}
	o.publish()
}

// Status returns a snapshot safe to hand to other goroutines.
func (o *Orchestrator) Status() Status {
	f := o.deps.Settings.Snapshot().Filter()
	st := Status{
		State:            o.state,
		Phase:            o.phase,
		Countdown:        o.countdown.Remaining(),
		CountdownEnabled: o.countdown.Enabled(),
		EligibleCount:    o.registry.EligibleCount(f),
		RemainingDrops:   o.registry.TotalRemainingDrops(f),
		LoadFailures:     o.loadFailures,
	}
	if o.current != nil {
		c := *o.current
		st.Current = &c
	}
	for _, t := range o.registry.Titles() {
		if t.InIdle {
			st.Idling = append(st.Idling, *t)
		}
	}
	return st
}

func (o *Orchestrator) publish() {
	if o.deps.Observer != nil {
		o.deps.Observer(o.Status())
	}
}

func (o *Orchestrator) ready() bool {
	return o.deps.Gate.SessionValid() && o.deps.Gate.ClientReady()
}

func (o *Orchestrator) tick(ctx context.Context) {
	switch o.state {
	case StateNotStarted:
		o.readyToGo(ctx)
	case StateReloadBackoff:
		o.reloadLeft--
		if o.reloadLeft > 0 {
			o.phase = fmt.Sprintf(PhaseReloadRetry, o.reloadLeft)
			return
		}
		o.state = StateNotStarted
		o.readyLeft = 0
		o.readyToGo(ctx)
	case StateWaitingForNextTitle:
		o.waitLeft--
		if o.waitLeft <= 0 {
			o.startDecision(ctx)
		}
	case StateFastModeRoundRobin:
		o.countIdleSecond()
		o.stepRoundRobin(ctx)
	case StateSoloActive, StateSimultaneousActive:
		o.countIdleSecond()
		o.dropCheckTick(ctx)
	}
}

// readyToGo polls the session and client while nothing is running.
func (o *Orchestrator) readyToGo(ctx context.Context) {
	if o.readyLeft > 0 {
		o.readyLeft--
		return
	}
	o.readyLeft = ReadyPollSeconds
	if !o.ready() {
		if o.phase != PhaseSignedOut {
			o.phase = PhaseWaiting
		}
		return
	}

	loggedIn, err := o.deps.Loader.IsLoggedIn(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to check login status")
		return
	}
	if loggedIn {
		o.phase = PhaseReadingPage
		if o.loadRegistry(ctx) {
			o.startDecision(ctx)
		}
		return
	}
	if !o.deps.Gate.HasProfile() {
		o.resetSession("not logged in and no profile known")
		return
	}
	if err := o.deps.Loader.RefreshLoginToken(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to refresh login token")
	}
}

// start handles a start request. Before the first load, or after completion, the
// badge pages are read again through the ready gate before anything is decided.
func (o *Orchestrator) start(ctx context.Context) {
	switch o.state {
	case StateReloadBackoff:
		return
	case StateNotStarted, StateComplete:
		if o.state == StateComplete {
			o.phase = PhaseWaiting
		}
		o.state = StateNotStarted
		o.readyLeft = 0
		o.readyToGo(ctx)
	default:
		o.startDecision(ctx)
	}
}

// loadRegistry re-reads the badge pages into the registry. It reports false when the
// load failed, in which case the failure path already ran.
func (o *Orchestrator) loadRegistry(ctx context.Context) bool {
	s := o.deps.Settings.Snapshot()

	if s.WhitelistMode {
		for _, id := range s.Whitelist {
			name := id
			hours := 0.0
			if t := o.registry.Find(id); t != nil {
				name = t.Name
				hours = t.HoursPlayed
			}
			o.registry.Upsert(id, name, badge.Unknown(), hours)
		}
	} else {
		entries, err := o.deps.Loader.LoadTitles(ctx)
		if err != nil {
			o.handleLoadFailure(err)
			return false
		}
		cards := 0
		for _, e := range entries {
			if t := o.registry.Find(e.ID); t != nil {
				cards += droppedCards(t.Remaining, e.Remaining)
			}
			o.registry.Upsert(e.ID, e.Name, e.Remaining, e.HoursPlayed)
		}
		o.recordCards(cards)
	}

	o.loadFailures = 0
	o.phase = PhaseSorting
	o.registry.SortBy(s.Sort)

	log.Info().Int("titles", o.registry.Len()).
		Int("remaining_drops", o.registry.TotalRemainingDrops(s.Filter())).
		Msg("Badge pages loaded")
	return true
}

// droppedCards is how many cards a title gained between two known drop counts.
func droppedCards(before, after badge.DropCount) int {
	if before.IsUnknown() || after.IsUnknown() || after.Value() >= before.Value() {
		return 0
	}
	return before.Value() - after.Value()
}

func (o *Orchestrator) recordCards(n int) {
	if n <= 0 || o.deps.Stats == nil {
		return
	}
	if err := o.deps.Stats.AddCardsIdled(n); err != nil {
		log.Warn().Err(err).Msg("Failed to record idled cards")
	}
}

func (o *Orchestrator) handleLoadFailure(err error) {
	log.Error().Err(err).Int("failures", o.loadFailures+1).Msg("Badge page did not load")
	if errors.Is(err, badge.ErrRetriesExhausted) {
		o.resetSession("badge page kept returning empty responses")
		return
	}
	o.loadFailures++
	if o.loadFailures >= MaxLoadFailures {
		o.resetSession("badge page failed too many times")
		return
	}
	o.stopIdle()
	o.current = nil
	o.rr = nil
	o.state = StateReloadBackoff
	o.reloadLeft = ReloadDelaySeconds
	o.phase = fmt.Sprintf(PhaseReloadRetry, o.reloadLeft)
}

// resetSession stops everything and forgets the session and all titles.
func (o *Orchestrator) resetSession(reason string) {
	log.Warn().Str("reason", reason).Msg("Resetting idling session")
	o.stopIdle()
	if err := o.deps.Gate.Reset(); err != nil {
		log.Error().Err(err).Msg("Failed to reset session")
	}
	o.registry.Clear()
	o.current = nil
	o.rr = nil
	o.loadFailures = 0
	o.reloadLeft = 0
	o.waitLeft = 0
	o.readyLeft = 0
	o.state = StateNotStarted
	o.phase = PhaseSignedOut
}

// startDecision chooses how to idle the eligible titles.
func (o *Orchestrator) startDecision(ctx context.Context) {
	if o.state == StateReloadBackoff {
		return
	}
	if o.state.idling() {
		o.stopIdle()
		o.current = nil
	}
	o.waitLeft = 0
	o.rr = nil

	if !o.ready() {
		o.resetSession("session or client not ready at start")
		return
	}
	if n, err := o.deps.Supervisor.SweepOrphans(); err != nil {
		log.Warn().Err(err).Msg("Failed to sweep leftover helper processes")
	} else if n > 0 {
		log.Info().Int("killed", n).Msg("Killed leftover helper processes")
	}

	s := o.deps.Settings.Snapshot()
	eligible := o.registry.Eligible(s.Filter())
	if len(eligible) == 0 {
		o.complete()
		return
	}

	switch {
	case s.OnlyOneGameIdle:
		o.startSolo(eligible[0], s)
	case s.OneThenMany:
		for _, t := range eligible {
			if t.HoursPlayed >= PlaytimeThresholdHours {
				o.startSolo(t, s)
				return
			}
		}
		o.startMultiple(ctx, s, SimultaneousSeconds)
	default:
		multi := 0
		for _, t := range eligible {
			if t.HoursPlayed < PlaytimeThresholdHours || s.FastMode {
				multi++
			}
		}
		switch {
		case multi >= 2 && s.FastMode:
			o.startRoundRobin(s)
		case multi >= 2:
			o.startMultiple(ctx, s, SimultaneousSeconds)
		default:
			o.startSolo(eligible[0], s)
		}
	}
}

func soloSeconds(t *badge.Title) int {
	if t.Remaining.Is(1) {
		return LastDropSeconds
	}
	return SoloSeconds
}

func (o *Orchestrator) arm(s Settings, seconds int) {
	if s.WhitelistMode {
		o.countdown.Disable()
		return
	}
	o.countdown.Arm(seconds)
}

func (o *Orchestrator) startSolo(t *badge.Title, s Settings) {
	o.current = t
	o.idleTitle(t)
	o.state = StateSoloActive
	o.phase = PhaseIdling
	o.arm(s, soloSeconds(t))
	log.Info().Str("title", t.String()).Str("drops", t.Remaining.String()).Msg("Idling title alone")
}

func (o *Orchestrator) startMultiple(ctx context.Context, s Settings, seconds int) {
	o.current = nil
	o.state = StateSimultaneousActive
	o.phase = PhaseIdling
	o.updateIdling(ctx, s)
	if o.state != StateSimultaneousActive {
		return
	}
	o.arm(s, seconds)
	log.Info().Int("titles", o.idlingCount()).Msg("Idling titles simultaneously")
}

// updateIdling brings the running helpers in line with the eligible set.
func (o *Orchestrator) updateIdling(ctx context.Context, s Settings) {
	f := s.Filter()
	for _, t := range o.registry.Titles() {
		if t.InIdle && !badge.CanIdle(t, f) {
			o.stopTitle(t)
		}
	}

	running := o.idlingCount()
	for _, t := range o.registry.Eligible(f) {
		if !s.FastMode && t.HoursPlayed >= PlaytimeThresholdHours {
			if t.InIdle {
				o.stopTitle(t)
				running--
			}
			continue
		}
		if !t.InIdle && running < MaxSimultaneous && o.idleTitle(t) {
			running++
		}
	}

	if running == 0 {
		o.nextIdle(ctx)
	}
}

func (o *Orchestrator) idlingCount() int {
	n := 0
	for _, t := range o.registry.Titles() {
		if t.InIdle {
			n++
		}
	}
	return n
}

func (o *Orchestrator) idleTitle(t *badge.Title) bool {
	if err := o.deps.Supervisor.Start(*t); err != nil {
		log.Error().Err(err).Str("title", t.String()).Msg("Failed to start helper process")
		t.InIdle = false
		return false
	}
	t.InIdle = true
	return true
}

func (o *Orchestrator) stopTitle(t *badge.Title) {
	if err := o.deps.Supervisor.Stop(t.ID); err != nil {
		log.Warn().Err(err).Str("title", t.String()).Msg("Failed to stop helper process")
	}
	t.InIdle = false
}

func (o *Orchestrator) stopIdle() {
	o.countdown.Disable()
	for _, t := range o.registry.Titles() {
		t.InIdle = false
	}
	o.deps.Supervisor.StopAll()
}

// nextIdle stops the current title and schedules the next start decision.
func (o *Orchestrator) nextIdle(ctx context.Context) {
	o.stopIdle()
	o.current = nil
	if !o.ready() {
		o.resetSession("session or client lost")
		return
	}
	if o.registry.EligibleCount(o.deps.Settings.Snapshot().Filter()) == 0 {
		o.complete()
		return
	}
	o.state = StateWaitingForNextTitle
	o.phase = PhaseLoadingNext
	o.waitLeft = o.deps.Rand(MinNextTitleWait, MaxNextTitleWait)
}

func (o *Orchestrator) countIdleSecond() {
	o.idleSeconds++
	if o.idleSeconds%secondsPerMinute != 0 || o.deps.Stats == nil {
		return
	}
	if err := o.deps.Stats.AddMinutesIdled(1); err != nil {
		log.Warn().Err(err).Msg("Failed to record idle minute")
	}
}

// dropCheckTick advances the countdown and runs the drop check when it expires.
func (o *Orchestrator) dropCheckTick(ctx context.Context) {
	s := o.deps.Settings.Snapshot()
	if s.WhitelistMode {
		o.countdown.Disable()
		return
	}
	if !o.countdown.Tick() {
		return
	}

	o.phase = PhaseCheckingDrops
	if cur := o.current; cur != nil {
		if !cur.InIdle {
			o.idleTitle(cur)
		}
		remaining, err := o.deps.Checker.CheckDrops(ctx, cur.ID)
		switch {
		case errors.Is(err, badge.ErrRetriesExhausted):
			log.Error().Err(err).Str("title", cur.String()).Msg("Drop check kept returning empty responses")
			o.resetSession("gamecard page kept returning empty responses")
			return
		case err != nil:
			log.Warn().Err(err).Str("title", cur.String()).Msg("Drop check failed, keeping title")
			o.countdown.Arm(soloSeconds(cur))
			o.phase = PhaseIdling
		case remaining.CanDrop():
			o.recordCards(droppedCards(cur.Remaining, remaining))
			cur.Remaining = remaining
			o.countdown.Arm(soloSeconds(cur))
			o.phase = PhaseIdling
		default:
			o.recordCards(droppedCards(cur.Remaining, remaining))
			cur.Remaining = remaining
			log.Info().Str("title", cur.String()).Msg("No card drops remaining")
			o.nextIdle(ctx)
		}
	}

	if !o.state.idling() {
		return
	}

	f := s.Filter()
	multiple := false
	for _, t := range o.registry.Eligible(f) {
		if t != o.current && t.InIdle {
			multiple = true
			break
		}
	}

	if multiple {
		o.phase = PhaseReadingPage
		if !o.loadRegistry(ctx) {
			return
		}
		s = o.deps.Settings.Snapshot()
		f = s.Filter()
		if o.registry.EligibleCount(f) == 0 {
			o.complete()
			return
		}
		if s.FastMode {
			o.startRoundRobin(s)
			return
		}
		o.updateIdling(ctx, s)
		if o.state != StateSimultaneousActive {
			return
		}
		o.phase = PhaseIdling
		for _, t := range o.registry.Eligible(f) {
			if t.InIdle && t.HoursPlayed < PlaytimeThresholdHours {
				o.countdown.Arm(SimultaneousSeconds)
				break
			}
		}
	} else if o.state == StateSimultaneousActive {
		o.nextIdle(ctx)
		return
	}

	if !o.ready() {
		o.resetSession("session or client lost")
		return
	}
	if o.registry.EligibleCount(f) == 0 {
		o.complete()
	}
}

func (o *Orchestrator) startRoundRobin(s Settings) {
	o.stopIdle()
	o.current = nil
	var queue []string
	for _, t := range o.registry.Eligible(s.Filter()) {
		if len(queue) == MaxSimultaneous {
			break
		}
		queue = append(queue, t.ID)
	}
	o.rr = &roundRobin{queue: queue, pos: -1, stepLeft: PingSeconds}
	o.state = StateFastModeRoundRobin
	o.phase = PhaseLoadingNext
	log.Info().Int("titles", len(queue)).Msg("Starting fast mode round robin")
}

// stepRoundRobin advances the ping pass by one second. A pause clears o.rr and
// leaves this state, so the remaining titles are never pinged.
func (o *Orchestrator) stepRoundRobin(ctx context.Context) {
	rr := o.rr
	if rr == nil {
		return
	}
	o.countdown.Tick()
	rr.stepLeft--
	if rr.stepLeft > 0 {
		return
	}
	if rr.pinging != nil {
		o.stopTitle(rr.pinging)
		rr.pinging = nil
	}

	s := o.deps.Settings.Snapshot()
	f := s.Filter()
	for rr.pos++; rr.pos < len(rr.queue); rr.pos++ {
		t := o.registry.Find(rr.queue[rr.pos])
		if t == nil || !badge.CanIdle(t, f) {
			continue
		}
		o.current = t
		rr.pinging = t
		rr.stepLeft = PingSeconds
		o.idleTitle(t)
		o.countdown.Arm(PingSeconds)
		o.phase = PhaseIdling
		return
	}

	o.rr = nil
	o.current = nil
	o.startMultiple(ctx, s, FastModeSimultaneousSeconds)
}

func (o *Orchestrator) pause() {
	if !o.deps.Gate.ClientReady() {
		return
	}
	if !o.state.idling() && o.state != StateWaitingForNextTitle {
		return
	}
	o.stopIdle()
	o.rr = nil
	o.waitLeft = 0
	o.state = StatePaused
	o.phase = PhasePaused
	log.Info().Msg("Idling paused")
}

func (o *Orchestrator) stop() {
	o.stopIdle()
	o.current = nil
	o.rr = nil
	o.waitLeft = 0
	if o.state != StateNotStarted && o.state != StateReloadBackoff {
		o.state = StatePaused
		o.phase = PhasePaused
	}
}

func (o *Orchestrator) resume(ctx context.Context) {
	if o.state != StatePaused {
		return
	}
	log.Info().Msg("Idling resumed")
	o.startDecision(ctx)
}

func (o *Orchestrator) skip(ctx context.Context) {
	if !o.deps.Gate.ClientReady() {
		return
	}
	switch o.state {
	case StateNotStarted, StateReloadBackoff:
		return
	}

	o.stopIdle()
	if cur := o.current; cur != nil {
		log.Info().Str("title", cur.String()).Msg("Skipping title")
		o.registry.Remove(func(t *badge.Title) bool { return t.ID == cur.ID })
		o.current = nil
	}
	o.rr = nil

	if o.registry.EligibleCount(o.deps.Settings.Snapshot().Filter()) == 0 {
		o.phase = PhaseReadingPage
		if !o.loadRegistry(ctx) {
			return
		}
	}
	o.startDecision(ctx)
}

func (o *Orchestrator) complete() {
	o.stopIdle()
	o.current = nil
	o.rr = nil
	o.state = StateComplete
	o.phase = PhaseComplete
	log.Info().Msg("Idling complete")

	shutdown, err := o.deps.Settings.ConsumeShutdownOnDone()
	if err != nil {
		log.Error().Err(err).Msg("Failed to read shutdown setting")
	}
	if shutdown && o.deps.Host != nil {
		if err := o.deps.Host.RequestShutdown(ShutdownDelay, ShutdownMessage); err != nil {
			log.Error().Err(err).Msg("Failed to request shutdown")
		}
	}
	if o.deps.OnComplete != nil {
		o.deps.OnComplete()
	}
}
