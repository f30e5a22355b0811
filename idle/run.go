package idle

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Post queues a command for the control goroutine. It never blocks; a full queue drops the event.
func (o *Orchestrator) Post(ev Event) bool {
	select {
	case o.events <- ev:
		return true
	default:
		log.Warn().Stringer("event", ev).Msg("Idle event queue full, dropping event")
		return false
	}
}

// Run drives the state machine until ctx is cancelled. It starts idling right away and
// then feeds one tick per second. Ticks that arrive while a previous tick is still being
// handled are dropped by the ticker, so a slow network call delays the countdown
// instead of bursting it.
func (o *Orchestrator) Run(ctx context.Context, clock clockwork.Clock) error {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	ticker := clock.NewTicker(time.Second)
	defer ticker.Stop()
	defer o.stopIdle()

	o.Handle(ctx, EventTick)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Stopping idler")
			return ctx.Err()
		case ev := <-o.events:
			o.Handle(ctx, ev)
		case <-ticker.Chan():
			o.Handle(ctx, EventTick)
		}
	}
}
