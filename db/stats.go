package db

import (
	"context"
	"time"
)

// StatsRecorder adapts a StatsRepository to the orchestrator's recorder.
type StatsRecorder struct {
	Repo    StatsRepository
	Timeout time.Duration
}

func (s StatsRecorder) ctx() (context.Context, context.CancelFunc) {
	timeout := s.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}

func (s StatsRecorder) AddMinutesIdled(n int) error {
	ctx, cancel := s.ctx()
	defer cancel()
	return s.Repo.AddMinutes(ctx, n)
}

func (s StatsRecorder) AddCardsIdled(n int) error {
	ctx, cancel := s.ctx()
	defer cancel()
	return s.Repo.AddCards(ctx, n)
}
