package proc

import (
	"errors"
	"fmt"
	"sync"

	"github.com/habedi/cardidle/badge"
	"github.com/rs/zerolog/log"
)

// ErrNoHelper is returned when no helper executable is configured.
var ErrNoHelper = errors.New("no idle helper configured")

// Supervisor owns one helper process per idling title.
type Supervisor struct {
	helperPath string
	launcher   Launcher
	table      ProcessTable

	mu      sync.Mutex
	running map[string]Handle
}

// NewSupervisor creates a supervisor launching helperPath with the title ID as its only argument.
func NewSupervisor(helperPath string, launcher Launcher, table ProcessTable) *Supervisor {
	if launcher == nil {
		launcher = ExecLauncher{}
	}
	if table == nil {
		table = SystemTable{}
	}
	return &Supervisor{
		helperPath: helperPath,
		launcher:   launcher,
		table:      table,
		running:    make(map[string]Handle),
	}
}

// Start launches the helper for t. Starting a title that already runs is a no-op.
func (s *Supervisor) Start(t badge.Title) error {
	if s.helperPath == "" {
		return ErrNoHelper
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.running[t.ID]; ok {
		return nil
	}

	h, err := s.launcher.Launch(s.helperPath, t.ID)
	if err != nil {
		return fmt.Errorf("failed to idle %s: %w", &t, err)
	}
	s.running[t.ID] = h
	log.Debug().Str("title", t.String()).Int("pid", h.Pid()).Msg("Helper started")

	go s.reap(t.ID, h)
	return nil
}

// reap forgets a helper once it exits on its own.
func (s *Supervisor) reap(id string, h Handle) {
	err := h.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[id] == h {
		delete(s.running, id)
		log.Debug().Err(err).Str("id", id).Msg("Helper exited")
	}
}

// Stop kills the helper for id if it runs.
func (s *Supervisor) Stop(id string) error {
	s.mu.Lock()
	h, ok := s.running[id]
	delete(s.running, id)
	s.mu.Unlock()

	if !ok {
		return nil
	}
	if err := h.Kill(); err != nil {
		return fmt.Errorf("failed to stop helper for %s: %w", id, err)
	}
	return nil
}

func (s *Supervisor) IsRunning(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.running[id]
	return ok
}

// Running returns the IDs of all tracked helpers.
func (s *Supervisor) Running() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.running))
	for id := range s.running {
		ids = append(ids, id)
	}
	return ids
}

// StopAll kills every tracked helper. Kill errors are logged.
func (s *Supervisor) StopAll() {
	s.mu.Lock()
	handles := s.running
	s.running = make(map[string]Handle)
	s.mu.Unlock()

	for id, h := range handles {
		if err := h.Kill(); err != nil {
			log.Warn().Err(err).Str("id", id).Msg("Failed to stop helper")
		}
	}
}

// SweepOrphans kills helper processes owned by the current user that this supervisor
// does not track, typically left over from a crashed run. It returns how many it killed.
func (s *Supervisor) SweepOrphans() (int, error) {
	if s.helperPath == "" {
		return 0, nil
	}
	me, err := s.table.CurrentUser()
	if err != nil {
		return 0, err
	}
	procs, err := s.table.List()
	if err != nil {
		return 0, err
	}

	tracked := make(map[int32]bool)
	s.mu.Lock()
	for _, h := range s.running {
		tracked[int32(h.Pid())] = true //nolint:gosec // PIDs fit in int32
	}
	s.mu.Unlock()

	want := baseName(s.helperPath)
	killed := 0
	var errs []error
	for _, p := range procs {
		if baseName(p.Name) != want || p.Username != me || tracked[p.Pid] {
			continue
		}
		if err := s.table.Kill(p.Pid); err != nil {
			errs = append(errs, err)
			continue
		}
		killed++
	}
	return killed, errors.Join(errs...)
}
