package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/habedi/cardidle/db"
	"github.com/rs/zerolog/log"
)

// ErrNotLoggedIn is returned when no session is stored.
var ErrNotLoggedIn = errors.New("not logged in; run 'cardidle login' first")

// Service owns the stored session and gates idling on it and on the desktop client.
type Service struct {
	Storer SessionStorer
	Client ClientChecker

	mu     sync.Mutex
	cached *db.Session
	loaded bool
}

// NewService is the constructor for the auth service.
func NewService(storer SessionStorer, client ClientChecker) *Service {
	return &Service{Storer: storer, Client: client}
}

// NewServiceWithRepo constructs a Service over a SessionRepository.
func NewServiceWithRepo(repo db.SessionRepository, client ClientChecker) *Service {
	return NewService(&sessionRepoStorer{repo: repo}, client)
}

// Session returns the stored session, or ErrNotLoggedIn.
func (s *Service) Session() (*db.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		sess, err := s.Storer.GetSession()
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve session: %w", err)
		}
		s.cached = sess
		s.loaded = true
	}
	if s.cached == nil {
		return nil, ErrNotLoggedIn
	}
	c := *s.cached
	return &c, nil
}

// SaveSession persists sess and makes it the current session.
func (s *Service) SaveSession(sess *db.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.Storer.UpsertSession(sess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	c := *sess
	s.cached = &c
	s.loaded = true
	return nil
}

// SessionValid reports whether the stored session has the required cookies.
func (s *Service) SessionValid() bool {
	sess, err := s.Session()
	if err != nil {
		if !errors.Is(err, ErrNotLoggedIn) {
			log.Warn().Err(err).Msg("Failed to read session")
		}
		return false
	}
	return sess.Valid()
}

// ClientReady reports whether the desktop client is running.
func (s *Service) ClientReady() bool {
	if s.Client == nil {
		return true
	}
	return s.Client.Ready()
}

// HasProfile reports whether the profile URL is known.
func (s *Service) HasProfile() bool {
	sess, err := s.Session()
	return err == nil && sess.ProfileURL != ""
}

// Reset forgets the session so the user has to sign in again.
func (s *Service) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = nil
	s.loaded = true
	if err := s.Storer.ClearSession(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	log.Info().Msg("Session cleared")
	return nil
}

// sessionRepoStorer adapts db.SessionRepository to SessionStorer.
type sessionRepoStorer struct{ repo db.SessionRepository }

func (s *sessionRepoStorer) GetSession() (*db.Session, error) {
	return s.repo.Get(context.Background())
}

func (s *sessionRepoStorer) UpsertSession(sess *db.Session) error {
	return s.repo.Upsert(context.Background(), sess)
}

func (s *sessionRepoStorer) ClearSession() error {
	return s.repo.Clear(context.Background())
}
