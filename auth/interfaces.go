package auth

import "github.com/habedi/cardidle/db"

// SessionStorer stores and retrieves the signed-in session.
type SessionStorer interface {
	GetSession() (*db.Session, error)
	UpsertSession(s *db.Session) error
	ClearSession() error
}

// ClientChecker reports whether the desktop client is running.
type ClientChecker interface {
	Ready() bool
}
