package db

import (
	"time"

	"github.com/habedi/cardidle/badge"
)

// Session holds the community cookies of the signed-in account. There is at most one row.
type Session struct {
	ID              uint   `gorm:"primaryKey"`
	SessionID       string `json:"sessionid"`
	LoginSecure     string `json:"steamLoginSecure"`
	Parental        string `json:"steamparental,omitempty"`
	MachineAuthName string `json:"machine_auth_name,omitempty"`
	MachineAuth     string `json:"machine_auth,omitempty"`
	RememberLogin   string `json:"steamRememberLogin,omitempty"`
	ProfileURL      string `json:"profile_url"`
	SteamID         string `json:"steam_id,omitempty"`
	PersonaName     string `json:"persona_name,omitempty"`
	UpdatedAt       time.Time
}

// Valid reports whether the session carries the cookies required to read badge pages.
func (s *Session) Valid() bool {
	return s != nil && s.SessionID != "" && s.LoginSecure != ""
}

// Title is the cached result of the last badge page scrape.
type Title struct {
	ID          string `gorm:"primaryKey"`
	Name        string
	Remaining   int
	Unknown     bool
	HoursPlayed float64
	Position    int
	UpdatedAt   time.Time
}

// ToEntry converts the row to a scrape entry.
func (t Title) ToEntry() badge.Entry {
	drops := badge.Known(t.Remaining)
	if t.Unknown {
		drops = badge.Unknown()
	}
	return badge.Entry{ID: t.ID, Name: t.Name, Remaining: drops, HoursPlayed: t.HoursPlayed}
}

// TitleFromEntry converts a scrape entry to a row at position pos.
func TitleFromEntry(e badge.Entry, pos int) Title {
	return Title{
		ID:          e.ID,
		Name:        e.Name,
		Remaining:   e.Remaining.Value(),
		Unknown:     e.Remaining.IsUnknown(),
		HoursPlayed: e.HoursPlayed,
		Position:    pos,
	}
}

// Statistics are the lifetime idling totals. There is at most one row.
type Statistics struct {
	ID           uint `gorm:"primaryKey"`
	MinutesIdled int
	CardsIdled   int
	UpdatedAt    time.Time
}
