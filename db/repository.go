package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/habedi/cardidle/badge"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const singletonID = 1

var errNotInitialized = errors.New("repository not initialized")

// SessionRepository persists the signed-in session.
type SessionRepository interface {
	Get(ctx context.Context) (*Session, error)
	Upsert(ctx context.Context, s *Session) error
	Clear(ctx context.Context) error
}

// TitleRepository caches the last scrape so the CLI can list titles offline.
type TitleRepository interface {
	ReplaceAll(ctx context.Context, entries []badge.Entry) error
	List(ctx context.Context) ([]badge.Entry, error)
	Clear(ctx context.Context) error
}

// StatsRepository persists idling totals.
type StatsRepository interface {
	Get(ctx context.Context) (Statistics, error)
	AddMinutes(ctx context.Context, n int) error
	AddCards(ctx context.Context, n int) error
}

type gormSessionRepo struct{ db *gorm.DB }
type gormTitleRepo struct{ db *gorm.DB }
type gormStatsRepo struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &gormSessionRepo{db: db} }
func NewTitleRepository(db *gorm.DB) TitleRepository     { return &gormTitleRepo{db: db} }
func NewStatsRepository(db *gorm.DB) StatsRepository     { return &gormStatsRepo{db: db} }

// Get returns the stored session, or nil when nobody signed in.
func (r *gormSessionRepo) Get(ctx context.Context) (*Session, error) {
	if r.db == nil {
		return nil, errNotInitialized
	}
	var s Session
	err := r.db.WithContext(ctx).First(&s, singletonID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *gormSessionRepo) Upsert(ctx context.Context, s *Session) error {
	if r.db == nil {
		return errNotInitialized
	}
	if s == nil {
		return fmt.Errorf("nil session")
	}
	s.ID = singletonID
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(s).Error
}

func (r *gormSessionRepo) Clear(ctx context.Context) error {
	if r.db == nil {
		return errNotInitialized
	}
	return r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Session{}).Error
}

// ReplaceAll swaps the cached titles for entries, keeping their order.
func (r *gormTitleRepo) ReplaceAll(ctx context.Context, entries []badge.Entry) error {
	if r.db == nil {
		return errNotInitialized
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Title{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		rows := make([]Title, len(entries))
		for i, e := range entries {
			rows[i] = TitleFromEntry(e, i)
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(rows, 100).Error
	})
}

func (r *gormTitleRepo) List(ctx context.Context) ([]badge.Entry, error) {
	if r.db == nil {
		return nil, errNotInitialized
	}
	var rows []Title
	if err := r.db.WithContext(ctx).Order("position").Find(&rows).Error; err != nil {
		return nil, err
	}
	entries := make([]badge.Entry, len(rows))
	for i, row := range rows {
		entries[i] = row.ToEntry()
	}
	return entries, nil
}

func (r *gormTitleRepo) Clear(ctx context.Context) error {
	if r.db == nil {
		return errNotInitialized
	}
	return r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Title{}).Error
}

func (r *gormStatsRepo) Get(ctx context.Context) (Statistics, error) {
	if r.db == nil {
		return Statistics{}, errNotInitialized
	}
	var s Statistics
	err := r.db.WithContext(ctx).First(&s, singletonID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Statistics{ID: singletonID}, nil
	}
	return s, err
}

func (r *gormStatsRepo) AddMinutes(ctx context.Context, n int) error {
	return r.add(ctx, "minutes_idled", n)
}

func (r *gormStatsRepo) AddCards(ctx context.Context, n int) error {
	return r.add(ctx, "cards_idled", n)
}

func (r *gormStatsRepo) add(ctx context.Context, column string, n int) error {
	if r.db == nil {
		return errNotInitialized
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var s Statistics
		if err := tx.FirstOrCreate(&s, Statistics{ID: singletonID}).Error; err != nil {
			return err
		}
		return tx.Model(&s).UpdateColumn(column, gorm.Expr(column+" + ?", n)).Error
	})
}
