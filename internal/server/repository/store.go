package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repositories groups the per-table repositories bound to one *gorm.DB,
// either the pool or an open transaction.
type Repositories struct {
	Plans        *PlanRepository
	Options      *OptionRepository
	Votes        *VoteRepository
	Participants *ParticipantRepository
	RSVPs        *RSVPRepository
}

func newRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Plans:        NewPlanRepository(db),
		Options:      NewOptionRepository(db),
		Votes:        NewVoteRepository(db),
		Participants: NewParticipantRepository(db),
		RSVPs:        NewRSVPRepository(db),
	}
}

// Store is the persistence entry point used by the services
type Store struct {
	db    *gorm.DB
	repos *Repositories
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, repos: newRepositories(db)}
}

// Repos returns repositories running outside of any transaction
func (s *Store) Repos() *Repositories {
	return s.repos
}

// Transaction runs fn in a single database transaction. Any error returned by
// fn rolls the whole unit of work back.
func (s *Store) Transaction(ctx context.Context, fn func(r *Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newRepositories(tx))
	})
}

// DB exposes the underlying connection for migrations and health checks
func (s *Store) DB() *gorm.DB {
	return s.db
}
