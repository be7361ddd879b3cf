package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"hangout-service/internal/adapters/database"
	"hangout-service/internal/models"
	"hangout-service/internal/server/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// recordingDispatcher keeps every event it receives and can be told to fail
type recordingDispatcher struct {
	mu     sync.Mutex
	events []models.PlanEvent
	err    error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, event models.PlanEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return d.err
}

func (d *recordingDispatcher) types() []models.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]models.EventType, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.Type)
	}
	return out
}

func (d *recordingDispatcher) count(t models.EventType) int {
	n := 0
	for _, et := range d.types() {
		if et == t {
			n++
		}
	}
	return n
}

type recordingArchiver struct {
	mu        sync.Mutex
	snapshots []*models.PlanSnapshot
	err       error
}

func (a *recordingArchiver) Archive(_ context.Context, snapshot *models.PlanSnapshot) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.snapshots = append(a.snapshots, snapshot)
	return a.err
}

func (a *recordingArchiver) archived() []*models.PlanSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*models.PlanSnapshot(nil), a.snapshots...)
}

type testEnv struct {
	ctx          context.Context
	store        *repository.Store
	dispatcher   *recordingDispatcher
	archiver     *recordingArchiver
	participants *ParticipantService
	hangouts     *HangoutService
	polls        *PollService
	rsvps        *RSVPService
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	// One connection keeps the in-memory database alive and serializes transactions.
	// SQLite also drops FOR UPDATE, so row locking is only exercised by the
	// postgres tests in locking_test.go.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithDB(t, newTestDB(t))
}

func newTestEnvWithDB(t *testing.T, db *gorm.DB) *testEnv {
	t.Helper()
	store := repository.NewStore(db)
	dispatcher := &recordingDispatcher{}
	archiver := &recordingArchiver{}
	pub := NewPublisher(store, dispatcher, archiver)
	hangouts := NewHangoutService(store, pub)

	return &testEnv{
		ctx:          context.Background(),
		store:        store,
		dispatcher:   dispatcher,
		archiver:     archiver,
		participants: NewParticipantService(store, pub),
		hangouts:     hangouts,
		polls:        NewPollService(store, hangouts, pub),
		rsvps:        NewRSVPService(store, pub),
	}
}

func member(userID uint) Actor {
	return Actor{UserID: userID, CanAccess: true}
}

func options(titles ...string) []models.AddOptionRequest {
	out := make([]models.AddOptionRequest, 0, len(titles))
	for _, title := range titles {
		out = append(out, models.AddOptionRequest{Title: title})
	}
	return out
}

// votingPlan creates a plan owned by user 1 that is already open for voting,
// with users 2..participants joined as plain members
func (e *testEnv) votingPlan(t *testing.T, participants int, cfg *models.ConsensusConfigRequest, titles ...string) *models.PlanDetail {
	t.Helper()
	detail, err := e.hangouts.CreatePlan(e.ctx, 1, models.CreatePlanRequest{
		Title:       "Friday dinner",
		Consensus:   cfg,
		Options:     options(titles...),
		StartVoting: true,
	})
	require.NoError(t, err)
	require.Equal(t, models.PhaseVoting, detail.Plan.Phase)

	for uid := uint(2); uid <= uint(participants); uid++ {
		_, err := e.participants.EnsureParticipant(e.ctx, detail.Plan.ID, member(uid))
		require.NoError(t, err)
	}
	return detail
}

// quickPlan creates a single-option plan owned by user 1, which lands in RSVP
func (e *testEnv) quickPlan(t *testing.T, deadline *time.Time) *models.PlanDetail {
	t.Helper()
	detail, err := e.hangouts.CreatePlan(e.ctx, 1, models.CreatePlanRequest{
		Title:        "Coffee",
		Options:      options("Blue Bottle"),
		RSVPDeadline: deadline,
	})
	require.NoError(t, err)
	require.Equal(t, models.PhaseRSVP, detail.Plan.Phase)
	return detail
}

func (e *testEnv) vote(t *testing.T, planID, optionID, userID uint) *models.VoteResult {
	t.Helper()
	res, err := e.polls.CastVote(e.ctx, planID, optionID, member(userID), "", models.DefaultVoteWeight)
	require.NoError(t, err)
	return res
}

func float(v float64) *float64 { return &v }

func integer(v int) *int { return &v }

func boolean(v bool) *bool { return &v }

func voteType(v models.VoteType) *models.VoteType { return &v }
