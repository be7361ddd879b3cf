package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"hangout-service/internal/adapters/database"
	"hangout-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return NewStore(db)
}

func createPlan(t *testing.T, s *Store, phase models.Phase) *models.Plan {
	t.Helper()
	plan := &models.Plan{
		Title:     "Board games",
		Phase:     phase,
		CreatorID: 1,
		Privacy:   models.PrivacyPublic,
		Consensus: models.DefaultConsensusConfig(),
	}
	require.NoError(t, s.Repos().Plans.Create(context.Background(), plan))
	return plan
}

func TestTransactionRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	plan := createPlan(t, s, models.PhasePlanning)

	boom := errors.New("boom")
	err := s.Transaction(ctx, func(r *Repositories) error {
		locked, err := r.Plans.LockByID(ctx, plan.ID)
		require.NoError(t, err)
		locked.Title = "Renamed"
		require.NoError(t, r.Plans.Save(ctx, locked))
		require.NoError(t, r.Options.Create(ctx, &models.Option{PlanID: plan.ID, Title: "Catan"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Repos().Plans.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, "Board games", got.Title)

	count, err := s.Repos().Options.Count(ctx, plan.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLockByIDMissingPlan(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Transaction(ctx, func(r *Repositories) error {
		_, err := r.Plans.LockByID(ctx, 42)
		return err
	})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestOptionOrdinalsSurviveRemoval(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	plan := createPlan(t, s, models.PhasePlanning)
	repo := s.Repos().Options

	next, err := repo.NextOrdinal(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, next)

	first := &models.Option{PlanID: plan.ID, Title: "Catan", Ordinal: 0}
	second := &models.Option{PlanID: plan.ID, Title: "Azul", Ordinal: 1}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Delete(ctx, second))

	next, err = repo.NextOrdinal(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, next, "a removed option keeps its ordinal")

	live, err := repo.ListByPlan(ctx, plan.ID)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, first.ID, live[0].ID)

	_, err = repo.GetInPlan(ctx, plan.ID, second.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	other := createPlan(t, s, models.PhasePlanning)
	_, err = repo.GetInPlan(ctx, other.ID, first.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound, "options are scoped to their plan")
}

func TestVotesDeleteByOption(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	plan := createPlan(t, s, models.PhaseVoting)
	option := &models.Option{PlanID: plan.ID, Title: "Catan"}
	require.NoError(t, s.Repos().Options.Create(ctx, option))

	votes := s.Repos().Votes
	for _, uid := range []uint{3, 1, 2} {
		require.NoError(t, votes.Create(ctx, &models.Vote{
			PlanID: plan.ID, OptionID: option.ID, UserID: uid,
			VoteType: models.VoteTypeSingle, Weight: models.DefaultVoteWeight,
		}))
	}

	dup := &models.Vote{PlanID: plan.ID, OptionID: option.ID, UserID: 1, VoteType: models.VoteTypeSingle, Weight: 1}
	assert.Error(t, votes.Create(ctx, dup), "one vote per user and option")

	found, err := votes.Find(ctx, plan.ID, option.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, uint(2), found.UserID)

	removed, err := votes.DeleteByOption(ctx, plan.ID, option.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	remaining, err := votes.ListByPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestRSVPUpsertAndPending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	plan := createPlan(t, s, models.PhaseRSVP)
	repo := s.Repos().RSVPs

	require.NoError(t, repo.CreatePending(ctx, plan.ID, 2))
	require.NoError(t, repo.CreatePending(ctx, plan.ID, 2))

	now := time.Now().UTC()
	require.NoError(t, repo.Upsert(ctx, &models.RSVP{PlanID: plan.ID, UserID: 2, Status: models.RSVPYes, RespondedAt: &now}))
	require.NoError(t, repo.CreatePending(ctx, plan.ID, 2), "pending never overwrites an answer")

	got, err := repo.Get(ctx, plan.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, models.RSVPYes, got.Status)
	require.NotNil(t, got.RespondedAt)

	require.NoError(t, repo.Upsert(ctx, &models.RSVP{PlanID: plan.ID, UserID: 2, Status: models.RSVPNo, RespondedAt: &now}))
	require.NoError(t, repo.CreatePending(ctx, plan.ID, 1))

	all, err := repo.ListByPlan(ctx, plan.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, uint(1), all[0].UserID)
	assert.Equal(t, models.RSVPPending, all[0].Status)
	assert.Equal(t, models.RSVPNo, all[1].Status)

	yes, err := repo.CountByStatus(ctx, plan.ID, models.RSVPYes)
	require.NoError(t, err)
	assert.Zero(t, yes)
}

func TestPlanSweepQueries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	expired := createPlan(t, s, models.PhaseVoting)
	expired.ExpiresAt = &past
	require.NoError(t, s.Repos().Plans.Save(ctx, expired))

	open := createPlan(t, s, models.PhaseVoting)
	open.ExpiresAt = &future
	require.NoError(t, s.Repos().Plans.Save(ctx, open))

	lapsed := createPlan(t, s, models.PhaseRSVP)
	lapsed.RSVPDeadline = &past
	require.NoError(t, s.Repos().Plans.Save(ctx, lapsed))

	createPlan(t, s, models.PhaseVoting)

	ids, err := s.Repos().Plans.ListExpiredVoting(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, []uint{expired.ID}, ids)

	ids, err = s.Repos().Plans.ListRSVPPastDeadline(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, []uint{lapsed.ID}, ids)
}

func TestListByUserIncludesJoinedPlans(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	own := createPlan(t, s, models.PhasePlanning)
	joined := &models.Plan{Title: "Hike", Phase: models.PhasePlanning, CreatorID: 9, Privacy: models.PrivacyPublic, Consensus: models.DefaultConsensusConfig()}
	require.NoError(t, s.Repos().Plans.Create(ctx, joined))
	require.NoError(t, s.Repos().Participants.Create(ctx, &models.Participant{
		PlanID: joined.ID, UserID: 1, Role: models.RoleMember, JoinedVia: models.JoinedByInvite,
	}))
	stranger := &models.Plan{Title: "Movie", Phase: models.PhasePlanning, CreatorID: 9, Privacy: models.PrivacyPublic, Consensus: models.DefaultConsensusConfig()}
	require.NoError(t, s.Repos().Plans.Create(ctx, stranger))

	plans, err := s.Repos().Plans.ListByUser(ctx, 1)
	require.NoError(t, err)
	ids := make([]uint, 0, len(plans))
	for _, p := range plans {
		ids = append(ids, p.ID)
	}
	assert.ElementsMatch(t, []uint{own.ID, joined.ID}, ids)
}
