package service

import (
	"testing"

	"hangout-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespond_ConfirmsWhenMandatoryAnswered(t *testing.T) {
	env := newTestEnv(t)
	plan := env.quickPlan(t, nil)
	planID := plan.Plan.ID

	_, err := env.participants.Invite(env.ctx, planID, 1, models.InviteRequest{UserID: 2, IsMandatory: true})
	require.NoError(t, err)

	_, err = env.rsvps.Respond(env.ctx, planID, member(3), models.RSVPYes)
	require.NoError(t, err)
	_, err = env.rsvps.Respond(env.ctx, planID, member(1), models.RSVPYes)
	require.NoError(t, err)

	complete, err := env.rsvps.IsComplete(env.ctx, planID)
	require.NoError(t, err)
	assert.False(t, complete)
	stored, err := env.hangouts.GetPlan(env.ctx, planID)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseRSVP, stored.Phase)

	rsvp, err := env.rsvps.Respond(env.ctx, planID, member(2), models.RSVPNo)
	require.NoError(t, err)
	assert.Equal(t, models.RSVPNo, rsvp.Status)
	assert.NotNil(t, rsvp.RespondedAt)

	stored, err = env.hangouts.GetPlan(env.ctx, planID)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseConfirmed, stored.Phase)
	assert.NotNil(t, stored.ConfirmedAt)

	attendees, err := env.rsvps.AttendeeCount(env.ctx, planID)
	require.NoError(t, err)
	assert.Equal(t, 2, attendees)

	types := env.dispatcher.types()
	assert.Contains(t, types, models.EventRSVPComplete)
	assert.Contains(t, types, models.EventPlanConfirmed)

	archived := env.archiver.archived()
	require.Len(t, archived, 1)
	assert.Equal(t, models.PhaseConfirmed, archived[0].Plan.Phase)
	assert.Len(t, archived[0].RSVPs, 3)

	// late answers are still recorded on a confirmed plan
	_, err = env.rsvps.Respond(env.ctx, planID, member(3), models.RSVPMaybe)
	require.NoError(t, err)
	stored, err = env.hangouts.GetPlan(env.ctx, planID)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseConfirmed, stored.Phase)
}

func TestRespond_NoAttendeesStaysOpen(t *testing.T) {
	env := newTestEnv(t)
	plan := env.quickPlan(t, nil)

	_, err := env.rsvps.Respond(env.ctx, plan.Plan.ID, member(1), models.RSVPNo)
	require.NoError(t, err)

	complete, err := env.rsvps.IsComplete(env.ctx, plan.Plan.ID)
	require.NoError(t, err)
	assert.True(t, complete)

	stored, err := env.hangouts.GetPlan(env.ctx, plan.Plan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseRSVP, stored.Phase)
	assert.NotContains(t, env.dispatcher.types(), models.EventPlanConfirmed)
}

func TestRespond_UpdatesExistingAnswer(t *testing.T) {
	env := newTestEnv(t)
	plan := env.quickPlan(t, nil)

	_, err := env.rsvps.Respond(env.ctx, plan.Plan.ID, member(4), models.RSVPMaybe)
	require.NoError(t, err)
	_, err = env.rsvps.Respond(env.ctx, plan.Plan.ID, member(4), models.RSVPYes)
	require.NoError(t, err)

	rsvps, err := env.rsvps.ListRSVPs(env.ctx, plan.Plan.ID)
	require.NoError(t, err)
	require.Len(t, rsvps, 1)
	assert.Equal(t, uint(4), rsvps[0].UserID)
	assert.Equal(t, models.RSVPYes, rsvps[0].Status)
}

func TestRespond_Rejects(t *testing.T) {
	env := newTestEnv(t)
	voting := env.votingPlan(t, 2, nil, "A", "B")
	quick := env.quickPlan(t, nil)

	_, err := env.rsvps.Respond(env.ctx, voting.Plan.ID, member(2), models.RSVPYes)
	assert.ErrorIs(t, err, ErrRSVPNotOpen)

	_, err = env.rsvps.Respond(env.ctx, quick.Plan.ID, member(2), models.RSVPPending)
	assert.ErrorIs(t, err, ErrInvalidRSVPStatus)

	_, err = env.rsvps.Respond(env.ctx, quick.Plan.ID, member(2), models.RSVPStatus("perhaps"))
	assert.ErrorIs(t, err, ErrInvalidRSVPStatus)

	_, err = env.rsvps.Respond(env.ctx, quick.Plan.ID, Actor{UserID: 9}, models.RSVPYes)
	assert.ErrorIs(t, err, ErrNotPermitted)

	_, err = env.rsvps.Respond(env.ctx, 777, member(2), models.RSVPYes)
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestSummary_CountsPendingInvitees(t *testing.T) {
	env := newTestEnv(t)
	plan := env.quickPlan(t, nil)
	planID := plan.Plan.ID

	_, err := env.participants.Invite(env.ctx, planID, 1, models.InviteRequest{UserID: 2})
	require.NoError(t, err)
	_, err = env.participants.Invite(env.ctx, planID, 1, models.InviteRequest{UserID: 3})
	require.NoError(t, err)
	_, err = env.rsvps.Respond(env.ctx, planID, member(3), models.RSVPYes)
	require.NoError(t, err)

	summary, err := env.rsvps.Summary(env.ctx, planID)
	require.NoError(t, err)
	assert.Equal(t, models.RSVPSummary{Yes: 1, Pending: 1, Attendees: 1}, *summary)
}
