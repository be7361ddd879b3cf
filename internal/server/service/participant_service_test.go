package service

import (
	"testing"

	"hangout-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureParticipant(t *testing.T) {
	env := newTestEnv(t)
	plan := env.votingPlan(t, 1, nil, "A", "B")

	_, err := env.participants.EnsureParticipant(env.ctx, plan.Plan.ID, Actor{UserID: 2})
	assert.ErrorIs(t, err, ErrNotPermitted)

	first, err := env.participants.EnsureParticipant(env.ctx, plan.Plan.ID, member(2))
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, first.Role)
	assert.Equal(t, models.JoinedDirectly, first.JoinedVia)
	assert.False(t, first.IsMandatory)

	// existing participants need no access decision
	again, err := env.participants.EnsureParticipant(env.ctx, plan.Plan.ID, Actor{UserID: 2})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, 1, env.dispatcher.count(models.EventParticipantJoin))

	creator, err := env.participants.EnsureParticipant(env.ctx, plan.Plan.ID, Actor{UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, models.RoleCreator, creator.Role)

	_, err = env.participants.EnsureParticipant(env.ctx, 404, member(2))
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestEligibleVotersAndMandatory(t *testing.T) {
	env := newTestEnv(t)
	plan := env.votingPlan(t, 1, nil, "A", "B")
	planID := plan.Plan.ID

	for _, uid := range []uint{9, 4} {
		_, err := env.participants.EnsureParticipant(env.ctx, planID, member(uid))
		require.NoError(t, err)
	}

	voters, err := env.participants.EligibleVoters(env.ctx, planID)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 4, 9}, voters)

	mandatory, err := env.participants.IsMandatory(env.ctx, planID, 1)
	require.NoError(t, err)
	assert.True(t, mandatory)

	mandatory, err = env.participants.IsMandatory(env.ctx, planID, 4)
	require.NoError(t, err)
	assert.False(t, mandatory)

	mandatory, err = env.participants.IsMandatory(env.ctx, planID, 1234)
	require.NoError(t, err)
	assert.False(t, mandatory)
}

func TestInvite(t *testing.T) {
	env := newTestEnv(t)
	plan := env.votingPlan(t, 2, nil, "A", "B")
	planID := plan.Plan.ID

	_, err := env.participants.Invite(env.ctx, planID, 2, models.InviteRequest{UserID: 3})
	assert.ErrorIs(t, err, ErrNotPermitted)

	cohost, err := env.participants.Invite(env.ctx, planID, 1, models.InviteRequest{UserID: 3, IsCoHost: true, IsMandatory: true})
	require.NoError(t, err)
	assert.Equal(t, models.RoleCoHost, cohost.Role)
	assert.Equal(t, models.JoinedByInvite, cohost.JoinedVia)
	assert.True(t, cohost.IsMandatory)

	// co-hosts may invite and re-inviting updates the existing row
	updated, err := env.participants.Invite(env.ctx, planID, 3, models.InviteRequest{UserID: 2, CanEdit: true})
	require.NoError(t, err)
	assert.True(t, updated.CanEdit)
	assert.Equal(t, models.JoinedDirectly, updated.JoinedVia)

	list, err := env.participants.ListParticipants(env.ctx, planID)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	_, err = env.participants.Invite(env.ctx, planID, 1, models.InviteRequest{})
	assert.ErrorIs(t, err, ErrInvalidPlan)
}

func TestUpdateParticipant(t *testing.T) {
	env := newTestEnv(t)
	plan := env.votingPlan(t, 2, nil, "A", "B")
	planID := plan.Plan.ID

	p, err := env.participants.UpdateParticipant(env.ctx, planID, 1, 2, models.UpdateParticipantRequest{IsMandatory: boolean(true), IsCoHost: boolean(true)})
	require.NoError(t, err)
	assert.True(t, p.IsMandatory)
	assert.Equal(t, models.RoleCoHost, p.Role)

	p, err = env.participants.UpdateParticipant(env.ctx, planID, 1, 2, models.UpdateParticipantRequest{IsCoHost: boolean(false)})
	require.NoError(t, err)
	assert.True(t, p.IsMandatory)
	assert.Equal(t, models.RoleMember, p.Role)

	_, err = env.participants.UpdateParticipant(env.ctx, planID, 2, 2, models.UpdateParticipantRequest{CanEdit: boolean(true)})
	assert.ErrorIs(t, err, ErrNotPermitted)

	_, err = env.participants.UpdateParticipant(env.ctx, planID, 1, 1, models.UpdateParticipantRequest{IsMandatory: boolean(false)})
	assert.ErrorIs(t, err, ErrNotPermitted)

	_, err = env.participants.UpdateParticipant(env.ctx, planID, 1, 99, models.UpdateParticipantRequest{CanEdit: boolean(true)})
	assert.ErrorIs(t, err, ErrParticipantNotFound)
}

func TestGetParticipant(t *testing.T) {
	env := newTestEnv(t)
	plan := env.votingPlan(t, 2, nil, "A", "B")

	p, err := env.participants.GetParticipant(env.ctx, plan.Plan.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCreator, p.Role)

	_, err = env.participants.GetParticipant(env.ctx, plan.Plan.ID, 42)
	assert.ErrorIs(t, err, ErrParticipantNotFound)
}
