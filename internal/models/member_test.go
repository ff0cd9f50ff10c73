package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadhub/committees/internal/utils"
)

func newTitular(t *testing.T, ref ExaminerRef) *CommitteeMember {
	t.Helper()
	m, err := NewCommitteeMember("session-1", ref, MemberTitular, RoleInternalMember, nil)
	require.NoError(t, err)
	return m
}

func TestNewCommitteeMember(t *testing.T) {
	t.Run("internal examiner", func(t *testing.T) {
		m := newTitular(t, ExaminerRef{Kind: ExaminerInternal, ID: "fac-1"})

		require.NotNil(t, m.InternalFacultyID)
		assert.Equal(t, "fac-1", *m.InternalFacultyID)
		assert.Nil(t, m.ExternalExaminerID)
		assert.Equal(t, InvitationPending, m.InvitationStatus)
		assert.Nil(t, m.InvitedAt)
		assert.Nil(t, m.RespondedAt)
	})

	t.Run("external examiner", func(t *testing.T) {
		m := newTitular(t, ExaminerRef{Kind: ExaminerExternal, ID: "ext-1"})

		require.NotNil(t, m.ExternalExaminerID)
		assert.Equal(t, "ext-1", *m.ExternalExaminerID)
		assert.Nil(t, m.InternalFacultyID)
		assert.True(t, m.IsExternal())
	})

	t.Run("ref round-trips through Examiner", func(t *testing.T) {
		ref := ExaminerRef{Kind: ExaminerExternal, ID: "ext-9"}
		m := newTitular(t, ref)
		assert.Equal(t, ref, m.Examiner())
	})

	t.Run("invalid refs are rejected", func(t *testing.T) {
		for _, ref := range []ExaminerRef{
			{},
			{Kind: ExaminerInternal},
			{Kind: ExaminerKind("BOTH"), ID: "x"},
		} {
			_, err := NewCommitteeMember("session-1", ref, MemberTitular, RoleChair, nil)
			require.Error(t, err)
			assert.True(t, utils.IsCode(err, utils.CodeInvalidExaminerRef))
		}
	})

	t.Run("unknown member type and role are rejected", func(t *testing.T) {
		ref := ExaminerRef{Kind: ExaminerInternal, ID: "fac-1"}
		_, err := NewCommitteeMember("session-1", ref, MemberType("OBSERVER"), RoleChair, nil)
		require.Error(t, err)
		assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

		_, err = NewCommitteeMember("session-1", ref, MemberTitular, MemberRole("SECRETARY"), nil)
		require.Error(t, err)
		assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
	})
}

func TestIsExternalDerivation(t *testing.T) {
	internal := newTitular(t, ExaminerRef{Kind: ExaminerInternal, ID: "fac-1"})
	assert.False(t, internal.IsExternal())

	external := newTitular(t, ExaminerRef{Kind: ExaminerExternal, ID: "ext-1"})
	assert.True(t, external.IsExternal())

	// An internal faculty member sitting in the external role counts as
	// external too.
	inRole, err := NewCommitteeMember("session-1", ExaminerRef{Kind: ExaminerInternal, ID: "fac-2"}, MemberTitular, RoleExternalMember, nil)
	require.NoError(t, err)
	assert.True(t, inRole.IsExternal())
}

func TestInvitationLifecycle(t *testing.T) {
	sentAt := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	respondedAt := sentAt.Add(26 * time.Hour)

	t.Run("pending to sent to confirmed", func(t *testing.T) {
		m := newTitular(t, ExaminerRef{Kind: ExaminerInternal, ID: "fac-1"})

		require.NoError(t, m.SendInvite(sentAt))
		assert.Equal(t, InvitationSent, m.InvitationStatus)
		require.NotNil(t, m.InvitedAt)
		assert.Equal(t, sentAt, *m.InvitedAt)

		require.NoError(t, m.ConfirmInvitation(respondedAt))
		assert.Equal(t, InvitationConfirmed, m.InvitationStatus)
		require.NotNil(t, m.RespondedAt)
		assert.Equal(t, respondedAt, *m.RespondedAt)
	})

	t.Run("pending to declined", func(t *testing.T) {
		m := newTitular(t, ExaminerRef{Kind: ExaminerInternal, ID: "fac-1"})

		require.NoError(t, m.DeclineInvitation("schedule clash", respondedAt))
		assert.Equal(t, InvitationDeclined, m.InvitationStatus)
		require.NotNil(t, m.RespondedAt)
		assert.Contains(t, m.Notes, "Decline reason: schedule clash")
	})

	t.Run("sending twice fails", func(t *testing.T) {
		m := newTitular(t, ExaminerRef{Kind: ExaminerInternal, ID: "fac-1"})
		require.NoError(t, m.SendInvite(sentAt))

		err := m.SendInvite(sentAt)
		require.Error(t, err)
		assert.True(t, utils.IsCode(err, utils.CodeInvalidTransition))
	})

	t.Run("confirming twice fails", func(t *testing.T) {
		m := newTitular(t, ExaminerRef{Kind: ExaminerInternal, ID: "fac-1"})
		require.NoError(t, m.ConfirmInvitation(respondedAt))

		err := m.ConfirmInvitation(respondedAt)
		require.Error(t, err)
		assert.True(t, utils.IsCode(err, utils.CodeAlreadyConfirmed))
	})

	// Declining after confirming is intentionally permitted; only a repeat
	// decline is rejected.
	t.Run("declining after confirming is allowed", func(t *testing.T) {
		m := newTitular(t, ExaminerRef{Kind: ExaminerInternal, ID: "fac-1"})
		require.NoError(t, m.ConfirmInvitation(respondedAt))

		require.NoError(t, m.DeclineInvitation("emergency", respondedAt.Add(time.Hour)))
		assert.Equal(t, InvitationDeclined, m.InvitationStatus)
		// First response timestamp is preserved.
		assert.Equal(t, respondedAt, *m.RespondedAt)

		err := m.DeclineInvitation("", respondedAt)
		require.Error(t, err)
		assert.True(t, utils.IsCode(err, utils.CodeAlreadyDeclined))
	})

	t.Run("confirming without an invite still records the response", func(t *testing.T) {
		m := newTitular(t, ExaminerRef{Kind: ExaminerInternal, ID: "fac-1"})
		require.NoError(t, m.ConfirmInvitation(respondedAt))
		assert.Nil(t, m.InvitedAt)
		require.NotNil(t, m.RespondedAt)
	})
}
