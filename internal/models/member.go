package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/acadhub/committees/internal/utils"
)

type MemberType string

const (
	MemberTitular   MemberType = "TITULAR"
	MemberAlternate MemberType = "ALTERNATE"
)

func (t MemberType) Valid() bool {
	return t == MemberTitular || t == MemberAlternate
}

type MemberRole string

const (
	RoleChair          MemberRole = "CHAIR"
	RoleInternalMember MemberRole = "INTERNAL_MEMBER"
	RoleExternalMember MemberRole = "EXTERNAL_MEMBER"
	RoleAdvisor        MemberRole = "ADVISOR"
	RoleCoAdvisor      MemberRole = "CO_ADVISOR"
)

func (r MemberRole) Valid() bool {
	switch r {
	case RoleChair, RoleInternalMember, RoleExternalMember, RoleAdvisor, RoleCoAdvisor:
		return true
	}
	return false
}

type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "PENDING"
	InvitationSent      InvitationStatus = "SENT"
	InvitationConfirmed InvitationStatus = "CONFIRMED"
	InvitationDeclined  InvitationStatus = "DECLINED"
	// InvitationCancelled is representable for administrative records but no
	// service operation currently drives a member into it.
	InvitationCancelled InvitationStatus = "CANCELLED"
)

type ExaminerKind string

const (
	ExaminerInternal ExaminerKind = "INTERNAL"
	ExaminerExternal ExaminerKind = "EXTERNAL"
)

// ExaminerRef identifies the examiner behind a committee member: either an
// internal faculty member or an external examiner, never both.
type ExaminerRef struct {
	Kind ExaminerKind `json:"kind"`
	ID   string       `json:"id"`
}

func (r ExaminerRef) Validate() error {
	const op = "ExaminerRef.Validate"
	if r.ID == "" {
		return utils.E(utils.CodeInvalidExaminerRef, op, "examiner id is required", nil)
	}
	if r.Kind != ExaminerInternal && r.Kind != ExaminerExternal {
		return utils.E(utils.CodeInvalidExaminerRef, op, fmt.Sprintf("unknown examiner kind %q", r.Kind), nil)
	}
	return nil
}

// CommitteeMember is one seat on a session's panel. Exactly one of
// InternalFacultyID / ExternalExaminerID is set; NewCommitteeMember is the
// only way to build one, so the invariant holds by construction.
type CommitteeMember struct {
	ID        string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SessionID string `gorm:"column:session_id;type:uuid;not null;index" json:"session_id"`

	InternalFacultyID  *string `gorm:"column:internal_faculty_id;type:uuid;index" json:"internal_faculty_id,omitempty"`
	ExternalExaminerID *string `gorm:"column:external_examiner_id;type:uuid;index" json:"external_examiner_id,omitempty"`

	MemberType MemberType `gorm:"column:member_type;type:varchar(20);not null" json:"member_type"`
	Role       MemberRole `gorm:"column:role;type:varchar(30);not null" json:"role"`

	InvitationStatus InvitationStatus `gorm:"column:invitation_status;type:varchar(20);not null" json:"invitation_status"`
	InvitedAt        *time.Time       `gorm:"column:invited_at;type:timestamptz" json:"invited_at,omitempty"`
	RespondedAt      *time.Time       `gorm:"column:responded_at;type:timestamptz" json:"responded_at,omitempty"`

	Notes             string `gorm:"column:notes;type:text" json:"notes,omitempty"`
	PresentationOrder *int   `gorm:"column:presentation_order" json:"presentation_order,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (CommitteeMember) TableName() string { return "committee_members" }

// NewCommitteeMember builds a member with a PENDING invitation.
func NewCommitteeMember(sessionID string, ref ExaminerRef, memberType MemberType, role MemberRole, presentationOrder *int) (*CommitteeMember, error) {
	const op = "models.NewCommitteeMember"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if !memberType.Valid() {
		return nil, utils.E(utils.CodeInvalidArgument, op, fmt.Sprintf("unknown member type %q", memberType), nil)
	}
	if !role.Valid() {
		return nil, utils.E(utils.CodeInvalidArgument, op, fmt.Sprintf("unknown role %q", role), nil)
	}

	m := &CommitteeMember{
		ID:                uuid.NewString(),
		SessionID:         sessionID,
		MemberType:        memberType,
		Role:              role,
		InvitationStatus:  InvitationPending,
		PresentationOrder: presentationOrder,
	}
	id := ref.ID
	if ref.Kind == ExaminerInternal {
		m.InternalFacultyID = &id
	} else {
		m.ExternalExaminerID = &id
	}
	return m, nil
}

// Examiner returns the tagged reference behind this member.
func (m *CommitteeMember) Examiner() ExaminerRef {
	if m.ExternalExaminerID != nil {
		return ExaminerRef{Kind: ExaminerExternal, ID: *m.ExternalExaminerID}
	}
	if m.InternalFacultyID != nil {
		return ExaminerRef{Kind: ExaminerInternal, ID: *m.InternalFacultyID}
	}
	return ExaminerRef{}
}

// IsExternal is derived, not stored: a member counts as external when it
// references an external examiner or sits in the EXTERNAL_MEMBER role.
func (m *CommitteeMember) IsExternal() bool {
	return m.ExternalExaminerID != nil || m.Role == RoleExternalMember
}

func (m *CommitteeMember) IsTitular() bool { return m.MemberType == MemberTitular }

// SendInvite moves the invitation from PENDING to SENT.
func (m *CommitteeMember) SendInvite(now time.Time) error {
	const op = "CommitteeMember.SendInvite"
	if m.InvitationStatus != InvitationPending {
		return utils.E(utils.CodeInvalidTransition, op,
			fmt.Sprintf("invite cannot be sent in status %s", m.InvitationStatus), nil)
	}
	sent := now.UTC()
	m.InvitationStatus = InvitationSent
	m.InvitedAt = &sent
	return nil
}

// ConfirmInvitation records the member's acceptance.
func (m *CommitteeMember) ConfirmInvitation(now time.Time) error {
	const op = "CommitteeMember.ConfirmInvitation"
	if m.InvitationStatus == InvitationConfirmed {
		return utils.E(utils.CodeAlreadyConfirmed, op, "participation was already confirmed", nil)
	}
	m.InvitationStatus = InvitationConfirmed
	if m.RespondedAt == nil {
		at := now.UTC()
		m.RespondedAt = &at
	}
	return nil
}

// DeclineInvitation records the member's refusal. Declining from CONFIRMED is
// allowed; only a repeated decline is rejected.
func (m *CommitteeMember) DeclineInvitation(reason string, now time.Time) error {
	const op = "CommitteeMember.DeclineInvitation"
	if m.InvitationStatus == InvitationDeclined {
		return utils.E(utils.CodeAlreadyDeclined, op, "participation was already declined", nil)
	}
	m.InvitationStatus = InvitationDeclined
	if m.RespondedAt == nil {
		at := now.UTC()
		m.RespondedAt = &at
	}
	if reason != "" {
		if m.Notes != "" {
			m.Notes += "\n"
		}
		m.Notes += "Decline reason: " + reason
	}
	return nil
}
