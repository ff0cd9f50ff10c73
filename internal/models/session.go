package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"

	"github.com/acadhub/committees/internal/utils"
)

type SessionType string

const (
	QualificationMasters  SessionType = "QUALIFICATION_MASTERS"
	QualificationDoctoral SessionType = "QUALIFICATION_DOCTORAL"
	DefenseMasters        SessionType = "DEFENSE_MASTERS"
	DefenseDoctoral       SessionType = "DEFENSE_DOCTORAL"
	DefenseDirectDoctoral SessionType = "DEFENSE_DIRECT_DOCTORAL"
	ProficiencyExam       SessionType = "PROFICIENCY_EXAM"
)

func (t SessionType) Valid() bool {
	switch t {
	case QualificationMasters, QualificationDoctoral, DefenseMasters,
		DefenseDoctoral, DefenseDirectDoctoral, ProficiencyExam:
		return true
	}
	return false
}

type SessionStatus string

const (
	SessionScheduled   SessionStatus = "SCHEDULED"
	SessionConfirmed   SessionStatus = "CONFIRMED"
	SessionHeld        SessionStatus = "HELD"
	SessionCancelled   SessionStatus = "CANCELLED"
	SessionRescheduled SessionStatus = "RESCHEDULED"
)

type SessionResult string

const (
	ResultApproved                 SessionResult = "APPROVED"
	ResultApprovedWithRestrictions SessionResult = "APPROVED_WITH_RESTRICTIONS"
	ResultApprovedWithCorrections  SessionResult = "APPROVED_WITH_CORRECTIONS"
	ResultRejected                 SessionResult = "REJECTED"
)

func (r SessionResult) Valid() bool {
	switch r {
	case ResultApproved, ResultApprovedWithRestrictions, ResultApprovedWithCorrections, ResultRejected:
		return true
	}
	return false
}

// ExaminationSession is a scheduled qualification or defense event for one
// candidate. Status and result only change through the transition methods
// below; the result is set exactly when the session becomes HELD.
type ExaminationSession struct {
	ID          string      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CandidateID string      `gorm:"column:candidate_id;type:uuid;not null;index" json:"candidate_id"`
	ProgramID   string      `gorm:"column:program_id;type:uuid;not null;index" json:"program_id"`
	Type        SessionType `gorm:"column:session_type;type:varchar(30);not null" json:"session_type"`

	ScheduledAt time.Time `gorm:"column:scheduled_at;type:timestamptz;not null;index" json:"scheduled_at"`

	Location            string         `gorm:"column:location;type:varchar(255)" json:"location"`
	Remote              bool           `gorm:"column:remote;not null;default:false" json:"remote"`
	VideoconferenceLink string         `gorm:"column:videoconference_link;type:varchar(500)" json:"videoconference_link,omitempty"`
	WorkTitle           string         `gorm:"column:work_title;type:varchar(500)" json:"work_title,omitempty"`
	AdvisorParticipates bool           `gorm:"column:advisor_participates;not null;default:true" json:"advisor_participates"`
	Notes               string         `gorm:"column:notes;type:text" json:"notes,omitempty"`
	AgendaItems         pq.StringArray `gorm:"column:agenda_items;type:text[]" json:"agenda_items,omitempty"`
	Minutes             datatypes.JSON `gorm:"column:minutes;type:jsonb" json:"minutes,omitempty"`
	MinutesDocumentRef  string         `gorm:"column:minutes_document_ref;type:varchar(500)" json:"minutes_document_ref,omitempty"`
	ThesisDocumentRef   string         `gorm:"column:thesis_document_ref;type:varchar(500)" json:"thesis_document_ref,omitempty"`

	Status SessionStatus  `gorm:"column:status;type:varchar(20);not null;index" json:"status"`
	Result *SessionResult `gorm:"column:result;type:varchar(30)" json:"result,omitempty"`
	HeldAt *time.Time     `gorm:"column:held_at;type:timestamptz" json:"held_at,omitempty"`

	Members []CommitteeMember `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"members,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (ExaminationSession) TableName() string { return "examination_sessions" }

// SessionDetails carries the descriptive fields that have no invariants
// beyond presence checks.
type SessionDetails struct {
	Location            string
	Remote              bool
	VideoconferenceLink string
	WorkTitle           string
	AdvisorParticipates bool
	Notes               string
	AgendaItems         []string
	Minutes             datatypes.JSON
	MinutesDocumentRef  string
	ThesisDocumentRef   string
}

// NewExaminationSession builds a session in the initial SCHEDULED status.
// Conflict checking against other sessions of the candidate is the caller's
// responsibility.
func NewExaminationSession(candidateID, programID string, typ SessionType, scheduledAt time.Time, details SessionDetails) (*ExaminationSession, error) {
	const op = "models.NewExaminationSession"

	if candidateID == "" || programID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "candidate_id and program_id are required", nil)
	}
	if !typ.Valid() {
		return nil, utils.E(utils.CodeInvalidArgument, op, fmt.Sprintf("unknown session type %q", typ), nil)
	}
	if scheduledAt.IsZero() {
		return nil, utils.E(utils.CodeInvalidArgument, op, "scheduled_at is required", nil)
	}

	return &ExaminationSession{
		ID:                  uuid.NewString(),
		CandidateID:         candidateID,
		ProgramID:           programID,
		Type:                typ,
		ScheduledAt:         scheduledAt.UTC(),
		Location:            details.Location,
		Remote:              details.Remote,
		VideoconferenceLink: details.VideoconferenceLink,
		WorkTitle:           details.WorkTitle,
		AdvisorParticipates: details.AdvisorParticipates,
		Notes:               details.Notes,
		AgendaItems:         details.AgendaItems,
		Minutes:             details.Minutes,
		MinutesDocumentRef:  details.MinutesDocumentRef,
		ThesisDocumentRef:   details.ThesisDocumentRef,
		Status:              SessionScheduled,
	}, nil
}

func (s *ExaminationSession) IsHeld() bool      { return s.Status == SessionHeld }
func (s *ExaminationSession) IsCancelled() bool { return s.Status == SessionCancelled }

// CanCancel reports whether the session may still be cancelled.
func (s *ExaminationSession) CanCancel() bool {
	return s.Status == SessionScheduled || s.Status == SessionConfirmed
}

// CanReschedule reports whether the session may be moved to a new time.
func (s *ExaminationSession) CanReschedule() bool {
	return s.Status == SessionScheduled || s.Status == SessionConfirmed
}

// Confirm moves the session from SCHEDULED to CONFIRMED.
func (s *ExaminationSession) Confirm() error {
	const op = "ExaminationSession.Confirm"
	if s.Status != SessionScheduled {
		return utils.E(utils.CodeInvalidTransition, op,
			fmt.Sprintf("session cannot be confirmed in status %s", s.Status), nil)
	}
	s.Status = SessionConfirmed
	return nil
}

// Cancel terminates the session. An optional reason is appended to the notes.
func (s *ExaminationSession) Cancel(reason string) error {
	const op = "ExaminationSession.Cancel"
	if !s.CanCancel() {
		return utils.E(utils.CodeInvalidTransition, op,
			fmt.Sprintf("session cannot be cancelled in status %s", s.Status), nil)
	}
	s.Status = SessionCancelled
	if reason != "" {
		s.appendNote("Cancellation: " + reason)
	}
	return nil
}

// Reschedule moves the session to newTime and marks it RESCHEDULED. The
// caller must have verified the new time against the candidate's other
// sessions first.
func (s *ExaminationSession) Reschedule(newTime time.Time) error {
	const op = "ExaminationSession.Reschedule"
	if !s.CanReschedule() {
		return utils.E(utils.CodeInvalidTransition, op,
			fmt.Sprintf("session cannot be rescheduled in status %s", s.Status), nil)
	}
	s.ScheduledAt = newTime.UTC()
	s.Status = SessionRescheduled
	return nil
}

// MarkHeld records the outcome and moves the session to its terminal HELD
// status. The only status guard is "not already held"; composition
// validation is the caller's responsibility. This is the single place the
// result is ever set.
func (s *ExaminationSession) MarkHeld(result SessionResult, now time.Time) error {
	const op = "ExaminationSession.MarkHeld"
	if s.IsHeld() {
		return utils.E(utils.CodeInvalidTransition, op, "session was already held", nil)
	}
	if !result.Valid() {
		return utils.E(utils.CodeInvalidArgument, op, fmt.Sprintf("unknown result %q", result), nil)
	}
	held := now.UTC()
	s.Status = SessionHeld
	s.Result = &result
	s.HeldAt = &held
	return nil
}

// RecordMinutes attaches the minutes record to a session that was held.
// Descriptive minutes edits before the session is held go through the
// regular update path instead.
func (s *ExaminationSession) RecordMinutes(minutes datatypes.JSON, documentRef string) error {
	const op = "ExaminationSession.RecordMinutes"
	if !s.IsHeld() {
		return utils.E(utils.CodeInvalidTransition, op, "minutes can only be recorded for a held session", nil)
	}
	if len(minutes) == 0 && documentRef == "" {
		return utils.E(utils.CodeInvalidArgument, op, "minutes content or a document reference is required", nil)
	}
	if len(minutes) > 0 {
		s.Minutes = minutes
	}
	if documentRef != "" {
		s.MinutesDocumentRef = documentRef
	}
	return nil
}

func (s *ExaminationSession) appendNote(note string) {
	if s.Notes != "" {
		s.Notes += "\n"
	}
	s.Notes += note
}
