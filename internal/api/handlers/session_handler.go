package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/acadhub/committees/internal/models"
	"github.com/acadhub/committees/internal/services"
	"github.com/acadhub/committees/internal/utils"
)

type SessionHandler struct {
	svc services.SessionService
}

func NewSessionHandler(svc services.SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

type CreateSessionRequest struct {
	CandidateID         string             `json:"candidate_id" binding:"required"`
	ProgramID           string             `json:"program_id" binding:"required"`
	SessionType         models.SessionType `json:"session_type" binding:"required"`
	ScheduledAt         time.Time          `json:"scheduled_at" binding:"required"`
	Location            string             `json:"location"`
	Remote              bool               `json:"remote"`
	VideoconferenceLink string             `json:"videoconference_link"`
	WorkTitle           string             `json:"work_title"`
	AdvisorParticipates *bool              `json:"advisor_participates"`
	Notes               string             `json:"notes"`
	AgendaItems         []string           `json:"agenda_items"`
	Minutes             datatypes.JSON     `json:"minutes"`
	MinutesDocumentRef  string             `json:"minutes_document_ref"`
	ThesisDocumentRef   string             `json:"thesis_document_ref"`
}

func (h *SessionHandler) Create(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SessionHandler.Create", "invalid request body", err))
		return
	}

	advisorParticipates := true
	if req.AdvisorParticipates != nil {
		advisorParticipates = *req.AdvisorParticipates
	}

	session, err := h.svc.Create(c.Request.Context(), services.CreateSessionInput{
		CandidateID: req.CandidateID,
		ProgramID:   req.ProgramID,
		Type:        req.SessionType,
		ScheduledAt: req.ScheduledAt,
		Details: models.SessionDetails{
			Location:            req.Location,
			Remote:              req.Remote,
			VideoconferenceLink: req.VideoconferenceLink,
			WorkTitle:           req.WorkTitle,
			AdvisorParticipates: advisorParticipates,
			Notes:               req.Notes,
			AgendaItems:         req.AgendaItems,
			Minutes:             req.Minutes,
			MinutesDocumentRef:  req.MinutesDocumentRef,
			ThesisDocumentRef:   req.ThesisDocumentRef,
		},
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *SessionHandler) Get(c *gin.Context) {
	session, err := h.svc.Get(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) ListByCandidate(c *gin.Context) {
	rows, err := h.svc.ListByCandidate(c.Request.Context(), c.Param("candidate_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *SessionHandler) ListByProgram(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	rows, err := h.svc.ListByProgram(c.Request.Context(), c.Param("program_id"), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *SessionHandler) ListUpcoming(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	rows, err := h.svc.ListUpcoming(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *SessionHandler) ListMissingMinutes(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	rows, err := h.svc.ListMissingMinutes(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

type UpdateSessionRequest struct {
	ScheduledAt         *time.Time     `json:"scheduled_at"`
	Location            *string        `json:"location"`
	Remote              *bool          `json:"remote"`
	VideoconferenceLink *string        `json:"videoconference_link"`
	WorkTitle           *string        `json:"work_title"`
	AdvisorParticipates *bool          `json:"advisor_participates"`
	Notes               *string        `json:"notes"`
	AgendaItems         *[]string      `json:"agenda_items"`
	Minutes             datatypes.JSON `json:"minutes"`
	MinutesDocumentRef  *string        `json:"minutes_document_ref"`
	ThesisDocumentRef   *string        `json:"thesis_document_ref"`
}

func (h *SessionHandler) Update(c *gin.Context) {
	var req UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SessionHandler.Update", "invalid request body", err))
		return
	}

	session, err := h.svc.Update(c.Request.Context(), c.Param("session_id"), services.UpdateSessionInput{
		ScheduledAt:         req.ScheduledAt,
		Location:            req.Location,
		Remote:              req.Remote,
		VideoconferenceLink: req.VideoconferenceLink,
		WorkTitle:           req.WorkTitle,
		AdvisorParticipates: req.AdvisorParticipates,
		Notes:               req.Notes,
		AgendaItems:         req.AgendaItems,
		Minutes:             req.Minutes,
		MinutesDocumentRef:  req.MinutesDocumentRef,
		ThesisDocumentRef:   req.ThesisDocumentRef,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) Confirm(c *gin.Context) {
	session, err := h.svc.Confirm(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

type CancelSessionRequest struct {
	Reason string `json:"reason"`
}

func (h *SessionHandler) Cancel(c *gin.Context) {
	var req CancelSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, utils.E(utils.CodeInvalidArgument, "SessionHandler.Cancel", "invalid request body", err))
			return
		}
	}

	session, err := h.svc.Cancel(c.Request.Context(), c.Param("session_id"), req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

type RescheduleSessionRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
}

func (h *SessionHandler) Reschedule(c *gin.Context) {
	var req RescheduleSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SessionHandler.Reschedule", "invalid request body", err))
		return
	}

	session, err := h.svc.Reschedule(c.Request.Context(), c.Param("session_id"), req.ScheduledAt)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

type MarkHeldRequest struct {
	Result models.SessionResult `json:"result" binding:"required"`
}

func (h *SessionHandler) MarkHeld(c *gin.Context) {
	var req MarkHeldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SessionHandler.MarkHeld", "invalid request body", err))
		return
	}

	session, err := h.svc.MarkHeld(c.Request.Context(), c.Param("session_id"), req.Result)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

type RecordMinutesRequest struct {
	Minutes     datatypes.JSON `json:"minutes"`
	DocumentRef string         `json:"document_ref"`
}

func (h *SessionHandler) RecordMinutes(c *gin.Context) {
	var req RecordMinutesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SessionHandler.RecordMinutes", "invalid request body", err))
		return
	}

	session, err := h.svc.RecordMinutes(c.Request.Context(), c.Param("session_id"), req.Minutes, req.DocumentRef)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("session_id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) ValidateComposition(c *gin.Context) {
	report, err := h.svc.ValidateComposition(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":  report.Valid(),
		"report": report,
	})
}
