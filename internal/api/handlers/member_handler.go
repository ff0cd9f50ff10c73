package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadhub/committees/internal/models"
	"github.com/acadhub/committees/internal/services"
	"github.com/acadhub/committees/internal/utils"
)

type MemberHandler struct {
	svc services.MemberService
}

func NewMemberHandler(svc services.MemberService) *MemberHandler {
	return &MemberHandler{svc: svc}
}

type AddMemberRequest struct {
	Examiner          models.ExaminerRef `json:"examiner" binding:"required"`
	MemberType        models.MemberType  `json:"member_type" binding:"required"`
	Role              models.MemberRole  `json:"role" binding:"required"`
	PresentationOrder *int               `json:"presentation_order"`
}

func (h *MemberHandler) Add(c *gin.Context) {
	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "MemberHandler.Add", "invalid request body", err))
		return
	}

	member, err := h.svc.AddMember(c.Request.Context(), c.Param("session_id"), services.AddMemberInput{
		Examiner:          req.Examiner,
		MemberType:        req.MemberType,
		Role:              req.Role,
		PresentationOrder: req.PresentationOrder,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

func (h *MemberHandler) Remove(c *gin.Context) {
	if err := h.svc.RemoveMember(c.Request.Context(), c.Param("session_id"), c.Param("member_id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *MemberHandler) List(c *gin.Context) {
	members, err := h.svc.ListBySession(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

func (h *MemberHandler) ListTitulars(c *gin.Context) {
	members, err := h.svc.ListTitulars(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

func (h *MemberHandler) ListAlternates(c *gin.Context) {
	members, err := h.svc.ListAlternates(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

func (h *MemberHandler) ListByFaculty(c *gin.Context) {
	members, err := h.svc.ListByExaminer(c.Request.Context(), models.ExaminerRef{
		Kind: models.ExaminerInternal,
		ID:   c.Param("faculty_id"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

func (h *MemberHandler) ListByExternalExaminer(c *gin.Context) {
	members, err := h.svc.ListByExaminer(c.Request.Context(), models.ExaminerRef{
		Kind: models.ExaminerExternal,
		ID:   c.Param("examiner_id"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

func (h *MemberHandler) Get(c *gin.Context) {
	member, err := h.svc.Get(c.Request.Context(), c.Param("member_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

func (h *MemberHandler) SendInvite(c *gin.Context) {
	member, err := h.svc.SendInvite(c.Request.Context(), c.Param("member_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

func (h *MemberHandler) Confirm(c *gin.Context) {
	member, err := h.svc.ConfirmInvitation(c.Request.Context(), c.Param("member_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

type DeclineInvitationRequest struct {
	Reason string `json:"reason"`
}

func (h *MemberHandler) Decline(c *gin.Context) {
	var req DeclineInvitationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, utils.E(utils.CodeInvalidArgument, "MemberHandler.Decline", "invalid request body", err))
			return
		}
	}

	member, err := h.svc.DeclineInvitation(c.Request.Context(), c.Param("member_id"), req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}
