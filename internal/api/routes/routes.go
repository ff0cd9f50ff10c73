package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/acadhub/committees/internal/api/handlers"
)

type Deps struct {
	Sessions *handlers.SessionHandler
	Members  *handlers.MemberHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	sessions := r.Group("/sessions")

	sessions.POST("", d.Sessions.Create)
	sessions.GET("/upcoming", d.Sessions.ListUpcoming)
	sessions.GET("/missing-minutes", d.Sessions.ListMissingMinutes)
	sessions.GET("/:session_id", d.Sessions.Get)
	sessions.PATCH("/:session_id", d.Sessions.Update)
	sessions.DELETE("/:session_id", d.Sessions.Delete)
	sessions.POST("/:session_id/confirm", d.Sessions.Confirm)
	sessions.POST("/:session_id/cancel", d.Sessions.Cancel)
	sessions.POST("/:session_id/reschedule", d.Sessions.Reschedule)
	sessions.POST("/:session_id/held", d.Sessions.MarkHeld)
	sessions.POST("/:session_id/minutes", d.Sessions.RecordMinutes)
	sessions.GET("/:session_id/composition", d.Sessions.ValidateComposition)

	sessions.POST("/:session_id/members", d.Members.Add)
	sessions.GET("/:session_id/members", d.Members.List)
	sessions.GET("/:session_id/members/titulars", d.Members.ListTitulars)
	sessions.GET("/:session_id/members/alternates", d.Members.ListAlternates)
	sessions.DELETE("/:session_id/members/:member_id", d.Members.Remove)

	members := r.Group("/members")
	members.GET("/:member_id", d.Members.Get)
	members.POST("/:member_id/invite", d.Members.SendInvite)
	members.POST("/:member_id/confirm", d.Members.Confirm)
	members.POST("/:member_id/decline", d.Members.Decline)

	r.GET("/candidates/:candidate_id/sessions", d.Sessions.ListByCandidate)
	r.GET("/programs/:program_id/sessions", d.Sessions.ListByProgram)
	r.GET("/faculty/:faculty_id/memberships", d.Members.ListByFaculty)
	r.GET("/external-examiners/:examiner_id/memberships", d.Members.ListByExternalExaminer)
}
