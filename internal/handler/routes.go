package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sitetrace/cde-api/internal/middleware"
)

// Handlers bundles the route handlers for registration.
type Handlers struct {
	Documents *DocumentHandler
	Issues    *IssueHandler
	Mail      *MailHandler
	Workflows *WorkflowHandler
	Audit     *AuditHandler
	Portal    *PortalHandler
}

// RegisterRoutes mounts the API surface. Project routes require a
// gateway principal; portal routes are gated by the resident token and
// optionally rate limited.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, principal gin.HandlerFunc, portalLimit gin.HandlerFunc) {
	api := r.Group(prefix)
	api.Use(principal)

	docs := api.Group("/documents")
	{
		docs.POST("", h.Documents.Register)
		docs.GET("/:id", h.Documents.Get)
		docs.POST("/:id/versions", h.Documents.CreateVersion)
		docs.GET("/:id/versions", h.Documents.ListVersions)
		docs.POST("/:id/revision", h.Documents.UpgradeRevision)
		docs.POST("/:id/transition", h.Documents.Transition)
	}

	issues := api.Group("/issues")
	{
		issues.POST("", h.Issues.Raise)
		issues.GET("/:id", h.Issues.Get)
		issues.POST("/:id/transition", h.Issues.Transition)
	}

	mail := api.Group("/mail")
	{
		mail.POST("", h.Mail.Create)
		mail.GET("/:id", h.Mail.Get)
		mail.POST("/:id/responses", h.Mail.AddResponse)
		mail.GET("/:id/responses", h.Mail.ListResponses)
		mail.POST("/:id/close", h.Mail.Close)
	}

	workflows := api.Group("/workflows")
	{
		workflows.POST("", h.Workflows.Start)
		workflows.GET("/:id", h.Workflows.Get)
		workflows.POST("/:id/steps/complete", h.Workflows.CompleteStep)
		workflows.PUT("/:id/steps/:number/notes", h.Workflows.AttachStepNotes)
	}
	api.GET("/workflow-templates", h.Workflows.Templates)

	audit := api.Group("/audit")
	{
		audit.GET("", h.Audit.Query)
		audit.GET("/export", middleware.AdminOnly(), h.Audit.Export)
	}

	residents := api.Group("/residents")
	{
		residents.POST("/:id/portal-token", middleware.AdminOnly(), h.Portal.IssueToken)
		residents.DELETE("/:id/portal-token", middleware.AdminOnly(), h.Portal.RevokeToken)
	}

	portal := r.Group(prefix + "/portal")
	if portalLimit != nil {
		portal.Use(portalLimit)
	}
	portal.GET("/session", h.Portal.Session)
}
