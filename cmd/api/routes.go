package main

import (
	"civic-platform/internal/httpapi"
	"civic-platform/internal/rbac"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW, submissionCapMW gin.HandlerFunc) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")

	// AUTH routes (registration and token issuance).
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.Refresh)
	}

	// Everything below requires a valid access token.
	api := v1.Group("")
	api.Use(authMW)
	{
		api.GET("/me", h.Me)

		// CATALOG routes: reads for everyone, writes admin-only.
		catalog := api.Group("/catalog")
		{
			catalog.GET("/categories", h.ListCategories)
			catalog.GET("/zones", h.ListZones)

			adminCatalog := catalog.Group("")
			adminCatalog.Use(rbac.RequireAnyRole(rbac.RoleAdmin))
			{
				adminCatalog.POST("/categories", h.CreateCategory)
				adminCatalog.POST("/zones", h.CreateZone)
			}
		}

		// COMPLAINT routes
		complaints := api.Group("/complaints")
		{
			complaints.POST("", submissionCapMW, h.FileComplaint)
			complaints.GET("", h.ListComplaints)
			complaints.GET("/:complaint_id", h.GetComplaint)
			complaints.GET("/:complaint_id/history", h.StatusHistory)
			complaints.GET("/:complaint_id/assignment", h.GetActiveAssignment)
			complaints.POST("/:complaint_id/evidence", h.AddEvidence)
			complaints.GET("/:complaint_id/evidence", h.ListEvidence)
			complaints.POST("/:complaint_id/comments", h.AddComment)
			complaints.GET("/:complaint_id/comments", h.ListComments)

			// Status and assignment changes are staff operations. The service
			// re-checks permissions; the middleware just fails fast.
			staff := complaints.Group("")
			staff.Use(rbac.RequireAnyRole(rbac.RoleAuthority, rbac.RoleAdmin))
			{
				staff.PATCH("/:complaint_id/status", h.ChangeComplaintStatus)
				staff.PUT("/:complaint_id/assignment", h.AssignComplaint)
			}
		}

		// NOTIFICATION routes
		notifications := api.Group("/notifications")
		{
			notifications.GET("", h.ListNotifications)
			notifications.POST("/:notification_id/read", h.MarkNotificationRead)
		}

		// REPORTING routes (staff only)
		reports := api.Group("/reports")
		reports.Use(rbac.RequireAnyRole(rbac.RoleAuthority, rbac.RoleAdmin))
		{
			reports.GET("/status-breakdown", h.StatusBreakdown)
			reports.GET("/resolution-summary", h.ResolutionSummary)
			reports.GET("/authority-loads", h.AuthorityLoads)
		}

		// ADMIN routes
		admin := api.Group("/admin")
		admin.Use(rbac.RequireAnyRole(rbac.RoleAdmin))
		{
			admin.GET("/users", h.ListUsers)
			admin.PATCH("/users/:user_id/status", h.SetUserStatus)
			admin.DELETE("/users/:user_id", h.DeleteUser)
		}
	}
}
