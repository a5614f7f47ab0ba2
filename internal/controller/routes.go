package controller

import (
	"github.com/gofiber/fiber/v2"

	"blackkeyx_backend/internal/middleware"
	"blackkeyx_backend/pkg/utils/jwt"
)

// Controllers groups the handlers mounted by SetupRoutes.
type Controllers struct {
	Auth       *AuthController
	Leads      *LeadController
	Admin      *AdminController
	Stats      *StatsController
	Properties *PropertyController
}

func SetupRoutes(app *fiber.App, ctl Controllers, issuer *jwt.Issuer) {
	api := app.Group("/api/v1")
	requireAdmin := middleware.AdminAuth(issuer)

	// Public chatbot intake
	api.Post("/submit-lead", ctl.Leads.SubmitLead)

	// Admin session
	api.Post("/admin/auth", ctl.Auth.Login)
	api.Delete("/admin/auth", ctl.Auth.Logout)

	admin := api.Group("/admin", requireAdmin)
	admin.Get("/stats", ctl.Stats.GetDashboardStats)
	admin.Get("/leads", ctl.Admin.ListLeads)
	admin.Get("/leads/:id", ctl.Admin.GetLead)
	admin.Patch("/leads/:id/stage", ctl.Admin.UpdateStage)
	admin.Post("/leads/:id/notes", ctl.Admin.AddNote)
	admin.Post("/leads/:id/matches", ctl.Admin.AddMatch)
	admin.Delete("/leads/:id", ctl.Admin.DeleteLead)
	admin.Patch("/matches/:id/status", ctl.Admin.UpdateMatchStatus)

	// Deals: reads are public, mutations need a session
	properties := api.Group("/properties")
	properties.Get("/", ctl.Properties.ListDeals)
	properties.Post("/upload", requireAdmin, ctl.Properties.UploadDocument)
	properties.Post("/extract", requireAdmin, ctl.Properties.ExtractDocument)
	properties.Get("/:id", ctl.Properties.GetDeal)
	properties.Post("/", requireAdmin, ctl.Properties.CreateDeal)
	properties.Put("/:id", requireAdmin, ctl.Properties.UpdateDeal)
	properties.Patch("/:id/status", requireAdmin, ctl.Properties.UpdateDealStatus)
	properties.Delete("/:id", requireAdmin, ctl.Properties.DeleteDeal)
	properties.Post("/:id/documents", requireAdmin, ctl.Properties.AttachDocument)
}
