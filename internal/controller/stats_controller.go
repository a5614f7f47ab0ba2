package controller

import (
	"log/slog"
	"math"
	"time"

	"github.com/gofiber/fiber/v2"

	"blackkeyx_backend/internal/model"
	"blackkeyx_backend/internal/repository"
	"blackkeyx_backend/pkg/email"
)

const recentActivityLimit = 5

type StatsController struct {
	leads *repository.InvestorRepository
	deals *repository.PropertyRepository
}

func NewStatsController(leads *repository.InvestorRepository, deals *repository.PropertyRepository) *StatsController {
	return &StatsController{leads: leads, deals: deals}
}

type activityItem struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// GetDashboardStats aggregates the admin dashboard header.
func (sc *StatsController) GetDashboardStats(c *fiber.Ctx) error {
	ctx := c.UserContext()

	totalLeads, err := sc.leads.Count(ctx)
	if err != nil {
		return sc.statsError(c, err)
	}
	byStage, err := sc.leads.GetStatsByStage(ctx)
	if err != nil {
		return sc.statsError(c, err)
	}
	avgScore, err := sc.leads.GetAverageScore(ctx)
	if err != nil {
		return sc.statsError(c, err)
	}
	totalDeals, err := sc.deals.CountByStatus(ctx, model.DealStatusActive)
	if err != nil {
		return sc.statsError(c, err)
	}
	recent, err := sc.leads.Recent(ctx, recentActivityLimit)
	if err != nil {
		return sc.statsError(c, err)
	}

	activity := make([]activityItem, 0, len(recent))
	for _, lead := range recent {
		activity = append(activity, activityItem{
			ID:        lead.ID.String(),
			Type:      "new_lead",
			Message:   "New lead from " + email.MaskPhone(lead.Phone),
			Timestamp: lead.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	return c.JSON(fiber.Map{
		"totalLeads":     totalLeads,
		"byStage":        byStage,
		"averageScore":   math.Round(avgScore*10) / 10,
		"totalDeals":     totalDeals,
		"recentActivity": activity,
	})
}

func (sc *StatsController) statsError(c *fiber.Ctx, err error) error {
	slog.Error("Could not load dashboard stats", slog.Any("error", err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Could not fetch stats",
	})
}
