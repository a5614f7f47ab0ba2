package controller

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"blackkeyx_backend/internal/service"
	"blackkeyx_backend/pkg/metrics"
)

// LeadController accepts chatbot submissions.
type LeadController struct {
	intake *service.LeadIntakeService
}

func NewLeadController(intake *service.LeadIntakeService) *LeadController {
	return &LeadController{intake: intake}
}

func (lc *LeadController) SubmitLead(c *fiber.Ctx) error {
	var sub service.LeadSubmission
	if err := c.BodyParser(&sub); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	if err := sub.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	ip := clientIP(c)
	var userAgent *string
	if ua := c.Get(fiber.HeaderUserAgent); ua != "" {
		userAgent = &ua
	}

	lead, created, err := lc.intake.ProcessLead(c.UserContext(), sub, &ip, userAgent)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": verr.Message,
			})
		}
		slog.Error("Could not process lead", slog.Any("error", err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not process lead",
		})
	}
	metrics.LeadSubmitted(created)

	message := "Lead submitted successfully"
	if !created {
		message = "Lead already exists"
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": message,
		"leadId":  lead.ID.String(),
	})
}

// clientIP prefers the first X-Forwarded-For entry.
func clientIP(c *fiber.Ctx) string {
	if ips := c.IPs(); len(ips) > 0 && ips[0] != "" {
		return ips[0]
	}
	return c.IP()
}
