package controller

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"blackkeyx_backend/internal/model"
	"blackkeyx_backend/internal/repository"
	"blackkeyx_backend/pkg/metrics"
)

// AdminController serves the lead pipeline views and mutations.
type AdminController struct {
	leads *repository.InvestorRepository
}

func NewAdminController(leads *repository.InvestorRepository) *AdminController {
	return &AdminController{leads: leads}
}

func (ac *AdminController) ListLeads(c *fiber.Ctx) error {
	page, pageSize, err := pageParams(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	filter := repository.LeadFilter{
		Stage:  c.Query("stage"),
		Search: strings.TrimSpace(c.Query("search")),
	}
	if filter.Stage != "" && !model.IsValidStage(filter.Stage) {
		return invalidStage(c)
	}

	if filter.ScoreMin, err = queryInt(c, "scoreMin"); err != nil || !inScoreRange(filter.ScoreMin) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "scoreMin must be between 0 and 100"})
	}
	if filter.ScoreMax, err = queryInt(c, "scoreMax"); err != nil || !inScoreRange(filter.ScoreMax) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "scoreMax must be between 0 and 100"})
	}
	if filter.CapitalMin, err = queryInt64(c, "capitalMin"); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "capitalMin must be an integer"})
	}
	if filter.CapitalMax, err = queryInt64(c, "capitalMax"); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "capitalMax must be an integer"})
	}

	// Unparseable dates are ignored rather than rejected.
	filter.DateFrom = queryDate(c, "dateFrom")
	filter.DateTo = queryDate(c, "dateTo")

	sort := repository.LeadSort{
		By:    c.Query("sortBy", "created_at"),
		Order: c.Query("sortOrder", "desc"),
	}

	leads, total, err := ac.leads.SearchLeads(c.UserContext(), filter, sort, repository.PageFor(page, pageSize))
	if err != nil {
		slog.Error("Could not search leads", slog.Any("error", err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch leads",
		})
	}

	items := make([]LeadResponse, 0, len(leads))
	for i := range leads {
		items = append(items, toLeadResponse(&leads[i]))
	}

	return c.JSON(fiber.Map{
		"leads":      items,
		"total":      total,
		"page":       page,
		"pageSize":   pageSize,
		"totalPages": totalPages(total, pageSize),
	})
}

func (ac *AdminController) GetLead(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid lead ID"})
	}

	lead, err := ac.leads.GetWithRelations(c.UserContext(), id)
	if err != nil {
		return ac.leadError(c, err)
	}
	return c.JSON(toLeadResponse(lead))
}

type stageInput struct {
	Stage string  `json:"stage"`
	Notes *string `json:"notes"`
}

func (ac *AdminController) UpdateStage(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid lead ID"})
	}

	var input stageInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	if !model.IsValidStage(input.Stage) {
		return invalidStage(c)
	}

	stage := model.PipelineStage(input.Stage)
	if _, err := ac.leads.UpdateStage(c.UserContext(), id, stage, "admin", input.Notes); err != nil {
		return ac.leadError(c, err)
	}
	metrics.StageTransitions.WithLabelValues(input.Stage).Inc()

	slog.Info("Lead stage updated",
		slog.String("lead_id", id.String()),
		slog.String("stage", input.Stage))

	lead, err := ac.leads.GetWithRelations(c.UserContext(), id)
	if err != nil {
		return ac.leadError(c, err)
	}
	return c.JSON(toLeadResponse(lead))
}

type noteInput struct {
	Content string `json:"content"`
}

func (ac *AdminController) AddNote(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid lead ID"})
	}

	var input noteInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Note content is required"})
	}

	note, err := ac.leads.AddNote(c.UserContext(), id, content, "admin")
	if err != nil {
		return ac.leadError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toNoteResponse(note))
}

func (ac *AdminController) DeleteLead(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid lead ID"})
	}

	if err := ac.leads.Delete(c.UserContext(), id); err != nil {
		return ac.leadError(c, err)
	}
	slog.Info("Lead deleted", slog.String("lead_id", id.String()))

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Lead deleted",
	})
}

type matchInput struct {
	DealMemoID      string   `json:"dealMemoId"`
	SimilarityScore float64  `json:"similarityScore"`
	MatchReasons    []string `json:"matchReasons"`
	Notes           *string  `json:"notes"`
}

func (ac *AdminController) AddMatch(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid lead ID"})
	}

	var input matchInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}
	dealID, err := uuid.Parse(input.DealMemoID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid deal ID"})
	}
	if input.SimilarityScore < 0 || input.SimilarityScore > 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "similarityScore must be between 0 and 1"})
	}

	reasons := datatypes.JSONSlice[string]{}
	if input.MatchReasons != nil {
		reasons = datatypes.JSONSlice[string](input.MatchReasons)
	}
	match := model.DealMatch{
		InvestorID:      id,
		PropertyID:      dealID,
		SimilarityScore: input.SimilarityScore,
		MatchReasons:    reasons,
		Notes:           input.Notes,
	}
	if err := ac.leads.AddMatch(c.UserContext(), &match); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Lead or deal not found"})
		}
		slog.Error("Could not add match", slog.Any("error", err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not add match"})
	}
	return c.Status(fiber.StatusCreated).JSON(toMatchResponse(&match))
}

type matchStatusInput struct {
	Status string `json:"status"`
}

func (ac *AdminController) UpdateMatchStatus(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid match ID"})
	}

	var input matchStatusInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	if !model.IsValidMatchStatus(input.Status) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid status",
			"valid_statuses": []string{
				string(model.MatchStatusPending),
				string(model.MatchStatusPresented),
				string(model.MatchStatusAccepted),
				string(model.MatchStatusRejected),
			},
		})
	}

	match, err := ac.leads.UpdateMatchStatus(c.UserContext(), id, model.MatchStatus(input.Status))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Match not found"})
		}
		slog.Error("Could not update match status", slog.Any("error", err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not update match"})
	}
	return c.JSON(toMatchResponse(match))
}

func (ac *AdminController) leadError(c *fiber.Ctx, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Lead not found"})
	}
	slog.Error("Lead operation failed", slog.String("path", c.Path()), slog.Any("error", err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}

func inScoreRange(v *int) bool {
	return v == nil || (*v >= 0 && *v <= 100)
}

func queryDate(c *fiber.Ctx, key string) *time.Time {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		slog.Debug("Ignoring unparseable date filter", slog.String("key", key), slog.String("value", raw))
		return nil
	}
	return &t
}

func invalidStage(c *fiber.Ctx) error {
	stages := model.ValidStageNames()
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":        "Invalid stage. Must be one of: " + strings.Join(stages, ", "),
		"valid_stages": stages,
	})
}
