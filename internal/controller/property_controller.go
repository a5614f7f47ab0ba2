package controller

import (
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"blackkeyx_backend/internal/model"
	"blackkeyx_backend/internal/repository"
	"blackkeyx_backend/internal/service"
	"blackkeyx_backend/pkg/metrics"
	"blackkeyx_backend/pkg/utils/storage"
	"blackkeyx_backend/pkg/utils/validation"
)

// PropertyController manages deal memos and their documents.
type PropertyController struct {
	deals     *repository.PropertyRepository
	documents *service.DocumentService
	blobs     storage.BlobStore
}

func NewPropertyController(deals *repository.PropertyRepository, documents *service.DocumentService, blobs storage.BlobStore) *PropertyController {
	return &PropertyController{deals: deals, documents: documents, blobs: blobs}
}

type featureInput struct {
	AssetType     string                 `json:"assetType"`
	Features      map[string]interface{} `json:"features"`
	YearBuilt     *int                   `json:"yearBuilt"`
	YearRenovated *int                   `json:"yearRenovated"`
	ParkingSpaces *int                   `json:"parkingSpaces"`
}

// apply copies the present fields onto f. A features map replaces the
// stored one.
func (in featureInput) apply(f *model.PropertyFeature) {
	if assetType := strings.TrimSpace(in.AssetType); assetType != "" {
		f.AssetType = assetType
	}
	if in.Features != nil {
		f.Features = datatypes.JSONMap(in.Features)
	}
	if in.YearBuilt != nil {
		f.YearBuilt = in.YearBuilt
	}
	if in.YearRenovated != nil {
		f.YearRenovated = in.YearRenovated
	}
	if in.ParkingSpaces != nil {
		f.ParkingSpaces = in.ParkingSpaces
	}
}

// DealInput is the create and update body. Absent fields are left
// untouched on update.
type DealInput struct {
	Name                 *string       `json:"name"`
	DealType             *string       `json:"dealType"`
	Summary              *string       `json:"summary"`
	Thesis               *string       `json:"thesis"`
	MinimumInvestment    *int64        `json:"minimumInvestment"`
	TargetReturn         *string       `json:"targetReturn"`
	RiskFactors          []string      `json:"riskFactors"`
	IdealInvestorProfile *string       `json:"idealInvestorProfile"`
	Structure            *string       `json:"structure"`
	Timeline             *string       `json:"timeline"`
	Status               *string       `json:"status"`
	Address              *string       `json:"address"`
	City                 *string       `json:"city"`
	State                *string       `json:"state"`
	ZipCode              *string       `json:"zipCode"`
	PurchasePrice        *int64        `json:"purchasePrice"`
	SquareFeet           *int64        `json:"squareFeet"`
	TotalEquityRequired  *int64        `json:"totalEquityRequired"`
	Features             *featureInput `json:"features"`
}

func (in DealInput) apply(p *model.Property) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.DealType != nil {
		p.DealType = strings.TrimSpace(*in.DealType)
	}
	if in.Summary != nil {
		p.Summary = in.Summary
	}
	if in.Thesis != nil {
		p.Thesis = in.Thesis
	}
	if in.MinimumInvestment != nil {
		p.MinimumInvestment = in.MinimumInvestment
	}
	if in.TargetReturn != nil {
		p.TargetReturn = in.TargetReturn
	}
	if in.RiskFactors != nil {
		p.RiskFactors = datatypes.JSONSlice[string](in.RiskFactors)
	}
	if in.IdealInvestorProfile != nil {
		p.IdealInvestorProfile = in.IdealInvestorProfile
	}
	if in.Structure != nil {
		p.Structure = in.Structure
	}
	if in.Timeline != nil {
		p.Timeline = in.Timeline
	}
	if in.Status != nil {
		p.Status = model.DealStatus(*in.Status)
	}
	if in.Address != nil {
		p.Address = in.Address
	}
	if in.City != nil {
		p.City = in.City
	}
	if in.State != nil {
		p.State = in.State
	}
	if in.ZipCode != nil {
		p.ZipCode = in.ZipCode
	}
	if in.PurchasePrice != nil {
		p.PurchasePrice = in.PurchasePrice
	}
	if in.SquareFeet != nil {
		p.SquareFeet = in.SquareFeet
	}
	if in.TotalEquityRequired != nil {
		p.TotalEquityRequired = in.TotalEquityRequired
	}
}

func validDealStatuses() []string {
	return []string{
		string(model.DealStatusActive),
		string(model.DealStatusClosed),
		string(model.DealStatusPaused),
	}
}

func invalidDealStatus(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":          "Invalid status",
		"valid_statuses": validDealStatuses(),
	})
}

// ListDeals returns active deals unless a filter is given.
func (pc *PropertyController) ListDeals(c *fiber.Ctx) error {
	page, pageSize, err := pageParams(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	filter := repository.DealFilter{
		Status:   c.Query("status"),
		DealType: c.Query("dealType"),
		Search:   strings.TrimSpace(c.Query("search")),
	}
	if filter.Status != "" && !model.IsValidDealStatus(filter.Status) {
		return invalidDealStatus(c)
	}
	if filter.MinInvestmentMax, err = queryInt64(c, "minInvestmentMax"); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "minInvestmentMax must be an integer"})
	}

	var (
		deals []model.Property
		total int64
	)
	window := repository.PageFor(page, pageSize)
	if filter.IsEmpty() {
		deals, total, err = pc.deals.GetActiveDeals(c.UserContext(), window)
	} else {
		deals, total, err = pc.deals.SearchDeals(c.UserContext(), filter, window)
	}
	if err != nil {
		slog.Error("Could not list deals", slog.Any("error", err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not fetch deals"})
	}

	items := make([]DealResponse, 0, len(deals))
	for i := range deals {
		items = append(items, toDealResponse(&deals[i]))
	}

	return c.JSON(fiber.Map{
		"deals":      items,
		"total":      total,
		"page":       page,
		"pageSize":   pageSize,
		"totalPages": totalPages(total, pageSize),
	})
}

func (pc *PropertyController) GetDeal(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid deal ID"})
	}

	deal, err := pc.deals.GetWithFeatures(c.UserContext(), id)
	if err != nil {
		return pc.dealError(c, err)
	}
	return c.JSON(toDealResponse(deal))
}

func (pc *PropertyController) CreateDeal(c *fiber.Ctx) error {
	var input DealInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}
	if input.DealType == nil || strings.TrimSpace(*input.DealType) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "dealType is required"})
	}
	if input.Status != nil && !model.IsValidDealStatus(*input.Status) {
		return invalidDealStatus(c)
	}

	var deal model.Property
	input.apply(&deal)

	var features *model.PropertyFeature
	if f := input.Features; f != nil {
		features = &model.PropertyFeature{AssetType: deal.DealType}
		f.apply(features)
	}

	if err := pc.deals.CreateWithFeatures(c.UserContext(), &deal, features); err != nil {
		slog.Error("Could not create deal", slog.Any("error", err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not create deal"})
	}
	slog.Info("Deal created", slog.String("deal_id", deal.ID.String()), slog.String("name", deal.Name))

	return c.Status(fiber.StatusCreated).JSON(toDealResponse(&deal))
}

func (pc *PropertyController) UpdateDeal(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid deal ID"})
	}

	var input DealInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name cannot be empty"})
	}
	if input.DealType != nil && strings.TrimSpace(*input.DealType) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "dealType cannot be empty"})
	}
	if input.Status != nil && !model.IsValidDealStatus(*input.Status) {
		return invalidDealStatus(c)
	}

	deal, err := pc.deals.GetWithFeatures(c.UserContext(), id)
	if err != nil {
		return pc.dealError(c, err)
	}

	input.apply(deal)

	var features *model.PropertyFeature
	if f := input.Features; f != nil {
		features = deal.Features
		if features == nil {
			features = &model.PropertyFeature{AssetType: deal.DealType}
		}
		f.apply(features)
	}

	if err := pc.deals.SaveWithFeatures(c.UserContext(), deal, features); err != nil {
		slog.Error("Could not update deal", slog.Any("error", err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not update deal"})
	}
	return c.JSON(toDealResponse(deal))
}

type dealStatusInput struct {
	Status string `json:"status"`
}

func (pc *PropertyController) UpdateDealStatus(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid deal ID"})
	}

	var input dealStatusInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	switch model.DealStatus(input.Status) {
	case model.DealStatusActive, model.DealStatusClosed, model.DealStatusPaused:
		// valid
	default:
		return invalidDealStatus(c)
	}

	deal, err := pc.deals.UpdateStatus(c.UserContext(), id, model.DealStatus(input.Status))
	if err != nil {
		return pc.dealError(c, err)
	}
	return c.JSON(toDealResponse(deal))
}

func (pc *PropertyController) DeleteDeal(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid deal ID"})
	}

	keys, err := pc.deals.Delete(c.UserContext(), id)
	if err != nil {
		return pc.dealError(c, err)
	}

	for _, key := range keys {
		if err := pc.blobs.Delete(c.UserContext(), key); err != nil {
			slog.Warn("Could not delete document blob",
				slog.String("deal_id", id.String()),
				slog.String("key", key),
				slog.Any("error", err))
		}
	}
	slog.Info("Deal deleted", slog.String("deal_id", id.String()), slog.Int("documents", len(keys)))

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Deal deleted",
	})
}

// UploadDocument stores a standalone memo for a later extract call.
func (pc *PropertyController) UploadDocument(c *fiber.Ctx) error {
	file, body, contentType, err := readDocument(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	uploadID := uuid.New().String()
	if err := pc.blobs.Put(c.UserContext(), storage.UploadKey(uploadID, file), body, contentType); err != nil {
		slog.Error("Could not store upload", slog.Any("error", err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not store document"})
	}

	return c.JSON(fiber.Map{
		"uploadId": uploadID,
		"filename": file,
		"status":   "uploaded",
	})
}

type extractInput struct {
	UploadID string `json:"uploadId"`
	Filename string `json:"filename"`
}

func (pc *PropertyController) ExtractDocument(c *fiber.Ctx) error {
	var input extractInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}
	if _, err := uuid.Parse(input.UploadID); err != nil || input.Filename == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "uploadId and filename are required"})
	}

	extraction, rawText, err := pc.documents.ExtractUpload(c.UserContext(), input.UploadID, input.Filename)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Upload not found"})
		}
		slog.Error("Could not extract document", slog.String("upload_id", input.UploadID), slog.Any("error", err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not extract document"})
	}
	metrics.Extraction(extraction.Degraded())

	return c.JSON(fiber.Map{
		"extraction": extraction,
		"rawText":    rawText,
	})
}

// AttachDocument stores a document against a deal for the extraction sweep.
func (pc *PropertyController) AttachDocument(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid deal ID"})
	}

	if _, err := pc.deals.Get(c.UserContext(), id); err != nil {
		return pc.dealError(c, err)
	}

	filename, body, contentType, err := readDocument(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	size := int64(len(body))
	doc := model.PropertyDocument{
		ID:          uuid.New(),
		PropertyID:  id,
		Filename:    filename,
		ContentType: &contentType,
		FileSize:    &size,
	}
	doc.StorageKey = storage.DocumentKey(id, doc.ID, filename)

	if err := pc.blobs.Put(c.UserContext(), doc.StorageKey, body, contentType); err != nil {
		slog.Error("Could not store document", slog.Any("error", err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not store document"})
	}

	if err := pc.deals.AddDocument(c.UserContext(), &doc); err != nil {
		if delErr := pc.blobs.Delete(c.UserContext(), doc.StorageKey); delErr != nil {
			slog.Warn("Could not remove orphaned blob", slog.String("key", doc.StorageKey), slog.Any("error", delErr))
		}
		return pc.dealError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(toDocumentResponse(&doc))
}

func (pc *PropertyController) dealError(c *fiber.Ctx, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Deal not found"})
	}
	slog.Error("Deal operation failed", slog.String("path", c.Path()), slog.Any("error", err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}

// readDocument validates the "file" form field and reads it fully.
func readDocument(c *fiber.Ctx) (string, []byte, string, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return "", nil, "", validation.ErrFileRequired
	}

	contentType, err := validation.ValidateDocument(header)
	if err != nil {
		return "", nil, "", err
	}

	f, err := header.Open()
	if err != nil {
		return "", nil, "", err
	}
	defer f.Close()

	body, err := io.ReadAll(f)
	if err != nil {
		return "", nil, "", err
	}
	return header.Filename, body, contentType, nil
}
