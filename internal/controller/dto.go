package controller

import (
	"time"

	"blackkeyx_backend/internal/model"
)

type QualificationResponse struct {
	InvestorType string `json:"investorType"`
	Capacity     string `json:"capacity"`
	Fit          string `json:"fit"`
	Process      string `json:"process"`
	Timing       string `json:"timing"`
	Score        int    `json:"score"`
	Bucket       string `json:"bucket"`
}

type CallRecordResponse struct {
	ID           string     `json:"id"`
	Status       string     `json:"status"`
	Duration     *int       `json:"duration"`
	Transcript   *string    `json:"transcript"`
	RecordingURL *string    `json:"recordingUrl"`
	InitiatedAt  time.Time  `json:"initiatedAt"`
	CompletedAt  *time.Time `json:"completedAt"`
}

type DealMatchResponse struct {
	ID              string    `json:"id"`
	DealMemoID      string    `json:"dealMemoId"`
	DealName        string    `json:"dealName"`
	SimilarityScore float64   `json:"similarityScore"`
	MatchReasons    []string  `json:"matchReasons"`
	Status          string    `json:"status"`
	Notes           *string   `json:"notes"`
	CreatedAt       time.Time `json:"createdAt"`
}

type LeadNoteResponse struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

type StageChangeResponse struct {
	ID        string    `json:"id"`
	FromStage *string   `json:"fromStage"`
	ToStage   string    `json:"toStage"`
	ChangedBy string    `json:"changedBy"`
	Notes     *string   `json:"notes"`
	ChangedAt time.Time `json:"changedAt"`
}

// LeadResponse is a lead with its related rows. The qualification key is
// omitted unless both investor type and bucket are known.
type LeadResponse struct {
	ID                    string                 `json:"id"`
	Name                  *string                `json:"name"`
	Phone                 string                 `json:"phone"`
	Timeline              *string                `json:"timeline"`
	CapitalAvailable      *int64                 `json:"capitalAvailable"`
	InvestmentPreferences []string               `json:"investmentPreferences"`
	InvestmentThesis      *string                `json:"investmentThesis"`
	RiskTolerance         *string                `json:"riskTolerance"`
	Stage                 string                 `json:"stage"`
	LeadScore             int                    `json:"leadScore"`
	Source                string                 `json:"source"`
	CreatedAt             time.Time              `json:"createdAt"`
	UpdatedAt             time.Time              `json:"updatedAt"`
	Calls                 []CallRecordResponse   `json:"calls"`
	Matches               []DealMatchResponse    `json:"matches"`
	Notes                 []LeadNoteResponse     `json:"notes"`
	StageHistory          []StageChangeResponse  `json:"stageHistory"`
	Qualification         *QualificationResponse `json:"qualification,omitempty"`
}

type FeatureResponse struct {
	AssetType     string                 `json:"assetType"`
	Features      map[string]interface{} `json:"features"`
	YearBuilt     *int                   `json:"yearBuilt"`
	YearRenovated *int                   `json:"yearRenovated"`
	ParkingSpaces *int                   `json:"parkingSpaces"`
}

type DocumentResponse struct {
	ID               string    `json:"id"`
	Filename         string    `json:"filename"`
	ContentType      *string   `json:"contentType"`
	FileSize         *int64    `json:"fileSize"`
	ExtractionStatus string    `json:"extractionStatus"`
	CreatedAt        time.Time `json:"createdAt"`
}

type DealResponse struct {
	ID                   string             `json:"id"`
	Name                 string             `json:"name"`
	DealType             string             `json:"dealType"`
	Summary              *string            `json:"summary"`
	Thesis               *string            `json:"thesis"`
	MinimumInvestment    *int64             `json:"minimumInvestment"`
	TargetReturn         *string            `json:"targetReturn"`
	RiskFactors          []string           `json:"riskFactors"`
	IdealInvestorProfile *string            `json:"idealInvestorProfile"`
	Structure            *string            `json:"structure"`
	Timeline             *string            `json:"timeline"`
	Status               string             `json:"status"`
	Address              *string            `json:"address"`
	City                 *string            `json:"city"`
	State                *string            `json:"state"`
	ZipCode              *string            `json:"zipCode"`
	PurchasePrice        *int64             `json:"purchasePrice"`
	SquareFeet           *int64             `json:"squareFeet"`
	TotalEquityRequired  *int64             `json:"totalEquityRequired"`
	DocumentFilename     *string            `json:"documentFilename"`
	CreatedAt            time.Time          `json:"createdAt"`
	UpdatedAt            time.Time          `json:"updatedAt"`
	Features             *FeatureResponse   `json:"features,omitempty"`
	Documents            []DocumentResponse `json:"documents,omitempty"`
}

func toLeadResponse(lead *model.InvestorProfile) LeadResponse {
	resp := LeadResponse{
		ID:                    lead.ID.String(),
		Name:                  lead.Name,
		Phone:                 lead.Phone,
		Timeline:              lead.Timeline,
		CapitalAvailable:      lead.CapitalAvailable,
		InvestmentPreferences: nonNil([]string(lead.InvestmentPreferences)),
		InvestmentThesis:      lead.InvestmentThesis,
		RiskTolerance:         lead.RiskTolerance,
		Stage:                 string(lead.Stage),
		LeadScore:             lead.LeadScore,
		Source:                lead.Source,
		CreatedAt:             lead.CreatedAt,
		UpdatedAt:             lead.UpdatedAt,
		Calls:                 make([]CallRecordResponse, 0, len(lead.Calls)),
		Matches:               make([]DealMatchResponse, 0, len(lead.Matches)),
		Notes:                 make([]LeadNoteResponse, 0, len(lead.Notes)),
		StageHistory:          make([]StageChangeResponse, 0, len(lead.StageHistory)),
	}

	if lead.HasQualification() {
		score := lead.LeadScore
		if lead.QualificationScore != nil {
			score = *lead.QualificationScore
		}
		resp.Qualification = &QualificationResponse{
			InvestorType: *lead.InvestorType,
			Capacity:     deref(lead.Capacity),
			Fit:          deref(lead.Fit),
			Process:      deref(lead.Process),
			Timing:       deref(lead.Timing),
			Score:        score,
			Bucket:       *lead.QualificationBucket,
		}
	}

	for _, call := range lead.Calls {
		resp.Calls = append(resp.Calls, CallRecordResponse{
			ID:           call.ID.String(),
			Status:       call.Status,
			Duration:     call.Duration,
			Transcript:   call.Transcript,
			RecordingURL: call.RecordingURL,
			InitiatedAt:  call.InitiatedAt,
			CompletedAt:  call.CompletedAt,
		})
	}
	for i := range lead.Matches {
		resp.Matches = append(resp.Matches, toMatchResponse(&lead.Matches[i]))
	}
	for _, note := range lead.Notes {
		resp.Notes = append(resp.Notes, toNoteResponse(&note))
	}
	for _, change := range lead.StageHistory {
		var from *string
		if change.FromStage != nil {
			s := string(*change.FromStage)
			from = &s
		}
		resp.StageHistory = append(resp.StageHistory, StageChangeResponse{
			ID:        change.ID.String(),
			FromStage: from,
			ToStage:   string(change.ToStage),
			ChangedBy: change.ChangedBy,
			Notes:     change.Notes,
			ChangedAt: change.ChangedAt,
		})
	}

	return resp
}

func toMatchResponse(m *model.DealMatch) DealMatchResponse {
	return DealMatchResponse{
		ID:              m.ID.String(),
		DealMemoID:      m.PropertyID.String(),
		DealName:        m.DealName(),
		SimilarityScore: m.SimilarityScore,
		MatchReasons:    nonNil([]string(m.MatchReasons)),
		Status:          string(m.Status),
		Notes:           m.Notes,
		CreatedAt:       m.CreatedAt,
	}
}

func toNoteResponse(n *model.LeadNote) LeadNoteResponse {
	return LeadNoteResponse{
		ID:        n.ID.String(),
		Content:   n.Content,
		CreatedBy: n.CreatedBy,
		CreatedAt: n.CreatedAt,
	}
}

func toDealResponse(p *model.Property) DealResponse {
	resp := DealResponse{
		ID:                   p.ID.String(),
		Name:                 p.Name,
		DealType:             p.DealType,
		Summary:              p.Summary,
		Thesis:               p.Thesis,
		MinimumInvestment:    p.MinimumInvestment,
		TargetReturn:         p.TargetReturn,
		RiskFactors:          nonNil([]string(p.RiskFactors)),
		IdealInvestorProfile: p.IdealInvestorProfile,
		Structure:            p.Structure,
		Timeline:             p.Timeline,
		Status:               string(p.Status),
		Address:              p.Address,
		City:                 p.City,
		State:                p.State,
		ZipCode:              p.ZipCode,
		PurchasePrice:        p.PurchasePrice,
		SquareFeet:           p.SquareFeet,
		TotalEquityRequired:  p.TotalEquityRequired,
		DocumentFilename:     p.DocumentFilename,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}

	if f := p.Features; f != nil {
		resp.Features = &FeatureResponse{
			AssetType:     f.AssetType,
			Features:      map[string]interface{}(f.Features),
			YearBuilt:     f.YearBuilt,
			YearRenovated: f.YearRenovated,
			ParkingSpaces: f.ParkingSpaces,
		}
	}
	for i := range p.Documents {
		resp.Documents = append(resp.Documents, toDocumentResponse(&p.Documents[i]))
	}
	return resp
}

func toDocumentResponse(d *model.PropertyDocument) DocumentResponse {
	return DocumentResponse{
		ID:               d.ID.String(),
		Filename:         d.Filename,
		ContentType:      d.ContentType,
		FileSize:         d.FileSize,
		ExtractionStatus: d.ExtractionStatus,
		CreatedAt:        d.CreatedAt,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
