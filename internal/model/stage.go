package model

// PipelineStage is the position of a lead in the qualification funnel.
type PipelineStage string

const (
	StageNewLead           PipelineStage = "new_lead"
	StageCallDispatched    PipelineStage = "call_dispatched"
	StageCallCompleted     PipelineStage = "call_completed"
	StageInsightsExtracted PipelineStage = "insights_extracted"
	StageDealsMatched      PipelineStage = "deals_matched"
	StageUnderReview       PipelineStage = "under_review"
	StageClosed            PipelineStage = "closed"
)

// ValidStages is the closed set of pipeline stages, in funnel order.
var ValidStages = []PipelineStage{
	StageNewLead,
	StageCallDispatched,
	StageCallCompleted,
	StageInsightsExtracted,
	StageDealsMatched,
	StageUnderReview,
	StageClosed,
}

func IsValidStage(s string) bool {
	for _, stage := range ValidStages {
		if string(stage) == s {
			return true
		}
	}
	return false
}

// ValidStageNames returns ValidStages as plain strings for error payloads.
func ValidStageNames() []string {
	names := make([]string, len(ValidStages))
	for i, stage := range ValidStages {
		names[i] = string(stage)
	}
	return names
}

// DealStatus
type DealStatus string

const (
	DealStatusActive DealStatus = "active"
	DealStatusClosed DealStatus = "closed"
	DealStatusPaused DealStatus = "paused"
)

func IsValidDealStatus(s string) bool {
	switch DealStatus(s) {
	case DealStatusActive, DealStatusClosed, DealStatusPaused:
		return true
	}
	return false
}

type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "pending"
	MatchStatusPresented MatchStatus = "presented"
	MatchStatusAccepted  MatchStatus = "accepted"
	MatchStatusRejected  MatchStatus = "rejected"
)

func IsValidMatchStatus(s string) bool {
	switch MatchStatus(s) {
	case MatchStatusPending, MatchStatusPresented, MatchStatusAccepted, MatchStatusRejected:
		return true
	}
	return false
}

// Extraction status values for uploaded documents.
const (
	ExtractionPending     = "pending"
	ExtractionCompleted   = "completed"
	ExtractionUnsupported = "unsupported"
	ExtractionFailed      = "failed"
)
