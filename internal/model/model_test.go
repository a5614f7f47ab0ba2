package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestIsValidStage(t *testing.T) {
	for _, stage := range ValidStages {
		assert.True(t, IsValidStage(string(stage)), stage)
	}
	assert.Len(t, ValidStages, 7)

	for _, bad := range []string{"", "NEW_LEAD", "qualified", "closed "} {
		assert.False(t, IsValidStage(bad), bad)
	}
}

func TestValidStageNames(t *testing.T) {
	assert.Equal(t, []string{
		"new_lead", "call_dispatched", "call_completed", "insights_extracted",
		"deals_matched", "under_review", "closed",
	}, ValidStageNames())
}

func TestStatusSets(t *testing.T) {
	assert.True(t, IsValidDealStatus("paused"))
	assert.False(t, IsValidDealStatus("archived"))
	assert.True(t, IsValidMatchStatus("presented"))
	assert.False(t, IsValidMatchStatus("declined"))
}

func TestHasQualification(t *testing.T) {
	tests := []struct {
		name   string
		lead   InvestorProfile
		expect bool
	}{
		{"none", InvestorProfile{}, false},
		{"type only", InvestorProfile{InvestorType: strPtr("hnw")}, false},
		{"bucket only", InvestorProfile{QualificationBucket: strPtr("nurture")}, false},
		{"empty type", InvestorProfile{InvestorType: strPtr(""), QualificationBucket: strPtr("nurture")}, false},
		{"both", InvestorProfile{InvestorType: strPtr("hnw"), QualificationBucket: strPtr("active_intro")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, tt.lead.HasQualification())
		})
	}
}

func TestRoundScore(t *testing.T) {
	assert.InDelta(t, 0.8765, RoundScore(0.87654), 1e-9)
	assert.InDelta(t, 0.25, RoundScore(0.250004), 1e-9)
	assert.Equal(t, 1.0, RoundScore(1))
}

func TestDealName(t *testing.T) {
	m := DealMatch{}
	assert.Equal(t, "", m.DealName())
	m.Property = &Property{Name: "Harbor Logistics"}
	assert.Equal(t, "Harbor Logistics", m.DealName())
}
