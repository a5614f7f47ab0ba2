package controller

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blackkeyx_backend/internal/model"
)

func TestDashboardStats_Empty(t *testing.T) {
	env := newTestEnv(t)

	status, raw := env.request(t, http.MethodGet, "/api/v1/admin/stats", nil, true)
	require.Equal(t, http.StatusOK, status)

	body := decode(t, raw)
	assert.Equal(t, float64(0), body["totalLeads"])
	assert.Equal(t, float64(0), body["averageScore"])
	assert.Equal(t, map[string]interface{}{}, body["byStage"])
	assert.Equal(t, []interface{}{}, body["recentActivity"])
}

func TestDashboardStats(t *testing.T) {
	env := newTestEnv(t)
	env.createLead(t, "+15551112222", 10)
	env.createLead(t, "+15553334444", 15)
	env.createLead(t, "+15555556666", 20)
	env.createDeal(t, "Active", model.DealStatusActive)
	env.createDeal(t, "Paused", model.DealStatusPaused)

	status, raw := env.request(t, http.MethodGet, "/api/v1/admin/stats", nil, true)
	require.Equal(t, http.StatusOK, status)

	body := decode(t, raw)
	assert.Equal(t, float64(3), body["totalLeads"])
	assert.Equal(t, float64(15), body["averageScore"])
	assert.Equal(t, float64(1), body["totalDeals"])
	assert.Equal(t, map[string]interface{}{"new_lead": float64(3)}, body["byStage"])

	activity := body["recentActivity"].([]interface{})
	require.Len(t, activity, 3)
	for _, item := range activity {
		entry := item.(map[string]interface{})
		assert.Equal(t, "new_lead", entry["type"])
		assert.Regexp(t, `^New lead from \+1555\d\*\*\*$`, entry["message"])
	}
}
