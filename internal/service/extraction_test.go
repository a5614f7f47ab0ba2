package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blackkeyx_backend/pkg/config"
)

func chatServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o", req["model"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"upstream unavailable","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "gpt-4o",
			"choices": []map[string]interface{}{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]interface{}{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestExtractor(srv *httptest.Server) *OpenAIExtractor {
	return NewOpenAIExtractor(config.OpenAIConfig{APIKey: "test-key", Model: "gpt-4o"}, srv.URL+"/v1")
}

func TestOpenAIExtractor_ParsesStructuredResponse(t *testing.T) {
	payload := `{"name":"Riverside Apartments","dealType":"multifamily","summary":"212 units","thesis":"Value-add",
		"minimumInvestment":50000,"targetReturn":"16% IRR","riskFactors":["Rates"],"idealInvestorProfile":"HNW",
		"structure":"LP/GP","timeline":"5 years","confidence":1.4}`
	extractor := newTestExtractor(chatServer(t, http.StatusOK, payload))

	got := extractor.Extract(context.Background(), "Riverside Apartments offering memorandum")

	assert.Equal(t, "Riverside Apartments", got.Name)
	assert.Equal(t, "multifamily", got.DealType)
	assert.Equal(t, int64(50000), got.MinimumInvestment)
	assert.Equal(t, []string{"Rates"}, got.RiskFactors)
	assert.Equal(t, 1.0, got.Confidence)
	assert.Equal(t, "Riverside Apartments offering memorandum", got.RawText)
	assert.False(t, got.Degraded())
}

func TestOpenAIExtractor_DegradesOnFailure(t *testing.T) {
	longText := strings.Repeat("é", 1500)

	tests := []struct {
		name      string
		extractor *OpenAIExtractor
	}{
		{"no api key", NewOpenAIExtractor(config.OpenAIConfig{Model: "gpt-4o"}, "")},
		{"upstream error", newTestExtractor(chatServer(t, http.StatusInternalServerError, ""))},
		{"invalid json", newTestExtractor(chatServer(t, http.StatusOK, "not json"))},
		{"missing name", newTestExtractor(chatServer(t, http.StatusOK, `{"dealType":"office"}`))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.extractor.Extract(context.Background(), longText)

			assert.True(t, got.Degraded())
			assert.Equal(t, "Untitled Deal", got.Name)
			assert.Equal(t, "unknown", got.DealType)
			assert.Equal(t, "Extraction failed. Please review manually.", got.Summary)
			assert.Equal(t, int64(100000), got.MinimumInvestment)
			assert.Equal(t, []string{"Extraction error - manual review needed"}, got.RiskFactors)
			assert.Equal(t, 0.0, got.Confidence)
			require.Len(t, []rune(got.RawText), 1000)
		})
	}
}

func TestOpenAIExtractor_EmptyTextDegradesWithoutCalling(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("extractor called the API for empty text")
	}))
	defer srv.Close()

	got := NewOpenAIExtractor(config.OpenAIConfig{APIKey: "test-key", Model: "gpt-4o"}, srv.URL).Extract(context.Background(), "  ")
	assert.True(t, got.Degraded())
	assert.Equal(t, "  ", got.RawText)
}

func TestDefaultExtraction(t *testing.T) {
	got := DefaultExtraction("")
	assert.Equal(t, "", got.RawText)
	assert.Equal(t, "TBD", got.TargetReturn)
	assert.Equal(t, "Accredited investors", got.IdealInvestorProfile)
	assert.Equal(t, "LP/GP", got.Structure)
	assert.Equal(t, "5-7 years", got.Timeline)
}
