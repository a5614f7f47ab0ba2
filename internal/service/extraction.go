package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"

	"blackkeyx_backend/pkg/config"
)

const extractionPrompt = `You are an expert at extracting structured data from real estate investment memorandums.

Extract the following information from the document:
1. Deal/Property Name
2. Deal Type (multifamily, industrial, office, retail, etc.)
3. Executive Summary
4. Investment Thesis
5. Minimum Investment Amount
6. Target Return (IRR or CoC)
7. Key Risk Factors (list)
8. Ideal Investor Profile
9. Deal Structure (LP/GP, REIT, etc.)
10. Investment Timeline/Hold Period

Be precise and extract actual values from the document. If a field is not found, use reasonable defaults based on the deal type.

Respond with a single JSON object with the keys name, dealType, summary, thesis, minimumInvestment (integer USD), targetReturn, riskFactors (array of strings), idealInvestorProfile, structure, timeline and confidence (0-1, based on how much information was clearly extractable).`

const rawTextLimit = 1000

// DealExtraction is the structured record pulled from a deal memo.
type DealExtraction struct {
	Name                 string   `json:"name"`
	DealType             string   `json:"dealType"`
	Summary              string   `json:"summary"`
	Thesis               string   `json:"thesis"`
	MinimumInvestment    int64    `json:"minimumInvestment"`
	TargetReturn         string   `json:"targetReturn"`
	RiskFactors          []string `json:"riskFactors"`
	IdealInvestorProfile string   `json:"idealInvestorProfile"`
	Structure            string   `json:"structure"`
	Timeline             string   `json:"timeline"`
	Confidence           float64  `json:"confidence"`
	RawText              string   `json:"rawText"`
}

// Degraded reports whether this is the placeholder returned on failure.
func (e DealExtraction) Degraded() bool {
	return e.Confidence == 0
}

// Extractor turns document text into a DealExtraction. Implementations
// never fail; they degrade to DefaultExtraction instead.
type Extractor interface {
	Extract(ctx context.Context, text string) DealExtraction
}

// DefaultExtraction is the placeholder used whenever extraction fails.
func DefaultExtraction(text string) DealExtraction {
	return DealExtraction{
		Name:                 "Untitled Deal",
		DealType:             "unknown",
		Summary:              "Extraction failed. Please review manually.",
		Thesis:               "",
		MinimumInvestment:    100000,
		TargetReturn:         "TBD",
		RiskFactors:          []string{"Extraction error - manual review needed"},
		IdealInvestorProfile: "Accredited investors",
		Structure:            "LP/GP",
		Timeline:             "5-7 years",
		Confidence:           0.0,
		RawText:              truncate(text, rawTextLimit),
	}
}

type OpenAIExtractor struct {
	client *openai.Client
	model  string
}

// NewOpenAIExtractor builds an extractor against the OpenAI API. baseURL
// overrides the API root (tests, proxies); empty keeps the default.
func NewOpenAIExtractor(cfg config.OpenAIConfig, baseURL string) *OpenAIExtractor {
	if cfg.APIKey == "" {
		return &OpenAIExtractor{model: cfg.Model}
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}
	return &OpenAIExtractor{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

func (e *OpenAIExtractor) Extract(ctx context.Context, text string) DealExtraction {
	result, err := e.extract(ctx, text)
	if err != nil {
		slog.Warn("Deal extraction degraded", slog.String("error", err.Error()))
		return DefaultExtraction(text)
	}
	return result
}

func (e *OpenAIExtractor) extract(ctx context.Context, text string) (DealExtraction, error) {
	if e.client == nil {
		return DealExtraction{}, errors.New("openai api key not configured")
	}
	if strings.TrimSpace(text) == "" {
		return DealExtraction{}, errors.New("document has no text")
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractionPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return DealExtraction{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return DealExtraction{}, errors.New("chat completion returned no choices")
	}

	var result DealExtraction
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &result); err != nil {
		return DealExtraction{}, fmt.Errorf("decode extraction: %w", err)
	}
	if result.Name == "" {
		return DealExtraction{}, errors.New("extraction has no deal name")
	}

	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 1 {
		result.Confidence = 1
	}
	if result.RiskFactors == nil {
		result.RiskFactors = []string{}
	}
	result.RawText = truncate(text, rawTextLimit)
	return result, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
