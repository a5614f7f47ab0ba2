// pkg/email/email.go
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"time"

	"blackkeyx_backend/internal/model"
	"blackkeyx_backend/pkg/config"
)

const resendEndpoint = "https://api.resend.com/emails"

type EmailService struct {
	apiKey    string
	from      string
	to        string
	endpoint  string
	client    *http.Client
	templates *template.Template
}

type EmailData struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Html    string `json:"html"`
}

type NewLeadData struct {
	MaskedPhone  string
	LeadScore    int
	InvestorType string
	Bucket       string
	Capital      int64
	DashboardURL string
}

type StageCount struct {
	Stage string
	Count int64
}

type DigestData struct {
	Date         time.Time
	TotalLeads   int64
	NewLeads     int64
	AverageScore float64
	ActiveDeals  int64
	ByStage      []StageCount
}

// NewEmailService returns nil, nil when mail is not configured; callers
// treat a nil service as disabled.
func NewEmailService(emailCfg config.EmailConfig, adminCfg config.AdminConfig) (*EmailService, error) {
	if emailCfg.ResendAPIKey == "" || adminCfg.NotifyEmail == "" {
		return nil, nil
	}

	templates, err := loadTemplates()
	if err != nil {
		return nil, fmt.Errorf("error loading email templates: %w", err)
	}

	return &EmailService{
		apiKey:    emailCfg.ResendAPIKey,
		from:      emailCfg.From,
		to:        adminCfg.NotifyEmail,
		endpoint:  resendEndpoint,
		client:    &http.Client{Timeout: 15 * time.Second},
		templates: templates,
	}, nil
}

func (s *EmailService) sendTemplateEmail(ctx context.Context, subject, templateName string, data interface{}) error {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return fmt.Errorf("template execution error: %w", err)
	}

	jsonData, err := json.Marshal(EmailData{
		From:    s.from,
		To:      s.to,
		Subject: subject,
		Html:    body.String(),
	})
	if err != nil {
		return fmt.Errorf("error marshaling email data: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("resend API error: status %d: %s", resp.StatusCode, respBody)
	}

	slog.Info("Email sent", slog.String("template", templateName))
	return nil
}

// NotifyNewLead tells the admin inbox about a lead that was just created.
func (s *EmailService) NotifyNewLead(ctx context.Context, lead *model.InvestorProfile) error {
	data := NewLeadData{
		MaskedPhone:  MaskPhone(lead.Phone),
		LeadScore:    lead.LeadScore,
		DashboardURL: fmt.Sprintf("/admin/leads/%s", lead.ID),
	}
	if lead.InvestorType != nil {
		data.InvestorType = *lead.InvestorType
	}
	if lead.QualificationBucket != nil {
		data.Bucket = *lead.QualificationBucket
	}
	if lead.CapitalAvailable != nil {
		data.Capital = *lead.CapitalAvailable
	}

	return s.sendTemplateEmail(ctx, fmt.Sprintf("New lead (score %d)", lead.LeadScore), "new_lead.html", data)
}

func (s *EmailService) SendDailyDigest(ctx context.Context, data DigestData) error {
	subject := fmt.Sprintf("Pipeline digest: %d leads, %d active deals", data.TotalLeads, data.ActiveDeals)
	return s.sendTemplateEmail(ctx, subject, "daily_digest.html", data)
}

// MaskPhone keeps the first six characters, e.g. "555123***".
func MaskPhone(phone string) string {
	if len(phone) <= 6 {
		return phone + "***"
	}
	return phone[:6] + "***"
}
