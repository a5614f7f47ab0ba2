// pkg/cron/jobs.go
package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/robfig/cron/v3"

	"blackkeyx_backend/internal/model"
	"blackkeyx_backend/internal/repository"
	"blackkeyx_backend/internal/service"
	"blackkeyx_backend/pkg/config"
	"blackkeyx_backend/pkg/email"
	"blackkeyx_backend/pkg/metrics"
)

const (
	sweepBatchSize = 20
	jobTimeout     = 5 * time.Minute
)

// DigestSender delivers the daily pipeline digest.
type DigestSender interface {
	SendDailyDigest(ctx context.Context, data email.DigestData) error
}

type Jobs struct {
	leads     *repository.InvestorRepository
	deals     *repository.PropertyRepository
	documents *service.DocumentService
	digest    DigestSender
}

func NewJobs(leads *repository.InvestorRepository, deals *repository.PropertyRepository, documents *service.DocumentService, digest DigestSender) *Jobs {
	return &Jobs{leads: leads, deals: deals, documents: documents, digest: digest}
}

// Start schedules the jobs and returns the running scheduler. The digest is
// skipped when no sender is configured.
func (j *Jobs) Start(cfg config.CronConfig) (*cron.Cron, error) {
	c := cron.New()

	if _, err := c.AddFunc(cfg.ExtractionSpec, j.runSweep); err != nil {
		return nil, fmt.Errorf("could not schedule extraction sweep: %w", err)
	}

	if j.digest != nil {
		if _, err := c.AddFunc(cfg.DigestSpec, j.runDigest); err != nil {
			return nil, fmt.Errorf("could not schedule daily digest: %w", err)
		}
	}

	c.Start()
	slog.Info("Cron jobs started",
		slog.String("extraction", cfg.ExtractionSpec),
		slog.Bool("digest", j.digest != nil))
	return c, nil
}

func (j *Jobs) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := j.SweepDocuments(ctx); err != nil {
		slog.Error("Extraction sweep failed", slog.String("error", err.Error()))
	}
}

func (j *Jobs) runDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := j.SendDigest(ctx, time.Now().UTC()); err != nil {
		slog.Error("Daily digest failed", slog.String("error", err.Error()))
	}
}

// SweepDocuments processes pending documents until none are left.
func (j *Jobs) SweepDocuments(ctx context.Context) (int, error) {
	total := 0
	for {
		n, err := j.documents.ProcessPending(ctx, sweepBatchSize)
		total += n
		metrics.DocumentsProcessed.Add(float64(n))
		if err != nil {
			return total, err
		}
		if n < sweepBatchSize {
			break
		}
	}

	if total > 0 {
		slog.Info("Processed pending documents", slog.Int("count", total))
	}
	return total, nil
}

// BuildDigest gathers the pipeline figures as of now.
func (j *Jobs) BuildDigest(ctx context.Context, now time.Time) (email.DigestData, error) {
	data := email.DigestData{Date: now}

	var err error
	if data.TotalLeads, err = j.leads.Count(ctx); err != nil {
		return data, fmt.Errorf("count leads: %w", err)
	}
	if data.NewLeads, err = j.leads.CountSince(ctx, now.Add(-24*time.Hour)); err != nil {
		return data, fmt.Errorf("count new leads: %w", err)
	}
	if data.AverageScore, err = j.leads.GetAverageScore(ctx); err != nil {
		return data, fmt.Errorf("average score: %w", err)
	}
	if data.ActiveDeals, err = j.deals.CountByStatus(ctx, model.DealStatusActive); err != nil {
		return data, fmt.Errorf("count active deals: %w", err)
	}

	byStage, err := j.leads.GetStatsByStage(ctx)
	if err != nil {
		return data, fmt.Errorf("stats by stage: %w", err)
	}
	order := make(map[string]int, len(model.ValidStages))
	for i, s := range model.ValidStages {
		order[string(s)] = i
	}
	for stage, count := range byStage {
		data.ByStage = append(data.ByStage, email.StageCount{Stage: stage, Count: count})
	}
	sort.Slice(data.ByStage, func(a, b int) bool {
		return order[data.ByStage[a].Stage] < order[data.ByStage[b].Stage]
	})

	return data, nil
}

func (j *Jobs) SendDigest(ctx context.Context, now time.Time) error {
	data, err := j.BuildDigest(ctx, now)
	if err != nil {
		return err
	}
	return j.digest.SendDailyDigest(ctx, data)
}
