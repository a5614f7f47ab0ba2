package cron

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blackkeyx_backend/internal/model"
	"blackkeyx_backend/internal/repository"
	"blackkeyx_backend/internal/service"
	"blackkeyx_backend/internal/testutil"
	"blackkeyx_backend/pkg/config"
	"blackkeyx_backend/pkg/email"
	"blackkeyx_backend/pkg/utils/storage"
)

type captureDigest struct {
	sent []email.DigestData
}

func (c *captureDigest) SendDailyDigest(_ context.Context, data email.DigestData) error {
	c.sent = append(c.sent, data)
	return nil
}

func newJobs(t *testing.T, digest DigestSender) (*Jobs, *repository.InvestorRepository, *repository.PropertyRepository, *storage.MemoryStore) {
	t.Helper()
	db := testutil.NewDB(t)
	leads := repository.NewInvestorRepository(db)
	deals := repository.NewPropertyRepository(db)
	blobs := storage.NewMemoryStore()
	docs := service.NewDocumentService(deals, blobs, service.NewOpenAIExtractor(config.OpenAIConfig{}, ""))
	return NewJobs(leads, deals, docs, digest), leads, deals, blobs
}

func TestSendDigest(t *testing.T) {
	ctx := context.Background()
	digest := &captureDigest{}
	jobs, leads, deals, _ := newJobs(t, digest)

	for i, phone := range []string{"5550000001", "5550000002", "5550000003"} {
		require.NoError(t, leads.Create(ctx, &model.InvestorProfile{Phone: phone, LeadScore: 30 * (i + 1)}))
	}
	lead, err := leads.GetByPhone(ctx, "5550000003")
	require.NoError(t, err)
	_, err = leads.UpdateStage(ctx, lead.ID, model.StageCallDispatched, "admin", nil)
	require.NoError(t, err)

	require.NoError(t, deals.CreateWithFeatures(ctx, &model.Property{Name: "A", DealType: "office"}, nil))
	require.NoError(t, deals.CreateWithFeatures(ctx, &model.Property{Name: "B", DealType: "office", Status: model.DealStatusClosed}, nil))

	now := time.Now().UTC()
	require.NoError(t, jobs.SendDigest(ctx, now))

	require.Len(t, digest.sent, 1)
	got := digest.sent[0]
	assert.Equal(t, now, got.Date)
	assert.Equal(t, int64(3), got.TotalLeads)
	assert.Equal(t, int64(3), got.NewLeads)
	assert.InDelta(t, 60.0, got.AverageScore, 0.001)
	assert.Equal(t, int64(1), got.ActiveDeals)
	assert.Equal(t, []email.StageCount{
		{Stage: "new_lead", Count: 2},
		{Stage: "call_dispatched", Count: 1},
	}, got.ByStage)
}

func TestSweepDocuments(t *testing.T) {
	ctx := context.Background()
	jobs, _, deals, blobs := newJobs(t, nil)

	deal := &model.Property{Name: "A", DealType: "office"}
	require.NoError(t, deals.CreateWithFeatures(ctx, deal, nil))
	for i := 0; i < sweepBatchSize+3; i++ {
		key := storage.DocumentKey(deal.ID, deal.ID, "memo.txt") + string(rune('a'+i))
		require.NoError(t, blobs.Put(ctx, key, []byte("memo"), "text/plain"))
		require.NoError(t, deals.AddDocument(ctx, &model.PropertyDocument{PropertyID: deal.ID, StorageKey: key, Filename: "memo.txt"}))
	}

	n, err := jobs.SweepDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, sweepBatchSize+3, n)

	pending, err := deals.ListPendingDocuments(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestStart_RejectsBadSpec(t *testing.T) {
	jobs, _, _, _ := newJobs(t, nil)

	_, err := jobs.Start(config.CronConfig{ExtractionSpec: "not a spec"})
	assert.Error(t, err)

	c, err := jobs.Start(config.CronConfig{ExtractionSpec: "*/5 * * * *"})
	require.NoError(t, err)
	c.Stop()
	assert.Len(t, c.Entries(), 1)
}
