package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"blackkeyx_backend/internal/model"
	"blackkeyx_backend/internal/testutil"
)

func createLead(t *testing.T, repo *InvestorRepository, phone string, score int, capital *int64) *model.InvestorProfile {
	t.Helper()
	lead := &model.InvestorProfile{Phone: phone, LeadScore: score, CapitalAvailable: capital}
	require.NoError(t, repo.Create(context.Background(), lead))
	return lead
}

func createDeal(t *testing.T, db *gorm.DB, name string) *model.Property {
	t.Helper()
	deal := &model.Property{Name: name, DealType: "multifamily"}
	require.NoError(t, db.Create(deal).Error)
	return deal
}

func TestInvestorRepository_CreateAssignsDefaults(t *testing.T) {
	repo := NewInvestorRepository(testutil.NewDB(t))
	lead := createLead(t, repo, "5551230000", 0, nil)

	got, err := repo.Get(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, model.StageNewLead, got.Stage)
	assert.Equal(t, "web", got.Source)
	assert.Equal(t, time.UTC, got.CreatedAt.Location())
}

func TestInvestorRepository_DuplicatePhone(t *testing.T) {
	repo := NewInvestorRepository(testutil.NewDB(t))
	createLead(t, repo, "5551230000", 0, nil)

	err := repo.Create(context.Background(), &model.InvestorProfile{Phone: "5551230000"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestInvestorRepository_GetMissing(t *testing.T) {
	repo := NewInvestorRepository(testutil.NewDB(t))

	_, err := repo.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetWithRelations(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetByPhone(context.Background(), "0000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInvestorRepository_SearchCountsBeforePaging(t *testing.T) {
	repo := NewInvestorRepository(testutil.NewDB(t))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		createLead(t, repo, fmt.Sprintf("55500000%02d", i), 10*i, nil)
	}
	createLead(t, repo, "4440000000", 99, nil)

	filter := LeadFilter{Search: "555"}
	sort := LeadSort{By: "lead_score", Order: "asc"}

	var seen []int
	for page := 1; page <= 3; page++ {
		leads, total, err := repo.SearchLeads(ctx, filter, sort, PageFor(page, 2))
		require.NoError(t, err)
		assert.Equal(t, int64(5), total, "page %d", page)
		for _, l := range leads {
			seen = append(seen, l.LeadScore)
		}
	}
	assert.Equal(t, []int{0, 10, 20, 30, 40}, seen)

	leads, total, err := repo.SearchLeads(ctx, filter, sort, PageFor(4, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Empty(t, leads)
}

func TestInvestorRepository_SearchPredicates(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewInvestorRepository(db)
	ctx := context.Background()

	low := int64(50000)
	high := int64(750000)
	a := createLead(t, repo, "5550000001", 20, &low)
	b := createLead(t, repo, "5550000002", 80, &high)
	createLead(t, repo, "5550000003", 60, nil)

	old := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, db.Model(a).Update("created_at", old).Error)

	_, err := repo.UpdateStage(ctx, b.ID, model.StageCallDispatched, "admin", nil)
	require.NoError(t, err)

	t.Run("stage", func(t *testing.T) {
		leads, total, err := repo.SearchLeads(ctx, LeadFilter{Stage: "call_dispatched"}, LeadSort{}, PageFor(1, 20))
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, b.ID, leads[0].ID)
	})

	t.Run("score range", func(t *testing.T) {
		min, max := 50, 70
		leads, total, err := repo.SearchLeads(ctx, LeadFilter{ScoreMin: &min, ScoreMax: &max}, LeadSort{}, PageFor(1, 20))
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, 60, leads[0].LeadScore)
	})

	t.Run("capital excludes unknown", func(t *testing.T) {
		min := int64(0)
		_, total, err := repo.SearchLeads(ctx, LeadFilter{CapitalMin: &min}, LeadSort{}, PageFor(1, 20))
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})

	t.Run("date range", func(t *testing.T) {
		to := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		leads, total, err := repo.SearchLeads(ctx, LeadFilter{DateTo: &to}, LeadSort{}, PageFor(1, 20))
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, a.ID, leads[0].ID)
	})
}

func TestInvestorRepository_UpdateStageWritesChainedHistory(t *testing.T) {
	repo := NewInvestorRepository(testutil.NewDB(t))
	ctx := context.Background()

	lead := createLead(t, repo, "5551110000", 50, nil)
	_, err := repo.RecordInitialStage(ctx, lead.ID, model.StageNewLead, "Lead submitted via chatbot")
	require.NoError(t, err)

	moves := []model.PipelineStage{
		model.StageCallDispatched,
		model.StageCallCompleted,
		model.StageCallCompleted,
		model.StageUnderReview,
	}
	for _, stage := range moves {
		updated, err := repo.UpdateStage(ctx, lead.ID, stage, "admin", nil)
		require.NoError(t, err)
		assert.Equal(t, stage, updated.Stage)
	}

	history, err := repo.GetStageHistory(ctx, lead.ID)
	require.NoError(t, err)
	require.Len(t, history, len(moves)+1)

	assert.Nil(t, history[0].FromStage)
	assert.Equal(t, "system", history[0].ChangedBy)
	for i := 1; i < len(history); i++ {
		require.NotNil(t, history[i].FromStage)
		assert.Equal(t, history[i-1].ToStage, *history[i].FromStage)
		assert.Equal(t, "admin", history[i].ChangedBy)
	}

	got, err := repo.Get(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, history[len(history)-1].ToStage, got.Stage)
}

func TestInvestorRepository_UpdateStageMissingLead(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewInvestorRepository(db)

	_, err := repo.UpdateStage(context.Background(), uuid.New(), model.StageClosed, "admin", nil)
	assert.ErrorIs(t, err, ErrNotFound)

	var count int64
	require.NoError(t, db.Model(&model.StageHistory{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestInvestorRepository_Stats(t *testing.T) {
	repo := NewInvestorRepository(testutil.NewDB(t))
	ctx := context.Background()

	avg, err := repo.GetAverageScore(ctx)
	require.NoError(t, err)
	assert.Zero(t, avg)

	stats, err := repo.GetStatsByStage(ctx)
	require.NoError(t, err)
	assert.Empty(t, stats)

	createLead(t, repo, "5550000001", 40, nil)
	createLead(t, repo, "5550000002", 70, nil)
	c := createLead(t, repo, "5550000003", 100, nil)
	_, err = repo.UpdateStage(ctx, c.ID, model.StageClosed, "admin", nil)
	require.NoError(t, err)

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	avg, err = repo.GetAverageScore(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 70.0, avg, 0.001)

	stats, err = repo.GetStatsByStage(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"new_lead": 2, "closed": 1}, stats)

	byStage, err := repo.GetByStage(ctx, model.StageNewLead)
	require.NoError(t, err)
	require.Len(t, byStage, 2)
	assert.Equal(t, 70, byStage[0].LeadScore)
}

func TestInvestorRepository_Notes(t *testing.T) {
	repo := NewInvestorRepository(testutil.NewDB(t))
	ctx := context.Background()

	_, err := repo.AddNote(ctx, uuid.New(), "hello", "admin")
	assert.ErrorIs(t, err, ErrNotFound)

	lead := createLead(t, repo, "5550000001", 0, nil)
	note, err := repo.AddNote(ctx, lead.ID, "Called back, wants Q3 deals", "admin")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, note.ID)

	got, err := repo.GetWithRelations(ctx, lead.ID)
	require.NoError(t, err)
	require.Len(t, got.Notes, 1)
	assert.Equal(t, "Called back, wants Q3 deals", got.Notes[0].Content)
}

func TestInvestorRepository_AddConsentRequiresLead(t *testing.T) {
	repo := NewInvestorRepository(testutil.NewDB(t))
	ctx := context.Background()

	_, err := repo.AddConsent(ctx, uuid.New(), "TCPA consent granted via web chatbot", nil, nil)
	assert.Error(t, err)

	lead := createLead(t, repo, "5550000001", 0, nil)
	ip := "203.0.113.9"
	_, err = repo.AddConsent(ctx, lead.ID, "TCPA consent granted via web chatbot", &ip, nil)
	require.NoError(t, err)

	n, err := repo.CountConsents(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestInvestorRepository_Matches(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewInvestorRepository(db)
	ctx := context.Background()

	lead := createLead(t, repo, "5550000001", 0, nil)
	deal := createDeal(t, db, "Austin Multifamily Fund")

	err := repo.AddMatch(ctx, &model.DealMatch{InvestorID: lead.ID, PropertyID: uuid.New()})
	assert.ErrorIs(t, err, ErrNotFound)

	match := &model.DealMatch{InvestorID: lead.ID, PropertyID: deal.ID, SimilarityScore: 0.812345}
	require.NoError(t, repo.AddMatch(ctx, match))
	assert.Equal(t, "Austin Multifamily Fund", match.DealName())
	assert.InDelta(t, 0.8123, match.SimilarityScore, 0.00001)
	assert.Equal(t, model.MatchStatusPending, match.Status)

	require.NoError(t, db.Model(deal).Update("name", "Austin Fund II").Error)

	updated, err := repo.UpdateMatchStatus(ctx, match.ID, model.MatchStatusPresented)
	require.NoError(t, err)
	assert.Equal(t, model.MatchStatusPresented, updated.Status)
	assert.Equal(t, "Austin Fund II", updated.DealName())

	_, err = repo.UpdateMatchStatus(ctx, uuid.New(), model.MatchStatusAccepted)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInvestorRepository_DeleteCascades(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewInvestorRepository(db)
	ctx := context.Background()

	lead := createLead(t, repo, "5550000001", 0, nil)
	deal := createDeal(t, db, "Deal")
	_, err := repo.RecordInitialStage(ctx, lead.ID, model.StageNewLead, "Lead submitted via chatbot")
	require.NoError(t, err)
	_, err = repo.AddNote(ctx, lead.ID, "note", "admin")
	require.NoError(t, err)
	_, err = repo.AddConsent(ctx, lead.ID, "consent", nil, nil)
	require.NoError(t, err)
	require.NoError(t, repo.AddMatch(ctx, &model.DealMatch{InvestorID: lead.ID, PropertyID: deal.ID}))
	require.NoError(t, db.Create(&model.CallSession{InvestorID: lead.ID}).Error)

	require.NoError(t, repo.Delete(ctx, lead.ID))
	assert.ErrorIs(t, repo.Delete(ctx, lead.ID), ErrNotFound)

	for _, m := range []interface{}{
		&model.StageHistory{}, &model.LeadNote{}, &model.Consent{}, &model.DealMatch{}, &model.CallSession{},
	} {
		var count int64
		require.NoError(t, db.Model(m).Count(&count).Error)
		assert.Zero(t, count, "%T", m)
	}

	var deals int64
	require.NoError(t, db.Model(&model.Property{}).Count(&deals).Error)
	assert.Equal(t, int64(1), deals)
}

func TestInvestorRepository_RecentAndCountSince(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewInvestorRepository(db)
	ctx := context.Background()

	old := createLead(t, repo, "5550000001", 0, nil)
	require.NoError(t, db.Model(old).Update("created_at", time.Now().UTC().Add(-72*time.Hour)).Error)
	createLead(t, repo, "5550000002", 0, nil)
	newest := createLead(t, repo, "5550000003", 0, nil)

	n, err := repo.CountSince(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	recent, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, newest.ID, recent[0].ID)
}
