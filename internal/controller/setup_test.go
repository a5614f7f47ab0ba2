package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"blackkeyx_backend/internal/model"
	"blackkeyx_backend/internal/repository"
	"blackkeyx_backend/internal/service"
	"blackkeyx_backend/internal/testutil"
	"blackkeyx_backend/pkg/utils/jwt"
	"blackkeyx_backend/pkg/utils/storage"
	"blackkeyx_backend/pkg/utils/validation"
)

const testPassword = "letmein"

type stubExtractor struct {
	calls int
}

func (s *stubExtractor) Extract(_ context.Context, text string) service.DealExtraction {
	s.calls++
	if text == "" {
		return service.DefaultExtraction(text)
	}
	return service.DealExtraction{
		Name:       "Extracted Deal",
		DealType:   "industrial",
		Summary:    "From the memo",
		Confidence: 0.9,
		RawText:    text,
	}
}

type testEnv struct {
	app       *fiber.App
	db        *gorm.DB
	leads     *repository.InvestorRepository
	deals     *repository.PropertyRepository
	blobs     *storage.MemoryStore
	extractor *stubExtractor
	token     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	leads := repository.NewInvestorRepository(db)
	deals := repository.NewPropertyRepository(db)
	blobs := storage.NewMemoryStore()
	extractor := &stubExtractor{}
	issuer := jwt.NewIssuer("test-secret")

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	token, err := issuer.GenerateToken()
	require.NoError(t, err)

	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler,
		BodyLimit:    validation.MaxDocumentSize + 1<<20,
	})
	SetupRoutes(app, Controllers{
		Auth:       NewAuthController(hash, issuer),
		Leads:      NewLeadController(service.NewLeadIntakeService(db, nil)),
		Admin:      NewAdminController(leads),
		Stats:      NewStatsController(leads, deals),
		Properties: NewPropertyController(deals, service.NewDocumentService(deals, blobs, extractor), blobs),
	}, issuer)

	return &testEnv{
		app:       app,
		db:        db,
		leads:     leads,
		deals:     deals,
		blobs:     blobs,
		extractor: extractor,
		token:     token,
	}
}

// request sends a JSON request, authenticated when admin is true, and
// returns the status with the raw body.
func (e *testEnv) request(t *testing.T, method, path string, body interface{}, admin bool) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if admin {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	return e.send(t, req)
}

func (e *testEnv) send(t *testing.T, req *http.Request) (int, []byte) {
	t.Helper()

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

// upload posts a multipart form with a single "file" field.
func (e *testEnv) upload(t *testing.T, path, filename string, content []byte) (int, []byte) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+e.token)
	return e.send(t, req)
}

func decode(t *testing.T, raw []byte) map[string]interface{} {
	t.Helper()

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func (e *testEnv) createLead(t *testing.T, phone string, score int) *model.InvestorProfile {
	t.Helper()

	lead := &model.InvestorProfile{Phone: phone, LeadScore: score}
	require.NoError(t, e.leads.Create(context.Background(), lead))
	_, err := e.leads.RecordInitialStage(context.Background(), lead.ID, model.StageNewLead, service.InitialStageNote)
	require.NoError(t, err)
	return lead
}

func (e *testEnv) createDeal(t *testing.T, name string, status model.DealStatus) *model.Property {
	t.Helper()

	deal := &model.Property{Name: name, DealType: "multifamily", Status: status}
	require.NoError(t, e.deals.CreateWithFeatures(context.Background(), deal, nil))
	return deal
}

func strPtr(s string) *string { return &s }
