package gate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codeberg.org/planhub/server/internal/access"
	"codeberg.org/planhub/server/internal/concurrency"
	"codeberg.org/planhub/server/internal/ratelimit"
	"codeberg.org/planhub/server/internal/tiers"
	"codeberg.org/planhub/server/planhub/accounts"
	"codeberg.org/planhub/server/planhub/projects"
	"codeberg.org/planhub/server/planhub/usage"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAccountID = "3f8417f2-1436-4d2c-9d40-0c519d31b2b0"
	testProjectID = "a1d9a3a7-4c57-4bfb-9a76-42a1e6c98a11"
	testOwnerID   = "b2b6c8e0-7c5e-4d0a-8ad2-6f1e2a3b4c5d"
)

type fakeAccounts struct {
	account *accounts.Account
	err     error

	resetErr  error
	increment int
}

func (f *fakeAccounts) FindByID(_ context.Context, accountID string) (*accounts.Account, error) {
	if f.err != nil {
		return nil, f.err
	}

	if f.account == nil || f.account.ID != accountID {
		return nil, pgx.ErrNoRows
	}

	return f.account, nil
}

func (f *fakeAccounts) ResetDailyUsage(_ context.Context, _ string, _ time.Time) error {
	return f.resetErr
}

func (f *fakeAccounts) IncrementDailyUsage(_ context.Context, _ string) error {
	f.increment++
	return nil
}

type fakeSink struct {
	entries []*usage.Entry
}

func (f *fakeSink) Append(_ context.Context, entry *usage.Entry) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fakeProjects struct {
	project    *projects.Project
	membership *projects.Membership
	err        error
}

func (f *fakeProjects) FindProject(_ context.Context, projectID string) (*projects.Project, error) {
	if f.err != nil {
		return nil, f.err
	}

	if f.project == nil || f.project.ID != projectID {
		return nil, pgx.ErrNoRows
	}

	return f.project, nil
}

func (f *fakeProjects) FindMembership(_ context.Context, projectID, accountID string) (*projects.Membership, error) {
	if f.err != nil {
		return nil, f.err
	}

	m := f.membership
	if m == nil || m.ProjectID != projectID || m.AccountID != accountID || !m.Active {
		return nil, pgx.ErrNoRows
	}

	return m, nil
}

func (f *fakeProjects) AddMember(_ context.Context, _, _ string, _ projects.AccessLevel, _ string) (*projects.Membership, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeProjects) UpdateMemberAccess(_ context.Context, _, _ string, _ projects.AccessLevel) (*projects.Membership, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeProjects) RemoveMember(_ context.Context, _, _ string) error {
	return errors.New("not implemented")
}

func (f *fakeProjects) ListOwned(_ context.Context, _ string) ([]*projects.Project, error) {
	return nil, nil
}

func (f *fakeProjects) ListMemberProjects(_ context.Context, _ string) ([]*projects.ProjectSummary, error) {
	return nil, nil
}

func testAccount(tier tiers.Tier) *accounts.Account {
	return &accounts.Account{
		ID:        testAccountID,
		Email:     "member@example.com",
		Tier:      tier,
		ResetDate: time.Now(),
		Active:    true,
	}
}

type gateFixture struct {
	gate     *Gate
	store    *fakeAccounts
	sink     *fakeSink
	projects *fakeProjects
}

func newFixture(account *accounts.Account) *gateFixture {
	store := &fakeAccounts{account: account}
	sink := &fakeSink{}
	proj := &fakeProjects{}

	return &gateFixture{
		gate:     New(store, ratelimit.New(store, sink), concurrency.NewGuard(concurrency.NewLocalStore()), access.NewResolver(proj)),
		store:    store,
		sink:     sink,
		projects: proj,
	}
}

// builds a router with the caller identity pre-set, the way AuthMiddleware
// would leave it
func (f *gateFixture) router(opts Options, handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	r.Use(func(c *gin.Context) {
		c.Set("account_id", testAccountID)
		c.Next()
	})

	if handler == nil {
		handler = func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		}
	}

	r.POST("/api/generate", f.gate.Protect(opts), handler)
	r.GET("/api/projects/:id/plans", f.gate.Protect(opts), handler)

	return r
}

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestProtectAllowsAndRecords(t *testing.T) {
	f := newFixture(testAccount(tiers.TierPro))
	r := f.router(Options{CallType: "plan_generation"}, func(c *gin.Context) {
		ReportUsage(c, 1234, 0.0125)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := doJSON(r, http.MethodPost, "/api/generate", gin.H{"prompt": "draft a rollout plan"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "99", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))

	require.Len(t, f.sink.entries, 1)
	entry := f.sink.entries[0]
	assert.Equal(t, ratelimit.OutcomeSuccess, entry.Outcome)
	assert.Equal(t, "plan_generation", entry.CallType)
	assert.Equal(t, 1234, entry.TokensUsed)
	assert.Equal(t, 1, f.store.increment)
}

func TestProtectRequiresAuthentication(t *testing.T) {
	f := newFixture(testAccount(tiers.TierPro))

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/generate", f.gate.Protect(Options{}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := doJSON(r, http.MethodPost, "/api/generate", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, f.sink.entries)
}

func TestProtectDeniesExhaustedQuota(t *testing.T) {
	account := testAccount(tiers.TierStarter)
	account.DailyUsed = 20

	f := newFixture(account)

	var handlerRan bool

	r := f.router(Options{}, func(c *gin.Context) {
		handlerRan = true
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := doJSON(r, http.MethodPost, "/api/generate", gin.H{"prompt": "hi"})

	require.Equal(t, http.StatusTooManyRequests, w.Code)

	// the denial must short-circuit the chain, not just write a response
	assert.False(t, handlerRan)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "quota_exceeded", resp["error"])
	assert.NotEmpty(t, resp["reset_time"])

	// denied calls still reach the ledger, but never the counter
	require.Len(t, f.sink.entries, 1)
	assert.Equal(t, ratelimit.OutcomeRateLimited, f.sink.entries[0].Outcome)
	assert.Equal(t, 0, f.store.increment)
}

func TestProtectDeniesOversizedPayload(t *testing.T) {
	f := newFixture(testAccount(tiers.TierStarter))
	r := f.router(Options{}, nil)

	// Starter caps a single call at 4,000 tokens; ~20KB of payload estimates
	// well past that
	w := doJSON(r, http.MethodPost, "/api/generate", gin.H{"prompt": string(make([]byte, 20_000))})

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, 0, f.store.increment)
}

func TestProtectFailsOpenOnQuotaFault(t *testing.T) {
	account := testAccount(tiers.TierPro)
	account.ResetDate = time.Now().AddDate(0, 0, -1)

	f := newFixture(account)
	f.store.resetErr = errors.New("connection refused")

	r := f.router(Options{}, nil)

	w := doJSON(r, http.MethodPost, "/api/generate", gin.H{"prompt": "hi"})

	assert.Equal(t, http.StatusOK, w.Code)

	// the true remaining count is unknown during the outage, so no quota
	// headers are advertised
	assert.Empty(t, w.Header().Get("X-RateLimit-Remaining"))
	assert.Empty(t, w.Header().Get("X-RateLimit-Reset"))
}

func TestProtectFailsClosedOnAccessFault(t *testing.T) {
	f := newFixture(testAccount(tiers.TierPro))
	f.projects.err = errors.New("connection refused")

	var handlerRan bool

	r := f.router(Options{Permission: access.PermView}, func(c *gin.Context) {
		handlerRan = true
		c.Status(http.StatusOK)
	})

	w := doJSON(r, http.MethodGet, "/api/projects/"+testProjectID+"/plans", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.False(t, handlerRan)
}

func TestProtectProjectScopedDenials(t *testing.T) {
	f := newFixture(testAccount(tiers.TierPro))
	f.projects.project = &projects.Project{ID: testProjectID, OwnerID: testOwnerID, Active: true}

	r := f.router(Options{Permission: access.PermManageMembers}, nil)

	// no membership at all
	w := doJSON(r, http.MethodGet, "/api/projects/"+testProjectID+"/plans", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// membership below the required permission
	f.projects.membership = &projects.Membership{
		ProjectID:   testProjectID,
		AccountID:   testAccountID,
		AccessLevel: projects.LevelContributor,
		Active:      true,
	}

	w = doJSON(r, http.MethodGet, "/api/projects/"+testProjectID+"/plans", nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "permission_insufficient", resp["error"])
	assert.Equal(t, access.PermManageMembers, resp["required_permission"])

	// unknown project gets the generic not found
	w = doJSON(r, http.MethodGet, "/api/projects/b0000000-0000-4000-8000-000000000000/plans", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProtectProjectScopedAllow(t *testing.T) {
	f := newFixture(testAccount(tiers.TierPro))
	f.projects.project = &projects.Project{ID: testProjectID, OwnerID: testOwnerID, Active: true}
	f.projects.membership = &projects.Membership{
		ProjectID:   testProjectID,
		AccountID:   testAccountID,
		AccessLevel: projects.LevelEditor,
		Active:      true,
	}

	var gotProject string
	var gotLevel projects.AccessLevel

	r := f.router(Options{Permission: access.PermView}, func(c *gin.Context) {
		gotProject, _ = ProjectIDFromContext(c)
		gotLevel, _ = AccessLevelFromContext(c)
		c.Status(http.StatusOK)
	})

	w := doJSON(r, http.MethodGet, "/api/projects/"+testProjectID+"/plans", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testProjectID, gotProject)
	assert.Equal(t, projects.LevelEditor, gotLevel)
}

func TestProtectProjectIDFromBody(t *testing.T) {
	f := newFixture(testAccount(tiers.TierPro))
	f.projects.project = &projects.Project{ID: testProjectID, OwnerID: testAccountID, Active: true}

	var sawBody string

	r := f.router(Options{Permission: access.PermCreate}, func(c *gin.Context) {
		var payload struct {
			ProjectID string `json:"project_id"`
			Prompt    string `json:"prompt"`
		}

		if err := c.ShouldBindJSON(&payload); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}

		sawBody = payload.Prompt
		c.Status(http.StatusOK)
	})

	w := doJSON(r, http.MethodPost, "/api/generate", gin.H{"project_id": testProjectID, "prompt": "draft"})

	require.Equal(t, http.StatusOK, w.Code)

	// the gate buffered the body, the handler still got the full payload
	assert.Equal(t, "draft", sawBody)
}

func TestProtectProjectOptional(t *testing.T) {
	f := newFixture(testAccount(tiers.TierPro))

	r := f.router(Options{Permission: access.PermUseAI, ProjectOptional: true}, func(c *gin.Context) {
		_, scoped := ProjectIDFromContext(c)
		assert.False(t, scoped)
		c.Status(http.StatusOK)
	})

	w := doJSON(r, http.MethodPost, "/api/generate", gin.H{"prompt": "draft"})
	assert.Equal(t, http.StatusOK, w.Code)

	// without the optional flag the same request is rejected outright
	r = f.router(Options{Permission: access.PermUseAI}, nil)
	w = doJSON(r, http.MethodPost, "/api/generate", gin.H{"prompt": "draft"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProtectFeatureDenied(t *testing.T) {
	f := newFixture(testAccount(tiers.TierStarter))
	r := f.router(Options{Feature: tiers.FeatureAIDrafting}, nil)

	w := doJSON(r, http.MethodPost, "/api/generate", gin.H{"prompt": "hi"})

	require.Equal(t, http.StatusForbidden, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "feature_denied", resp["error"])
	assert.Equal(t, tiers.FeatureAIDrafting, resp["required_feature"])
}

func TestProtectConcurrencyCeiling(t *testing.T) {
	f := newFixture(testAccount(tiers.TierStarter))

	blocked := make(chan struct{})
	released := make(chan struct{})

	r := f.router(Options{}, func(c *gin.Context) {
		close(blocked)
		<-released
		c.Status(http.StatusOK)
	})

	go func() {
		doJSON(r, http.MethodPost, "/api/generate", gin.H{"prompt": "hi"})
	}()

	<-blocked

	// Starter allows one in-flight call; the second is turned away
	w := doJSON(r, http.MethodPost, "/api/generate", gin.H{"prompt": "hi"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	close(released)
}

func TestProtectUnknownAccount(t *testing.T) {
	f := newFixture(nil)
	r := f.router(Options{}, nil)

	w := doJSON(r, http.MethodPost, "/api/generate", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEstimateTokens(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(make([]byte, 8_000)))

	assert.Equal(t, 2_000, estimateTokens(c))

	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("tiny")))
	assert.Equal(t, minTokenEstimate, estimateTokens(c))

	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, minTokenEstimate, estimateTokens(c))
}
