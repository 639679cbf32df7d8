package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/coopcredit-guard/internal/cache"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/history"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/middleware"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/monitoring"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/ratelimit"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/resilience"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/scoring"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/security"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/types"
)

const adminSecret = "test-secret"

type testEnv struct {
	server  *Server
	store   *history.MemoryStore
	metrics *monitoring.Metrics
}

func newTestEnv(t *testing.T, mutate func(*Options)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := history.NewMemoryStore()
	recorder := history.NewRecorder(store, resilience.StoragePolicy)

	summaries := cache.NewSummaryCache(time.Minute)
	t.Cleanup(summaries.Close)
	recorder.Subscribe(summaries.Invalidate)

	redisClient, err := ratelimit.NewRedisClient("", "", 0)
	require.NoError(t, err)

	metrics := monitoring.NewMetrics()
	limiter := ratelimit.NewRateLimiter(redisClient, ratelimit.Config{PerMinute: 100, BurstMultiplier: 1}, metrics)
	t.Cleanup(limiter.Close)

	opts := Options{
		Recorder:    recorder,
		Backend:     "memory",
		Summaries:   summaries,
		Limiter:     limiter,
		Metrics:     metrics,
		Logger:      &monitoring.Logger{Logger: slog.New(monitoring.NewHandler(io.Discard, slog.LevelError))},
		Security:    security.NewMiddleware(security.DefaultConfig()),
		Compression: middleware.NewCompressionMiddleware(middleware.DefaultCompressionConfig()),
		AdminSecret: adminSecret,
		Version:     "test",
	}
	if mutate != nil {
		mutate(&opts)
	}

	server, err := NewServer(opts)
	require.NoError(t, err)

	return &testEnv{server: server, store: store, metrics: metrics}
}

func (e *testEnv) do(t *testing.T, method, target string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func mediumApplicant() scoring.Applicant {
	return scoring.Applicant{
		Age:              35,
		LoanAmount:       50000,
		LoanTerm:         12,
		Income:           25000,
		Education:        scoring.EducationBachelor,
		Gender:           scoring.GenderFemale,
		MaritalStatus:    scoring.MaritalSingle,
		EmploymentStatus: scoring.EmploymentLicensedProf,
		LoanType:         scoring.LoanRegular,
		LoanAppType:      scoring.AppTypeNew,
		ModeOfPayment:    scoring.PaymentMonthly,
	}
}

func highApplicant() scoring.Applicant {
	return scoring.Applicant{
		Age:              60,
		LoanAmount:       300000,
		LoanTerm:         48,
		Income:           20000,
		Education:        scoring.EducationElementary,
		Gender:           scoring.GenderMale,
		MaritalStatus:    scoring.MaritalWidowed,
		EmploymentStatus: scoring.EmploymentRetired,
		LoanType:         scoring.LoanCollateral,
		LoanAppType:      scoring.AppTypeNew,
		ModeOfPayment:    scoring.PaymentQuarterly,
	}
}

func TestNewServer_RequiresCollaborators(t *testing.T) {
	_, err := NewServer(Options{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[types.HealthResponse](t, w)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "memory", resp.Backend)
	assert.Equal(t, "test", resp.Version)
	assert.Equal(t, 0, resp.History)
	assert.Equal(t, "local", resp.RateLimiter)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestHealth_UnreachableRedisIsDegraded(t *testing.T) {
	env := newTestEnv(t, func(o *Options) {
		client, err := ratelimit.NewRedisClient("127.0.0.1:1", "", 0)
		require.Error(t, err)
		limiter := ratelimit.NewRateLimiter(client, ratelimit.Config{PerMinute: 10, BurstMultiplier: 1}, o.Metrics)
		t.Cleanup(limiter.Close)
		o.Limiter = limiter
	})

	w := env.do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[types.HealthResponse](t, w)
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "degraded", resp.RateLimiter)

	// Scoring keeps working on the local buckets.
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/predict/preview", mediumApplicant(), nil).Code)
}

func TestPredict_RecordsEntry(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/predict", mediumApplicant(), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	entry := decode[types.HistoryEntry](t, w)
	assert.Len(t, entry.ID, 36)
	assert.NotEmpty(t, entry.Timestamp)
	assert.Equal(t, mediumApplicant(), entry.Input)
	assert.Equal(t, 28, entry.Result.DefaultProbability)
	assert.Equal(t, 696, entry.Result.CreditScore)
	assert.Equal(t, scoring.RiskMedium, entry.Result.RiskLevel)
	assert.Len(t, entry.Result.SignificantFactors, 3)
	assert.Equal(t, "100", w.Header().Get("X-RateLimit-Limit"))

	got := env.do(t, http.MethodGet, "/history/"+entry.ID, nil, nil)
	require.Equal(t, http.StatusOK, got.Code)
	assert.Equal(t, entry, decode[types.HistoryEntry](t, got))

	assert.Equal(t, int64(1), env.metrics.GetRiskLevelDistribution()[scoring.RiskMedium])
}

func TestPredict_InvalidInput(t *testing.T) {
	env := newTestEnv(t, nil)

	a := mediumApplicant()
	a.Income = 0
	a.LoanTerm = 0

	w := env.do(t, http.MethodPost, "/predict", a, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decode[map[string]interface{}](t, w)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	fields, ok := body["fields"].(map[string]interface{})
	require.True(t, ok, "fields present")
	assert.Contains(t, fields, "income")
	assert.Contains(t, fields, "loanTerm")

	n, err := env.store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, int64(1), env.metrics.GetStats()["invalid_inputs"])
}

func TestPredict_MalformedBody(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewBufferString(`{"age": "thirty"`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode[map[string]interface{}](t, w)["code"])
}

func TestPredict_RejectsPlainText(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewBufferString("age=35"))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestPredict_ScoringDelay(t *testing.T) {
	t.Run("waits", func(t *testing.T) {
		env := newTestEnv(t, func(o *Options) { o.ScoringDelay = 20 * time.Millisecond })

		start := time.Now()
		w := env.do(t, http.MethodPost, "/predict", mediumApplicant(), nil)
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	})

	t.Run("interrupted by request timeout", func(t *testing.T) {
		env := newTestEnv(t, func(o *Options) {
			cfg := security.DefaultConfig()
			cfg.RequestTimeout = 10 * time.Millisecond
			o.Security = security.NewMiddleware(cfg)
			o.ScoringDelay = time.Second
		})

		w := env.do(t, http.MethodPost, "/predict", mediumApplicant(), nil)
		assert.Equal(t, http.StatusGatewayTimeout, w.Code)

		n, err := env.store.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, n, "nothing is recorded after a timeout")
	})
}

func TestPreview_DoesNotRecord(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/predict/preview", highApplicant(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[types.PreviewResponse](t, w)
	assert.Equal(t, 75, resp.Result.DefaultProbability)
	assert.Equal(t, scoring.RiskHigh, resp.Result.RiskLevel)
	require.Len(t, resp.Breakdown, 9)

	sum := 0
	for _, f := range resp.Breakdown {
		sum += f.Points
	}
	assert.Equal(t, 75, sum)

	n, err := env.store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestHistory_ListAndErrors(t *testing.T) {
	env := newTestEnv(t, nil)

	var ids []string
	for _, a := range []scoring.Applicant{mediumApplicant(), highApplicant(), mediumApplicant()} {
		w := env.do(t, http.MethodPost, "/predict", a, nil)
		require.Equal(t, http.StatusCreated, w.Code)
		ids = append(ids, decode[types.HistoryEntry](t, w).ID)
	}

	tests := []struct {
		name    string
		target  string
		status  int
		wantIDs []string
	}{
		{"all newest first", "/history", http.StatusOK, []string{ids[2], ids[1], ids[0]}},
		{"limited", "/history?limit=2", http.StatusOK, []string{ids[2], ids[1]}},
		{"zero means all", "/history?limit=0", http.StatusOK, []string{ids[2], ids[1], ids[0]}},
		{"negative limit", "/history?limit=-1", http.StatusBadRequest, nil},
		{"non-numeric limit", "/history?limit=ten", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, tt.target, nil, nil)
			require.Equal(t, tt.status, w.Code)
			if tt.status != http.StatusOK {
				return
			}

			resp := decode[types.HistoryResponse](t, w)
			assert.Equal(t, len(tt.wantIDs), resp.Count)
			var got []string
			for _, e := range resp.Entries {
				got = append(got, e.ID)
			}
			assert.Equal(t, tt.wantIDs, got)
		})
	}

	w := env.do(t, http.MethodGet, "/history/does-not-exist", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode[map[string]interface{}](t, w)["code"])
}

func TestHistory_EmptyListIsArray(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/history", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"entries": [], "count": 0}`, w.Body.String())
}

func TestClearHistory(t *testing.T) {
	env := newTestEnv(t, nil)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/predict", mediumApplicant(), nil).Code)

	w := env.do(t, http.MethodDelete, "/history", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := security.MintAdminToken(adminSecret, "treasurer", time.Minute)
	require.NoError(t, err)

	w = env.do(t, http.MethodDelete, "/history", nil, map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusNoContent, w.Code)

	n, err := env.store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestClearHistory_DisabledWithoutSecret(t *testing.T) {
	env := newTestEnv(t, func(o *Options) { o.AdminSecret = "" })

	token, err := security.MintAdminToken(adminSecret, "treasurer", time.Minute)
	require.NoError(t, err)

	w := env.do(t, http.MethodDelete, "/history", nil, map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnalytics_Empty(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/analytics", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var raw struct {
		Summary map[string]json.RawMessage `json:"summary"`
		Report  map[string]json.RawMessage `json:"report"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))

	assert.JSONEq(t, `0`, string(raw.Summary["totalPredictions"]))
	assert.JSONEq(t, `null`, string(raw.Summary["averageDefaultProbability"]))
	assert.JSONEq(t, `null`, string(raw.Summary["averageCreditScore"]))
	assert.JSONEq(t, `{"Low":0,"Medium":0,"High":0,"Critical":0}`, string(raw.Summary["riskLevelCounts"]))
	assert.JSONEq(t, `"—"`, string(raw.Report["averageDefaultProbability"]))
}

func TestAnalytics_CachedUntilHistoryChanges(t *testing.T) {
	env := newTestEnv(t, nil)

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/predict", mediumApplicant(), nil).Code)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/predict", highApplicant(), nil).Code)

	first := decode[AnalyticsResponse](t, env.do(t, http.MethodGet, "/analytics", nil, nil))
	assert.Equal(t, 2, first.Summary.TotalPredictions)
	require.NotNil(t, first.Summary.AverageDefaultProbability)
	assert.InDelta(t, 51.5, *first.Summary.AverageDefaultProbability, 1e-9)
	assert.Equal(t, "51.5", first.Report.AverageDefaultProbability)
	assert.Equal(t, "50.0%", first.Report.ApprovalRate)

	second := decode[AnalyticsResponse](t, env.do(t, http.MethodGet, "/analytics", nil, nil))
	assert.Equal(t, first, second)

	stats := env.metrics.GetStats()
	assert.Equal(t, int64(1), stats["cache_hits"])
	assert.Equal(t, int64(1), stats["cache_misses"])

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/predict", mediumApplicant(), nil).Code)

	third := decode[AnalyticsResponse](t, env.do(t, http.MethodGet, "/analytics", nil, nil))
	assert.Equal(t, 3, third.Summary.TotalPredictions)
	assert.Equal(t, 2, third.Summary.RiskLevelCounts[scoring.RiskMedium])
}

func TestAnalyticsFactors(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/analytics/factors", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[FactorsResponse](t, w)
	require.Len(t, resp.Factors, 9)
	assert.Equal(t, 30, resp.Factors[0].Weight)

	total := 0
	for _, f := range resp.Factors {
		total += f.Weight
	}
	assert.Equal(t, 100, total)
}

func TestPredict_RateLimited(t *testing.T) {
	env := newTestEnv(t, func(o *Options) {
		client, err := ratelimit.NewRedisClient("", "", 0)
		require.NoError(t, err)
		limiter := ratelimit.NewRateLimiter(client, ratelimit.Config{PerMinute: 2, BurstMultiplier: 1}, o.Metrics)
		t.Cleanup(limiter.Close)
		o.Limiter = limiter
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, env.do(t, http.MethodPost, "/predict/preview", mediumApplicant(), nil).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Reads are not limited.
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/history", nil, nil).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/predict", mediumApplicant(), nil).Code)

	w := env.do(t, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	stats := decode[map[string]interface{}](t, w)
	assert.EqualValues(t, 1, stats["predictions_recorded"])
	assert.Contains(t, stats, "analytics_cache")
	assert.Contains(t, stats, "rate_limiter")
	assert.Contains(t, stats, "compression")
	assert.NotContains(t, stats, "history_pool")
}

func TestCompressedHistory(t *testing.T) {
	env := newTestEnv(t, nil)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/predict", mediumApplicant(), nil).Code)

	w := env.do(t, http.MethodGet, "/history", nil, map[string]string{"Accept-Encoding": "gzip"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
}
