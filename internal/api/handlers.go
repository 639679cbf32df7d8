package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/coopcredit-guard/internal/analytics"
	apperrors "github.com/ZanzyTHEbar/coopcredit-guard/internal/errors"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/ratelimit"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/scoring"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/security"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/types"
)

const (
	maxHistoryLimit   = 1000
	healthPingTimeout = 2 * time.Second
)

// AnalyticsResponse pairs the raw summary with its display rounding
type AnalyticsResponse struct {
	Summary analytics.Summary `json:"summary"`
	Report  analytics.Report  `json:"report"`
}

// FactorsResponse lists the static factor weights
type FactorsResponse struct {
	Factors []analytics.FactorWeight `json:"factors"`
}

// handleHealth godoc
// @Summary      Service health
// @Tags         system
// @Produce      json
// @Success      200  {object}  types.HealthResponse
// @Failure      503  {object}  types.HealthResponse
// @Router       /health [get]
func (s *Server) handleHealth(c *gin.Context) {
	resp := types.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   s.opts.Version,
		Backend:   s.opts.Backend,
	}

	count, err := s.opts.Recorder.Store().Count(c.Request.Context())
	if err != nil {
		s.opts.Logger.StorageLogger("count", s.opts.Backend, 0, err)
		resp.Status = "degraded"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}

	resp.History = count

	pingCtx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
	defer cancel()
	backend := s.opts.Limiter.Backend(pingCtx)
	resp.RateLimiter = string(backend)
	if backend == ratelimit.BackendDegraded {
		// Predictions are still limited, per instance.
		resp.Status = "degraded"
	}

	c.JSON(http.StatusOK, resp)
}

// bindApplicant decodes the request body. Malformed JSON is a validation error.
func bindApplicant(c *gin.Context) (scoring.Applicant, bool) {
	var applicant scoring.Applicant
	if err := c.ShouldBindJSON(&applicant); err != nil {
		_ = c.Error(apperrors.NewValidationError("Malformed applicant", map[string]string{"body": err.Error()}))
		return scoring.Applicant{}, false
	}
	return applicant, true
}

func (s *Server) score(c *gin.Context) (scoring.Applicant, scoring.Prediction, bool) {
	applicant, ok := bindApplicant(c)
	if !ok {
		s.opts.Metrics.IncrementInvalidInput()
		return scoring.Applicant{}, scoring.Prediction{}, false
	}

	prediction, err := scoring.Score(applicant)
	if err != nil {
		s.opts.Metrics.IncrementInvalidInput()
		_ = c.Error(err)
		return scoring.Applicant{}, scoring.Prediction{}, false
	}

	return applicant, prediction, true
}

// wait holds the response for the configured scoring delay
func (s *Server) wait(ctx context.Context) error {
	if s.opts.ScoringDelay <= 0 {
		return nil
	}

	timer := time.NewTimer(s.opts.ScoringDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return apperrors.NewTimeoutError("Scoring interrupted", ctx.Err())
	}
}

// handlePredict godoc
// @Summary      Score and record an applicant
// @Tags         scoring
// @Accept       json
// @Produce      json
// @Param        applicant  body      scoring.Applicant  true  "Loan applicant"
// @Success      201        {object}  types.HistoryEntry
// @Failure      400        {object}  errors.ErrorResponse
// @Failure      429        {object}  errors.ErrorResponse
// @Failure      503        {object}  errors.ErrorResponse
// @Router       /predict [post]
func (s *Server) handlePredict(c *gin.Context) {
	start := time.Now()
	ctx := c.Request.Context()

	applicant, prediction, ok := s.score(c)
	if !ok {
		return
	}

	if err := s.wait(ctx); err != nil {
		_ = c.Error(err)
		return
	}

	entry, err := s.opts.Recorder.Record(ctx, applicant, prediction)
	if err != nil {
		_ = c.Error(err)
		return
	}

	s.opts.Metrics.RecordPrediction(prediction.RiskLevel, true)
	s.opts.Logger.PredictionLogger(entry.ID, prediction, true, time.Since(start))

	c.JSON(http.StatusCreated, entry)
}

// handlePreview godoc
// @Summary      Score an applicant without recording it
// @Tags         scoring
// @Accept       json
// @Produce      json
// @Param        applicant  body      scoring.Applicant  true  "Loan applicant"
// @Success      200        {object}  types.PreviewResponse
// @Failure      400        {object}  errors.ErrorResponse
// @Failure      429        {object}  errors.ErrorResponse
// @Router       /predict/preview [post]
func (s *Server) handlePreview(c *gin.Context) {
	start := time.Now()

	applicant, prediction, ok := s.score(c)
	if !ok {
		return
	}

	breakdown, err := scoring.Breakdown(applicant)
	if err != nil {
		_ = c.Error(err)
		return
	}

	s.opts.Metrics.RecordPrediction(prediction.RiskLevel, false)
	s.opts.Logger.PredictionLogger("", prediction, false, time.Since(start))

	c.JSON(http.StatusOK, types.PreviewResponse{Result: prediction, Breakdown: breakdown})
}

// handleListHistory godoc
// @Summary      Recent history, newest first
// @Tags         history
// @Produce      json
// @Param        limit  query     int  false  "Maximum entries, 0 for all"
// @Success      200    {object}  types.HistoryResponse
// @Failure      400    {object}  errors.ErrorResponse
// @Router       /history [get]
func (s *Server) handleListHistory(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > maxHistoryLimit {
			_ = c.Error(apperrors.NewValidationError("Invalid limit", map[string]string{
				"limit": "must be an integer between 0 and " + strconv.Itoa(maxHistoryLimit),
			}))
			return
		}
		limit = n
	}

	entries, err := s.opts.Recorder.Store().Recent(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if entries == nil {
		entries = []types.HistoryEntry{}
	}

	c.JSON(http.StatusOK, types.HistoryResponse{Entries: entries, Count: len(entries)})
}

// handleGetHistory godoc
// @Summary      One history entry
// @Tags         history
// @Produce      json
// @Param        id   path      string  true  "Entry id"
// @Success      200  {object}  types.HistoryEntry
// @Failure      404  {object}  errors.ErrorResponse
// @Router       /history/{id} [get]
func (s *Server) handleGetHistory(c *gin.Context) {
	entry, err := s.opts.Recorder.Store().Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// handleClearHistory godoc
// @Summary      Clear the history log
// @Tags         history
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  errors.ErrorResponse
// @Router       /history [delete]
func (s *Server) handleClearHistory(c *gin.Context) {
	if err := s.opts.Recorder.Clear(c.Request.Context()); err != nil {
		s.opts.Logger.StorageLogger("clear", s.opts.Backend, 0, err)
		_ = c.Error(err)
		return
	}

	s.opts.Logger.StorageLogger("clear", s.opts.Backend, 0, nil)
	s.opts.Logger.Info("History cleared", "admin", security.AdminSubject(c), "ip", c.ClientIP())
	c.Status(http.StatusNoContent)
}

// handleAnalytics godoc
// @Summary      Portfolio analytics over the history log
// @Tags         analytics
// @Produce      json
// @Success      200  {object}  AnalyticsResponse
// @Failure      503  {object}  errors.ErrorResponse
// @Router       /analytics [get]
func (s *Server) handleAnalytics(c *gin.Context) {
	start := time.Now()

	if summary, found := s.opts.Summaries.Get(); found {
		s.opts.Metrics.IncrementCacheHit()
		s.opts.Logger.AnalyticsLogger(summary.TotalPredictions, true, time.Since(start))
		c.JSON(http.StatusOK, AnalyticsResponse{Summary: summary, Report: analytics.NewReport(summary)})
		return
	}
	s.opts.Metrics.IncrementCacheMiss()

	generation := s.opts.Summaries.Generation()
	entries, err := s.opts.Recorder.Store().List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	summary := analytics.Aggregate(entries)
	s.opts.Summaries.Set(generation, summary)
	s.opts.Logger.AnalyticsLogger(summary.TotalPredictions, false, time.Since(start))

	c.JSON(http.StatusOK, AnalyticsResponse{Summary: summary, Report: analytics.NewReport(summary)})
}

// handleFactors godoc
// @Summary      Static factor weights
// @Tags         analytics
// @Produce      json
// @Success      200  {object}  FactorsResponse
// @Router       /analytics/factors [get]
func (s *Server) handleFactors(c *gin.Context) {
	c.JSON(http.StatusOK, FactorsResponse{Factors: analytics.FactorWeights()})
}

type poolStatser interface {
	PoolStats() map[string]interface{}
}

// handleMetrics godoc
// @Summary      Service counters
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /metrics [get]
func (s *Server) handleMetrics(c *gin.Context) {
	stats := s.opts.Metrics.GetStats()
	stats["analytics_cache"] = s.opts.Summaries.GetStats()
	stats["rate_limiter"] = s.opts.Limiter.GetStats()
	stats["compression"] = s.opts.Compression.GetStats()

	if pooled, ok := s.opts.Recorder.Store().(poolStatser); ok {
		stats["history_pool"] = pooled.PoolStats()
	}

	c.JSON(http.StatusOK, stats)
}
