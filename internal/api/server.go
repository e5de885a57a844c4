package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/david/funding-gateway/internal/catalog"
	"github.com/david/funding-gateway/internal/filter"
	"github.com/david/funding-gateway/internal/ingest"
	"github.com/david/funding-gateway/internal/notify"
	"github.com/david/funding-gateway/internal/settings"
)

type Server struct {
	Echo     *echo.Echo
	Catalog  *catalog.Catalog
	Settings settings.Store

	refreshTimeout time.Duration
	now            func() time.Time

	// Background job tracking
	jobMu    sync.Mutex
	jobs     map[string]*refreshJob
	finished []string // finished job ids, oldest first
}

// maxFinishedJobs bounds how many finished refresh jobs stay queryable.
const maxFinishedJobs = 50

type refreshJob struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"` // running, completed, failed
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at,omitempty"`
	Result    any       `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Options configures a Server.
type Options struct {
	CORSOrigins    []string
	RefreshTimeout time.Duration
}

func NewServer(cat *catalog.Catalog, store settings.Store, opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	if len(opts.CORSOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: opts.CORSOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = 2 * time.Minute
	}

	s := &Server{
		Echo:           e,
		Catalog:        cat,
		Settings:       store,
		refreshTimeout: opts.RefreshTimeout,
		now:            time.Now,
		jobs:           make(map[string]*refreshJob),
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)
	s.Echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.Echo.Group("/api/v1")
	api.GET("/opportunities", s.handleListOpportunities)
	api.GET("/opportunities/:id", s.handleGetOpportunity)
	api.GET("/filter-options", s.handleFilterOptions)
	api.GET("/stats", s.handleGetStats)

	api.POST("/refresh", s.handleRefresh)
	api.GET("/refresh/:id", s.handleJobStatus)

	api.GET("/settings/notifications", s.handleGetSettings)
	api.PUT("/settings/notifications", s.handlePutSettings)
	api.GET("/notifications", s.handleNotifications)
}

// Start listens on port until Shutdown is called.
func (s *Server) Start(port string) error {
	err := s.Echo.Start(":" + port)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// snapshotError maps a catalog failure to a response. Exhausted sources are
// retryable, anything else is an internal error.
func (s *Server) snapshotError(c echo.Context, err error) error {
	if errors.Is(err, ingest.ErrSourcesExhausted) {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "No opportunity source is available, retry with POST /api/v1/refresh"})
	}
	c.Logger().Errorf("Failed to load catalog: %v", err)
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
}

type listResponse struct {
	filter.Page
	FilterKey string        `json:"filter_key"`
	Branch    ingest.Branch `json:"branch"`
}

func (s *Server) handleListOpportunities(c echo.Context) error {
	snap, err := s.Catalog.Snapshot(c.Request().Context())
	if err != nil {
		return s.snapshotError(c, err)
	}

	criteria := parseCriteria(c)

	page := 1
	pageSize := filter.DefaultPageSize
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	if ps, err := strconv.Atoi(c.QueryParam("page_size")); err == nil && ps > 0 && ps <= 100 {
		pageSize = ps
	}
	view := filter.View{FilterKey: c.QueryParam("filter_key")}.Next(criteria, page)

	results := filter.Sort(filter.Apply(snap.Opportunities, criteria))
	return c.JSON(http.StatusOK, listResponse{
		Page:      filter.Paginate(results, view.Page, pageSize),
		FilterKey: view.FilterKey,
		Branch:    snap.Branch,
	})
}

func parseCriteria(c echo.Context) filter.Criteria {
	criteria := filter.Criteria{
		Query:        c.QueryParam("q"),
		Country:      c.QueryParam("country"),
		FundingType:  c.QueryParam("funding_type"),
		Status:       c.QueryParam("status"),
		ThematicPrio: c.QueryParam("thematic_prio"),
		SubRegion:    c.QueryParam("sub_region"),
	}
	if v, err := strconv.Atoi(c.QueryParam("min_relevance")); err == nil && v > 0 {
		criteria.MinRelevance = v
	}
	if v, err := strconv.ParseBool(c.QueryParam("ai_enhanced_only")); err == nil {
		criteria.AIEnhancedOnly = v
	}
	if v, err := strconv.ParseFloat(c.QueryParam("budget_min"), 64); err == nil && v > 0 {
		criteria.BudgetMin = v
	}
	if v, err := strconv.ParseFloat(c.QueryParam("budget_max"), 64); err == nil && v > 0 {
		criteria.BudgetMax = v
	}
	if t, err := time.Parse("2006-01-02", c.QueryParam("deadline_from")); err == nil {
		criteria.DeadlineFrom = t
	}
	if t, err := time.Parse("2006-01-02", c.QueryParam("deadline_to")); err == nil {
		criteria.DeadlineTo = t
	}
	return criteria
}

func (s *Server) handleGetOpportunity(c echo.Context) error {
	opp, ok, err := s.Catalog.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.snapshotError(c, err)
	}
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	}
	return c.JSON(http.StatusOK, opp)
}

func (s *Server) handleFilterOptions(c echo.Context) error {
	snap, err := s.Catalog.Snapshot(c.Request().Context())
	if err != nil {
		return s.snapshotError(c, err)
	}
	return c.JSON(http.StatusOK, filter.Options(snap.Opportunities))
}

func (s *Server) handleGetStats(c echo.Context) error {
	snap, err := s.Catalog.Snapshot(c.Request().Context())
	if err != nil {
		return s.snapshotError(c, err)
	}
	return c.JSON(http.StatusOK, catalog.ComputeStats(snap))
}

type refreshSummary struct {
	RunID       string           `json:"run_id"`
	Branch      ingest.Branch    `json:"branch"`
	Total       int              `json:"total"`
	RefreshedAt time.Time        `json:"refreshed_at"`
	Attempts    []ingest.Attempt `json:"attempts"`
}

func summarize(snap *catalog.Snapshot) refreshSummary {
	return refreshSummary{
		RunID:       snap.RunID,
		Branch:      snap.Branch,
		Total:       len(snap.Opportunities),
		RefreshedAt: snap.RefreshedAt,
		Attempts:    snap.Attempts,
	}
}

func (s *Server) handleRefresh(c echo.Context) error {
	if wait, _ := strconv.ParseBool(c.QueryParam("wait")); wait {
		ctx, cancel := context.WithTimeout(c.Request().Context(), s.refreshTimeout)
		defer cancel()
		snap, err := s.Catalog.Refresh(ctx)
		if err != nil {
			return s.snapshotError(c, err)
		}
		return c.JSON(http.StatusOK, summarize(snap))
	}

	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	startedAt := s.now()
	jobID := s.Catalog.StartRefresh(s.refreshTimeout, s.finishJob)
	// finishJob blocks on jobMu, so the job is registered before it can complete
	s.jobs[jobID] = &refreshJob{ID: jobID, Status: "running", StartedAt: startedAt}

	return c.JSON(http.StatusAccepted, map[string]string{"run_id": jobID, "status": "running"})
}

func (s *Server) finishJob(jobID string, snap *catalog.Snapshot, err error) {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return
	}
	job.EndedAt = s.now()
	if err != nil {
		job.Status = "failed"
		job.Error = err.Error()
	} else {
		job.Status = "completed"
		job.Result = summarize(snap)
	}

	s.finished = append(s.finished, jobID)
	for len(s.finished) > maxFinishedJobs {
		delete(s.jobs, s.finished[0])
		s.finished = s.finished[1:]
	}
}

func (s *Server) handleJobStatus(c echo.Context) error {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	job, ok := s.jobs[c.Param("id")]
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
	}

	resp := map[string]any{
		"id":         job.ID,
		"status":     job.Status,
		"started_at": job.StartedAt,
	}
	if !job.EndedAt.IsZero() {
		resp["ended_at"] = job.EndedAt
		resp["duration"] = job.EndedAt.Sub(job.StartedAt).String()
	}
	if job.Result != nil {
		resp["result"] = job.Result
	}
	if job.Error != "" {
		resp["error"] = job.Error
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleGetSettings(c echo.Context) error {
	ns, err := s.Settings.Load(c.Request().Context())
	if err != nil {
		c.Logger().Errorf("Failed to load settings: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	return c.JSON(http.StatusOK, ns)
}

func (s *Server) handlePutSettings(c echo.Context) error {
	ns := settings.Defaults()
	if err := c.Bind(&ns); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	if err := s.Settings.Save(c.Request().Context(), ns); err != nil {
		if errors.Is(err, settings.ErrInvalidSettings) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		c.Logger().Errorf("Failed to save settings: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	return s.handleGetSettings(c)
}

func (s *Server) handleNotifications(c echo.Context) error {
	ctx := c.Request().Context()
	snap, err := s.Catalog.Snapshot(ctx)
	if err != nil {
		return s.snapshotError(c, err)
	}
	ns, err := s.Settings.Load(ctx)
	if err != nil {
		c.Logger().Errorf("Failed to load settings: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
	return c.JSON(http.StatusOK, notify.Generate(snap.Opportunities, ns, s.now()))
}
