// Package optimizations exposes optimisation jobs over HTTP.
package optimizations

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kilianp07/pvihk/app"
	"github.com/kilianp07/pvihk/core/logger"
	"github.com/kilianp07/pvihk/core/model"
	"github.com/kilianp07/pvihk/core/planner"
)

type runner interface {
	Submit(in model.Input) (string, error)
	Run(ctx context.Context, in model.Input) (*planner.Output, *planner.Result, error)
	Job(id string) (app.Job, error)
}

// Handler serves the optimisation endpoints.
type Handler struct {
	runner runner
	log    logger.Logger
}

// NewHandler constructs the handler.
func NewHandler(r runner, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Handler{runner: r, log: log}
}

// Register mounts the routes on rg.
func (h *Handler) Register(rg gin.IRoutes) {
	rg.POST("/optimizations", h.Submit)
	rg.POST("/optimizations/solve", h.Solve)
	rg.GET("/optimizations/:id", h.Get)
	rg.GET("/optimizations/:id/report", h.Report)
}

// NewRouter returns a gin engine serving the handler under /api.
func NewRouter(r *app.Runner, log logger.Logger) http.Handler {
	if log == nil {
		log = logger.NopLogger{}
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(log))
	engine.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	NewHandler(r, log).Register(engine.Group("/api"))
	return engine
}

func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debugw("http request", map[string]any{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
	}
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error  string `json:"error"`
	Field  string `json:"field,omitempty"`
	Status string `json:"status,omitempty"`
}

// JobResponse describes a job.
type JobResponse struct {
	ID           string                     `json:"id"`
	State        app.JobState               `json:"state"`
	Status       string                     `json:"status,omitempty"`
	Submitted    time.Time                  `json:"submitted"`
	Finished     *time.Time                 `json:"finished,omitempty"`
	Error        string                     `json:"error,omitempty"`
	Distribution map[string][]planner.Entry `json:"verteilung,omitempty"`
	Summary      *Summary                   `json:"summary,omitempty"`
}

// Summary condenses a result for job listings.
type Summary struct {
	Objective   float64        `json:"objective"`
	Nodes       int            `json:"nodes"`
	ElapsedMS   int64          `json:"elapsed_ms"`
	Loads       map[string]int `json:"loads"`
	Unscheduled []string       `json:"unscheduled,omitempty"`
}

// Submit handles POST /api/optimizations.
func (h *Handler) Submit(c *gin.Context) {
	in, ok := h.bind(c)
	if !ok {
		return
	}
	id, err := h.runner.Submit(in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Location", "/api/optimizations/"+id)
	c.JSON(http.StatusAccepted, gin.H{"id": id})
}

// Solve handles POST /api/optimizations/solve and answers with the output.
func (h *Handler) Solve(c *gin.Context) {
	in, ok := h.bind(c)
	if !ok {
		return
	}
	out, _, err := h.runner.Run(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Get handles GET /api/optimizations/:id.
func (h *Handler) Get(c *gin.Context) {
	job, err := h.runner.Job(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(job))
}

// Report handles GET /api/optimizations/:id/report.
func (h *Handler) Report(c *gin.Context) {
	job, err := h.runner.Job(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	switch job.State {
	case app.JobRunning:
		c.JSON(http.StatusConflict, ErrorResponse{Error: "job is still running"})
	case app.JobFailed:
		h.writeError(c, job.Err)
	default:
		c.Header("Content-Disposition", `attachment; filename="distribution-`+job.ID+`.pdf"`)
		contentType := job.Output.ContentType
		if contentType == "" {
			contentType = "application/pdf"
		}
		c.Data(http.StatusOK, contentType, job.Output.PDF)
	}
}

func (h *Handler) bind(c *gin.Context) (model.Input, bool) {
	format := "json"
	if strings.Contains(c.ContentType(), "yaml") {
		format = "yaml"
	}
	in, err := model.DecodeInput(c.Request.Body, format)
	if err != nil {
		h.writeError(c, err)
		return model.Input{}, false
	}
	return in, true
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var ve *model.ValidationError
	var oe *planner.OptimizationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Field: ve.Field})
	case errors.As(err, &oe):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Status: oe.Status})
	case errors.Is(err, app.ErrBusy):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, app.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	default:
		h.log.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

func toResponse(job app.Job) JobResponse {
	resp := JobResponse{ID: job.ID, State: job.State, Submitted: job.Submitted}
	if !job.Finished.IsZero() {
		finished := job.Finished
		resp.Finished = &finished
	}
	if job.Err != nil {
		resp.Error = job.Err.Error()
	}
	if res := job.Result; res != nil {
		resp.Status = res.Status
		resp.Distribution = res.Distribution()
		s := &Summary{Objective: res.Objective, Nodes: res.Nodes, ElapsedMS: res.Elapsed.Milliseconds(), Loads: res.Loads}
		for _, e := range res.Unscheduled {
			s.Unscheduled = append(s.Unscheduled, e.Name)
		}
		resp.Summary = s
	}
	return resp
}
