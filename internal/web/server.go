package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"PolicyDigest/internal/domain"
	"PolicyDigest/internal/logging"
	"PolicyDigest/internal/pipeline"
	"PolicyDigest/internal/usecase"
)

//go:embed templates/*.html
var templateFS embed.FS

// CurationService is the editor wizard as seen by the handlers.
type CurationService interface {
	State(ctx context.Context, sid string) (pipeline.State, error)
	Start(ctx context.Context, sid, startDate string, useAI bool) (pipeline.State, error)
	Load(ctx context.Context, sid string, stage domain.Stage) error
	Submit(ctx context.Context, sid string, stage domain.Stage, kind pipeline.Kind, form usecase.Form) (pipeline.State, error)
	Render(ctx context.Context, sid string, stage domain.Stage) (usecase.StageView, error)
	Categorize(ctx context.Context, sid string) (usecase.CategorizeResult, error)
	Review(ctx context.Context, sid string) (usecase.ReviewView, error)
	Move(ctx context.Context, sid, id string, from, to domain.Label, position int) error
	Rename(ctx context.Context, sid, id, title string) error
	AddSublink(ctx context.Context, sid, id string, link domain.Link) error
	RemoveSublink(ctx context.Context, sid, id string, index int) error
	Export(ctx context.Context, sid string, w io.Writer) error
	Reset(ctx context.Context, sid string) error
}

// CalendarService creates and pulls hearing events.
type CalendarService interface {
	CreateFromURL(ctx context.Context, pageURL string) (usecase.CreateResult, error)
	Pull(ctx context.Context, from, to time.Time) ([]domain.PulledEvent, error)
	GroupByDay(events []domain.PulledEvent) []usecase.DayGroup
	PDF(ctx context.Context, from, to time.Time, w io.Writer) error
	ICS(ctx context.Context, id string, w io.Writer) error
	Location() *time.Location
}

// Options tune the HTTP surface.
type Options struct {
	CookieName string
	SessionTTL time.Duration
	Logger     *slog.Logger
}

// Server is the editor web app.
type Server struct {
	curation CurationService
	calendar CalendarService
	router   *gin.Engine
	cookie   string
	ttl      time.Duration
	logger   *slog.Logger
}

// NewServer parses the embedded views and registers every route.
func NewServer(curation CurationService, calendar CalendarService, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	cookie := opts.CookieName
	if cookie == "" {
		cookie = "pd_session"
	}
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}

	views, err := template.New("").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))
	router.SetHTMLTemplate(views)

	s := &Server{
		curation: curation,
		calendar: calendar,
		router:   router,
		cookie:   cookie,
		ttl:      ttl,
		logger:   logger,
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	app := router.Group("/", s.session())
	{
		app.GET("/", s.handleIndex)

		wizard := app.Group("/pipeline")
		wizard.GET("/start", s.handleStartPage)
		wizard.POST("/start", s.handleStart)
		for _, stage := range domain.FetchStages() {
			wizard.GET("/"+string(stage), s.handleStagePage(stage))
			wizard.POST("/"+string(stage), s.handleStageSubmit(stage))
		}
		wizard.GET("/categorize", s.handleCategorizePage)
		wizard.POST("/categorize", s.handleCategorize)
		wizard.GET("/review", s.handleReview)
		wizard.POST("/move", s.handleMove)
		wizard.POST("/rename", s.handleRename)
		wizard.POST("/sublinks", s.handleAddSublink)
		wizard.POST("/sublinks/remove", s.handleRemoveSublink)
		wizard.GET("/export.pdf", s.handleExport)
		wizard.POST("/reset", s.handleReset)

		events := app.Group("/events")
		events.GET("", s.handleEventsPage)
		events.POST("", s.handleCreateEvent)
		events.GET("/pull", s.handlePull)
		events.GET("/pull.pdf", s.handlePullPDF)
		events.GET("/:id/ics", s.handleICS)
	}

	return s, nil
}

// Handler exposes the router for tests and custom servers.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func pagePath(stage domain.Stage) string {
	switch stage {
	case domain.StageStart, "":
		return "/pipeline/start"
	default:
		return "/pipeline/" + string(stage)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrInvalidDate),
		errors.Is(err, pipeline.ErrInvalidTransition),
		errors.Is(err, pipeline.ErrUnknownArticle),
		errors.Is(err, pipeline.ErrUnknownLabel),
		errors.Is(err, usecase.ErrMissingURL),
		errors.Is(err, usecase.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrNotReady):
		return http.StatusConflict
	case errors.Is(err, usecase.ErrNoEvents):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrExtractFailed):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.HTML(status, "error.html", gin.H{
		"Title":  http.StatusText(status),
		"Status": status,
		"Error":  err.Error(),
	})
}
