package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"pdfrag/internal/ingest"
	"pdfrag/internal/query"
)

// Server is the HTTP transport in front of the two pipelines. Uploads are
// acknowledged immediately and processed in the background; queries run
// synchronously within the request.
type Server struct {
	echo   *echo.Echo
	queue  *ingest.Queue
	query  *query.Pipeline
	logger *zap.Logger
}

// New assembles the echo router with its middleware and routes.
func New(queue *ingest.Queue, qp *query.Pipeline, logger *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())

	s := &Server{echo: e, queue: queue, query: qp, logger: logger}

	e.GET("/healthz", s.health)
	api := e.Group("/api/v1")
	api.POST("/pdf/upload", s.uploadPDF)
	api.GET("/pdf/jobs/:id", s.jobStatus)
	api.POST("/query", s.handleQuery)
	return s
}

// Start blocks serving HTTP on addr.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// uploadPDF validates the upload and enqueues an ingestion job. The response
// is an acknowledgement, not a result: callers poll the job endpoint.
func (s *Server) uploadPDF(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "file is required"})
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".pdf") {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "only .pdf files are accepted"})
	}

	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "cannot read upload"})
	}
	defer f.Close()
	pdf, err := io.ReadAll(f)
	if err != nil || len(pdf) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "empty upload"})
	}

	jobID, err := s.queue.Enqueue(fh.Filename, pdf)
	if err != nil {
		if errors.Is(err, ingest.ErrQueueFull) {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{"error": "ingestion queue full, retry later"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": err.Error()})
	}

	return c.JSON(http.StatusAccepted, map[string]any{
		"accepted": true,
		"filename": fh.Filename,
		"size":     len(pdf),
		"job_id":   jobID,
	})
}

func (s *Server) jobStatus(c echo.Context) error {
	job, ok := s.queue.Job(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]any{"error": fmt.Sprintf("unknown job %q", c.Param("id"))})
	}
	return c.JSON(http.StatusOK, job)
}

type queryRequest struct {
	Question string `json:"question"`
	Image    string `json:"image,omitempty"`
}

func (s *Server) handleQuery(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "invalid json: " + err.Error()})
	}
	if strings.TrimSpace(req.Question) == "" {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "question is required"})
	}
	res := s.query.Run(c.Request().Context(), req.Question, req.Image)
	return c.JSON(http.StatusOK, res)
}
