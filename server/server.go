package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/siherrmann/docqa/config"
	"github.com/siherrmann/docqa/metrics"
	"github.com/siherrmann/docqa/model"
)

// Service is the part of docqa.DocQA used by the HTTP handlers
type Service interface {
	DefaultCollection() string
	IngestInto(ctx context.Context, collection string, doc *model.Document) (*model.IngestResult, error)
	AnswerFrom(ctx context.Context, collection string, question string) (*model.Answer, error)
}

// Server exposes upload and question endpoints over HTTP
type Server struct {
	echo    *echo.Echo
	service Service
	config  config.ServerConfig
	log     *slog.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

type uploadResponse struct {
	Filename string `json:"filename"`
	Message  string `json:"message"`
	*model.IngestResult
}

type questionRequest struct {
	Question   string `json:"question"`
	Collection string `json:"collection,omitempty"`
}

// New creates the server and registers all routes
func New(service Service, cfg config.ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{echo: e, service: service, config: cfg, log: logger}
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(metrics.Middleware())
	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType},
	}))
	if cfg.MaxUploadBytes > 0 {
		e.Use(middleware.BodyLimit(fmt.Sprintf("%dK", (cfg.MaxUploadBytes+1023)/1024)))
	}
	if cfg.RequestTimeout > 0 {
		e.Use(timeout(cfg.RequestTimeout))
	}

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	api.POST("/upload", s.upload)
	api.POST("/query", s.query)
	api.POST("/ask", s.query)

	return s
}

// timeout bounds the request context, downstream calls are cancelled with it
func timeout(d time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), d)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves on addr until ctx is done and then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Listening", slog.String("address", addr))
		errCh <- s.echo.Start(addr)
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
		return s.echo.Shutdown(shutdownCtx)
	}
}

func (s *Server) collection(c echo.Context, requested string) string {
	if requested != "" {
		return requested
	}
	if q := c.QueryParam("collection"); q != "" {
		return q
	}
	return s.service.DefaultCollection()
}

// upload ingests the multipart file field "file"
func (s *Server) upload(c echo.Context) error {
	header, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "No file uploaded")
	}

	file, err := header.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Could not read uploaded file")
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Could not read uploaded file")
	}

	contentType := header.Header.Get(echo.HeaderContentType)
	doc := model.NewDocument(header.Filename, content, model.Metadata{
		"content_type": contentType,
		"size":         header.Size,
	})
	doc.Format = model.DetectFormat(header.Filename, contentType)

	result, err := s.service.IngestInto(c.Request().Context(), s.collection(c, c.FormValue("collection")), doc)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, uploadResponse{
		Filename:     header.Filename,
		Message:      "File uploaded and processed successfully",
		IngestResult: result,
	})
}

// query answers {"question": "..."} from the indexed documents
func (s *Server) query(c echo.Context) error {
	var req questionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Question == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing question")
	}

	answer, err := s.service.AnswerFrom(c.Request().Context(), s.collection(c, req.Collection), req.Question)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, answer)
}

// handleError maps errors to a status code and a JSON body {"error": "..."}
func (s *Server) handleError(err error, c echo.Context) {
	code, message := statusFor(err)

	req := c.Request()
	attrs := []any{
		slog.Int("status", code),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
		slog.Any("error", err),
	}
	if code >= http.StatusInternalServerError {
		s.log.Error("Request failed", attrs...)
	} else {
		s.log.Info("Request rejected", attrs...)
	}

	if c.Response().Committed {
		return
	}
	if req.Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, errorResponse{Error: message})
}

func statusFor(err error) (int, string) {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, fmt.Sprint(httpErr.Message)
	}

	var extractErr *model.ExtractionError
	var embedErr *model.EmbeddingServiceError
	var lmErr *model.LanguageModelError
	var storeErr *model.VectorStoreError
	var dimErr *model.DimensionMismatchError

	switch {
	case model.IsNoContent(err):
		return http.StatusNotFound, model.NoContentMessage
	case errors.Is(err, model.ErrEmptyQuestion):
		return http.StatusBadRequest, "Missing question"
	case errors.Is(err, model.ErrEmptyDocument):
		return http.StatusBadRequest, "No file uploaded"
	case errors.As(err, &extractErr):
		return http.StatusUnprocessableEntity, extractErr.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Request timed out"
	case errors.As(err, &embedErr):
		return http.StatusBadGateway, "Embedding service failed"
	case errors.As(err, &lmErr):
		return http.StatusBadGateway, "Failed to generate an answer"
	case errors.As(err, &dimErr):
		return http.StatusConflict, dimErr.Error()
	case errors.As(err, &storeErr):
		return http.StatusServiceUnavailable, "Vector store unavailable"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
