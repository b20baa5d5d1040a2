package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"downloads-report/internal/config"
	"downloads-report/internal/infrastructure/sendowl"
	"downloads-report/internal/report"
	"downloads-report/internal/usecase"
)

// Server is the thin presentation shell: it collects an email or order id and
// hands back a listing or a PDF. All business flow lives in usecase.
type Server struct {
	cfg      config.Config
	client   *sendowl.Client
	renderer *report.Renderer
	writer   usecase.Writer
	engine   *gin.Engine
}

func New(cfg config.Config, client *sendowl.Client, renderer *report.Renderer, writer usecase.Writer) *Server {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{cfg: cfg, client: client, renderer: renderer, writer: writer}

	e := gin.New()
	e.Use(gin.Recovery(), s.requestID(), s.cors(), s.logging())
	e.GET("/healthz", s.handleHealth)
	api := e.Group("/api")
	api.GET("/orders/search", s.handleSearch)
	api.GET("/orders/:id/report", s.handleReport)
	e.Static("/reports", cfg.ReportsDir)
	s.engine = e
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

func (s *Server) cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "*")
		c.Header("Access-Control-Allow-Methods", "GET,OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"request_id":  c.GetString("request_id"),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("request")
	}
}

// serviceFor builds the per-request service. Callers may supply their own
// upstream credentials via headers; the configured pair is the default.
func (s *Server) serviceFor(c *gin.Context) *usecase.ReportService {
	gw := s.client
	if key := c.GetHeader("X-Api-Key"); key != "" {
		gw = s.client.WithCredentials(key, c.GetHeader("X-Api-Secret"))
	}
	return &usecase.ReportService{Gateway: gw, Renderer: s.renderer, Writer: s.writer}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleSearch(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		s.err(c, http.StatusBadRequest, "BadRequest", "query parameter 'email' required")
		return
	}
	summaries, err := s.serviceFor(c).SearchOrders(c.Request.Context(), email)
	if err != nil {
		s.mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": summaries})
}

func (s *Server) handleReport(c *gin.Context) {
	orderID := strings.TrimSpace(c.Param("id"))
	if orderID == "" {
		s.err(c, http.StatusBadRequest, "BadRequest", "order id required")
		return
	}
	rep, err := s.serviceFor(c).GenerateReportByOrderID(c.Request.Context(), orderID)
	if err != nil {
		s.mapError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+rep.Filename+`"`)
	c.Data(http.StatusOK, "application/pdf", rep.Bytes)
}

func (s *Server) mapError(c *gin.Context, err error) {
	var (
		nf  *sendowl.NotFoundError
		to  *sendowl.TimeoutError
		mal *sendowl.MalformedResponseError
		up  *sendowl.UpstreamError
		ren *report.RenderError
	)
	switch {
	case errors.As(err, &nf):
		s.err(c, http.StatusNotFound, "NotFound", err.Error())
	case errors.As(err, &to):
		s.err(c, http.StatusGatewayTimeout, "UpstreamTimeout", err.Error())
	case errors.As(err, &mal):
		s.err(c, http.StatusBadGateway, "MalformedResponse", err.Error())
	case errors.As(err, &up):
		s.err(c, http.StatusBadGateway, "UpstreamError", err.Error())
	case errors.As(err, &ren):
		s.err(c, http.StatusInternalServerError, "RenderError", err.Error())
	default:
		s.err(c, http.StatusInternalServerError, "ServerError", err.Error())
	}
}

func (s *Server) err(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":      code,
			"message":   msg,
			"requestId": c.GetString("request_id"),
		},
	})
}
