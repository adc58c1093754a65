package server

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/Aidin1998/greeter/internal/database"
	"github.com/Aidin1998/greeter/internal/page"
	"github.com/Aidin1998/greeter/pkg/metrics"
)

const contentTypeHTML = "text/html; charset=utf-8"

// Metric labels for the two dependencies
const (
	dependencyCache    = "cache"
	dependencyDatabase = "database"
)

// Greeter performs the cache round-trip
type Greeter interface {
	Greet(ctx context.Context) (string, error)
}

// VisitRecorder performs the database round-trip
type VisitRecorder interface {
	Name() string
	Round(ctx context.Context) ([]database.Visit, error)
}

// Server represents the HTTP server
type Server struct {
	logger      *zap.Logger
	greeter     Greeter
	visits      VisitRecorder
	renderer    *page.Renderer
	serviceName string
}

// NewServer creates a new HTTP server. visits may be nil, in which case
// the page only shows the cache greeting.
func NewServer(logger *zap.Logger, greeter Greeter, visits VisitRecorder, serviceName string) *Server {
	return &Server{
		logger:      logger,
		greeter:     greeter,
		visits:      visits,
		renderer:    page.NewRenderer(),
		serviceName: serviceName,
	}
}

// Router creates a new HTTP router
func (s *Server) Router() *gin.Engine {
	router := gin.New()

	router.Use(ginzap.Ginzap(s.logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(s.logger, true))
	router.Use(otelgin.Middleware(s.serviceName))
	router.Use(cors.Default())
	router.Use(RequestID())
	router.Use(Metrics())

	router.GET("/", s.handleIndex)
	router.GET("/health", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

// handleIndex always answers 200; dependency failures become page text.
func (s *Server) handleIndex(c *gin.Context) {
	ctx := c.Request.Context()
	log := s.logger.With(zap.String("request_id", GetRequestID(c)))

	p := page.Page{WithVisits: s.visits != nil}

	p.CacheErr = s.observe(log, dependencyCache, func() error {
		msg, err := s.greeter.Greet(ctx)
		p.Message = msg
		return err
	})

	if s.visits != nil {
		p.DatabaseName = s.visits.Name()
		p.DatabaseErr = s.observe(log, dependencyDatabase, func() error {
			visits, err := s.visits.Round(ctx)
			p.Visits = visits
			return err
		})
	}

	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, p); err != nil {
		log.Error("failed to render page", zap.Error(err))
		c.Data(http.StatusOK, contentTypeHTML, []byte(s.renderer.Fallback(err)))
		return
	}
	c.Data(http.StatusOK, contentTypeHTML, buf.Bytes())
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) observe(log *zap.Logger, dependency string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.DependencyLatency.WithLabelValues(dependency).Observe(time.Since(start).Seconds())

	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeError
		log.Warn("dependency round-trip failed", zap.String("dependency", dependency), zap.Error(err))
	}
	metrics.DependencyChecks.WithLabelValues(dependency, outcome).Inc()
	return err
}
