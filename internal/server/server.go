package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"leadprep/internal"
	"leadprep/internal/config"
	"leadprep/internal/crm"
	"leadprep/internal/logging"
	"leadprep/internal/pipeline"
	"leadprep/internal/workbench"
)

// Deliverer submits cleaned records to the CRM.
type Deliverer interface {
	Deliver(ctx context.Context, records []internal.CleanedRecord) (crm.Summary, error)
}

type Server struct {
	cfg       config.Config
	store     *workbench.Store
	processor *pipeline.ProcessingService
	crm       Deliverer
	log       *zap.Logger
	engine    *gin.Engine
}

func New(cfg config.Config, store *workbench.Store, processor *pipeline.ProcessingService, deliverer Deliverer, log *zap.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		store:     store,
		processor: processor,
		crm:       deliverer,
		log:       logging.OrNop(log),
	}
	s.engine = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), s.requestLogger())
	r.MaxMultipartMemory = int64(s.cfg.MaxUploadMB) << 20

	r.GET("/health", s.health)

	api := r.Group("/api/sessions")
	api.POST("", s.createSession)
	api.GET("/:id", s.getSession)
	api.DELETE("/:id", s.resetSession)
	api.POST("/:id/tags", s.addTags)
	api.DELETE("/:id/tags", s.deleteTags)
	api.POST("/:id/filter", s.filter)
	api.GET("/:id/export.csv", s.exportCSV)
	api.GET("/:id/export.xlsx", s.exportXLSX)
	api.POST("/:id/deliver", s.deliver)
	return r
}

// Run serves until ctx is done, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", s.cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s.log.Info("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Set("request_id", reqID)
		c.Header("X-Request-ID", reqID)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", c.GetString("request_id")),
		)
	}
}
