// Package server exposes the HTTP accepting layer. Batches are validated and
// acknowledged immediately; the actual transfer work runs in the background.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/penwern/curate-sharepoint-uploader/internal/config"
	"github.com/penwern/curate-sharepoint-uploader/internal/logging"
	"github.com/penwern/curate-sharepoint-uploader/internal/models"
)

// BatchRunner consumes one accepted batch to completion.
type BatchRunner interface {
	RunBatch(ctx context.Context, batch models.UploadBatch)
}

// Server is the accepting HTTP server.
type Server struct {
	cfg    config.ServerConfig
	runner BatchRunner
	logger *logging.Logger
	engine *gin.Engine
	httpd  *http.Server
}

// New builds the server and its routes.
func New(cfg config.ServerConfig, runner BatchRunner) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:    cfg,
		runner: runner,
		logger: logging.NewLogger("server"),
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestID())
	engine.Use(requestLogger(s.logger))
	engine.Use(cors(cfg.AllowedOrigin))

	engine.POST("/uploadSharePointPackage", s.handleUpload)
	engine.GET("/healthz", s.handleHealth)

	s.engine = engine
	s.httpd = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully. In-flight
// requests get up to 10 seconds to finish; background batches keep running on
// their own context and are not interrupted by shutdown.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.ListenAddr).Msg("listening")
		if err := s.httpd.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpd.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// handleUpload validates the batch, spawns the orchestrator and acknowledges
// immediately. The response does not report transfer outcomes; those land on
// the source items as preservation status.
func (s *Server) handleUpload(c *gin.Context) {
	var batch models.UploadBatch
	if err := c.ShouldBindJSON(&batch); err != nil {
		s.logger.Warn().Err(err).Msg("rejected malformed batch")
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request body: " + err.Error(),
		})
		return
	}

	s.logger.Info().
		Int("items", len(batch.UploadItems)).
		Str("user", batch.UserInfo.Email).
		Msg("accepted upload batch")

	// Detach from the request context: the batch outlives this request.
	go s.runner.RunBatch(context.Background(), batch)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Upload task initiated successfully.",
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
