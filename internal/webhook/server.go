package webhook

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"lectern/internal/config"
	"lectern/internal/logging"
	"lectern/internal/sheets"
)

// EmbedPusher is the slice of the sheets client the webhook needs.
type EmbedPusher interface {
	UpdateEmbeds(ctx context.Context, videos []sheets.Video) (sheets.Result, error)
}

// Server accepts embed pushes over HTTP so external tools can forward embed
// codes into the spreadsheet without a local upload run.
type Server struct {
	engine *gin.Engine
	cfg    *config.Config
	pusher EmbedPusher
	logger *slog.Logger
}

// NewServer builds the webhook server with CORS restricted to the configured
// origins.
func NewServer(cfg *config.Config, pusher EmbedPusher, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		cfg:    cfg,
		pusher: pusher,
		logger: logging.NewComponentLogger(logger, "webhook"),
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(cfg.Webhook.AllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Webhook.AllowOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	engine.Use(cors.New(corsConfig))

	engine.GET("/api/health", server.handleHealth)
	engine.POST("/api/update-embeds", server.handleUpdateEmbeds)

	server.engine = engine
	return server
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains with a short shutdown
// grace period.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.cfg.Webhook.Bind,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	s.logger.Info("webhook listening", logging.String("bind", s.cfg.Webhook.Bind))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type updateEmbedsRequest struct {
	Videos []sheets.Video `json:"videos" binding:"required"`
}

func (s *Server) handleUpdateEmbeds(c *gin.Context) {
	var req updateEmbedsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	for _, video := range req.Videos {
		if video.Name == "" || video.EmbedCode == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "each video needs name and embed_code"})
			return
		}
	}

	requestID := uuid.NewString()
	result, err := s.pusher.UpdateEmbeds(c.Request.Context(), req.Videos)
	if err != nil {
		s.logger.Error("embed push failed",
			logging.String("request_id", requestID),
			logging.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "request_id": requestID})
		return
	}

	s.logger.Info("embed push accepted",
		logging.String("request_id", requestID),
		logging.Int("videos", len(req.Videos)),
		logging.Int("updated", result.Updated))
	c.JSON(http.StatusOK, gin.H{
		"request_id": requestID,
		"updated":    result.Updated,
		"not_found":  result.NotFoundNames,
		"skipped":    result.SkippedNames,
	})
}
