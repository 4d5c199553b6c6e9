package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"autoplate-renamer/internal/analyzer"
	"autoplate-renamer/internal/config"
	"autoplate-renamer/internal/folder"
	"autoplate-renamer/internal/renamer"
	"autoplate-renamer/internal/service"
)

type Handler struct {
	authService     *service.AuthService
	userService     *service.UserService
	logService      *service.LogService
	configService   *service.ConfigService
	analysisService *service.AnalysisService
	renamerService  *service.RenamerService
	config          *config.Config
	log             zerolog.Logger
}

func NewHandler(
	authService *service.AuthService,
	userService *service.UserService,
	logService *service.LogService,
	configService *service.ConfigService,
	analysisService *service.AnalysisService,
	renamerService *service.RenamerService,
	cfg *config.Config,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		authService:     authService,
		userService:     userService,
		logService:      logService,
		configService:   configService,
		analysisService: analysisService,
		renamerService:  renamerService,
		config:          cfg,
		log:             log,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	// Public endpoints
	public := r.Group("/api")
	{
		public.GET("/health", h.health)
		public.POST("/auth/login", h.login)
	}

	protected := r.Group("/api")
	protected.Use(authMiddleware)
	{
		protected.GET("/users/profile", h.getProfile)
		protected.PUT("/users/profile", h.updateProfile)

		protected.POST("/logs", h.createLog)
		protected.GET("/logs", h.listLogs)
		protected.GET("/logs/summary", h.logSummary)

		protected.GET("/config", h.getConfig)

		protected.POST("/analysis/analyze", h.analyze)

		protected.GET("/renamer", h.renamerSnapshot)
		protected.PUT("/renamer/input", h.setInputFolder)
		protected.PUT("/renamer/output", h.setOutputFolder)
		protected.POST("/renamer/scan", h.scan)
		protected.POST("/renamer/process", h.process)
		protected.PUT("/renamer/watch", h.setWatch)
		protected.POST("/renamer/files", h.uploadFile)
		protected.DELETE("/renamer", h.resetRenamer)
		protected.GET("/renamer/ws", h.renamerSocket)
	}

	admin := r.Group("/api")
	admin.Use(authMiddleware, RequireAdmin())
	{
		admin.GET("/users", h.listUsers)
		admin.POST("/users", h.createUser)
		admin.PUT("/users/:id", h.updateUser)
		admin.DELETE("/users/:id", h.deleteUser)

		admin.PUT("/config", h.updateConfig)
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrLastAdmin),
		errors.Is(err, renamer.ErrNotImage),
		errors.Is(err, renamer.ErrFoldersNotSet):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, errorResponse(service.ErrUnauthorized.Error()))
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrConflict),
		errors.Is(err, renamer.ErrRunInFlight),
		errors.Is(err, renamer.ErrBusy),
		errors.Is(err, renamer.ErrDuplicateName),
		errors.Is(err, folder.ErrAccessLost):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, analyzer.ErrAnalysis):
		h.log.Warn().Err(err).Msg("analyzer error")
		c.JSON(http.StatusBadGateway, errorResponse(err.Error()))
	case errors.Is(err, context.Canceled):
		c.JSON(http.StatusServiceUnavailable, errorResponse("request cancelled"))
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}
