package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"autoplate-renamer/internal/domain/account"
	"autoplate-renamer/internal/domain/plate"
	"autoplate-renamer/internal/service"
)

// parseMillis reads an optional epoch-milliseconds query parameter.
func parseMillis(c *gin.Context, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be milliseconds since the epoch", service.ErrInvalidInput, key)
	}
	t := time.UnixMilli(ms)
	return &t, nil
}

func logQuery(c *gin.Context) (service.LogQuery, error) {
	from, err := parseMillis(c, "from")
	if err != nil {
		return service.LogQuery{}, err
	}
	to, err := parseMillis(c, "to")
	if err != nil {
		return service.LogQuery{}, err
	}
	return service.LogQuery{
		UserID: strings.TrimSpace(c.Query("userId")),
		From:   from,
		To:     to,
	}, nil
}

func (h *Handler) createLog(c *gin.Context) {
	var req account.CreateLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	entry, err := h.logService.Create(c.Request.Context(), mustIdentity(c), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse(entry))
}

func (h *Handler) listLogs(c *gin.Context) {
	q, err := logQuery(c)
	if err != nil {
		h.handleError(c, err)
		return
	}
	logs, err := h.logService.List(c.Request.Context(), mustIdentity(c), q)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(logs))
}

func (h *Handler) logSummary(c *gin.Context) {
	q, err := logQuery(c)
	if err != nil {
		h.handleError(c, err)
		return
	}
	summary, err := h.logService.Summary(c.Request.Context(), mustIdentity(c), q)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(summary))
}

func (h *Handler) getConfig(c *gin.Context) {
	cfg, err := h.configService.Get(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(cfg))
}

func (h *Handler) updateConfig(c *gin.Context) {
	var req account.SystemConfig
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	cfg, err := h.configService.Update(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(cfg))
}

func (h *Handler) analyze(c *gin.Context) {
	var req plate.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("missing base64Data or mimeType"))
		return
	}
	result, err := h.analysisService.Analyze(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(result))
}
