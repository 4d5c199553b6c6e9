package http

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"autoplate-renamer/internal/service"
)

func (h *Handler) renamerSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, successResponse(h.renamerService.Snapshot(mustIdentity(c))))
}

func (h *Handler) setInputFolder(c *gin.Context) {
	var req service.FolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	id := mustIdentity(c)
	added, err := h.renamerService.SetInput(c.Request.Context(), id, req.Path)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(gin.H{
		"added":   added,
		"session": h.renamerService.Snapshot(id),
	}))
}

func (h *Handler) setOutputFolder(c *gin.Context) {
	var req service.FolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	id := mustIdentity(c)
	if err := h.renamerService.SetOutput(c.Request.Context(), id, req.Path); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(h.renamerService.Snapshot(id)))
}

func (h *Handler) scan(c *gin.Context) {
	id := mustIdentity(c)
	added, err := h.renamerService.Scan(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(gin.H{
		"added":   added,
		"session": h.renamerService.Snapshot(id),
	}))
}

func (h *Handler) process(c *gin.Context) {
	id := mustIdentity(c)
	if err := h.renamerService.Process(id); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, successResponse(h.renamerService.Snapshot(id)))
}

func (h *Handler) setWatch(c *gin.Context) {
	var req service.WatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	id := mustIdentity(c)
	if err := h.renamerService.SetWatch(id, req); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(h.renamerService.Snapshot(id)))
}

func (h *Handler) uploadFile(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("file is required"))
		return
	}
	maxBytes := h.config.Server.MaxUploadMB << 20
	if fh.Size > maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, errorResponse(fmt.Sprintf("file exceeds %d MB", h.config.Server.MaxUploadMB)))
		return
	}

	f, err := fh.Open()
	if err != nil {
		h.handleError(c, err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxBytes))
	if err != nil {
		h.handleError(c, err)
		return
	}

	item, err := h.renamerService.Upload(mustIdentity(c), fh.Filename, data)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse(item))
}

func (h *Handler) resetRenamer(c *gin.Context) {
	id := mustIdentity(c)
	if err := h.renamerService.Reset(id); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(h.renamerService.Snapshot(id)))
}
