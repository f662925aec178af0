package http

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"vinscan-service/internal/camera"
	"vinscan-service/internal/domain/vin"
	"vinscan-service/internal/lookup"
	"vinscan-service/internal/recognition"
	"vinscan-service/internal/service"
)

type Handler struct {
	scanService *service.ScanService
	permissions *camera.Manager
	log         zerolog.Logger
}

func NewHandler(
	scanService *service.ScanService,
	permissions *camera.Manager,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		scanService: scanService,
		permissions: permissions,
		log:         log,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	// Public endpoints
	public := r.Group("/api/v1")
	{
		public.POST("/scans", h.createScan)
		public.GET("/scans", h.listScans)
		public.GET("/scans/:id", h.getScan)
		public.GET("/vehicles", h.listVehicles)
		public.POST("/camera/permission", h.recordPermission)
	}

	// Decisions mutate the inventory and require authentication.
	protected := r.Group("/api/v1")
	protected.Use(authMiddleware)
	{
		protected.POST("/scans/:id/decision", h.decide)
		protected.POST("/scans/:id/lookup", h.retryLookup)
		protected.DELETE("/scans/:id", h.cancelScan)
		protected.POST("/admin/scans/cleanup", h.cleanupScans)
	}
}

type scanRequest struct {
	ImageBase64 string `json:"image_base64" binding:"required"`
	DeviceID    string `json:"device_id"`
}

func (h *Handler) createScan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	image, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("image_base64 is not valid base64"))
		return
	}

	output, err := h.scanService.Scan(c.Request.Context(), image, req.DeviceID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, output)
}

func (h *Handler) getScan(c *gin.Context) {
	output, err := h.scanService.GetSession(c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, output)
}

type decisionRequest struct {
	Kind           string `json:"kind" binding:"required"`
	TargetLocation string `json:"target_location"`
}

func (h *Handler) decide(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	decision, err := h.scanService.Decide(
		c.Request.Context(),
		c.Param("id"),
		vin.DecisionKind(req.Kind),
		strings.TrimSpace(req.TargetLocation),
	)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"decision": decision})
}

func (h *Handler) retryLookup(c *gin.Context) {
	output, err := h.scanService.RetryLookup(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, output)
}

func (h *Handler) cancelScan(c *gin.Context) {
	if err := h.scanService.Cancel(c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listVehicles(c *gin.Context) {
	vinQuery := strings.TrimSpace(c.Query("vin"))
	if vinQuery == "" {
		c.JSON(http.StatusBadRequest, errorResponse("vin parameter is required"))
		return
	}

	vehicles, err := h.scanService.FindVehicles(c.Request.Context(), vinQuery)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(vehicles))
}

func (h *Handler) listScans(c *gin.Context) {
	var vinQuery *string
	if v := strings.TrimSpace(c.Query("vin")); v != "" {
		vinQuery = &v
	}

	var from, to *string
	if f := strings.TrimSpace(c.Query("from")); f != "" {
		from = &f
	}
	if t := strings.TrimSpace(c.Query("to")); t != "" {
		to = &t
	}

	limit := 50
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	offset := 0
	if o := c.Query("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	events, err := h.scanService.FindScans(c.Request.Context(), vinQuery, from, to, limit, offset)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(events))
}

func (h *Handler) cleanupScans(c *gin.Context) {
	days := 90
	if d := c.Query("days"); d != "" {
		parsed, err := strconv.Atoi(d)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, errorResponse("days must be a positive integer"))
			return
		}
		days = parsed
	}

	deleted, err := h.scanService.CleanupOldScans(c.Request.Context(), days)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted, "days": days})
}

type permissionRequest struct {
	DeviceID string `json:"device_id" binding:"required"`
	Granted  bool   `json:"granted"`
}

// recordPermission lets the capture collaborator report the outcome of an OS
// permission prompt so the cooldown policy can be enforced server-side.
func (h *Handler) recordPermission(c *gin.Context) {
	var req permissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	if req.Granted {
		h.permissions.Grant(req.DeviceID)
	} else {
		h.permissions.Deny(req.DeviceID)
	}

	c.JSON(http.StatusOK, gin.H{
		"device_id": req.DeviceID,
		"state":     h.permissions.State(req.DeviceID),
	})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, camera.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, errorResponse(err.Error()))
	case errors.Is(err, recognition.ErrExtractionFailed):
		c.JSON(http.StatusUnprocessableEntity, errorResponse(err.Error()))
	case errors.Is(err, lookup.ErrNoVin):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, lookup.ErrInvalidDecision), errors.Is(err, lookup.ErrSessionClosed):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, lookup.ErrLookupFailed):
		c.JSON(http.StatusBadGateway, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Msg("handler error")
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
