package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go.ngs.io/coreg/internal/domain"
	"go.ngs.io/coreg/internal/progress"
	"go.ngs.io/coreg/internal/usecase"
)

// statusClientClosedRequest reports a job abandoned because the client went away.
const statusClientClosedRequest = 499

// Handler handles HTTP requests for coregistration operations.
type Handler struct {
	coregUC *usecase.CoregisterUseCase
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(coregUC *usecase.CoregisterUseCase, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		coregUC: coregUC,
		logger:  logger,
	}
}

// ListOperations handles GET /v1/operations.
func (h *Handler) ListOperations(c *gin.Context) {
	ops := h.coregUC.Registry().Operations()
	c.JSON(http.StatusOK, gin.H{
		"operations": ops,
		"count":      len(ops),
	})
}

// GetOperation handles GET /v1/operations/:name.
func (h *Handler) GetOperation(c *gin.Context) {
	op, ok := h.coregUC.Registry().Operation(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown operation: " + c.Param("name")})
		return
	}
	c.JSON(http.StatusOK, op)
}

// ListDatasets handles GET /v1/datasets.
func (h *Handler) ListDatasets(c *gin.Context) {
	names, err := h.coregUC.Datasets(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"datasets": names,
		"count":    len(names),
	})
}

// Coregister handles POST /v1/operations/coregister.
func (h *Handler) Coregister(c *gin.Context) {
	var req usecase.CoregisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	resp, err := h.coregUC.Execute(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// statusFor maps use case errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, progress.ErrCancelled):
		return statusClientClosedRequest
	case errors.Is(err, domain.ErrUnknownMethod),
		errors.Is(err, usecase.ErrMissingInput),
		errors.Is(err, usecase.ErrUnknownOperation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrGridBounds),
		errors.Is(err, domain.ErrGridNotEquidistant),
		errors.Is(err, domain.ErrGridNotPixelRegistered),
		errors.Is(err, domain.ErrInvalidVariableShape),
		errors.Is(err, domain.ErrNoIntersection):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
