package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/anatolykoptev/go_study/internal/engine"
	"github.com/anatolykoptev/go_study/internal/pipeline"
	"github.com/anatolykoptev/go_study/internal/store"
	"github.com/gin-gonic/gin"
)

// Processor is the part of the pipeline the handlers need.
type Processor interface {
	Process(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
	GetVideoMaterials(ctx context.Context, rowID string) (*pipeline.Materials, error)
}

// Handler holds the HTTP handlers.
type Handler struct {
	proc    Processor
	timeout time.Duration // per-request processing deadline, 0 = none
}

func NewHandler(proc Processor, timeout time.Duration) *Handler {
	return &Handler{proc: proc, timeout: timeout}
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func respondError(c *gin.Context, status int, err error) {
	c.JSON(status, errorResponse{Success: false, Error: err.Error()})
}

// POST /functions/v1/process-youtube-video, POST /api/videos/process
//
// Every failure answers 500 with {success:false, error}, matching the
// hosted function's contract.
func (h *Handler) ProcessVideo(c *gin.Context) {
	var req pipeline.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusInternalServerError, errors.Join(pipeline.ErrInvalidInput, err))
		return
	}

	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	res, err := h.proc.Process(ctx, req)
	if err != nil {
		slog.Error("process video failed", slog.String("url", req.YouTubeURL), slog.Any("error", err))
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/videos/:id
func (h *Handler) GetVideo(c *gin.Context) {
	m, err := h.proc.GetVideoMaterials(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(c, http.StatusNotFound, err)
	case err != nil:
		slog.Error("get video failed", slog.String("id", c.Param("id")), slog.Any("error", err))
		respondError(c, http.StatusInternalServerError, err)
	default:
		c.JSON(http.StatusOK, m)
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) Metrics(c *gin.Context) {
	c.String(http.StatusOK, engine.FormatMetrics())
}
