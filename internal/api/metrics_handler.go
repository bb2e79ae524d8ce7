package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/rps-slot/internal/errors"
	"github.com/wfunc/rps-slot/internal/metrics"
)

// MetricsHandler 指标接口
type MetricsHandler struct {
	provider *metrics.Provider
}

// MetricsResponse 指标快照
type MetricsResponse struct {
	Metrics   []metrics.Point `json:"metrics"`
	Timestamp int64           `json:"timestamp"`
}

// NewMetricsHandler 创建指标处理器
func NewMetricsHandler(provider *metrics.Provider) *MetricsHandler {
	return &MetricsHandler{provider: provider}
}

// GetMetrics 游戏指标
// @Summary 游戏指标
// @Description 开局、拒绝、结果、提示音失败和在线会话计数
// @Tags System
// @Produce json
// @Success 200 {object} MetricsResponse
// @Failure 500 {object} apperrors.ErrorResponse
// @Router /metrics [get]
func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), loopTimeout)
	defer cancel()

	points, err := h.provider.Collect(ctx)
	if err != nil {
		writeError(c, apperrors.Wrap(err, apperrors.ErrUnknown, "采集指标"))
		return
	}
	c.JSON(http.StatusOK, MetricsResponse{
		Metrics:   points,
		Timestamp: time.Now().Unix(),
	})
}
