package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/rps-slot/internal/errors"
	"github.com/wfunc/rps-slot/internal/game/rps"
	ws "github.com/wfunc/rps-slot/internal/websocket"
	"go.uber.org/zap"
)

// loopTimeout 等待会话事件循环的最长时间
const loopTimeout = 2 * time.Second

// GameHandler 对局接口
type GameHandler struct {
	hub    *ws.Hub
	logger *zap.Logger
}

// NewGameHandler 创建对局处理器
func NewGameHandler(hub *ws.Hub, logger *zap.Logger) *GameHandler {
	return &GameHandler{hub: hub, logger: logger}
}

// SessionListResponse 在线会话
type SessionListResponse struct {
	OnlineCount int      `json:"online_count"`
	Sessions    []string `json:"sessions"`
}

// SessionResponse 会话快照
type SessionResponse struct {
	SessionID string       `json:"session_id"`
	Snapshot  rps.Snapshot `json:"snapshot"`
}

// PatternResponse 停止计划
type PatternResponse struct {
	Pattern  int                   `json:"pattern"`
	Order    [rps.ReelsPerSide]int `json:"order"`
	DelaysMs [rps.ReelsPerSide]int `json:"delays_ms"`
}

// ListSessions 在线会话列表
// @Summary 在线会话列表
// @Tags Game
// @Produce json
// @Success 200 {object} SessionListResponse
// @Router /api/v1/sessions [get]
func (h *GameHandler) ListSessions(c *gin.Context) {
	ids := h.hub.SessionIDs()
	c.JSON(http.StatusOK, SessionListResponse{
		OnlineCount: len(ids),
		Sessions:    ids,
	})
}

// GetSession 查询会话快照
// @Summary 查询会话快照
// @Tags Game
// @Produce json
// @Param id path string true "会话ID"
// @Success 200 {object} SessionResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Failure 408 {object} apperrors.ErrorResponse
// @Router /api/v1/sessions/{id} [get]
func (h *GameHandler) GetSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), loopTimeout)
	defer cancel()

	snap, err := s.Snapshot(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, SessionResponse{SessionID: s.ID, Snapshot: snap})
}

// StartRound 开始一局，本局进行中时返回409
// @Summary 开始一局
// @Description 与页面上的开始按钮等价，结果通过 WebSocket 推送
// @Tags Game
// @Produce json
// @Param id path string true "会话ID"
// @Success 202 {object} SessionResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Failure 408 {object} apperrors.ErrorResponse
// @Failure 409 {object} apperrors.ErrorResponse
// @Router /api/v1/sessions/{id}/start [post]
func (h *GameHandler) StartRound(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), loopTimeout)
	defer cancel()

	if err := s.Start(ctx); err != nil {
		h.logger.Info("开局请求被拒绝",
			zap.String("session_id", s.ID),
			zap.Int("code", int(apperrors.GetCode(err))),
			zap.Error(err))
		writeError(c, err)
		return
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, SessionResponse{SessionID: s.ID, Snapshot: snap})
}

// ListPatterns 当前配置下的停止计划
// @Summary 停止计划
// @Tags Game
// @Produce json
// @Success 200 {array} PatternResponse
// @Router /api/v1/patterns [get]
func (h *GameHandler) ListPatterns(c *gin.Context) {
	gen, err := rps.NewScheduleGenerator(h.hub.SessionConfig().Timings.StopDelays)
	if err != nil {
		writeError(c, err)
		return
	}

	patterns := gen.Patterns()
	resp := make([]PatternResponse, len(patterns))
	for i, p := range patterns {
		resp[i] = PatternResponse{Pattern: i + 1, Order: p.Order()}
		for j, st := range p {
			resp[i].DelaysMs[j] = int(st.Delay.Milliseconds())
		}
	}
	c.JSON(http.StatusOK, resp)
}

// ListCues 提示音定义
// @Summary 提示音定义
// @Tags Game
// @Produce json
// @Success 200 {array} ws.CuePayload
// @Router /api/v1/cues [get]
func (h *GameHandler) ListCues(c *gin.Context) {
	kinds := rps.CueKinds()
	cues := make([]ws.CuePayload, 0, len(kinds))
	for _, kind := range kinds {
		if cue, ok := rps.CueFor(kind); ok {
			cues = append(cues, ws.NewCuePayload(cue))
		}
	}
	c.JSON(http.StatusOK, cues)
}

func (h *GameHandler) session(c *gin.Context) (*ws.Session, bool) {
	id := c.Param("id")
	s, ok := h.hub.Session(id)
	if !ok {
		writeError(c, apperrors.Newf(apperrors.ErrNotFound, "会话 %s", id))
		return nil, false
	}
	return s, true
}

// writeError 按错误码写出错误响应
func writeError(c *gin.Context, err error) {
	appErr := apperrors.Wrap(err, apperrors.ErrUnknown)
	c.JSON(appErr.HTTPStatus(), apperrors.NewErrorResponse(appErr))
}
