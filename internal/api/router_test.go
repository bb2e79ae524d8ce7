package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/rps-slot/internal/config"
	apperrors "github.com/wfunc/rps-slot/internal/errors"
	"github.com/wfunc/rps-slot/internal/game/rps"
	"github.com/wfunc/rps-slot/internal/metrics"
	ws "github.com/wfunc/rps-slot/internal/websocket"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) (*Router, *ws.Hub) {
	t.Helper()
	return newTestRouterWithPath(t, "/ws")
}

func newTestRouterWithPath(t *testing.T, wsPath string) (*Router, *ws.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := ws.NewHub(ws.SessionConfig{
		Timings: rps.Timings{
			SpinInterval: 5 * time.Millisecond,
			StopDelays:   [3]time.Duration{200 * time.Millisecond, 300 * time.Millisecond, 400 * time.Millisecond},
			JudgeDelay:   10 * time.Millisecond,
			ResetDelay:   20 * time.Millisecond,
			ErrorDisplay: 50 * time.Millisecond,
			ErrorFade:    10 * time.Millisecond,
		},
		Seed: 1,
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	cfg := &config.Config{WebSocket: config.WebSocketConfig{Path: wsPath}}
	return NewRouter(hub, cfg, zap.NewNop()), hub
}

func doRequest(r *Router, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	r.GetEngine().ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) apperrors.ErrorCode {
	t.Helper()
	var resp struct {
		Success bool `json:"success"`
		Error   struct {
			Code apperrors.ErrorCode `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	return resp.Error.Code
}

func TestRouter_StaticAndHealth(t *testing.T) {
	r, _ := newTestRouter(t)

	t.Run("健康检查", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/health")
		assert.Equal(t, http.StatusOK, w.Code)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp["status"])
		assert.Equal(t, float64(0), resp["sessions"])
	})

	t.Run("游戏页面", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, w.Body.String(), "Rock Paper Scissors Slot")
		assert.Contains(t, w.Body.String(), `data-ws-path="/ws"`)
	})

	t.Run("接口文档", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/openapi")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "application/yaml")
		assert.Contains(t, w.Body.String(), "/api/v1/sessions/{id}/start:")
	})

	t.Run("非WebSocket请求", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/ws")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("未启用指标", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/metrics")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("未知接口", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/api/v1/unknown")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, apperrors.ErrNotFound, decodeError(t, w))
	})

	t.Run("panic恢复", func(t *testing.T) {
		r.GetEngine().GET("/boom", func(c *gin.Context) { panic("boom") })
		w := doRequest(r, http.MethodGet, "/boom")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, apperrors.ErrUnknown, decodeError(t, w))
	})
}

func TestRouter_PatternsAndCues(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(r, http.MethodGet, "/api/v1/patterns")
	require.Equal(t, http.StatusOK, w.Code)
	var patterns []PatternResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &patterns))
	require.Len(t, patterns, rps.PatternCount)
	assert.Equal(t, PatternResponse{Pattern: 2, Order: [3]int{3, 2, 1}, DelaysMs: [3]int{200, 300, 400}}, patterns[1])

	w = doRequest(r, http.MethodGet, "/api/v1/cues")
	require.Equal(t, http.StatusOK, w.Code)
	var cues []ws.CuePayload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cues))
	require.Len(t, cues, len(rps.CueKinds()))
	assert.Equal(t, rps.CueStart, cues[0].Kind)
}

func TestRouter_UnknownSession(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(r, http.MethodGet, "/api/v1/sessions")
	require.Equal(t, http.StatusOK, w.Code)
	var list SessionListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 0, list.OnlineCount)
	assert.Empty(t, list.Sessions)

	w = doRequest(r, http.MethodPost, "/api/v1/sessions/missing/start")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.ErrNotFound, decodeError(t, w))
}

func TestRouter_StartRoundOverREST(t *testing.T) {
	r, hub := newTestRouter(t)
	server := httptest.NewServer(r.Handler())
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var connected ws.Message
	require.NoError(t, conn.ReadJSON(&connected))
	require.Equal(t, ws.MessageTypeConnected, connected.Type)
	id := connected.SessionID
	require.Eventually(t, func() bool { return hub.GetOnlineCount() == 1 }, time.Second, 10*time.Millisecond)

	// 读出推送的消息，避免发送缓冲区堆积
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	w := doRequest(r, http.MethodPost, "/api/v1/sessions/"+id+"/start")
	require.Equal(t, http.StatusAccepted, w.Code)
	var started SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &started))
	assert.Equal(t, id, started.SessionID)
	assert.Equal(t, rps.StateSpinning, started.Snapshot.State)
	assert.NotEmpty(t, started.Snapshot.RoundID)

	w = doRequest(r, http.MethodPost, "/api/v1/sessions/"+id+"/start")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperrors.ErrRoundBusy, decodeError(t, w))

	// 本局结束后可以查询到结果
	require.Eventually(t, func() bool {
		w := doRequest(r, http.MethodGet, "/api/v1/sessions/"+id)
		var resp SessionResponse
		if w.Code != http.StatusOK || json.Unmarshal(w.Body.Bytes(), &resp) != nil {
			return false
		}
		return resp.Snapshot.State == rps.StateIdle && resp.Snapshot.Last != nil
	}, 3*time.Second, 20*time.Millisecond)

	w = doRequest(r, http.MethodGet, "/api/v1/sessions")
	var list SessionListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, []string{id}, list.Sessions)
}

func TestWriteError_WrappedAppError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	writeError(c, fmt.Errorf("start round: %w", apperrors.New(apperrors.ErrRoundBusy)))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperrors.ErrRoundBusy, decodeError(t, w))

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	writeError(c, fmt.Errorf("plain"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperrors.ErrUnknown, decodeError(t, w))
}

func TestRouter_CustomWebSocketPath(t *testing.T) {
	r, hub := newTestRouterWithPath(t, "/game")
	server := httptest.NewServer(r.Handler())
	defer server.Close()

	w := doRequest(r, http.MethodGet, "/")
	assert.Contains(t, w.Body.String(), `data-ws-path="/game"`)

	w = doRequest(r, http.MethodGet, "/ws")
	assert.Equal(t, http.StatusNotFound, w.Code)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/game", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var connected ws.Message
	require.NoError(t, conn.ReadJSON(&connected))
	assert.Equal(t, ws.MessageTypeConnected, connected.Type)
	require.Eventually(t, func() bool { return hub.GetOnlineCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestRouter_Metrics(t *testing.T) {
	r, _ := newTestRouter(t)

	provider := metrics.NewProvider()
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	gm, err := metrics.NewWithMeter(provider.Meter())
	require.NoError(t, err)
	r.EnableMetrics(provider)

	gm.RoundStarted()
	gm.RoundCompleted(rps.OutcomeDraw)

	w := doRequest(r, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)

	var resp MetricsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Greater(t, resp.Timestamp, int64(0))
	assert.Contains(t, resp.Metrics, metrics.Point{Name: "rps.rounds.started", Value: 1})
	assert.Contains(t, resp.Metrics, metrics.Point{
		Name:       "rps.rounds.completed",
		Attributes: map[string]string{"outcome": "draw"},
		Value:      1,
	})
}
