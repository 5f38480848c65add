package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zhouzirui/code-mentor/backend/internal/model/chat"
	"github.com/zhouzirui/code-mentor/backend/internal/service/ai"
	chatService "github.com/zhouzirui/code-mentor/backend/internal/service/chat"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// TextMessage 文本消息
type TextMessage struct {
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// handleWebSocket 每个连接对应一个独立会话, 连接断开即丢弃
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.CreateSession(r.Context(), r.URL.Query().Get("personaId"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	sessionID := session.ID()
	defer func() {
		if err := h.chatSvc.DiscardSession(context.Background(), sessionID); err != nil && !errors.Is(err, chatService.ErrSessionNotFound) {
			h.logger.Warn("discard session failed", "session_id", sessionID, "error", err)
		}
	}()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	logger := h.logger.With("session_id", sessionID)
	logger.Info("websocket connected")

	// 连接关闭时取消进行中的模型调用
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	go pingLoop(ctx, conn)
	inbound := readLoop(ctx, cancel, conn, logger)

	if err := send(conn, "session", session.Info()); err != nil {
		return
	}

	for {
		var msg inboundMessage
		select {
		case <-ctx.Done():
			return
		case m, ok := <-inbound:
			if !ok {
				return
			}
			msg = m
		}

		switch msg.Type {
		case "text":
			var text TextMessage
			if err := json.Unmarshal(msg.Data, &text); err != nil {
				send(conn, "error", map[string]string{"message": "invalid text message"})
				continue
			}
			if err := h.submit(ctx, conn, session, text.Text); err != nil {
				if ctx.Err() == nil {
					logger.Warn("websocket write failed", "error", err)
				}
				return
			}
		default:
			send(conn, "error", map[string]string{"message": "unsupported message type"})
		}
	}
}

// readLoop 是连接上唯一的读者. 读失败或收到关闭帧时调用 cancel 并关闭返回的通道.
func readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, logger *slog.Logger) <-chan inboundMessage {
	inbound := make(chan inboundMessage)
	go func() {
		defer close(inbound)
		defer cancel()

		for {
			var msg inboundMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Warn("websocket read error", "error", err)
				}
				return
			}

			select {
			case inbound <- msg:
			case <-ctx.Done():
				return
			}
			conn.SetReadDeadline(time.Now().Add(readTimeout))
		}
	}()
	return inbound
}

// submit 在用户轮次追加后先推送一次, 模型回复后再推送一次
func (h *Handler) submit(ctx context.Context, conn *websocket.Conn, session *chatService.Session, text string) error {
	var writeErr error
	turns, err := session.Submit(ctx, text, chatService.WithPending(func(pending []chat.Turn) {
		writeErr = send(conn, "turns", toTurnViews(pending))
	}))
	if writeErr != nil {
		return writeErr
	}

	var aiErr *ai.Error
	switch {
	case errors.Is(err, chatService.ErrEmptyInput):
		return nil
	case errors.As(err, &aiErr):
		if err := send(conn, "turns", toTurnViews(turns)); err != nil {
			return err
		}
		return send(conn, "notice", noticeView{Kind: string(aiErr.Kind), Message: aiErr.UserMessage()})
	case err != nil:
		return send(conn, "error", map[string]string{"message": "internal error"})
	}
	return send(conn, "turns", toTurnViews(turns))
}

func send(conn *websocket.Conn, msgType string, data interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(outgoingMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	})
}

// pingLoop 使用 WriteControl, 可与 WriteJSON 并发调用
func pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
