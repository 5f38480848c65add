package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	chatmodel "github.com/zhouzirui/code-mentor/backend/internal/model/chat"
	"github.com/zhouzirui/code-mentor/backend/internal/service/ai"
)

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial err: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var f frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read err: %v", err)
	}
	return f
}

func readTurns(t *testing.T, conn *websocket.Conn) []turnView {
	t.Helper()
	f := readFrame(t, conn)
	if f.Type != "turns" {
		t.Fatalf("expected turns frame, got %s", f.Type)
	}
	var turns []turnView
	if err := json.Unmarshal(f.Data, &turns); err != nil {
		t.Fatalf("decode turns err: %v", err)
	}
	return turns
}

func sendText(t *testing.T, conn *websocket.Conn, text string) {
	t.Helper()
	msg := map[string]any{"type": "text", "data": map[string]string{"text": text}}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write err: %v", err)
	}
}

func TestWebSocketConversation(t *testing.T) {
	r, chatSvc := setupRouter(&stubGenerator{})
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn := dial(t, srv, "?personaId=coding-mentor")
	if f := readFrame(t, conn); f.Type != "session" {
		t.Fatalf("expected session frame, got %s", f.Type)
	}

	sendText(t, conn, "hello")
	if turns := readTurns(t, conn); len(turns) != 1 || turns[0].Text != "hello" {
		t.Fatalf("expected pending user turn, got %+v", turns)
	}
	if turns := readTurns(t, conn); len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}

	sendText(t, conn, "and again")
	readTurns(t, conn)
	if turns := readTurns(t, conn); len(turns) != 4 {
		t.Fatalf("expected 4 turns, got %d", len(turns))
	}

	conn.Close()
	deadline := time.Now().Add(5 * time.Second)
	for chatSvc.Count() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("session was not discarded after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebSocketFailureSendsNotice(t *testing.T) {
	r, _ := setupRouter(&stubGenerator{err: errors.New("connection reset")})
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn := dial(t, srv, "")
	readFrame(t, conn)

	sendText(t, conn, "hello")
	readTurns(t, conn)
	turns := readTurns(t, conn)
	if len(turns) != 2 || turns[1].Notice == "" {
		t.Fatalf("expected notice turn, got %+v", turns)
	}
	if f := readFrame(t, conn); f.Type != "notice" {
		t.Fatalf("expected notice frame, got %s", f.Type)
	}

	// the session stays usable
	sendText(t, conn, "still there?")
	if turns := readTurns(t, conn); len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(turns))
	}
}

func TestWebSocketUnknownPersonaRejected(t *testing.T) {
	r, _ := setupRouter(&stubGenerator{})
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?personaId=nobody"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 response, got %+v", resp)
	}
}

func TestWebSocketUnsupportedType(t *testing.T) {
	r, _ := setupRouter(&stubGenerator{})
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn := dial(t, srv, "")
	readFrame(t, conn)

	if err := conn.WriteJSON(map[string]string{"type": "audio"}); err != nil {
		t.Fatalf("write err: %v", err)
	}
	if f := readFrame(t, conn); f.Type != "error" {
		t.Fatalf("expected error frame, got %s", f.Type)
	}
}

func TestWebSocketDisconnectCancelsModelCall(t *testing.T) {
	started := make(chan struct{})
	cancelled := make(chan struct{})
	gen := ai.GeneratorFunc(func(ctx context.Context, _ string, _ []chatmodel.Turn) (string, error) {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return "", ctx.Err()
	})

	r, chatSvc := setupRouter(gen)
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn := dial(t, srv, "")
	readFrame(t, conn)

	sendText(t, conn, "hello")
	readTurns(t, conn)

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("model call did not start")
	}

	conn.Close()

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("model call was not cancelled after the client disconnected")
	}

	deadline := time.Now().Add(2 * time.Second)
	for chatSvc.Count() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("session still registered after disconnect, live=%d", chatSvc.Count())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
