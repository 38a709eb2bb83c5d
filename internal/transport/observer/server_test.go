package observer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"tileworld.ai/internal/observerproto"
	"tileworld.ai/internal/sim/world"
	"tileworld.ai/internal/sim/world/position"
)

func newTestServer(t *testing.T) (*world.World, *Server) {
	t.Helper()
	cfg := world.DefaultConfig()
	cfg.TickRateHz = 50
	cfg.Gen.RockThreshold = 10
	w, err := world.New(cfg)
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	s, err := NewServer(w, nil)
	if err != nil {
		t.Fatalf("server: %v", err)
	}
	return w, s
}

func TestBootstrapHandler(t *testing.T) {
	_, s := newTestServer(t)
	srv := httptest.NewServer(s.BootstrapHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := s.schemas.Validate("bootstrap", raw); err != nil {
		t.Fatalf("schema: %v", err)
	}
	var b observerproto.BootstrapResponse
	if err := json.Unmarshal(raw, &b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if b.WorldParams.ChunkSize != position.ChunkSize || b.WorldParams.Seed != 42 || len(b.Sprites) == 0 {
		t.Fatalf("bootstrap=%+v", b)
	}

	post, err := http.Post(srv.URL, "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	post.Body.Close()
	if post.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("post status=%d", post.StatusCode)
	}
}

func TestIsLoopbackRemote(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1:5000": true,
		"[::1]:80":       true,
		"10.0.0.3:5000":  false,
		"garbage":        false,
	}
	for in, want := range cases {
		if got := isLoopbackRemote(in); got != want {
			t.Fatalf("isLoopbackRemote(%q)=%v want %v", in, got, want)
		}
	}
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func TestWSStreamsFramesAndChunks(t *testing.T) {
	w, s := newTestServer(t)
	w.Spawn(world.SpawnSpec{Name: "loader", Pos: position.New(0, 0), Loader: true})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	go func() { _ = w.Run(ctx) }()
	defer w.Stop()

	srv := httptest.NewServer(s.WSHandler())
	defer srv.Close()
	conn := dial(t, srv)
	defer conn.Close()

	sub := observerproto.SubscribeMsg{Type: observerproto.TypeSubscribe, ProtocolVersion: observerproto.Version, ChunkBudget: 16}
	if err := conn.WriteJSON(sub); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	frames, chunks := 0, 0
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for frames < 2 || chunks < 9 {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read after %d frames %d chunks: %v", frames, chunks, err)
		}
		base, err := observerproto.DecodeBase(msg)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		switch base.Type {
		case observerproto.TypeFrame:
			if err := s.schemas.Validate("frame", msg); err != nil {
				t.Fatalf("frame schema: %v", err)
			}
			frames++
		case observerproto.TypeChunk:
			if err := s.schemas.Validate("chunk", msg); err != nil {
				t.Fatalf("chunk schema: %v", err)
			}
			chunks++
		}
	}
}

func TestWSRejectsBadHandshake(t *testing.T) {
	_, s := newTestServer(t)
	srv := httptest.NewServer(s.WSHandler())
	defer srv.Close()
	conn := dial(t, srv)
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"HELLO","protocol_version":"0.1"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("expected policy violation close, got %v", err)
	}
}
