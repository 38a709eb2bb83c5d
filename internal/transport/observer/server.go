package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"tileworld.ai/internal/observerproto"
	"tileworld.ai/internal/sim/world"
	"tileworld.ai/internal/sim/world/position"
	"tileworld.ai/internal/sim/world/terrain/tile"
)

// Server exposes the world's observer feed: an HTTP bootstrap document and a
// read-only websocket that streams FRAME, CHUNK and CHUNK_EVICT messages.
type Server struct {
	world   *world.World
	log     *log.Logger
	schemas *observerproto.Schemas

	// AllowRemote disables the loopback check. Tests and trusted deployments only.
	AllowRemote bool

	upgrader websocket.Upgrader
}

func NewServer(w *world.World, logger *log.Logger) (*Server, error) {
	schemas, err := observerproto.LoadSchemas()
	if err != nil {
		return nil, err
	}
	return &Server{
		world:   w,
		log:     logger,
		schemas: schemas,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}, nil
}

// Bootstrap returns the document served at GET /admin/v1/observer/bootstrap.
func (s *Server) Bootstrap() observerproto.BootstrapResponse {
	cfg := s.world.Config()
	cat := tile.Catalog()
	sprites := make([]observerproto.SpriteDef, 0, len(cat))
	for _, sp := range cat {
		sprites = append(sprites, observerproto.SpriteDef{Name: sp.Name, X: int(sp.ID.X), Y: int(sp.ID.Y)})
	}
	return observerproto.BootstrapResponse{
		ProtocolVersion: observerproto.Version,
		WorldID:         cfg.ID,
		Tick:            s.world.CurrentTick(),
		WorldParams: observerproto.WorldParams{
			TickRateHz: cfg.TickRateHz,
			ChunkSize:  position.ChunkSize,
			TileSize:   position.TileSize,
			Seed:       cfg.Seed,
		},
		Sprites: sprites,
	}
}

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !s.allowed(r) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(s.Bootstrap())
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !s.allowed(r) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		sub, err := s.parseSubscribe(msg)
		if err != nil {
			s.logf("observer: rejected handshake from %s: %v", r.RemoteAddr, err)
			closeWith(conn, websocket.ClosePolicyViolation, "expected SUBSCRIBE")
			return
		}

		sid := uuid.NewString()
		tickOut := make(chan []byte, 8)
		dataOut := make(chan []byte, 4096)

		ok := s.world.RequestObserverJoin(world.ObserverJoinRequest{
			SessionID:     sid,
			TickOut:       tickOut,
			DataOut:       dataOut,
			ChunkBudget:   sub.ChunkBudget,
			FocusEntityID: world.EntityID(sub.FocusEntityID),
			FocusRadius:   sub.FocusRadius,
			Encoding:      sub.Encoding,
		})
		if !ok {
			closeWith(conn, websocket.CloseTryAgainLater, "server busy")
			return
		}
		s.logf("observer: session %s joined from %s", sid, r.RemoteAddr)
		defer func() {
			// A full queue means the world loop is stopping; nothing else to do.
			_ = s.world.RequestObserverLeave(sid)
			s.logf("observer: session %s left", sid)
		}()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine. Both channels are closed by the world loop on leave.
		writeErr := make(chan error, 1)
		go func() {
			write := func(b []byte) error {
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				return conn.WriteMessage(websocket.TextMessage, b)
			}
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b, ok := <-dataOut:
					if !ok {
						writeErr <- nil
						return
					}
					if err := write(b); err != nil {
						writeErr <- err
						return
					}
				case b, ok := <-tickOut:
					if !ok {
						writeErr <- nil
						return
					}
					if err := write(b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Reader loop: later SUBSCRIBE messages update the session.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			sub, err := s.parseSubscribe(msg)
			if err != nil {
				continue
			}
			_ = s.world.RequestObserverSubscribe(world.ObserverSubscribeRequest{
				SessionID:     sid,
				ChunkBudget:   sub.ChunkBudget,
				FocusEntityID: world.EntityID(sub.FocusEntityID),
				FocusRadius:   sub.FocusRadius,
				Encoding:      sub.Encoding,
			})
		}

		cancel()
		closeWith(conn, websocket.CloseNormalClosure, "bye")

		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func (s *Server) parseSubscribe(msg []byte) (observerproto.SubscribeMsg, error) {
	var sub observerproto.SubscribeMsg
	if err := s.schemas.Validate("subscribe", msg); err != nil {
		return sub, err
	}
	if err := json.Unmarshal(msg, &sub); err != nil {
		return sub, err
	}
	if sub.ProtocolVersion != observerproto.Version {
		return sub, fmt.Errorf("protocol version %q, server speaks %q", sub.ProtocolVersion, observerproto.Version)
	}
	return sub, nil
}

func (s *Server) allowed(r *http.Request) bool {
	return s.AllowRemote || isLoopbackRemote(r.RemoteAddr)
}

func (s *Server) logf(format string, args ...any) {
	if s.log != nil {
		s.log.Printf(format, args...)
	}
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(time.Second))
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
