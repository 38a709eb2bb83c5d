package main

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"

	"tileworld.ai/internal/observerproto"
	"tileworld.ai/internal/sim/encoding"
	"tileworld.ai/internal/sim/world/position"
)

// watch is a terminal observer: it subscribes to the server's observer feed,
// mirrors the chunk cache a renderer would keep, and logs one line per frame.
func main() {
	var (
		url    = flag.String("url", "ws://localhost:8080/admin/v1/observer/ws", "observer ws url")
		budget = flag.Int("chunk_budget", 16, "CHUNK messages per tick")
		focus  = flag.Uint64("focus", 0, "focus entity id (0: every loaded chunk)")
		radius = flag.Int("focus_radius", 2, "chunk radius around the focus entity")
		every  = flag.Uint64("print_every", 5, "log every Nth frame")
		rle    = flag.Bool("rle", true, "request run-length encoded chunks")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[watch] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	sub := observerproto.SubscribeMsg{
		Type:            observerproto.TypeSubscribe,
		ProtocolVersion: observerproto.Version,
		ChunkBudget:     *budget,
		FocusEntityID:   *focus,
		FocusRadius:     *radius,
	}
	if *rle {
		sub.Encoding = observerproto.EncodingSpriteRLE
	}
	if err := conn.WriteJSON(sub); err != nil {
		logger.Fatalf("send SUBSCRIBE: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		_ = conn.Close()
	}()

	cache := newChunkCache()
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		frame, err := cache.apply(msg)
		if err != nil {
			logger.Printf("bad message: %v", err)
			continue
		}
		if frame != nil && *every > 0 && frame.Tick%*every == 0 {
			logger.Printf("tick=%d digest=%.12s agents=%d loaded=%d cached=%d moves=%d searches=%d",
				frame.Tick, frame.Digest, len(frame.Agents), len(frame.LoadedChunks), cache.len(), frame.Stats.Moves, frame.Stats.Searches)
		}
	}
}

// chunkCache holds the sprite grids the server has sent and not yet evicted.
type chunkCache struct {
	chunks map[position.Pos][]uint16
}

func newChunkCache() *chunkCache {
	return &chunkCache{chunks: map[position.Pos][]uint16{}}
}

func (c *chunkCache) len() int { return len(c.chunks) }

func (c *chunkCache) sprites(p position.Pos) ([]uint16, bool) {
	s, ok := c.chunks[p]
	return s, ok
}

// apply folds one server message into the cache. It returns the frame for
// FRAME messages and nil otherwise.
func (c *chunkCache) apply(msg []byte) (*observerproto.FrameMsg, error) {
	base, err := observerproto.DecodeBase(msg)
	if err != nil {
		return nil, err
	}
	switch base.Type {
	case observerproto.TypeFrame:
		var f observerproto.FrameMsg
		if err := json.Unmarshal(msg, &f); err != nil {
			return nil, err
		}
		return &f, nil

	case observerproto.TypeChunk:
		var m observerproto.ChunkMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return nil, err
		}
		grid, err := decodeChunk(m)
		if err != nil {
			return nil, err
		}
		c.chunks[position.New(m.CX, m.CY)] = grid

	case observerproto.TypeChunkEvict:
		var m observerproto.ChunkEvictMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return nil, err
		}
		delete(c.chunks, position.New(m.CX, m.CY))
	}
	return nil, nil
}

func decodeChunk(m observerproto.ChunkMsg) ([]uint16, error) {
	const n = position.ChunkSize * position.ChunkSize
	switch m.Encoding {
	case observerproto.EncodingSpriteRLE:
		return encoding.DecodeSpritesRLE(m.Data, n)
	case observerproto.EncodingSpriteU16:
		raw, err := base64.StdEncoding.DecodeString(m.Data)
		if err != nil {
			return nil, err
		}
		if len(raw) != 2*n {
			return nil, fmt.Errorf("chunk (%d,%d): %d bytes", m.CX, m.CY, len(raw))
		}
		grid := make([]uint16, n)
		for i := range grid {
			grid[i] = binary.LittleEndian.Uint16(raw[2*i:])
		}
		return grid, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", m.Encoding)
	}
}
