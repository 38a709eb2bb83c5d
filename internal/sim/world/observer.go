package world

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"sort"

	"tileworld.ai/internal/observerproto"
	"tileworld.ai/internal/sim/encoding"
	"tileworld.ai/internal/sim/world/position"
	"tileworld.ai/internal/sim/world/terrain/store"
)

// ObserverJoinRequest registers a read-only observer session that receives:
// - chunk sprite grids and evictions (DataOut)
// - per-tick frames (TickOut)
//
// All observer state is maintained by the world loop goroutine.
type ObserverJoinRequest struct {
	SessionID string
	TickOut   chan []byte
	DataOut   chan []byte

	ChunkBudget   int
	FocusEntityID EntityID
	FocusRadius   int
	Encoding      string
}

// ObserverSubscribeRequest updates an existing observer session.
type ObserverSubscribeRequest struct {
	SessionID string

	ChunkBudget   int
	FocusEntityID EntityID
	FocusRadius   int
	Encoding      string
}

type observerClient struct {
	id      string
	tickOut chan []byte
	dataOut chan []byte

	chunkBudget   int
	focusEntityID EntityID
	focusRadius   int
	encoding      string

	// Chunks this observer holds. A false value marks a chunk the client
	// still holds but must be resent; it is evicted like any other.
	sent map[position.Pos]bool
}

const (
	observerMaxChunkBudget  = 1024
	observerMaxFocusRadius  = 32
	observerDefaultFocusRad = 2
)

// RequestObserverJoin queues a join for the world loop. It reports false when
// the queue is full.
func (w *World) RequestObserverJoin(req ObserverJoinRequest) bool {
	select {
	case w.observerJoin <- req:
		return true
	default:
		return false
	}
}

// RequestObserverSubscribe drops the update under load; clients may resend.
func (w *World) RequestObserverSubscribe(req ObserverSubscribeRequest) bool {
	select {
	case w.observerSub <- req:
		return true
	default:
		return false
	}
}

func (w *World) RequestObserverLeave(sessionID string) bool {
	select {
	case w.observerLeave <- sessionID:
		return true
	default:
		return false
	}
}

func (w *World) clampBudget(v int) int {
	if v <= 0 {
		v = w.cfg.ObserverChunkBudget
	}
	if v <= 0 {
		v = 1
	}
	if v > observerMaxChunkBudget {
		v = observerMaxChunkBudget
	}
	return v
}

func clampFocusRadius(v int) int {
	if v <= 0 {
		return observerDefaultFocusRad
	}
	if v > observerMaxFocusRadius {
		return observerMaxFocusRadius
	}
	return v
}

func (w *World) handleObserverJoin(req ObserverJoinRequest) {
	if req.SessionID == "" || req.TickOut == nil || req.DataOut == nil {
		return
	}
	// Replace existing session id if any.
	if old := w.observers[req.SessionID]; old != nil {
		close(old.tickOut)
		close(old.dataOut)
	}
	w.observers[req.SessionID] = &observerClient{
		id:            req.SessionID,
		tickOut:       req.TickOut,
		dataOut:       req.DataOut,
		chunkBudget:   w.clampBudget(req.ChunkBudget),
		focusEntityID: req.FocusEntityID,
		focusRadius:   clampFocusRadius(req.FocusRadius),
		encoding:      chunkEncoding(req.Encoding),
		sent:          map[position.Pos]bool{},
	}
}

func (w *World) handleObserverSubscribe(req ObserverSubscribeRequest) {
	c := w.observers[req.SessionID]
	if c == nil {
		return
	}
	c.chunkBudget = w.clampBudget(req.ChunkBudget)
	c.focusEntityID = req.FocusEntityID
	c.focusRadius = clampFocusRadius(req.FocusRadius)
	if enc := chunkEncoding(req.Encoding); enc != c.encoding {
		// Resend everything in the new encoding.
		c.encoding = enc
		for k := range c.sent {
			c.sent[k] = false
		}
	}
}

func chunkEncoding(v string) string {
	if v == observerproto.EncodingSpriteRLE {
		return v
	}
	return observerproto.EncodingSpriteU16
}

func (w *World) handleObserverLeave(sessionID string) {
	c := w.observers[sessionID]
	if c == nil {
		return
	}
	delete(w.observers, sessionID)
	close(c.tickOut)
	close(c.dataOut)
}

func (w *World) stepObservers(nowTick uint64, digest string, counters TickCounters) {
	if len(w.observers) == 0 {
		return
	}

	keys := w.level.LoadedKeys()
	loaded := make([][2]int, 0, len(keys))
	for _, k := range keys {
		loaded = append(loaded, [2]int{k.X, k.Y})
	}

	ents := w.entities.Sorted()
	agents := make([]observerproto.AgentState, 0, len(ents))
	for _, e := range ents {
		st := observerproto.AgentState{
			ID:     uint64(e.ID),
			Name:   e.Name,
			Pos:    [2]int{e.Pos.X, e.Pos.Y},
			GoalID: uint64(e.Goal),
		}
		if e.Loader {
			st.LoaderRange = e.LoaderRange
		}
		if e.Path != nil {
			st.PathRemaining = e.Path.Remaining()
		}
		agents = append(agents, st)
	}

	msg := observerproto.FrameMsg{
		Type:            observerproto.TypeFrame,
		ProtocolVersion: observerproto.Version,
		Tick:            nowTick,
		Digest:          digest,
		LoadedChunks:    loaded,
		Agents:          agents,
		Stats: observerproto.FrameStats{
			ChunksLoaded:   counters.ChunksLoaded,
			ChunksUnloaded: counters.ChunksUnloaded,
			Searches:       counters.Searches,
			SearchFailures: counters.SearchFailures,
			Moves:          counters.Moves,
		},
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	for _, id := range w.sortedObserverIDs() {
		c := w.observers[id]
		w.stepObserverChunks(c, keys)
		sendLatest(c.tickOut, b)
	}
}

// stepObserverChunks evicts chunks the observer no longer wants, then sends up
// to chunkBudget chunks it has not seen yet. A full channel ends the pass; the
// remainder is retried next tick.
func (w *World) stepObserverChunks(c *observerClient, loaded []position.Pos) {
	wanted := make(map[position.Pos]bool, len(loaded))
	var order []position.Pos
	focus, hasFocus := w.entities.Get(c.focusEntityID)
	for _, k := range loaded {
		if hasFocus && k.Chebyshev(position.TileToChunk(focus.Pos)) > c.focusRadius {
			continue
		}
		wanted[k] = true
		order = append(order, k)
	}

	var evict []position.Pos
	for k := range c.sent {
		if !wanted[k] {
			evict = append(evict, k)
		}
	}
	sort.Slice(evict, func(i, j int) bool { return evict[i].Less(evict[j]) })
	for _, k := range evict {
		b, err := json.Marshal(observerproto.ChunkEvictMsg{
			Type:            observerproto.TypeChunkEvict,
			ProtocolVersion: observerproto.Version,
			CX:              k.X,
			CY:              k.Y,
		})
		if err != nil {
			continue
		}
		select {
		case c.dataOut <- b:
			delete(c.sent, k)
		default:
			return
		}
	}

	budget := c.chunkBudget
	for _, k := range order {
		if budget <= 0 {
			return
		}
		if c.sent[k] {
			continue
		}
		ch, ok := w.level.Loaded(k)
		if !ok {
			continue
		}
		b, err := json.Marshal(chunkMsg(ch, c.encoding))
		if err != nil {
			continue
		}
		select {
		case c.dataOut <- b:
			c.sent[k] = true
			budget--
		default:
			return
		}
	}
}

func chunkMsg(ch *store.LoadedChunk, enc string) observerproto.ChunkMsg {
	sprites := ch.Sprites()
	var data string
	if enc == observerproto.EncodingSpriteRLE {
		data = encoding.EncodeSpritesRLE(sprites)
	} else {
		raw := make([]byte, 2*len(sprites))
		for i, s := range sprites {
			binary.LittleEndian.PutUint16(raw[2*i:], s)
		}
		data = base64.StdEncoding.EncodeToString(raw)
	}
	d := ch.Digest()
	return observerproto.ChunkMsg{
		Type:            observerproto.TypeChunk,
		ProtocolVersion: observerproto.Version,
		CX:              ch.Pos().X,
		CY:              ch.Pos().Y,
		Encoding:        enc,
		Data:            data,
		Digest:          hex.EncodeToString(d[:]),
	}
}
