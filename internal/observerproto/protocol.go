package observerproto

import "encoding/json"

// Version is the observer protocol version.
const Version = "0.1"

// Message types.
const (
	TypeSubscribe  = "SUBSCRIBE"
	TypeFrame      = "FRAME"
	TypeChunk      = "CHUNK"
	TypeChunkEvict = "CHUNK_EVICT"
)

// EncodingSpriteU16 means: base64 of little-endian uint16 packed sprite ids
// (atlas x in the low byte, y in the high byte), row-major, x fastest, 32*32 values.
const EncodingSpriteU16 = "SPRITE_U16LE_B64"

// EncodingSpriteRLE means: base64 of uvarint (sprite, run) pairs over the same
// row-major order.
const EncodingSpriteRLE = "SPRITE_RLE_B64"

// BaseMessage routes inbound JSON by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

// Client -> Server. First message on the observer WS connection; may be re-sent.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`

	// ChunkBudget caps CHUNK messages per tick for this session.
	ChunkBudget int `json:"chunk_budget,omitempty"`
	// FocusEntityID, when set, limits chunk data to the focused entity's neighborhood.
	FocusEntityID uint64 `json:"focus_entity_id,omitempty"`
	FocusRadius   int    `json:"focus_radius,omitempty"`
	// Encoding selects the CHUNK data encoding; empty means EncodingSpriteU16.
	Encoding string `json:"encoding,omitempty"`
}

// HTTP response for GET /admin/v1/observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string      `json:"protocol_version"`
	WorldID         string      `json:"world_id"`
	Tick            uint64      `json:"tick"`
	WorldParams     WorldParams `json:"world_params"`
	Sprites         []SpriteDef `json:"sprites"`
}

type WorldParams struct {
	TickRateHz int   `json:"tick_rate_hz"`
	ChunkSize  int   `json:"chunk_size"`
	TileSize   int   `json:"tile_size"`
	Seed       int64 `json:"seed"`
}

type SpriteDef struct {
	Name string `json:"name"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

// Server -> Client. Sent every tick.
type FrameMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	Digest          string `json:"digest"`

	LoadedChunks [][2]int     `json:"loaded_chunks"`
	Agents       []AgentState `json:"agents"`
	Stats        FrameStats   `json:"stats"`
}

type AgentState struct {
	ID            uint64 `json:"id"`
	Name          string `json:"name"`
	Pos           [2]int `json:"pos"`
	LoaderRange   int    `json:"loader_range,omitempty"`
	GoalID        uint64 `json:"goal_id,omitempty"`
	PathRemaining int    `json:"path_remaining,omitempty"`
}

type FrameStats struct {
	ChunksLoaded   int `json:"chunks_loaded"`
	ChunksUnloaded int `json:"chunks_unloaded"`
	Searches       int `json:"searches"`
	SearchFailures int `json:"search_failures"`
	Moves          int `json:"moves"`
}

// Server -> Client. Full sprite grid of a chunk, sent once per observer while it stays loaded.
type ChunkMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	CX              int    `json:"cx"`
	CY              int    `json:"cy"`
	Encoding        string `json:"encoding"`
	Data            string `json:"data"`
	Digest          string `json:"digest"`
}

// Server -> Client. Evict a chunk from the client cache.
type ChunkEvictMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	CX              int    `json:"cx"`
	CY              int    `json:"cy"`
}
