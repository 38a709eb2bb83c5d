package store

import (
	"sort"

	"tileworld.ai/internal/sim/world/position"
	"tileworld.ai/internal/sim/world/terrain/gen"
	"tileworld.ai/internal/sim/world/terrain/tile"
)

type LevelConfig struct {
	Seed   int64
	Params gen.Params
	// ArchiveLimit bounds the archive; 0 means unbounded.
	ArchiveLimit int
}

// Level holds every chunk the process knows about, either loaded or archived,
// never both. The seed is fixed at construction.
type Level struct {
	gen *gen.Generator

	loaded   map[position.Pos]*LoadedChunk
	archived map[position.Pos]*UnloadedChunk

	archiveLimit int
	archiveSeq   uint64
	archiveOrder []archiveEntry

	generated uint64
	dropped   uint64
}

type archiveEntry struct {
	pos position.Pos
	seq uint64
}

func NewLevel(cfg LevelConfig) *Level {
	return &Level{
		gen:          gen.New(cfg.Seed, cfg.Params),
		loaded:       map[position.Pos]*LoadedChunk{},
		archived:     map[position.Pos]*UnloadedChunk{},
		archiveLimit: cfg.ArchiveLimit,
	}
}

func (l *Level) Seed() int64               { return l.gen.Seed() }
func (l *Level) Generator() *gen.Generator { return l.gen }

func (l *Level) IsLoaded(c position.Pos) bool {
	_, ok := l.loaded[c]
	return ok
}

func (l *Level) Loaded(c position.Pos) (*LoadedChunk, bool) {
	ch, ok := l.loaded[c]
	return ch, ok
}

func (l *Level) IsArchived(c position.Pos) bool {
	_, ok := l.archived[c]
	return ok
}

func (l *Level) Archived(c position.Pos) (*UnloadedChunk, bool) {
	u, ok := l.archived[c]
	return u, ok
}

// EnsureLoaded returns the loaded chunk at c, loading it first if needed.
func (l *Level) EnsureLoaded(c position.Pos) *LoadedChunk {
	if ch, ok := l.loaded[c]; ok {
		return ch
	}
	return l.LoadChunk(c)
}

// LoadChunk materializes c from the archive, or by generation if it was never
// archived, and makes it active. Callers check IsLoaded first: a chunk that is
// already loaded is replaced.
func (l *Level) LoadChunk(c position.Pos) *LoadedChunk {
	u, ok := l.archived[c]
	if ok {
		delete(l.archived, c)
	} else {
		u = Generate(c, l.gen)
		l.generated++
	}
	ch := u.Load()
	l.loaded[c] = ch
	return ch
}

// UnloadChunk moves c from the active set to the archive. It reports false and
// does nothing if c is not loaded.
func (l *Level) UnloadChunk(c position.Pos, residents []uint64) (*UnloadedChunk, bool) {
	ch, ok := l.loaded[c]
	if !ok {
		return nil, false
	}
	delete(l.loaded, c)
	u := ch.Unload(residents)
	l.archiveSeq++
	u.archivedSeq = l.archiveSeq
	l.archived[c] = u
	l.archiveOrder = append(l.archiveOrder, archiveEntry{pos: c, seq: u.archivedSeq})
	l.trimArchive()
	return u, true
}

// trimArchive drops the oldest archived chunks with no residents until the
// archive fits the limit. Dropped chunks regenerate identically on demand.
func (l *Level) trimArchive() {
	if l.archiveLimit <= 0 || len(l.archived) <= l.archiveLimit {
		l.compactOrder()
		return
	}
	kept := l.archiveOrder[:0]
	for _, e := range l.archiveOrder {
		u, ok := l.archived[e.pos]
		if !ok || u.archivedSeq != e.seq {
			continue
		}
		if len(l.archived) > l.archiveLimit && len(u.Residents) == 0 {
			delete(l.archived, e.pos)
			l.dropped++
			continue
		}
		kept = append(kept, e)
	}
	l.archiveOrder = kept
}

// compactOrder removes entries for chunks that left the archive by loading.
func (l *Level) compactOrder() {
	if len(l.archiveOrder) <= 2*len(l.archived)+16 {
		return
	}
	kept := l.archiveOrder[:0]
	for _, e := range l.archiveOrder {
		if u, ok := l.archived[e.pos]; ok && u.archivedSeq == e.seq {
			kept = append(kept, e)
		}
	}
	l.archiveOrder = kept
}

// LoadedTile resolves tile t through the active set only. It never loads.
func (l *Level) LoadedTile(t position.Pos) (tile.Tile, bool) {
	ch, ok := l.loaded[position.TileToChunk(t)]
	if !ok {
		return tile.Tile{}, false
	}
	local := position.TileInChunk(t)
	return ch.Tile(local.X, local.Y), true
}

// LoadedKeys returns the active chunk positions sorted by X then Y.
func (l *Level) LoadedKeys() []position.Pos {
	return sortedKeys(l.loaded)
}

func (l *Level) ArchivedKeys() []position.Pos {
	return sortedKeys(l.archived)
}

func sortedKeys[V any](m map[position.Pos]V) []position.Pos {
	keys := make([]position.Pos, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

func (l *Level) LoadedCount() int   { return len(l.loaded) }
func (l *Level) ArchivedCount() int { return len(l.archived) }

// Generated counts chunk generations, including regenerations after an archive drop.
func (l *Level) Generated() uint64 { return l.generated }

// Dropped counts archived chunks discarded by the archive limit.
func (l *Level) Dropped() uint64 { return l.dropped }
