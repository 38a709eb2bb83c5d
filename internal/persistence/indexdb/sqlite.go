package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"tileworld.ai/internal/sim/tuning"
	"tileworld.ai/internal/sim/world"
)

const schemaVersion = "1"

// SQLiteIndex is a queryable secondary index of the tick and chunk event
// streams. Writes are queued and applied by a single writer goroutine; when the
// queue is full entries are dropped and counted.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropTick       atomic.Uint64
	dropChunkEvent atomic.Uint64
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqChunkEvent
)

type req struct {
	kind reqKind

	tick  world.TickLogEntry
	chunk world.ChunkEvent
}

// Stats reports queue pressure.
type Stats struct {
	QueueDepth          int
	QueueCapacity       int
	DropTickTotal       uint64
	DropChunkEventTotal uint64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		// Loader churn comes in bursts when many loaders cross a chunk border together.
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS configs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			tick INTEGER PRIMARY KEY,
			digest TEXT NOT NULL,
			entities INTEGER NOT NULL,
			loaded INTEGER NOT NULL,
			archived INTEGER NOT NULL,
			chunks_loaded INTEGER NOT NULL,
			chunks_unloaded INTEGER NOT NULL,
			searches INTEGER NOT NULL,
			search_failures INTEGER NOT NULL,
			moves INTEGER NOT NULL,
			rejected INTEGER NOT NULL,
			deaths INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS chunk_events (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			kind TEXT NOT NULL,
			cx INTEGER NOT NULL,
			cy INTEGER NOT NULL,
			residents INTEGER NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chunk_events_pos_tick ON chunk_events(cx, cy, tick);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:          len(s.ch),
		QueueCapacity:       cap(s.ch),
		DropTickTotal:       s.dropTick.Load(),
		DropChunkEventTotal: s.dropChunkEvent.Load(),
	}
}

func (s *SQLiteIndex) WriteTick(entry world.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTick, tick: entry}:
	default:
		// JSONL logs remain the source of truth.
		s.dropTick.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) WriteChunkEvent(e world.ChunkEvent) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqChunkEvent, chunk: e}:
	default:
		s.dropChunkEvent.Add(1)
	}
	return nil
}

// UpsertTuning records the tuning values the server actually applies, as
// canonical JSON keyed by its sha256 digest.
func (s *SQLiteIndex) UpsertTuning(tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(tune)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(b)
	digest := hex.EncodeToString(sum[:])
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version',?)`, schemaVersion); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO configs(name,digest,json,updated_at) VALUES(?,?,?,?)`, "tuning", digest, string(b), now); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(tick,digest,entities,loaded,archived,chunks_loaded,chunks_unloaded,searches,search_failures,moves,rejected,deaths,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	insertChunk, _ := s.db.Prepare(`INSERT OR REPLACE INTO chunk_events(tick,seq,kind,cx,cy,residents,raw_json) VALUES(?,?,?,?,?,?,?)`)
	defer func() {
		if insertTick != nil {
			_ = insertTick.Close()
		}
		if insertChunk != nil {
			_ = insertChunk.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second

		lastChunkTick uint64
		chunkSeq      int
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqTick:
			t := r.tick
			b, _ := json.Marshal(t)
			if insertTick != nil {
				if _, err := tx.Stmt(insertTick).Exec(
					int64(t.Tick),
					t.Digest,
					t.Entities,
					t.Loaded,
					t.Archived,
					t.Counters.ChunksLoaded,
					t.Counters.ChunksUnloaded,
					t.Counters.Searches,
					t.Counters.SearchFailures,
					t.Counters.Moves,
					t.Counters.Rejected,
					t.Counters.Deaths,
					string(b),
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}

		case reqChunkEvent:
			e := r.chunk
			if e.Tick != lastChunkTick {
				lastChunkTick = e.Tick
				chunkSeq = 0
			}
			seq := chunkSeq
			chunkSeq++
			raw, _ := json.Marshal(e)
			if insertChunk != nil {
				if _, err := tx.Stmt(insertChunk).Exec(
					int64(e.Tick),
					seq,
					e.Kind,
					e.Chunk.X,
					e.Chunk.Y,
					len(e.Residents),
					string(raw),
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		}
		flushIfNeeded()
	}

	commit()
}
