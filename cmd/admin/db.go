package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	limit := fs.Int("limit", 20, "result limit")
	chunk := fs.String("chunk", "", "chunk filter cx,cy (chunk_events)")
	_ = fs.Parse(args)

	q := "ticks"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*worldID) == "" {
			fmt.Fprintln(os.Stderr, "missing -world or -db")
			os.Exit(2)
		}
		path = filepath.Join(*dataDir, "worlds", *worldID, "index", "world.sqlite")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	if *limit <= 0 {
		*limit = 20
	}

	var out []any
	switch q {
	case "ticks":
		rows, err := queryTicks(db, *limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		for _, r := range rows {
			out = append(out, r)
		}

	case "chunk_events":
		var filter *[2]int
		if s := strings.TrimSpace(*chunk); s != "" {
			c, err := parseChunk(s)
			if err != nil {
				fmt.Fprintln(os.Stderr, "bad -chunk:", err)
				os.Exit(2)
			}
			filter = &c
		}
		rows, err := queryChunkEvents(db, filter, *limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		for _, r := range rows {
			out = append(out, r)
		}

	case "tuning":
		var r struct {
			Digest    string          `json:"digest"`
			UpdatedAt string          `json:"updated_at"`
			Tuning    json.RawMessage `json:"tuning"`
		}
		var raw string
		if err := db.QueryRow(`SELECT digest,json,updated_at FROM configs WHERE name='tuning'`).Scan(&r.Digest, &raw, &r.UpdatedAt); err != nil {
			fmt.Fprintln(os.Stderr, "scan:", err)
			os.Exit(1)
		}
		r.Tuning = json.RawMessage(raw)
		out = append(out, r)

	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q)
		fmt.Fprintln(os.Stderr, "usage: admin db [-data ./data] [-world WORLD|-db PATH] [-limit N] [-chunk cx,cy] ticks|chunk_events|tuning")
		os.Exit(2)
	}
	for _, v := range out {
		printJSON(v)
	}
}

type tickRow struct {
	Tick           uint64 `json:"tick"`
	Digest         string `json:"digest"`
	Entities       int    `json:"entities"`
	Loaded         int    `json:"loaded"`
	Archived       int    `json:"archived"`
	ChunksLoaded   int    `json:"chunks_loaded"`
	ChunksUnloaded int    `json:"chunks_unloaded"`
	Searches       int    `json:"searches"`
	SearchFailures int    `json:"search_failures"`
	Moves          int    `json:"moves"`
	Rejected       int    `json:"rejected"`
	Deaths         int    `json:"deaths"`
}

// queryTicks returns the latest ticks, newest first.
func queryTicks(db *sql.DB, limit int) ([]tickRow, error) {
	rows, err := db.Query(`SELECT tick,digest,entities,loaded,archived,chunks_loaded,chunks_unloaded,searches,search_failures,moves,rejected,deaths FROM ticks ORDER BY tick DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []tickRow
	for rows.Next() {
		var r tickRow
		if err := rows.Scan(&r.Tick, &r.Digest, &r.Entities, &r.Loaded, &r.Archived, &r.ChunksLoaded, &r.ChunksUnloaded, &r.Searches, &r.SearchFailures, &r.Moves, &r.Rejected, &r.Deaths); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type chunkEventRow struct {
	Tick      uint64 `json:"tick"`
	Seq       int    `json:"seq"`
	Kind      string `json:"kind"`
	CX        int    `json:"cx"`
	CY        int    `json:"cy"`
	Residents int    `json:"residents"`
}

// queryChunkEvents returns the latest chunk transitions, optionally for one chunk.
func queryChunkEvents(db *sql.DB, chunk *[2]int, limit int) ([]chunkEventRow, error) {
	q := `SELECT tick,seq,kind,cx,cy,residents FROM chunk_events ORDER BY tick DESC, seq DESC LIMIT ?`
	args := []any{limit}
	if chunk != nil {
		q = `SELECT tick,seq,kind,cx,cy,residents FROM chunk_events WHERE cx=? AND cy=? ORDER BY tick DESC, seq DESC LIMIT ?`
		args = []any{chunk[0], chunk[1], limit}
	}
	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []chunkEventRow
	for rows.Next() {
		var r chunkEventRow
		if err := rows.Scan(&r.Tick, &r.Seq, &r.Kind, &r.CX, &r.CY, &r.Residents); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func parseChunk(s string) ([2]int, error) {
	var c [2]int
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return c, fmt.Errorf("want cx,cy: %q", s)
	}
	for i, p := range parts {
		if _, err := fmt.Sscanf(strings.TrimSpace(p), "%d", &c[i]); err != nil {
			return c, fmt.Errorf("bad int %q: %w", p, err)
		}
	}
	return c, nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
