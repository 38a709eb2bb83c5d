package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"tileworld.ai/internal/sim/scenario"
	"tileworld.ai/internal/sim/tuning"
	"tileworld.ai/internal/sim/world"
)

// replay either verifies a recorded tick log against a fresh world, or runs the
// demo population headless for a number of ticks.
func main() {
	var (
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		worldID    = flag.String("world", "world_1", "world id")
		eventsDir  = flag.String("events", "", "dir containing ticks-*.jsonl.zst (empty: run headless)")
		fromTick   = flag.Uint64("from_tick", 0, "start verifying from tick (inclusive, optional)")
		toTick     = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
		ticks      = flag.Int("ticks", 50, "headless: ticks to run")
		every      = flag.Int("print_every", 10, "headless: print the digest every N ticks")
		view       = flag.String("view", "", "print an ASCII view centered on the named entity at the end")
		cols       = flag.Int("cols", 64, "view width in tiles")
		rows       = flag.Int("rows", 24, "view height in tiles")
	)
	flag.Parse()

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintln(os.Stderr, "load tuning:", err)
			os.Exit(1)
		}
		tune = tuning.Defaults()
	}

	w, err := world.New(tune.WorldConfig(*worldID))
	if err != nil {
		fmt.Fprintln(os.Stderr, "world:", err)
		os.Exit(1)
	}

	if *eventsDir == "" {
		scenario.Demo(w)
		for i := 0; i < *ticks; i++ {
			tick, digest := w.Step()
			if *every > 0 && (int(tick)%*every == 0 || i == *ticks-1) {
				m := w.Metrics()
				fmt.Printf("tick=%d digest=%s loaded=%d archived=%d searches=%d moves=%d\n",
					tick, digest, m.LoadedChunks, m.ArchivedChunks, m.LastTick.Searches, m.LastTick.Moves)
			}
		}
	} else {
		files, err := listTickFiles(*eventsDir)
		if err != nil {
			fmt.Fprintln(os.Stderr, "list tick logs:", err)
			os.Exit(1)
		}
		if len(files) == 0 {
			fmt.Fprintln(os.Stderr, "no tick log files found in", *eventsDir)
			os.Exit(1)
		}
		var checked uint64
		for _, path := range files {
			if err := replayFile(w, path, *fromTick, *toTick, &checked); err != nil {
				fmt.Fprintln(os.Stderr, "replay:", err)
				os.Exit(1)
			}
			if *toTick != 0 && w.CurrentTick() > *toTick {
				break
			}
		}
		fmt.Printf("replay ok: checked=%d ticks (seed=%d)\n", checked, tune.Seed)
	}

	if name := strings.TrimSpace(*view); name != "" {
		e := findByName(w, name)
		if e == nil {
			fmt.Fprintln(os.Stderr, "no entity named", name)
			os.Exit(1)
		}
		fmt.Print(render(w, e.Pos, *cols, *rows))
	}
}

func findByName(w *world.World, name string) *world.Entity {
	for _, e := range w.Entities().Sorted() {
		if e.Name == name {
			return e
		}
	}
	return nil
}

func listTickFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "ticks-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	// Hour stamps sort lexically.
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

func replayFile(w *world.World, path string, verifyFrom, toTick uint64, checked *uint64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	for sc.Scan() {
		var entry world.TickLogEntry
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			return fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
		}
		if toTick != 0 && entry.Tick > toTick {
			return nil
		}
		if entry.Tick != w.CurrentTick() {
			return fmt.Errorf("tick mismatch: want=%d got=%d (file=%s)", w.CurrentTick(), entry.Tick, filepath.Base(path))
		}

		specs := make([]world.SpawnSpec, 0, len(entry.Spawns))
		for _, s := range entry.Spawns {
			specs = append(specs, s.Spec)
		}
		tick, gotDigest := w.StepOnce(specs, entry.Removed, entry.Damage...)
		if tick != entry.Tick {
			return fmt.Errorf("internal tick mismatch: stepped=%d entry=%d (file=%s)", tick, entry.Tick, filepath.Base(path))
		}
		if tick >= verifyFrom {
			*checked++
			if gotDigest != entry.Digest {
				return fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", tick, gotDigest, entry.Digest)
			}
		}
	}
	return sc.Err()
}
