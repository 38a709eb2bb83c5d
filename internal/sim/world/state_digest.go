package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// stateDigest hashes everything a tick can change: the resident chunk set with
// chunk contents, and every entity's position, goal and health.
func (w *World) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, nowTick)
	digestWriteI64(h, &tmp, w.level.Seed())

	keys := w.level.LoadedKeys()
	digestWriteU64(h, &tmp, uint64(len(keys)))
	for _, k := range keys {
		digestWriteI64(h, &tmp, int64(k.X))
		digestWriteI64(h, &tmp, int64(k.Y))
		ch, _ := w.level.Loaded(k)
		d := ch.Digest()
		h.Write(d[:])
	}

	ents := w.entities.Sorted()
	digestWriteU64(h, &tmp, uint64(len(ents)))
	for _, e := range ents {
		digestWriteU64(h, &tmp, uint64(e.ID))
		digestWriteI64(h, &tmp, int64(e.Pos.X))
		digestWriteI64(h, &tmp, int64(e.Pos.Y))
		digestWriteU64(h, &tmp, uint64(e.Goal))
		digestWriteI64(h, &tmp, int64(e.Health))
	}
	return hex.EncodeToString(h.Sum(nil))
}

type hashWriter interface {
	Write(p []byte) (n int, err error)
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}
