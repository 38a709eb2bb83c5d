// Package encoding packs chunk sprite grids for the wire.
package encoding

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// EncodeSpritesRLE encodes packed sprite ids as base64 of uvarint
// (sprite, run) pairs. Chunks are mostly open ground, so runs are long.
func EncodeSpritesRLE(ids []uint16) string {
	buf := make([]byte, 0, 64)
	for i := 0; i < len(ids); {
		s := ids[i]
		j := i + 1
		for j < len(ids) && ids[j] == s {
			j++
		}
		buf = binary.AppendUvarint(buf, uint64(s))
		buf = binary.AppendUvarint(buf, uint64(j-i))
		i = j
	}
	return base64.StdEncoding.EncodeToString(buf)
}

// DecodeSpritesRLE reverses EncodeSpritesRLE and requires exactly n ids.
func DecodeSpritesRLE(b64 string, n int) ([]uint16, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	out := make([]uint16, 0, n)
	for i := 0; i < len(raw); {
		s, k := binary.Uvarint(raw[i:])
		if k <= 0 {
			return nil, fmt.Errorf("bad sprite varint at %d", i)
		}
		i += k
		run, k := binary.Uvarint(raw[i:])
		if k <= 0 {
			return nil, fmt.Errorf("bad run varint at %d", i)
		}
		i += k
		if s > 0xFFFF {
			return nil, fmt.Errorf("sprite id too large: %d", s)
		}
		if run == 0 || run > uint64(n-len(out)) {
			return nil, fmt.Errorf("run %d at offset %d overflows %d ids", run, len(out), n)
		}
		for r := uint64(0); r < run; r++ {
			out = append(out, uint16(s))
		}
	}
	if len(out) != n {
		return nil, fmt.Errorf("decoded %d ids, want %d", len(out), n)
	}
	return out, nil
}
