// Package wire frames memo entries for provider-backed stores.
//
// A frame carries the store epoch observed at write time plus a found/miss
// flag, so readers can reject entries written before the last Clear and
// negative results survive round-trips without a payload.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version   byte = 1
	kindFound byte = 1
	kindMiss  byte = 2
)

var (
	ErrCorrupt = errors.New("wire: corrupt memo entry")
	magic4     = [...]byte{'M', 'E', 'M', 'O'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Memo frame: magic(4) | ver(1) | kind(1) | epoch(u64 be) | vlen(u32 be) | payload(vlen)
// A miss frame carries an empty payload.
func EncodeMemo(epoch uint64, found bool, payload []byte) []byte {
	kind := kindFound
	if !found {
		kind = kindMiss
		payload = nil
	}

	var buf bytes.Buffer
	buf.Grow(4 + 1 + 1 + 8 + 4 + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kind)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], epoch)
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

// DecodeMemo validates framing strictly: bad magic, unknown version or kind,
// short buffers and trailing bytes all yield ErrCorrupt.
func DecodeMemo(b []byte) (epoch uint64, found bool, payload []byte, err error) {
	const hdr = 4 + 1 + 1 + 8 + 4
	if len(b) < hdr || !hasMagic(b) || b[4] != version {
		return 0, false, nil, ErrCorrupt
	}
	switch b[5] {
	case kindFound:
		found = true
	case kindMiss:
		found = false
	default:
		return 0, false, nil, ErrCorrupt
	}

	off := 6

	epoch = binary.BigEndian.Uint64(b[off : off+8])
	off += 8

	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen != len(b)-off { // strict: no trailing bytes
		return 0, false, nil, ErrCorrupt
	}
	if !found && vlen != 0 {
		return 0, false, nil, ErrCorrupt
	}

	return epoch, found, b[off : off+vlen], nil
}
