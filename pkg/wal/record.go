// Package wal implements the append-only write-ahead log that is the single
// source of truth shared by every process attached to one storage root
// (§4.2). It owns durability (every write is flushed before the caller's put
// acknowledges) and cross-process synchronization (sync_from_shared_field
// replays records a peer process has not yet seen).
//
// Record framing is grounded on the teacher's pkg/storage/wal.go — the
// header/body split, the file-lock-only-across-the-header discipline, and
// the "log but continue" recovery style are all kept — but the payload
// framing is rebuilt as fixed-shape binary encodings (V0-V4) since the §4.2
// size table names specific byte counts no JSON line could hit.
package wal

import "fmt"

// Magic is the fixed header magic number ("WALE" packed big-endian).
const Magic uint32 = 0x57414C45

// Kind is the WAL record's mutation kind.
type Kind uint8

const (
	KindInsert Kind = iota
	KindUpdate
	KindDelete
	KindEdgeAdd
	KindEdgeRemove
)

func (k Kind) String() string {
	switch k {
	case KindInsert:
		return "Insert"
	case KindUpdate:
		return "Update"
	case KindDelete:
		return "Delete"
	case KindEdgeAdd:
		return "EdgeAdd"
	case KindEdgeRemove:
		return "EdgeRemove"
	default:
		return "Unknown"
	}
}

// Format selects the payload encoding (§4.2's fmt table).
type Format uint8

const (
	FormatFullNodeFloat32 Format = iota // V0
	FormatFullNodeInt8                  // V1
	FormatTouchDelta                    // V2
	FormatConfidenceDelta               // V3
	FormatEdgeDelta                     // V4
)

func (f Format) String() string {
	switch f {
	case FormatFullNodeFloat32:
		return "V0"
	case FormatFullNodeInt8:
		return "V1"
	case FormatTouchDelta:
		return "V2"
	case FormatConfidenceDelta:
		return "V3"
	case FormatEdgeDelta:
		return "V4"
	default:
		return "Vunknown"
	}
}

// headerSize is the on-disk size of a Header in bytes:
// magic(4) + seq(8) + ts_ms(8) + kind(1) + fmt(1) + len(4) + crc32(4).
const headerSize = 4 + 8 + 8 + 1 + 1 + 4 + 4

// Header is the fixed-size record header preceding every payload.
type Header struct {
	Magic  uint32
	Seq    uint64
	TsMs   int64
	Kind   Kind
	Format Format
	Len    uint32
	CRC32  uint32
}

// Record is a decoded WAL entry: header plus its raw payload bytes. Callers
// decode Payload further via DecodeFullNode / DecodeTouchDelta / etc.
// according to Format.
type Record struct {
	Header  Header
	Payload []byte
}

func (r Record) String() string {
	return fmt.Sprintf("Record{seq=%d kind=%s fmt=%s len=%d}", r.Header.Seq, r.Header.Kind, r.Header.Format, r.Header.Len)
}
