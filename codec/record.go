package codec

import (
	"io"

	"github.com/dhackz/feather-of-despair/models"
)

// RecordStatus is the outcome of reading one wall record.
type RecordStatus int

const (
	// StatusRecord means a full record was read.
	StatusRecord RecordStatus = iota
	// StatusCleanEnd means the source failed before any byte of the record.
	// This is the normal end of the entity list.
	StatusCleanEnd
	// StatusTruncated means the source failed part way through a record.
	// The consumed bytes are lost.
	StatusTruncated
)

func (s RecordStatus) String() string {
	switch s {
	case StatusRecord:
		return "record"
	case StatusCleanEnd:
		return "clean end"
	case StatusTruncated:
		return "truncated"
	default:
		return "unknown"
	}
}

// RecordResult is returned by ReadWall.
type RecordResult struct {
	Status RecordStatus
	Entity models.Entity
	// N is the number of bytes consumed from the source.
	N int
	// Err is the read error that ended the list. It is io.EOF or
	// io.ErrUnexpectedEOF for a plain end of stream.
	Err error
}

// ReadWall reads one wall record. It never fails: a read error is reported
// through the result status so the caller decides whether a truncated
// record matters.
func ReadWall(r io.Reader) RecordResult {
	var buf [RecordSize]byte
	n, err := io.ReadFull(r, buf[:])
	switch {
	case err == nil:
		return RecordResult{Status: StatusRecord, Entity: decodeWall(buf[:]), N: n}
	case n == 0:
		return RecordResult{Status: StatusCleanEnd, Err: err}
	default:
		return RecordResult{Status: StatusTruncated, N: n, Err: err}
	}
}

func decodeWall(b []byte) models.Entity {
	return models.Entity{
		Position: models.Position{
			X: int32(le.Uint32(b[offX:])),
			Y: int32(le.Uint32(b[offY:])),
		},
		Tile: models.DecodeTile(
			b[offTileType],
			b[offMovementBlocking] != 0,
			b[offVisionBlocking] != 0,
		),
	}
}

func appendWall(dst []byte, e models.Entity) []byte {
	dst = le.AppendUint32(dst, uint32(e.Position.X))
	dst = le.AppendUint32(dst, uint32(e.Position.Y))
	return append(dst,
		boolByte(e.Tile.MovementBlocking),
		boolByte(e.Tile.VisionBlocking),
		e.Tile.TypeByte(),
	)
}

// WriteWall writes one wall record. A tile decoded from an unrecognized
// type byte is written with that same byte.
func WriteWall(w io.Writer, e models.Entity) error {
	var buf [RecordSize]byte
	return writeFull(w, appendWall(buf[:0], e))
}

// writeFull writes b and turns a silent short write into io.ErrShortWrite.
func writeFull(w io.Writer, b []byte) error {
	n, err := w.Write(b)
	if err != nil {
		return err
	}
	if n < len(b) {
		return io.ErrShortWrite
	}
	return nil
}
