package codec

import (
	"bytes"
	"io"

	"github.com/dhackz/feather-of-despair/models"
)

// Encoder writes boards to a byte sink.
type Encoder struct {
	w io.Writer
}

// NewEncoder creates an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder { return &Encoder{w: w} }

// Encode writes the header and one record per entity, in board order. It
// stops at the first failed write and returns it; the sink then holds an
// incomplete board file.
func (e *Encoder) Encode(board *models.Board) error {
	if board == nil {
		return &Error{Kind: ErrNilBoard, Record: -1}
	}

	var hdr [HeaderSize]byte
	le.PutUint32(hdr[0:], uint32(board.Size.Width))
	le.PutUint32(hdr[4:], uint32(board.Size.Height))
	le.PutUint32(hdr[8:], uint32(board.Scale))
	if err := writeFull(e.w, hdr[:]); err != nil {
		return &Error{Kind: ErrWrite, Record: -1, Err: err}
	}

	offset := int64(HeaderSize)
	for i, entity := range board.Entities {
		if err := WriteWall(e.w, entity); err != nil {
			return &Error{Kind: ErrWrite, Offset: offset, Record: i, Err: err}
		}
		offset += RecordSize
	}
	return nil
}

// Write encodes board to w.
func Write(board *models.Board, w io.Writer) error {
	return NewEncoder(w).Encode(board)
}

// EncodedSize returns the exact size of the encoding of board.
func EncodedSize(board *models.Board) int {
	return HeaderSize + RecordSize*len(board.Entities)
}

// Marshal returns the encoding of board.
func Marshal(board *models.Board) ([]byte, error) {
	if board == nil {
		return nil, &Error{Kind: ErrNilBoard, Record: -1}
	}
	var buf bytes.Buffer
	buf.Grow(EncodedSize(board))
	if err := Write(board, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
