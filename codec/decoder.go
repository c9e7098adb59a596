package codec

import (
	"bytes"
	"io"

	"github.com/dhackz/feather-of-despair/models"
)

// Decoder reads a board from a byte source.
type Decoder struct {
	r io.Reader
	// Strict makes a partial trailing record an error instead of the end
	// of the entity list.
	Strict bool

	offset    int64
	abandoned int
}

// NewDecoder creates a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder { return &Decoder{r: r} }

// Abandoned returns the number of bytes of a partial trailing record that
// the last Decode dropped. It is zero after a clean read.
func (d *Decoder) Abandoned() int { return d.abandoned }

// Offset returns the number of bytes consumed so far.
func (d *Decoder) Offset() int64 { return d.offset }

// Decode reads the header and then wall records until the source runs out.
func (d *Decoder) Decode() (*models.Board, error) {
	d.abandoned = 0

	var hdr [HeaderSize]byte
	start := d.offset
	n, err := io.ReadFull(d.r, hdr[:])
	d.offset += int64(n)
	if err != nil {
		return nil, &Error{
			Kind:   ErrHeaderRead,
			Offset: start,
			Field:  headerFieldAt(n),
			Record: -1,
			Err:    err,
		}
	}

	board := models.NewBoard(
		int32(le.Uint32(hdr[0:])),
		int32(le.Uint32(hdr[4:])),
		int32(le.Uint32(hdr[8:])),
	)

	for {
		res := ReadWall(d.r)
		start := d.offset
		d.offset += int64(res.N)
		switch res.Status {
		case StatusRecord:
			board.Entities = append(board.Entities, res.Entity)
			continue
		case StatusTruncated:
			if d.Strict {
				return nil, &Error{
					Kind:   ErrTruncatedRecord,
					Offset: start,
					Field:  fieldAt(res.N),
					Record: len(board.Entities),
					Err:    res.Err,
				}
			}
			d.abandoned = res.N
		}
		return board, nil
	}
}

// Load reads a board. A partial trailing record is dropped without error;
// only a missing or short header fails.
func Load(r io.Reader) (*models.Board, error) {
	return NewDecoder(r).Decode()
}

// LoadStrict reads a board and fails with ErrTruncatedRecord when the
// stream ends inside a record.
func LoadStrict(r io.Reader) (*models.Board, error) {
	d := NewDecoder(r)
	d.Strict = true
	return d.Decode()
}

// Unmarshal decodes a board held in memory, strictly.
func Unmarshal(data []byte) (*models.Board, error) {
	return LoadStrict(bytes.NewReader(data))
}
