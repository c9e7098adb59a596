package codec

import "encoding/binary"

const (
	// HeaderSize is the size of the board header in bytes.
	HeaderSize = 12
	// RecordSize is the size of one wall record in bytes.
	RecordSize = 11
)

var le = binary.LittleEndian

// Field offsets within a record.
const (
	offX                = 0
	offY                = 4
	offMovementBlocking = 8
	offVisionBlocking   = 9
	offTileType         = 10
)

var recordFields = [...]struct {
	name string
	end  int
}{
	{"x", offY},
	{"y", offMovementBlocking},
	{"movement_blocking", offVisionBlocking},
	{"vision_blocking", offTileType},
	{"tile_type", RecordSize},
}

// fieldAt names the record field a read that stopped after n bytes was
// in the middle of.
func fieldAt(n int) string {
	for _, f := range recordFields {
		if n < f.end {
			return f.name
		}
	}
	return ""
}

// Header fields, in file order.
var headerFields = [...]string{"width", "height", "scale"}

func headerFieldAt(n int) string {
	if i := n / 4; i < len(headerFields) {
		return headerFields[i]
	}
	return ""
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}
