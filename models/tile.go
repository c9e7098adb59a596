package models

import (
	"encoding/json"
	"fmt"
)

// TileType identifies the category of a placed tile. It is stored as a
// single byte in board files.
type TileType uint8

// Tile types represented as bytes for compact storage
const (
	TileFloor TileType = iota
	TileWall
	TileDoor
	TileWater
	TileGrass
	TileTree
	TileStairsUp
	TileStairsDown
	TileSand
	TilePavement
	TileSnow
	TileLava
	TileAsh
	TileCactus
	TileIce

	// TileUnknown is what any unrecognized byte decodes to. Tiles built by
	// DecodeTile still remember the stored byte.
	TileUnknown TileType = 0xFF
)

var tileTypeNames = map[TileType]string{
	TileFloor:      "floor",
	TileWall:       "wall",
	TileDoor:       "door",
	TileWater:      "water",
	TileGrass:      "grass",
	TileTree:       "tree",
	TileStairsUp:   "stairs_up",
	TileStairsDown: "stairs_down",
	TileSand:       "sand",
	TilePavement:   "pavement",
	TileSnow:       "snow",
	TileLava:       "lava",
	TileAsh:        "ash",
	TileCactus:     "cactus",
	TileIce:        "ice",
	TileUnknown:    "unknown",
}

// TileTypeFromByte maps a stored byte to a tile type. Values outside the
// known set map to TileUnknown so that files written by newer editors
// still load.
func TileTypeFromByte(b byte) TileType {
	t := TileType(b)
	if t.Known() {
		return t
	}
	return TileUnknown
}

// Known reports whether t is one of the defined tile types, TileUnknown
// included.
func (t TileType) Known() bool {
	_, ok := tileTypeNames[t]
	return ok
}

func (t TileType) String() string {
	if name, ok := tileTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tile(%d)", uint8(t))
}

// ParseTileType is the inverse of String for the known tile types.
func ParseTileType(name string) (TileType, error) {
	for t, n := range tileTypeNames {
		if n == name {
			return t, nil
		}
	}
	return TileUnknown, fmt.Errorf("unknown tile type %q", name)
}

// MarshalJSON encodes the tile type by name.
func (t TileType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts either a name or a numeric byte value.
func (t *TileType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		parsed, err := ParseTileType(name)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	}
	var n uint8
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("tile type must be a name or a byte: %v", err)
	}
	*t = TileTypeFromByte(n)
	return nil
}

// Tile holds the category and physical properties of a placed tile.
type Tile struct {
	Type             TileType `json:"type"`
	MovementBlocking bool     `json:"movement_blocking"`
	VisionBlocking   bool     `json:"vision_blocking"`

	// code is the stored type byte of a TileUnknown tile, 0 if not
	// decoded from one.
	code byte
}

// DecodeTile builds a tile from its stored fields. An unrecognized type
// byte gives a TileUnknown tile whose TypeByte is still the stored byte.
func DecodeTile(typeByte byte, movementBlocking, visionBlocking bool) Tile {
	t := Tile{
		Type:             TileTypeFromByte(typeByte),
		MovementBlocking: movementBlocking,
		VisionBlocking:   visionBlocking,
	}
	if t.Type == TileUnknown && typeByte != byte(TileUnknown) {
		t.code = typeByte
	}
	return t
}

// TypeByte returns the byte stored for the tile type.
func (t Tile) TypeByte() byte {
	if t.Type == TileUnknown && t.code != 0 {
		return t.code
	}
	return byte(t.Type)
}

// NewTile returns a tile of the given type with its usual blocking flags.
func NewTile(t TileType) Tile {
	switch t {
	case TileWall, TileTree, TileCactus:
		return Tile{Type: t, MovementBlocking: true, VisionBlocking: true}
	case TileDoor:
		return Tile{Type: t, MovementBlocking: false, VisionBlocking: true}
	case TileWater, TileLava:
		return Tile{Type: t, MovementBlocking: true, VisionBlocking: false}
	default:
		return Tile{Type: t}
	}
}

// NewWall returns a blocking, opaque wall tile.
func NewWall() Tile {
	return NewTile(TileWall)
}
