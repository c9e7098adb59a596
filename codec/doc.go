// Package codec reads and writes board files.
//
// A board file is a 12 byte header followed by zero or more 11 byte wall
// records. All integers are little-endian.
//
//	header: int32 width | int32 height | int32 scale
//	record: int32 x | int32 y | uint8 movement_blocking | uint8 vision_blocking | uint8 tile_type
//
// There is no record count. The entity list ends at the first record that
// cannot be read in full, so a file of 12+11*N bytes holds exactly N
// entities. A trailing partial record is abandoned by Load and rejected by
// LoadStrict. A missing or short header is always an error.
package codec
