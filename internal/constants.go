package internal

import "encoding/binary"

var le = binary.LittleEndian

// The index always occupies the first member of an extract, so its payload
// starts right after the first tar header block.
const (
	TileExt       = ".gph"
	IndexFileName = "index.bin"

	TarBlockSize = 512
)

// Graph tile layout. The first 40 bytes of a tile are opaque to the packer;
// the 8 bytes that follow carry the bit-packed counts word.
const (
	GraphTileSkipBytes = 40
	TileHeaderWordSize = 8

	// A traffic tile is a fixed header (2x uint64 + 4x uint32) followed by
	// one uint64 speed slot per directed edge.
	TrafficTileHeaderSize = 32
	TrafficSpeedEntrySize = 8
)

var indexRecordOffsets = struct {
	Offset uint8
	TileID uint8
	Size   uint8
}{
	Offset: 0,
	TileID: 8,
	Size:   12,
}
