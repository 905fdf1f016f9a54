package internal

// TileHeaderWord is the little-endian 64-bit word found at byte offset 40 of
// every graph tile. It packs three 21-bit counts plus a spare bit, lowest
// bits first. Accessors use explicit shifts and masks so the layout does not
// depend on any compiler's bit field packing rules.
type TileHeaderWord uint64

const tileCountMask = 1<<21 - 1

// DecodeTileHeaderWord interprets the first 8 bytes of b as a counts word.
// b must hold at least TileHeaderWordSize bytes.
func DecodeTileHeaderWord(b []byte) TileHeaderWord {
	return TileHeaderWord(le.Uint64(b))
}

func (w TileHeaderWord) NodeCount() uint32            { return uint32(w & tileCountMask) }
func (w TileHeaderWord) DirectedEdgeCount() uint32    { return uint32(w >> 21 & tileCountMask) }
func (w TileHeaderWord) PredictedSpeedsCount() uint32 { return uint32(w >> 42 & tileCountMask) }

// TrafficTileSize returns the byte size of the zero-filled traffic skeleton
// for a tile with the given directed edge count.
func TrafficTileSize(directedEdges uint32) int64 {
	return TrafficTileHeaderSize + TrafficSpeedEntrySize*int64(directedEdges)
}
