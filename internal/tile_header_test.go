package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func packCountsWord(nodes, edges, speeds uint64) []byte {
	b := make([]byte, TileHeaderWordSize)
	le.PutUint64(b, nodes|edges<<21|speeds<<42)
	return b
}

func TestDecodeTileHeaderWord(t *testing.T) {
	word := DecodeTileHeaderWord(packCountsWord(100, 5, 7))
	assert.Equal(t, uint32(100), word.NodeCount())
	assert.Equal(t, uint32(5), word.DirectedEdgeCount())
	assert.Equal(t, uint32(7), word.PredictedSpeedsCount())
}

func TestDecodeTileHeaderWordFieldIsolation(t *testing.T) {
	const max = 1<<21 - 1

	word := DecodeTileHeaderWord(packCountsWord(max, 0, max))
	assert.Equal(t, uint32(max), word.NodeCount())
	assert.Equal(t, uint32(0), word.DirectedEdgeCount())
	assert.Equal(t, uint32(max), word.PredictedSpeedsCount())

	// The spare bit must not leak into any count.
	b := packCountsWord(0, max, 0)
	b[7] |= 0x80
	word = DecodeTileHeaderWord(b)
	assert.Equal(t, uint32(0), word.NodeCount())
	assert.Equal(t, uint32(max), word.DirectedEdgeCount())
	assert.Equal(t, uint32(0), word.PredictedSpeedsCount())
}

func TestTrafficTileSize(t *testing.T) {
	assert.Equal(t, int64(32), TrafficTileSize(0))
	assert.Equal(t, int64(32+5*8), TrafficTileSize(5))
}
