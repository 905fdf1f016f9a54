package tilex

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heyvito/tilex/errors"
	"github.com/heyvito/tilex/internal"
)

// makeTileBytes builds a minimal graph tile: an opaque 40-byte prefix
// followed by the counts word carrying the given directed edge count, padded
// to size.
func makeTileBytes(t *testing.T, directedEdges uint32, size int) []byte {
	t.Helper()
	require.GreaterOrEqual(t, size, internal.GraphTileSkipBytes+internal.TileHeaderWordSize)
	b := make([]byte, size)
	binary.LittleEndian.PutUint64(b[internal.GraphTileSkipBytes:], uint64(directedEdges)<<21)
	return b
}

func TestBuildTrafficSkeleton(t *testing.T) {
	conf := makeConfig(t, true)
	writeTile(t, conf.TileDir, "0/001.gph", makeTileBytes(t, 5, 48))
	writeTile(t, conf.TileDir, "0/002.gph", makeTileBytes(t, 0, 64))

	b, err := New(conf)
	require.NoError(t, err)
	require.NoError(t, b.Build())
	require.NoError(t, b.Close())

	primary := readTarEntries(t, conf.ExtractPath)
	traffic := readTarEntries(t, conf.TrafficPath)
	require.Len(t, traffic, 3)

	// The sidecar's index is byte-identical to the primary's: its offsets
	// intentionally keep pointing into the primary extract.
	assert.Equal(t, "index.bin", traffic[0].name)
	assert.Equal(t, primary[0].data, traffic[0].data)

	assert.Equal(t, "0/001.gph", traffic[1].name)
	assert.Len(t, traffic[1].data, 32+5*8)
	assert.Equal(t, "0/002.gph", traffic[2].name)
	assert.Len(t, traffic[2].data, 32)

	for _, entry := range traffic[1:] {
		assert.Equal(t, bytes.Repeat([]byte{0}, len(entry.data)), entry.data)
	}
}

func TestBuildTrafficSkeletonTruncatedTile(t *testing.T) {
	conf := makeConfig(t, true)
	writeTile(t, conf.TileDir, "0/001.gph", make([]byte, 47))

	b, err := New(conf)
	require.NoError(t, err)
	defer func() { _ = b.Close() }()

	err = b.Build()
	var decode errors.HeaderDecodeError
	require.ErrorAs(t, err, &decode)
	assert.Equal(t, "0/001.gph", decode.Member)
}

func TestBuildWithoutTrafficLeavesNoSidecar(t *testing.T) {
	conf := makeConfig(t, false)
	conf.TrafficPath = conf.ExtractPath + ".traffic"
	writeTile(t, conf.TileDir, "0/001.gph", makeTileBytes(t, 5, 48))

	b, err := New(conf)
	require.NoError(t, err)
	require.NoError(t, b.Build())
	require.NoError(t, b.Close())

	assert.NoFileExists(t, conf.TrafficPath)
}
