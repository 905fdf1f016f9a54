package internal

import (
	"archive/tar"
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestTar(t *testing.T, files map[string][]byte, order []string) []byte {
	t.Helper()

	buf := &bytes.Buffer{}
	tw := tar.NewWriter(buf)
	for _, name := range order {
		err := tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0644,
			Size:     int64(len(files[name])),
			ModTime:  time.Now().Truncate(time.Second),
			Format:   tar.FormatUSTAR,
		})
		require.NoError(t, err)
		_, err = tw.Write(files[name])
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func TestScanTar(t *testing.T) {
	files := map[string][]byte{
		"index.bin": make([]byte, 32),
		"0/001.gph": []byte("0123456789"),
	}
	raw := writeTestTar(t, files, []string{"index.bin", "0/001.gph"})

	members, err := ScanTar(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Len(t, members, 2)

	// index.bin occupies the first data block; its 32 bytes pad to a full
	// block, so the next header sits at 1024 and its data at 1536.
	assert.Equal(t, TarMember{Name: "index.bin", DataOffset: 512, Size: 32}, members[0])
	assert.Equal(t, TarMember{Name: "0/001.gph", DataOffset: 1536, Size: 10}, members[1])

	for _, m := range members {
		assert.Equal(t, files[m.Name], raw[m.DataOffset:m.DataOffset+m.Size])
	}
}

func TestScanTarEmpty(t *testing.T) {
	raw := writeTestTar(t, nil, nil)
	members, err := ScanTar(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Empty(t, members)
}
