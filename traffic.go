package tilex

import (
	"archive/tar"
	"io"
	"os"
	"time"

	"github.com/heyvito/gommap"

	"github.com/heyvito/tilex/errors"
	"github.com/heyvito/tilex/internal"
	"github.com/heyvito/tilex/internal/metrics"
)

// buildTrafficSkeleton derives the traffic sidecar from the finished
// extract: the same index member first (its offsets keep pointing into the
// primary extract), then one zero-filled member per tile, sized from the
// directed edge count in the tile's header word.
func (b *builder) buildTrafficSkeleton() error {
	in, err := os.Open(b.config.ExtractPath)
	if err != nil {
		return err
	}
	mapped, err := gommap.Map(in.Fd(), gommap.PROT_READ, gommap.MAP_SHARED)
	if err != nil {
		_ = in.Close()
		return err
	}

	out, err := os.OpenFile(b.config.TrafficPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		_ = in.Close()
		return err
	}

	tw := tar.NewWriter(out)
	err = b.writeTrafficMembers(tw, mapped)
	if err == nil {
		err = tw.Close()
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if unmapErr := mapped.UnsafeUnmap(); err == nil {
		err = unmapErr
	}
	if closeErr := in.Close(); err == nil {
		err = closeErr
	}
	return err
}

func (b *builder) writeTrafficMembers(tw *tar.Writer, extract gommap.MMap) error {
	now := time.Now().Truncate(time.Second)
	if err := tw.WriteHeader(&tar.Header{
		Name:     internal.IndexFileName,
		Typeflag: tar.TypeReg,
		Mode:     0644,
		Size:     int64(len(b.index)),
		ModTime:  now,
		Format:   tar.FormatUSTAR,
	}); err != nil {
		return err
	}
	if _, err := tw.Write(b.index); err != nil {
		return err
	}

	var total int64
	for _, m := range b.tiles {
		wordStart := m.DataOffset + internal.GraphTileSkipBytes
		wordEnd := wordStart + internal.TileHeaderWordSize
		if m.Size < internal.GraphTileSkipBytes+internal.TileHeaderWordSize || wordEnd > int64(len(extract)) {
			return errors.HeaderDecodeError{Member: m.Name}
		}
		word := internal.DecodeTileHeaderWord(extract[wordStart:wordEnd])
		size := internal.TrafficTileSize(word.DirectedEdgeCount())

		if b.config.Detailed() {
			b.log.Debug("Sizing traffic tile",
				"name", m.Name,
				"directedEdges", word.DirectedEdgeCount(),
				"size", size,
			)
		}

		if err := tw.WriteHeader(&tar.Header{
			Name:     m.Name,
			Typeflag: tar.TypeReg,
			Mode:     0644,
			Size:     size,
			ModTime:  now,
			Format:   tar.FormatUSTAR,
		}); err != nil {
			return err
		}
		if _, err := io.CopyN(tw, zeroReader{}, size); err != nil {
			return err
		}
		total += size
	}
	metrics.Simple(metrics.BuilderTrafficBytes, float64(total))
	return nil
}

// zeroReader yields an endless stream of zero bytes.
type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}
