package internal

import (
	"archive/tar"
	"errors"
	"io"
)

// TarMember describes one member of an extract, with the absolute byte
// offset at which its data starts inside the tar file.
type TarMember struct {
	Name       string
	DataOffset int64
	Size       int64
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// ScanTar lists every member of a tar stream in physical order. The reader
// must be positioned at the start of the archive. Offset recovery relies on
// the tar reader consuming exactly the header blocks on Next, which holds
// for the plain USTAR archives this package writes.
func ScanTar(r io.Reader) ([]TarMember, error) {
	cr := &countingReader{r: r}
	tr := tar.NewReader(cr)

	var members []TarMember
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return members, nil
		}
		if err != nil {
			return nil, err
		}
		members = append(members, TarMember{
			Name:       hdr.Name,
			DataOffset: cr.n,
			Size:       hdr.Size,
		})
	}
}
