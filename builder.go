// Package tilex builds a random-access tar extract from a directory tree of
// graph tiles. The first member of the extract is a fixed-width index
// mapping each tile's graph id to the byte offset and size of its data
// within that same tar, which lets consumers serve tiles straight from the
// extract without unpacking it.
//
// The index must be the first member, yet its contents depend on where the
// tar layout places every tile. The builder therefore works in passes: it
// writes the extract with a correctly-sized zero placeholder, reopens it to
// recover the physical offset of every member, and finally patches the
// placeholder's byte range in place. The extract is never resized after the
// first pass.
package tilex

import (
	"archive/tar"
	errs "errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-stdlog/stdlog"
	"github.com/heyvito/gommap"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/heyvito/tilex/errors"
	"github.com/heyvito/tilex/internal"
	"github.com/heyvito/tilex/internal/flock"
	"github.com/heyvito/tilex/internal/metrics"
)

type Builder interface {
	// Build runs every pass: tile discovery, the reservation pass writing
	// the extract with a placeholder index, offset recovery, the in-place
	// index patch and, when enabled, the traffic skeleton sidecar. Any
	// failure is final; partially written outputs are left on disk.
	Build() error

	// Close releases the lock on the extract output. The builder cannot be
	// reused afterwards.
	Close() error
}

func New(config Config) (Builder, error) {
	if config.TileDir == "" {
		return nil, fmt.Errorf("cannot initialize builder without TileDir")
	}
	if config.ExtractPath == "" {
		return nil, fmt.Errorf("cannot initialize builder without ExtractPath")
	}
	if config.Traffic && config.TrafficPath == "" {
		return nil, fmt.Errorf("cannot build a traffic skeleton without TrafficPath")
	}

	b := &builder{
		config: &config,
		log:    config.GetLogger(),
	}
	if err := b.initializeLock(); err != nil {
		return nil, err
	}
	return b, nil
}

type builder struct {
	config *Config
	log    stdlog.Logger
	flock  *flock.Flock

	table   internal.IndexTable
	tiles   []internal.TarMember
	index   []byte
	started time.Time
}

// initializeLock claims exclusive ownership of the extract output for the
// duration of the run. Holding the flock already rules out a live holder,
// so a pid found in the lock file normally belongs to a dead process; it is
// still checked against the process table before being overwritten.
func (b *builder) initializeLock() error {
	lk, err := flock.New(b.config.ExtractPath + ".lock")
	if err != nil {
		return err
	}

	if err = lk.Lock(); err != nil {
		if errs.Is(err, flock.ErrCannotLock) {
			pid, ok, readErr := lk.ReadPID()
			_ = lk.Close()
			if readErr == nil && ok {
				return errors.ExtractLockedError{PID: pid}
			}
		} else {
			_ = lk.Close()
		}
		return err
	}

	pid, ok, err := lk.ReadPID()
	if err != nil {
		err = fmt.Errorf("failed reading lock file: %w", err)
		if closeErr := lk.Close(); closeErr != nil {
			return errs.Join(err, closeErr)
		}
		return err
	}
	if ok && pid != os.Getpid() {
		if proc, procErr := process.NewProcess(int32(pid)); procErr == nil {
			if running, runErr := proc.IsRunning(); runErr == nil && running {
				_ = lk.Close()
				return errors.ExtractLockedError{PID: pid}
			}
		} else if !errs.Is(procErr, process.ErrorProcessNotRunning) {
			err = fmt.Errorf("failed querying pid %d: %w", pid, procErr)
			if closeErr := lk.Close(); closeErr != nil {
				return errs.Join(err, closeErr)
			}
			return err
		}
	}

	if err = lk.WritePID(os.Getpid()); err != nil {
		err = fmt.Errorf("failed writing current pid to lock file: %w", err)
		if closeErr := lk.Close(); closeErr != nil {
			return errs.Join(err, closeErr)
		}
		return err
	}

	b.flock = lk
	return nil
}

func (b *builder) Close() error {
	if b.flock == nil {
		return nil
	}
	err := b.flock.Remove()
	b.flock = nil
	return err
}

func (b *builder) Build() error {
	b.started = time.Now()

	count, err := b.discoverTiles()
	if err != nil {
		return err
	}
	metrics.Simple(metrics.BuilderTilesDiscovered, float64(count))

	reserved := b.table.Reserve(count)
	b.log.Info("Packing tiles",
		"tiles", count,
		"indexSize", reserved,
		"extract", b.config.ExtractPath,
	)

	donePack := metrics.Measure(metrics.BuilderPackTiming)
	if err = b.writeExtract(); err != nil {
		metrics.Simple(metrics.BuilderFailures, 0)
		return err
	}
	donePack()

	if err = b.recoverOffsets(); err != nil {
		metrics.Simple(metrics.BuilderFailures, 0)
		return err
	}
	if err = b.patchIndex(); err != nil {
		metrics.Simple(metrics.BuilderFailures, 0)
		return err
	}
	b.log.Info("Finished packing tiles",
		"tiles", b.table.Len(),
		"extract", b.config.ExtractPath,
		"elapsed", time.Since(b.started).String(),
	)

	if !b.config.GetTraffic() {
		return nil
	}

	b.log.Info("Building traffic skeleton", "traffic", b.config.TrafficPath)
	doneTraffic := metrics.Measure(metrics.BuilderTrafficTiming)
	if err = b.buildTrafficSkeleton(); err != nil {
		metrics.Simple(metrics.BuilderFailures, 0)
		return err
	}
	doneTraffic()
	b.log.Info("Finished traffic skeleton", "traffic", b.config.TrafficPath)
	return nil
}

func (b *builder) discoverTiles() (int, error) {
	stat, err := os.Stat(b.config.TileDir)
	if err != nil || !stat.IsDir() {
		return 0, errors.NoTilesFoundError{Dir: b.config.TileDir}
	}

	count := 0
	err = filepath.WalkDir(b.config.TileDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() && strings.HasSuffix(path, internal.TileExt) {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, errors.NoTilesFoundError{Dir: b.config.TileDir}
	}
	return count, nil
}

// writeExtract performs the reservation pass: a zero-filled index member of
// the reserved size, then every entry under the tile root in walk order.
func (b *builder) writeExtract() error {
	out, err := os.OpenFile(b.config.ExtractPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(out)

	now := time.Now().Truncate(time.Second)
	if err = tw.WriteHeader(&tar.Header{
		Name:     internal.IndexFileName,
		Typeflag: tar.TypeReg,
		Mode:     0644,
		Size:     int64(b.table.Reserved()),
		ModTime:  now,
		Format:   tar.FormatUSTAR,
	}); err != nil {
		_ = out.Close()
		return err
	}
	if _, err = tw.Write(b.table.Placeholder()); err != nil {
		_ = out.Close()
		return err
	}

	var packed int64
	err = filepath.WalkDir(b.config.TileDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(b.config.TileDir, path)
		if err != nil {
			return err
		}
		n, err := b.appendMember(tw, path, filepath.ToSlash(rel), d, now)
		packed += n
		return err
	})
	if err != nil {
		_ = tw.Close()
		_ = out.Close()
		return err
	}
	metrics.Simple(metrics.BuilderBytesPacked, float64(packed))

	if err = tw.Close(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func (b *builder) appendMember(tw *tar.Writer, path, name string, d fs.DirEntry, modTime time.Time) (int64, error) {
	info, err := d.Info()
	if err != nil {
		return 0, err
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return 0, err
	}
	hdr.Name = name
	// USTAR headers cannot carry sub-second timestamps, nor access or
	// change times at all; the writer rejects headers that set them.
	hdr.ModTime = modTime
	hdr.AccessTime = time.Time{}
	hdr.ChangeTime = time.Time{}
	hdr.Format = tar.FormatUSTAR
	if err = tw.WriteHeader(hdr); err != nil {
		return 0, err
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(tw, f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return n, err
}

// recoverOffsets reopens the freshly written extract and reads back the
// physical data offset and size of every tile member, in member order.
func (b *builder) recoverOffsets() error {
	f, err := os.Open(b.config.ExtractPath)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	members, err := internal.ScanTar(f)
	if err != nil {
		return err
	}

	for _, m := range members {
		if !strings.HasSuffix(m.Name, internal.TileExt) {
			continue
		}
		id, err := internal.GraphIDFromPath(m.Name)
		if err != nil {
			return err
		}
		// The index record stores the graph id in 32 bits; an id beyond that
		// would be silently truncated into the wrong tile.
		if id > math.MaxUint32 {
			return errors.MalformedPathError{
				Path:   m.Name,
				Reason: "graph id " + strconv.FormatUint(id, 10) + " does not fit the index tileId field",
			}
		}
		if b.config.Detailed() {
			b.log.Debug("Recovered tile",
				"name", m.Name,
				"offset", m.DataOffset,
				"size", m.Size,
				"graphID", id,
			)
		}
		b.table.Append(uint64(m.DataOffset), uint32(id), uint32(m.Size))
		b.tiles = append(b.tiles, m)
	}
	metrics.Simple(metrics.BuilderIndexEntries, float64(b.table.Len()))
	return nil
}

// patchIndex overwrites the placeholder index member with the populated
// table. The index is always the first member, so its payload starts right
// after the first tar header block. Only already-allocated bytes are
// touched; the extract keeps its exact size.
func (b *builder) patchIndex() error {
	blob, err := b.table.Serialize()
	if err != nil {
		return err
	}

	done := metrics.Measure(metrics.BuilderPatchTiming)
	f, err := os.OpenFile(b.config.ExtractPath, os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	mapped, err := gommap.Map(f.Fd(), gommap.PROT_READ|gommap.PROT_WRITE, gommap.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		return err
	}
	copy(mapped[internal.TarBlockSize:internal.TarBlockSize+len(blob)], blob)
	if err = mapped.Sync(gommap.MS_SYNC); err != nil {
		_ = mapped.UnsafeUnmap()
		_ = f.Close()
		return err
	}
	if err = mapped.UnsafeUnmap(); err != nil {
		_ = f.Close()
		return err
	}
	done()

	b.index = blob
	return f.Close()
}
