package archive

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"

	"github.com/nagater/rpmkit/internal/command"
	"github.com/nagater/rpmkit/internal/git"
)

// Compression selects the codec applied to the source tarball.
type Compression string

const (
	Bzip2 Compression = "bz2"
	Gzip  Compression = "gz"
	XZ    Compression = "xz"
)

// ParseCompression validates a user-supplied compression name.
func ParseCompression(s string) (Compression, error) {
	switch Compression(s) {
	case Bzip2, Gzip, XZ:
		return Compression(s), nil
	}
	return "", fmt.Errorf("unsupported compression %q (want bz2, gz, or xz)", s)
}

// Ext returns the archive file extension, e.g. "tar.bz2".
func (c Compression) Ext() string {
	return "tar." + string(c)
}

// NewWriter wraps w in a compressing writer for the codec. The returned
// writer must be closed to flush the final block.
func (c Compression) NewWriter(w io.Writer) (io.WriteCloser, error) {
	switch c {
	case Bzip2:
		return bzip2.NewWriter(w, &bzip2.WriterConfig{Level: bzip2.BestCompression})
	case Gzip:
		return gzip.NewWriter(w), nil
	case XZ:
		return xz.NewWriter(w)
	}
	return nil, fmt.Errorf("unsupported compression %q", string(c))
}

// Create exports a snapshot of the repository at dir to dest, with
// every entry placed under prefix, compressed in a single pass while
// the tar stream is produced.
func Create(ctx context.Context, runner command.Runner, dir, prefix, dest string, c Compression) error {
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create source archive: %w", err)
	}
	defer f.Close()

	zw, err := c.NewWriter(f)
	if err != nil {
		return err
	}

	if err := git.Archive(ctx, runner, dir, prefix, zw); err != nil {
		zw.Close()
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("compress source archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write source archive: %w", err)
	}
	return nil
}
