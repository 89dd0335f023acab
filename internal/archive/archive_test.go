package archive

import (
	"bytes"
	stdbzip2 "compress/bzip2"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

type fakeRunner struct {
	calls  [][]string
	output []byte
	err    error
}

func (f *fakeRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.err
}

func (f *fakeRunner) Output(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.output, f.err
}

func (f *fakeRunner) Stream(ctx context.Context, w io.Writer, dir, name string, args ...string) error {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.err != nil {
		return f.err
	}
	_, err := w.Write(f.output)
	return err
}

func TestParseCompression(t *testing.T) {
	for _, valid := range []string{"bz2", "gz", "xz"} {
		c, err := ParseCompression(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, string(c))
	}

	_, err := ParseCompression("zip")
	require.Error(t, err)
}

func TestExt(t *testing.T) {
	assert.Equal(t, "tar.bz2", Bzip2.Ext())
	assert.Equal(t, "tar.gz", Gzip.Ext())
	assert.Equal(t, "tar.xz", XZ.Ext())
}

func decompress(t *testing.T, c Compression, data []byte) []byte {
	t.Helper()

	var r io.Reader
	var err error
	switch c {
	case Bzip2:
		r = stdbzip2.NewReader(bytes.NewReader(data))
	case Gzip:
		r, err = gzip.NewReader(bytes.NewReader(data))
		require.NoError(t, err)
	case XZ:
		r, err = xz.NewReader(bytes.NewReader(data))
		require.NoError(t, err)
	}

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return out
}

func TestCreateRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("tar stream contents "), 64)

	for _, c := range []Compression{Bzip2, Gzip, XZ} {
		t.Run(string(c), func(t *testing.T) {
			runner := &fakeRunner{output: payload}
			dest := filepath.Join(t.TempDir(), "pkg-1.0.0."+c.Ext())

			err := Create(context.Background(), runner, "", "pkg-1.0.0", dest, c)
			require.NoError(t, err)

			data, err := os.ReadFile(dest)
			require.NoError(t, err)
			assert.Equal(t, payload, decompress(t, c, data))

			require.Len(t, runner.calls, 1)
			assert.Equal(t,
				[]string{"git", "archive", "--format=tar", "--prefix=pkg-1.0.0/", "HEAD"},
				runner.calls[0])
		})
	}
}

func TestCreateGitFailure(t *testing.T) {
	runner := &fakeRunner{err: os.ErrPermission}
	dest := filepath.Join(t.TempDir(), "pkg-1.0.0.tar.bz2")

	err := Create(context.Background(), runner, "", "pkg-1.0.0", dest, Bzip2)
	require.Error(t, err)
}
