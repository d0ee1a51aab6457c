package export

import (
	"bytes"
	"io"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

// CompressionLevel is the deflate level used for every entry.
const CompressionLevel = 6

// archiveWriter builds a ZIP in memory.
type archiveWriter struct {
	buf      bytes.Buffer
	zw       *zip.Writer
	modified time.Time
}

func newArchiveWriter(modified time.Time) *archiveWriter {
	a := &archiveWriter{modified: modified}
	a.zw = zip.NewWriter(&a.buf)
	a.zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, CompressionLevel)
	})
	return a
}

func (a *archiveWriter) add(name string, data []byte) error {
	w, err := a.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: a.modified,
	})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func (a *archiveWriter) finish() ([]byte, error) {
	if err := a.zw.Close(); err != nil {
		return nil, err
	}
	return a.buf.Bytes(), nil
}
