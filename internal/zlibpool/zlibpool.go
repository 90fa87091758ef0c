// Package zlibpool inflates and deflates zlib streams, reusing readers
// between calls.
package zlibpool

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"
)

// ErrLongOutput is returned when a stream holds more data than the caller
// expects.
var ErrLongOutput = errors.New("zlibpool: stream longer than expected")

var readers sync.Pool

func reader(r io.Reader) (io.ReadCloser, error) {
	if zr, ok := readers.Get().(io.ReadCloser); ok {
		if rs, ok := zr.(zlib.Resetter); ok && rs.Reset(r, nil) == nil {
			return zr, nil
		}
	}
	return zlib.NewReader(r)
}

// Into inflates src into dst, which the stream must fill exactly. It
// returns the number of input bytes left after the end of the stream.
func Into(dst, src []byte) (int, error) {
	br := bytes.NewReader(src)
	zr, err := reader(br)
	if err != nil {
		return 0, err
	}
	defer readers.Put(zr)

	if _, err := io.ReadFull(zr, dst); err != nil {
		return 0, err
	}
	var extra [1]byte
	n, err := zr.Read(extra[:])
	if n != 0 {
		return 0, fmt.Errorf("%w: more than %d bytes", ErrLongOutput, len(dst))
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, err
	}
	return br.Len(), nil
}

// Inflate returns the size bytes that src expands to.
func Inflate(src []byte, size int) ([]byte, error) {
	out := make([]byte, size)
	if _, err := Into(out, src); err != nil {
		return nil, err
	}
	return out, nil
}

// Deflate compresses src at the default level.
func Deflate(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(src); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
