package source

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/samber/oops"
	"github.com/ulikunitz/xz"
)

type compression int

const (
	cmpGzip compression = iota
	cmpZstd
	cmpXz
	cmpBzip2
	cmpNone
)

var cmpHeaders = [...][]byte{
	{0x1F, 0x8B, 0x08},                   // cmpGzip
	{0x28, 0xB5, 0x2F, 0xFD},             // cmpZstd
	{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}, // cmpXz
	{0x42, 0x5A, 0x68},                   // cmpBzip2
}

func (c compression) String() string {
	switch c {
	case cmpGzip:
		return "gzip"
	case cmpZstd:
		return "zstd"
	case cmpXz:
		return "xz"
	case cmpBzip2:
		return "bzip2"
	}
	return "none"
}

func detectCompression(b []byte) compression {
	for c, h := range cmpHeaders {
		if len(b) < len(h) {
			continue
		}
		if bytes.Equal(h, b[:len(h)]) {
			return compression(c)
		}
	}
	return cmpNone
}

// Decompress sniffs the magic bytes of r and returns a reader of the
// decompressed content. Uncompressed input is passed through.
func Decompress(r io.Reader) (io.ReadCloser, error) {
	eb := oops.In("source")

	br := bufio.NewReader(r)
	// Short inputs cannot carry a header and are passed through.
	b, _ := br.Peek(6)

	switch c := detectCompression(b); c {
	case cmpGzip:
		g, err := gzip.NewReader(br)
		if err != nil {
			return nil, eb.With("compression", c).Wrapf(err, "gzip reader error")
		}
		return g, nil
	case cmpZstd:
		z, err := zstd.NewReader(br)
		if err != nil {
			return nil, eb.With("compression", c).Wrapf(err, "zstd reader error")
		}
		return z.IOReadCloser(), nil
	case cmpXz:
		x, err := xz.NewReader(br)
		if err != nil {
			return nil, eb.With("compression", c).Wrapf(err, "xz reader error")
		}
		return io.NopCloser(x), nil
	case cmpBzip2:
		return io.NopCloser(bzip2.NewReader(br)), nil
	}
	return io.NopCloser(br), nil
}
