package flow

import (
	"bytes"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

const (
	encodingGzip    = "gzip"
	encodingDeflate = "deflate"
	encodingZstd    = "zstd"
)

// NormalizeEncoding normalizes a Content-Encoding value. The second result
// reports whether it names a single encoding that Decompress understands.
// Stacked encodings such as "gzip, br" are not supported.
func NormalizeEncoding(encoding string) (string, bool) {
	encoding = strings.TrimSpace(strings.ToLower(encoding))
	if strings.Contains(encoding, ",") {
		return "", false
	}

	switch encoding {
	case encodingGzip, "x-gzip":
		return encodingGzip, true
	case encodingDeflate:
		return encodingDeflate, true
	case encodingZstd:
		return encodingZstd, true
	default:
		return encoding, false
	}
}

// Decompress decodes data according to a Content-Encoding value. It returns
// the decoded bytes and true on success; on unknown encodings or corrupt
// input the original data is returned with false.
func Decompress(data []byte, encoding string) ([]byte, bool) {
	normalized, ok := NormalizeEncoding(encoding)
	if !ok || len(data) == 0 {
		return data, false
	}

	var (
		decoded []byte
		err     error
	)
	switch normalized {
	case encodingGzip:
		decoded, err = gunzip(data)
	case encodingDeflate:
		// raw DEFLATE and zlib-wrapped streams are both sent as "deflate"
		decoded, err = inflate(data)
		if err != nil {
			decoded, err = unzlib(data)
		}
	case encodingZstd:
		decoded, err = unzstd(data)
	}
	if err != nil {
		return data, false
	}
	return decoded, true
}

// Decode replaces an encoded body with its decoded form and drops the
// Content-Encoding and Content-Length headers that no longer describe it.
// It reports whether the body changed.
func (f *Flow) Decode() bool {
	encoding, ok := f.HeaderValue("Content-Encoding")
	if !ok {
		return false
	}

	decoded, ok := Decompress(f.Body, encoding)
	if !ok {
		return false
	}

	f.Body = decoded
	f.DeleteHeader("Content-Encoding")
	f.DeleteHeader("Content-Length")
	return true
}

func gunzip(data []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = gr.Close() }()
	return io.ReadAll(gr)
}

func inflate(data []byte) ([]byte, error) {
	fr := flate.NewReader(bytes.NewReader(data))
	defer func() { _ = fr.Close() }()
	return io.ReadAll(fr)
}

func unzlib(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = zr.Close() }()
	return io.ReadAll(zr)
}

func unzstd(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}
