package main

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// decompress wraps r in a gzip or zstd reader when its first bytes carry the
// matching magic number. The returned close func releases the decoder only.
func decompress(r io.Reader) (io.Reader, func(), error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(zstdMagic))

	switch {
	case bytes.HasPrefix(head, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip: %w", err)
		}
		return zr, func() { _ = zr.Close() }, nil
	case bytes.HasPrefix(head, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd: %w", err)
		}
		return zr, zr.Close, nil
	default:
		return br, func() {}, nil
	}
}

// readPoints parses numeric CSV rows. With header set the first record is
// skipped. Empty lines are ignored; every other field must parse as a float.
func readPoints(r io.Reader, header bool) ([][]float64, error) {
	src, closeFn, err := decompress(r)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var data [][]float64
	for line := 0; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
		if header && line == 0 {
			continue
		}
		row := make([]float64, len(rec))
		for j, field := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("record %d field %d: %w", line+1, j+1, err)
			}
			row[j] = v
		}
		data = append(data, row)
	}
	return data, nil
}

// openInput returns stdin for "" or "-", otherwise the named file.
func openInput(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

// createOutput returns stdout for "" or "-", otherwise a new file, compressed
// when the name ends in .gz or .zst. The close func flushes and closes every
// layer and must be called.
func createOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}

	switch {
	case strings.HasSuffix(path, ".gz"):
		zw := gzip.NewWriter(f)
		return zw, func() error { return closeBoth(zw, f) }, nil
	case strings.HasSuffix(path, ".zst"):
		zw, err := zstd.NewWriter(f)
		if err != nil {
			_ = f.Close()
			return nil, nil, fmt.Errorf("zstd: %w", err)
		}
		return zw, func() error { return closeBoth(zw, f) }, nil
	default:
		return f, f.Close, nil
	}
}

func closeBoth(inner, outer io.Closer) error {
	if err := inner.Close(); err != nil {
		_ = outer.Close()
		return err
	}
	return outer.Close()
}

// writeEmbedding writes one CSV record per embedded point.
func writeEmbedding(w io.Writer, emb [][]float64) error {
	cw := csv.NewWriter(w)
	rec := make([]string, 0, 3)
	for _, row := range emb {
		rec = rec[:0]
		for _, v := range row {
			rec = append(rec, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
