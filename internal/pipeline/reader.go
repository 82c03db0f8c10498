// Railpath - Rail Schedule Ingestion Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/railpath

package pipeline

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// gzipMagic is the two-byte gzip member header.
var gzipMagic = []byte{0x1f, 0x8b}

// readBufferSize is the bufio buffer; lines longer than this are
// assembled from several ReadLine fragments.
const readBufferSize = 64 * 1024

// ErrLineTooLong is reported for a line over the configured limit.
var ErrLineTooLong = errors.New("line exceeds maximum length")

// decompress returns r unchanged unless it starts with the gzip magic,
// in which case it returns a gzip reader over it. Peeking does not
// consume input.
func decompress(r io.Reader) (io.Reader, bool, error) {
	br := bufio.NewReaderSize(r, readBufferSize)
	head, err := br.Peek(len(gzipMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, false, fmt.Errorf("peek input: %w", err)
	}
	if !bytes.Equal(head, gzipMagic) {
		return br, false, nil
	}

	zr, err := gzip.NewReader(br)
	if err != nil {
		return nil, true, fmt.Errorf("open gzip stream: %w", err)
	}
	return zr, true, nil
}

// lineReader yields one line at a time without its terminator. Memory
// is bounded by maxBytes per line regardless of input size.
type lineReader struct {
	br       *bufio.Reader
	maxBytes int
	buf      []byte
}

func newLineReader(r io.Reader, maxBytes int) *lineReader {
	return &lineReader{
		br:       bufio.NewReaderSize(r, readBufferSize),
		maxBytes: maxBytes,
	}
}

// next returns the next line. A line over maxBytes is discarded to its
// end and reported as ErrLineTooLong; reading can continue after it.
// At end of input it returns io.EOF. The returned slice is only valid
// until the next call.
func (l *lineReader) next() ([]byte, error) {
	l.buf = l.buf[:0]
	tooLong := false

	for {
		frag, isPrefix, err := l.br.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && (len(l.buf) > 0 || tooLong) {
				// Final line without a terminator was partially read.
				break
			}
			return nil, err
		}
		if !tooLong {
			if len(l.buf)+len(frag) > l.maxBytes {
				tooLong = true
				l.buf = l.buf[:0]
			} else {
				l.buf = append(l.buf, frag...)
			}
		}
		if !isPrefix {
			break
		}
	}

	if tooLong {
		return nil, ErrLineTooLong
	}
	return bytes.TrimSuffix(l.buf, []byte{'\r'}), nil
}
