package svn

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
)

// DumpReader is a cursor over a byte slice holding all or part of a dump
// stream. Content is treated as binary; only the helpers that deal with
// header lines assume text.
type DumpReader struct {
	buffer []byte
	length int
}

// NewDumpReader returns a DumpReader positioned at the start of source.
func NewDumpReader(source []byte) *DumpReader {
	return &DumpReader{buffer: source, length: len(source)}
}

// Close releases the reference to the underlying buffer.
func (r *DumpReader) Close() {
	r.buffer = nil
	r.length = -1
}

// Offset returns the position of the cursor relative to the beginning of
// the original slice. Used to label errors with a stream position.
func (r *DumpReader) Offset() int {
	return r.length - len(r.buffer)
}

// AtEOF returns true if there is no data left in the reader.
func (r *DumpReader) AtEOF() bool {
	return len(r.buffer) == 0
}

// Newline consumes a single newline character at the cursor. Returns true
// if a newline was consumed, otherwise false and the reader is unchanged.
func (r *DumpReader) Newline() bool {
	if len(r.buffer) > 0 && r.buffer[0] == '\n' {
		r.buffer = r.buffer[1:]
		return true
	}
	return false
}

// ReadLine consumes up to and including the next newline and returns the
// line without its terminator. Returns io.EOF at end of buffer and
// ErrFormat if the final line is unterminated.
func (r *DumpReader) ReadLine() (string, error) {
	if len(r.buffer) == 0 {
		return "", io.EOF
	}
	nl := bytes.IndexByte(r.buffer, '\n')
	if nl == -1 {
		return "", fmt.Errorf("%w: unterminated line at offset %d", ErrFormat, r.Offset())
	}
	var line []byte
	line, r.buffer = r.buffer[:nl], r.buffer[nl+1:]
	return string(line), nil
}

// LineAfter checks whether the cursor starts with prefix and, if so,
// consumes the whole line, returning the portion between the prefix and the
// newline. If the prefix does not match, the reader is left unchanged.
func (r *DumpReader) LineAfter(prefix string) (line string, ok bool) {
	if !bytes.HasPrefix(r.buffer, []byte(prefix)) {
		return "", false
	}
	rest := r.buffer[len(prefix):]
	nl := bytes.IndexByte(rest, '\n')
	if nl == -1 {
		line, r.buffer = string(rest), r.buffer[len(r.buffer):]
	} else {
		line, r.buffer = string(rest[:nl]), rest[nl+1:]
	}
	return line, true
}

// Read consumes exactly length bytes and returns a slice aliasing them.
// Fewer available bytes than declared is a format error.
func (r *DumpReader) Read(length int) ([]byte, error) {
	if length < 0 || length > len(r.buffer) {
		return nil, fmt.Errorf("%w: expected %d bytes at offset %d: %s",
			ErrFormat, length, r.Offset(), io.ErrUnexpectedEOF)
	}
	var data []byte
	data, r.buffer = r.buffer[:length], r.buffer[length:]
	return data, nil
}

// Peek returns up to length bytes at the cursor without consuming them.
func (r *DumpReader) Peek(length int) []byte {
	if length > len(r.buffer) {
		length = len(r.buffer)
	}
	return r.buffer[:length]
}

// ReadSized reads a length-prefixed value of the form
//
//	K 10<LF>
//	svn:ignore<LF>
//
// where prefix selects the record type (K: key, V: value, D: deletion).
func (r *DumpReader) ReadSized(prefix byte) ([]byte, error) {
	sizeStr, ok := r.LineAfter(string(prefix) + " ")
	if !ok {
		return nil, fmt.Errorf("%w: expected '%c' prefix at offset %d: %.32s",
			ErrFormat, prefix, r.Offset(), r.Peek(32))
	}
	size, err := strconv.Atoi(sizeStr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid '%c' size: %s", ErrFormat, prefix, sizeStr)
	}
	value, err := r.Read(size)
	if err != nil {
		return nil, err
	}
	if !r.Newline() {
		return nil, fmt.Errorf("%w: missing newline after sized %c data", ErrFormat, prefix)
	}
	return value, nil
}
