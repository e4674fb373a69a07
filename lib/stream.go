package svn

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// Revision is one commit: its header record (revision number plus revision
// properties) and the node records that follow it.
type Revision struct {
	Number int
	Header *Record
	Nodes  []*Record
}

// DumpStream reads a dump a revision at a time. The preamble records
// (format version and UUID) are parsed eagerly; revisions are consumed
// lazily through NextRevision so content blocks stay transient.
type DumpStream struct {
	Preamble []*Record

	reader     *DumpReader
	format     int
	lookahead  *Record // next revision header, nil at end of stream
	lastNumber int
	started    bool
}

// checkValidSource tests that the input looks like an svnadmin dump and was
// not mangled by CRLF console translation, which silently breaks every
// declared byte count.
func checkValidSource(source []byte) error {
	if !bytes.HasPrefix(source, []byte(VersionStringHeader+":")) {
		return fmt.Errorf("%w: missing %s header, not an svnadmin dump?",
			ErrFormat, VersionStringHeader)
	}
	lf := bytes.IndexByte(source[:min(len(source), len(VersionStringHeader)*2)], '\n')
	if lf < len(VersionStringHeader) {
		return fmt.Errorf("%w: unrecognized dump preamble", ErrFormat)
	}
	if bytes.IndexByte(source[:lf], '\r') != -1 {
		return fmt.Errorf("%w: windows line endings detected, use 'svnadmin dump -F FILE' rather than redirecting output", ErrFormat)
	}
	return nil
}

// NewDumpStream parses the preamble of source and positions the stream at
// its first revision.
func NewDumpStream(source []byte) (*DumpStream, error) {
	if err := checkValidSource(source); err != nil {
		return nil, err
	}
	ds := &DumpStream{reader: NewDumpReader(source)}
	for {
		rec, err := ReadRecord(ds.reader)
		if err == io.EOF {
			return ds, nil // a dump with zero revisions is legal
		}
		if err != nil {
			return nil, err
		}
		if rec.IsRevision() {
			ds.lookahead = rec
			return ds, nil
		}
		if ds.format == 0 {
			if ds.format, err = rec.Headers.Int(VersionStringHeader); err != nil {
				return nil, err
			}
		}
		ds.Preamble = append(ds.Preamble, rec)
	}
}

// Format returns the dump format version from the preamble.
func (ds *DumpStream) Format() int {
	return ds.format
}

// Close releases the underlying reader.
func (ds *DumpStream) Close() {
	ds.reader.Close()
}

// NextRevision returns the next revision in input order, or io.EOF once
// the stream is exhausted. Revision numbers must be strictly increasing;
// every record between revision headers must be a node record.
func (ds *DumpStream) NextRevision() (*Revision, error) {
	if ds.lookahead == nil {
		return nil, io.EOF
	}
	rev := &Revision{Header: ds.lookahead}
	ds.lookahead = nil

	var err error
	if rev.Number, err = rev.Header.Headers.Int(RevisionNumberHeader); err != nil {
		return nil, err
	}
	if ds.started && rev.Number <= ds.lastNumber {
		return nil, fmt.Errorf("%w: revision r%d follows r%d",
			ErrFormat, rev.Number, ds.lastNumber)
	}
	ds.started = true
	ds.lastNumber = rev.Number

	for {
		rec, err := ReadRecord(ds.reader)
		if errors.Is(err, io.EOF) {
			return rev, nil
		}
		if err != nil {
			return nil, fmt.Errorf("r%d: %w", rev.Number, err)
		}
		if rec.IsRevision() {
			ds.lookahead = rec
			return rev, nil
		}
		if !rec.IsNode() || rec.Action() == "" {
			return nil, fmt.Errorf("%w: r%d: record missing %s or %s header",
				ErrFormat, rev.Number, NodePathHeader, NodeActionHeader)
		}
		rev.Nodes = append(rev.Nodes, rec)
	}
}
