package svn

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
)

// RecordSource says where a record came from. Synthesized records are
// tracked so that action flattening can tell externals-generated additions
// apart from operations that were present in the input stream.
type RecordSource int

const (
	SourceDump RecordSource = iota
	SourceCopy
	SourceExternals
)

// Record is one headers-plus-content block of a dump stream: a preamble
// record (format version, UUID), a revision header, or a node record.
// Parsing is lossless; serialization recomputes the length and checksum
// headers from the in-memory content.
type Record struct {
	Headers *Headers
	Props   *Properties // nil when the record carries no property block
	Text    []byte      // nil when the record carries no text block
	Source  RecordSource
}

// NewNodeRecord builds a bare node record with the given identity headers.
func NewNodeRecord(path, action, kind string, source RecordSource) *Record {
	rec := &Record{Headers: NewHeaders(), Source: source}
	rec.Headers.Set(NodePathHeader, path)
	if kind != "" {
		rec.Headers.Set(NodeKindHeader, kind)
	}
	rec.Headers.Set(NodeActionHeader, action)
	return rec
}

// ReadRecord reads the next record from the reader, skipping blank lines
// between records. Returns io.EOF at a clean end of stream and ErrFormat
// if the stream ends mid-record.
func ReadRecord(r *DumpReader) (*Record, error) {
	rec := &Record{Headers: NewHeaders()}
	for {
		line, err := r.ReadLine()
		if err == io.EOF {
			if rec.Headers.Len() > 0 {
				return nil, fmt.Errorf("%w: end of stream while reading headers", ErrFormat)
			}
			return nil, io.EOF
		}
		if err != nil {
			return nil, err
		}
		if line == "" {
			if rec.Headers.Len() > 0 {
				break // blank line after headers ends them
			}
			continue // blank line before headers is ignored
		}
		key, value, err := ParseHeaderLine(line)
		if err != nil {
			return nil, err
		}
		rec.Headers.Set(key, value)
	}

	propLen, err := rec.Headers.IntDefault(PropContentLengthHeader, 0)
	if err != nil {
		return nil, err
	}
	if propLen > 0 {
		data, err := r.Read(propLen)
		if err != nil {
			return nil, fmt.Errorf("property block: %w", err)
		}
		if rec.Props, err = ParseProperties(data); err != nil {
			return nil, err
		}
	}
	if rec.Headers.Has(TextContentLengthHeader) {
		textLen, err := rec.Headers.Int(TextContentLengthHeader)
		if err != nil {
			return nil, err
		}
		data, err := r.Read(textLen)
		if err != nil {
			return nil, fmt.Errorf("text block: %w", err)
		}
		// Copy out so the record survives the reader's buffer.
		rec.Text = make([]byte, textLen)
		copy(rec.Text, data)
	}
	return rec, nil
}

// IsRevision reports whether the record is a revision header.
func (rec *Record) IsRevision() bool {
	return rec.Headers.Has(RevisionNumberHeader)
}

// IsNode reports whether the record is a node record.
func (rec *Record) IsNode() bool {
	return rec.Headers.Has(NodePathHeader)
}

func (rec *Record) Path() string {
	return rec.Headers.GetDefault(NodePathHeader, "")
}

func (rec *Record) Action() string {
	return rec.Headers.GetDefault(NodeActionHeader, "")
}

func (rec *Record) Kind() string {
	return rec.Headers.GetDefault(NodeKindHeader, "")
}

// CopyFrom returns the copy source of the record, if it has one.
func (rec *Record) CopyFrom() (path string, rev int, ok bool) {
	revStr, ok := rec.Headers.Get(NodeCopyfromRevHeader)
	if !ok {
		return "", 0, false
	}
	path, ok = rec.Headers.Get(NodeCopyfromPathHeader)
	if !ok {
		return "", 0, false
	}
	rev, err := strconv.Atoi(revStr)
	if err != nil {
		return "", 0, false
	}
	return path, rev, true
}

// DropCopyFrom removes the copy source and its associated checksums.
func (rec *Record) DropCopyFrom() {
	rec.Headers.Remove(NodeCopyfromRevHeader)
	rec.Headers.Remove(NodeCopyfromPathHeader)
	rec.Headers.Remove(TextCopySourceMD5Header)
	rec.Headers.Remove(TextCopySourceSHA1Header)
}

// fixHeaders recomputes the headers that depend on the content blocks:
// the three length headers and, for plain text, the MD5 checksum. SHA1
// checksums are dropped rather than recomputed when text is rewritten.
func (rec *Record) fixHeaders(propText []byte) {
	if len(propText) > 0 {
		rec.Headers.SetInt(PropContentLengthHeader, len(propText))
	} else {
		rec.Headers.Remove(PropContentLengthHeader)
	}
	if rec.Text == nil {
		rec.Headers.Remove(TextContentLengthHeader)
		rec.Headers.Remove(TextContentMD5Header)
		rec.Headers.Remove(TextContentSHA1Header)
		rec.Headers.Remove(TextDeltaHeader)
	} else {
		rec.Headers.SetInt(TextContentLengthHeader, len(rec.Text))
		// For Text-delta: true the checksum covers the full file, not
		// the delta, so it must never be computed from the delta.
		if !rec.Headers.Has(TextContentMD5Header) &&
			rec.Headers.GetDefault(TextDeltaHeader, "") != "true" {
			sum := md5.Sum(rec.Text)
			rec.Headers.Set(TextContentMD5Header, hex.EncodeToString(sum[:]))
		}
	}
	if len(propText) > 0 || rec.Text != nil {
		rec.Headers.SetInt(ContentLengthHeader, len(propText)+len(rec.Text))
	} else {
		rec.Headers.Remove(ContentLengthHeader)
	}
}

// Encode serializes the record, recomputing derived headers first.
func (rec *Record) Encode(enc *Encoder) {
	var propText []byte
	if rec.Props != nil {
		propText = rec.Props.Bytes()
	}
	rec.fixHeaders(propText)

	buffer := rec.Headers.Bytes()
	buffer = append(buffer, '\n')
	buffer = append(buffer, propText...)
	if rec.Text != nil {
		buffer = append(buffer, rec.Text...)
		buffer = append(buffer, '\n')
	}
	if rec.Headers.Has(PropContentLengthHeader) ||
		rec.Headers.Has(TextContentLengthHeader) ||
		rec.Headers.Has(ContentLengthHeader) {
		buffer = append(buffer, '\n')
	}
	enc.Write(buffer)
}

// DoesNotAffectExternals reports whether the record can be proven to leave
// the svn:externals property untouched. Property blocks that omit a
// property can silently delete it, so absence of svn:externals alone is
// not proof unless the action or Prop-delta header rules deletion out.
func (rec *Record) DoesNotAffectExternals() bool {
	switch {
	case rec.Action() == ActionDelete:
		// Deletes are recursive; any externals go away with the node.
		return true
	case rec.Kind() != KindDir:
		return true
	case rec.Props == nil:
		return true
	case rec.Props.Has(ExternalsProperty):
		return false
	case rec.Action() == ActionAdd:
		// Adds declare their properties explicitly.
		return true
	case rec.Headers.GetDefault(PropDeltaHeader, "") == "true":
		// Prop-delta blocks delete explicitly via "D" entries.
		return true
	default:
		return false
	}
}
