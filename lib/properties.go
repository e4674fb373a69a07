package svn

import (
	"fmt"
	"strconv"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// propValue is one entry of a property block. A deletion entry ("D" record,
// only legal in prop-delta blocks) carries no data.
type propValue struct {
	data    []byte
	deleted bool
}

// Properties is an insertion-ordered table of node or revision properties.
// The distinction between a nil *Properties (no property block at all) and
// an empty one (a block containing only PROPS-END) is significant on the
// wire and is preserved by the Record model.
type Properties struct {
	m *linkedhashmap.Map
}

// NewProperties returns an empty property table.
func NewProperties() *Properties {
	return &Properties{m: linkedhashmap.New()}
}

// ParseProperties parses a property block of the exact declared length,
// terminated by PROPS-END. Trailing bytes after the terminator are a
// format error.
func ParseProperties(data []byte) (*Properties, error) {
	props := NewProperties()
	r := NewDumpReader(data)
	for {
		if tail, ok := r.LineAfter(PropsEnd); ok && tail == "" {
			if !r.AtEOF() {
				return nil, fmt.Errorf("%w: %d trailing bytes after %s",
					ErrFormat, len(data)-r.Offset(), PropsEnd)
			}
			return props, nil
		} else if ok {
			return nil, fmt.Errorf("%w: malformed %s terminator", ErrFormat, PropsEnd)
		}
		next := r.Peek(1)
		switch {
		case len(next) > 0 && next[0] == 'K':
			key, err := r.ReadSized('K')
			if err != nil {
				return nil, err
			}
			value, err := r.ReadSized('V')
			if err != nil {
				return nil, err
			}
			if props.Has(string(key)) {
				return nil, fmt.Errorf("%w: duplicate property: %s", ErrFormat, key)
			}
			props.Set(string(key), value)
		case len(next) > 0 && next[0] == 'D':
			key, err := r.ReadSized('D')
			if err != nil {
				return nil, err
			}
			props.MarkDeleted(string(key))
		default:
			return nil, fmt.Errorf("%w: unrecognized record in property block: %.32s",
				ErrFormat, r.Peek(32))
		}
	}
}

// Get returns the value of a property. A deletion entry reports false.
func (p *Properties) Get(key string) ([]byte, bool) {
	value, ok := p.m.Get(key)
	if !ok {
		return nil, false
	}
	pv := value.(propValue)
	if pv.deleted {
		return nil, false
	}
	return pv.data, true
}

// Has reports whether key is present, either as a value or a deletion entry.
func (p *Properties) Has(key string) bool {
	_, ok := p.m.Get(key)
	return ok
}

// Set stores a property value.
func (p *Properties) Set(key string, value []byte) {
	p.m.Put(key, propValue{data: value})
}

// MarkDeleted records a prop-delta deletion entry for key.
func (p *Properties) MarkDeleted(key string) {
	p.m.Put(key, propValue{deleted: true})
}

// Remove drops a property entirely, whatever its form.
func (p *Properties) Remove(key string) {
	p.m.Remove(key)
}

func (p *Properties) Len() int {
	return p.m.Size()
}

// Each calls fn for every entry in order. deleted marks prop-delta
// deletion entries.
func (p *Properties) Each(fn func(key string, value []byte, deleted bool)) {
	for _, key := range p.m.Keys() {
		value, _ := p.m.Get(key)
		pv := value.(propValue)
		fn(key.(string), pv.data, pv.deleted)
	}
}

// Bytes renders the block in wire form, including the PROPS-END terminator.
func (p *Properties) Bytes() []byte {
	buffer := make([]byte, 0, p.m.Size()*64+len(PropsEnd)+1)
	p.Each(func(key string, value []byte, deleted bool) {
		if deleted {
			buffer = appendSized(buffer, 'D', []byte(key))
		} else {
			buffer = appendSized(buffer, 'K', []byte(key))
			buffer = appendSized(buffer, 'V', value)
		}
	})
	buffer = append(buffer, PropsEnd...)
	buffer = append(buffer, '\n')
	return buffer
}

func appendSized(buffer []byte, prefix byte, data []byte) []byte {
	buffer = append(buffer, prefix, ' ')
	buffer = append(buffer, strconv.Itoa(len(data))...)
	buffer = append(buffer, '\n')
	buffer = append(buffer, data...)
	buffer = append(buffer, '\n')
	return buffer
}

// Clone returns a deep copy of the table.
func (p *Properties) Clone() *Properties {
	out := NewProperties()
	p.Each(func(key string, value []byte, deleted bool) {
		if deleted {
			out.MarkDeleted(key)
		} else {
			data := make([]byte, len(value))
			copy(data, value)
			out.Set(key, data)
		}
	})
	return out
}
