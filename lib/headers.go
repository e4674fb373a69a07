package svn

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// Headers is an RFC-822 style collection of header lines that preserves
// insertion order so records can be re-emitted the way they arrived.
type Headers struct {
	m *linkedhashmap.Map
}

// headerSep separates a header key from its value on the wire.
const headerSep = ": "

// NewHeaders returns an empty header table.
func NewHeaders() *Headers {
	return &Headers{m: linkedhashmap.New()}
}

// ParseHeaderLine splits one header line into key and value.
func ParseHeaderLine(line string) (key, value string, err error) {
	sep := strings.Index(line, headerSep)
	if sep == -1 {
		return "", "", fmt.Errorf("%w: malformed header line: %q", ErrFormat, line)
	}
	return line[:sep], line[sep+len(headerSep):], nil
}

func (h *Headers) Has(key string) bool {
	_, ok := h.m.Get(key)
	return ok
}

// Get returns the value for key, if present.
func (h *Headers) Get(key string) (string, bool) {
	value, ok := h.m.Get(key)
	if !ok {
		return "", false
	}
	return value.(string), true
}

// GetDefault returns the value for key, or def when absent.
func (h *Headers) GetDefault(key, def string) string {
	if value, ok := h.Get(key); ok {
		return value
	}
	return def
}

// Int parses the value for key as an integer. Absence is reported
// distinctly from a malformed value; both wrap ErrFormat.
func (h *Headers) Int(key string) (int, error) {
	value, ok := h.Get(key)
	if !ok {
		return 0, fmt.Errorf("%w: missing required header: %s", ErrFormat, key)
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: header %s: %s", ErrFormat, key, value)
	}
	return n, nil
}

// IntDefault parses the value for key as an integer, returning def when the
// header is absent.
func (h *Headers) IntDefault(key string, def int) (int, error) {
	if !h.Has(key) {
		return def, nil
	}
	return h.Int(key)
}

// Set stores a value for key. An existing key keeps its position in the
// emission order; a new key is appended.
func (h *Headers) Set(key, value string) {
	h.m.Put(key, value)
}

// SetInt stores an integer value for key.
func (h *Headers) SetInt(key string, value int) {
	h.Set(key, strconv.Itoa(value))
}

// Remove deletes a header if it exists.
func (h *Headers) Remove(key string) {
	h.m.Remove(key)
}

func (h *Headers) Len() int {
	return h.m.Size()
}

// Each calls fn for every header in emission order.
func (h *Headers) Each(fn func(key, value string)) {
	for _, key := range h.m.Keys() {
		value, _ := h.m.Get(key)
		fn(key.(string), value.(string))
	}
}

// Bytes renders the header block, without the terminating blank line.
func (h *Headers) Bytes() []byte {
	buffer := make([]byte, 0, h.m.Size()*80)
	h.Each(func(key, value string) {
		buffer = append(buffer, key...)
		buffer = append(buffer, headerSep...)
		buffer = append(buffer, value...)
		buffer = append(buffer, '\n')
	})
	return buffer
}
