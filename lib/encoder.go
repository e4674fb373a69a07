package svn

import (
	"io"
)

// Encoder serializes dump output through a writer goroutine so that record
// assembly and disk writes overlap. Writes are batched into a scratch
// buffer before hitting the underlying writer.
type Encoder struct {
	sink chan []byte
	done chan error
}

// NewEncoder starts an encoder writing to w. Call Close to flush and
// collect any write error.
func NewEncoder(w io.Writer) *Encoder {
	e := &Encoder{
		sink: make(chan []byte, 8),
		done: make(chan error, 1),
	}
	go func() {
		e.done <- bufferedWriter(w, e.sink)
	}()
	return e
}

// bufferedWriter drains sink until it is closed, even after a write error:
// producers must never block on a dead writer. The first error is returned
// once the channel closes and everything after it is discarded.
func bufferedWriter(w io.Writer, sink <-chan []byte) error {
	// 4kb scratch buffer so small records batch into fewer writes.
	buffer := make([]byte, 0, 4*1024)

	var firstErr error
	flush := func(data []byte) {
		if firstErr != nil || len(data) == 0 {
			return
		}
		if _, err := w.Write(data); err != nil {
			firstErr = err
		}
	}

	for data := range sink {
		if firstErr != nil {
			continue
		}
		if len(buffer) > 0 && len(buffer)+len(data) >= cap(buffer) {
			flush(buffer)
			buffer = buffer[:0]
		}
		if len(data) < cap(buffer) {
			buffer = append(buffer, data...)
			continue
		}
		flush(data)
	}
	flush(buffer)
	return firstErr
}

// Write queues data for output. The encoder takes ownership of the slice.
func (e *Encoder) Write(data []byte) {
	e.sink <- data
}

// Close signals the end of output, waits for the writer to drain, and
// returns the first write error if any occurred. Everything queued before
// a failing write is flushed; nothing after it is.
func (e *Encoder) Close() error {
	close(e.sink)
	return <-e.done
}
