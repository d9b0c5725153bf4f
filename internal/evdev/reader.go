package evdev

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
)

// EventSource is the part of Device a Reader needs. Kept narrow so
// tests can drive a reader from an in-memory source.
type EventSource interface {
	Read(buf []byte) (int, error)
	Close() error
}

// Reader runs a blocking read loop over one device and invokes the
// callback for every decoded event. The callback runs on the reader's
// own goroutine and must be safe to call concurrently with callbacks
// from other readers.
type Reader struct {
	src     EventSource
	fn      func(Event)
	done    chan struct{}
	stopped atomic.Bool
	once    sync.Once
}

// NewReader starts a reader over src. Events are delivered to fn until
// the source fails or Stop is called.
func NewReader(src EventSource, fn func(Event)) *Reader {
	r := &Reader{
		src:  src,
		fn:   fn,
		done: make(chan struct{}),
	}
	go r.loop()
	return r
}

func (r *Reader) loop() {
	defer close(r.done)

	buf := make([]byte, EventSize*64)
	pending := 0

	for {
		n, err := r.src.Read(buf[pending:])
		if err != nil {
			if r.stopped.Load() || errors.Is(err, io.EOF) {
				return
			}
			// Device yanked or read error: the reader is done either
			// way, remaining devices keep capturing.
			return
		}

		pending += n
		consumed := 0
		for pending-consumed >= EventSize {
			ev := UnmarshalEvent(buf[consumed : consumed+EventSize])
			consumed += EventSize
			r.fn(ev)
		}
		// Carry over a partial event, if the kernel split one across
		// reads.
		copy(buf, buf[consumed:pending])
		pending -= consumed
	}
}

// Stop closes the underlying source and waits for the loop to exit.
// Idempotent.
func (r *Reader) Stop() {
	r.once.Do(func() {
		r.stopped.Store(true)
		r.src.Close()
	})
	<-r.done
}
